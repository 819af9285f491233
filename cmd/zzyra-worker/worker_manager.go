package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"go.opentelemetry.io/otel/trace"

	"github.com/zzyra-io/zzyra-sei-sub011/pkg/engine"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/eventbus"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/events"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/graph"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/persistence"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/registry"
)

// WorkerManager consumes execution jobs and drives them through the run
// controller. Jobs are delivered at least once; terminal executions
// short-circuit inside the runner, so redelivery is harmless.
type WorkerManager struct {
	id           string
	logger       *slog.Logger
	persistence  persistence.Persistence
	registry     *registry.Registry
	jobBus       eventbus.EventBus
	lifecycleBus eventbus.EventBus
	runner       *engine.Runner
}

func NewWorkerManager(
	id string,
	persistence persistence.Persistence,
	jobBus eventbus.EventBus,
	lifecycleBus eventbus.EventBus,
	logger *slog.Logger,
	registry *registry.Registry,
	tracer trace.Tracer,
) *WorkerManager {
	return &WorkerManager{
		id:           id,
		logger:       logger.With("module", "zzyra-worker", "worker_id", id),
		persistence:  persistence,
		registry:     registry,
		jobBus:       jobBus,
		lifecycleBus: lifecycleBus,
		runner:       engine.NewRunner(logger, persistence, registry, lifecycleBus, tracer, id),
	}
}

func (w *WorkerManager) Start(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Starting worker manager")

	err := w.jobBus.Handle(events.ExecutionRequestedEvent, w.handleExecutionRequested)
	if err != nil {
		return err
	}

	err = w.jobBus.Subscribe(ctx)
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to subscribe to job queue", "error", err)

		return err
	}

	w.logger.InfoContext(ctx, "Worker started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	w.logger.InfoContext(ctx, "Shutting down worker...")

	return nil
}

// handleExecutionRequested runs one job. Returning nil acks the message;
// returning an error nacks it for redelivery. Only infrastructure errors
// nack: a failed run is terminal and durably recorded, so redelivering it
// would be wasted work, and a paused run stays parked until an explicit
// resume enqueues a fresh job.
func (w *WorkerManager) handleExecutionRequested(ctx context.Context, event any) error {
	job, ok := event.(*events.ExecutionRequested)
	if !ok {
		w.logger.ErrorContext(ctx, "Invalid event type for ExecutionRequested")

		return nil
	}

	logger := w.logger.With(
		"execution_id", job.ExecutionID,
		"workflow_id", job.WorkflowID,
		"attempt", job.Attempt,
	)
	logger.InfoContext(ctx, "Processing execution job")

	_, err := w.runner.Run(ctx, job.ExecutionID)
	if err == nil {
		return nil
	}

	if errors.Is(err, engine.ErrExecutionPaused) {
		logger.InfoContext(ctx, "Execution paused, awaiting resume")

		return nil
	}

	var handlerErr *engine.HandlerError

	var dispatchErr *engine.DispatchError

	if errors.As(err, &handlerErr) || errors.As(err, &dispatchErr) || graph.IsGraphError(err) {
		logger.ErrorContext(ctx, "Execution failed terminally", "error", err)

		return nil
	}

	logger.ErrorContext(ctx, "Execution hit infrastructure error, nacking for redelivery", "error", err)

	return err
}
