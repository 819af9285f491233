package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/zzyra-io/zzyra-sei-sub011/pkg/eventbus"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/events"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/models"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/persistence"
)

// Dispatcher is a centralized schedule poller: one ticker queries the
// database for all due schedules and enqueues an execution for each,
// regardless of their individual cron expressions. NextDueAt is advanced
// only after the job is published, so a crash between poll and publish
// re-fires the schedule instead of dropping it.
type Dispatcher struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	jobBus      eventbus.EventPublisher
	interval    time.Duration
}

func NewDispatcher(
	logger *slog.Logger,
	persistence persistence.Persistence,
	jobBus eventbus.EventPublisher,
	interval time.Duration,
) *Dispatcher {
	return &Dispatcher{
		logger:      logger.With("module", "zzyra-scheduler"),
		persistence: persistence,
		jobBus:      jobBus,
		interval:    interval,
	}
}

func (d *Dispatcher) Start(ctx context.Context) error {
	d.logger.InfoContext(ctx, "Starting schedule dispatcher", "interval", d.interval)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-sigChan:
			d.logger.InfoContext(ctx, "Shutting down schedule dispatcher...")

			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			d.processDueSchedules(ctx)
		}
	}
}

func (d *Dispatcher) processDueSchedules(ctx context.Context) {
	now := time.Now().UTC()

	dueSchedules, err := d.persistence.DueSchedules(ctx, now)
	if err != nil {
		d.logger.ErrorContext(ctx, "Failed to get due schedules", "error", err)

		return
	}

	if len(dueSchedules) > 0 {
		d.logger.InfoContext(ctx, "Processing due schedules", "count", len(dueSchedules))
	}

	for _, schedule := range dueSchedules {
		logger := d.logger.With(
			"schedule_id", schedule.ID,
			"workflow_id", schedule.WorkflowID,
			"cron_expression", schedule.CronExpression,
		)

		if err := d.enqueue(ctx, schedule); err != nil {
			logger.ErrorContext(ctx, "Failed to enqueue scheduled execution", "error", err)

			continue
		}

		if err := schedule.UpdateNextDueAt(); err != nil {
			logger.ErrorContext(ctx, "Failed to update next due at", "error", err)

			continue
		}

		if err := d.persistence.SaveSchedule(ctx, schedule); err != nil {
			logger.ErrorContext(ctx, "Failed to save schedule", "error", err)

			continue
		}

		logger.InfoContext(ctx, "Schedule dispatched", "next_due_at", schedule.NextDueAt)
	}
}

// enqueue creates a pending execution for the schedule's workflow and
// publishes the job. Unpublished workflows deactivate their schedules
// instead of erroring forever.
func (d *Dispatcher) enqueue(ctx context.Context, schedule *models.Schedule) error {
	workflow, err := d.persistence.WorkflowByID(ctx, schedule.WorkflowID)
	if err != nil {
		if persistence.IsWorkflowNotFound(err) {
			d.logger.WarnContext(ctx, "Workflow gone, deactivating schedule",
				"schedule_id", schedule.ID, "workflow_id", schedule.WorkflowID)
			schedule.Active = false

			return d.persistence.SaveSchedule(ctx, schedule)
		}

		return err
	}

	if workflow.Status != models.WorkflowStatusPublished {
		d.logger.WarnContext(ctx, "Workflow not published, deactivating schedule",
			"schedule_id", schedule.ID, "workflow_status", workflow.Status)
		schedule.Active = false

		return d.persistence.SaveSchedule(ctx, schedule)
	}

	triggerData := map[string]any{
		"schedule_id":     schedule.ID,
		"cron_expression": schedule.CronExpression,
		"due_at":          schedule.NextDueAt.Format(time.RFC3339),
	}

	execution := &models.WorkflowExecution{
		ID:          uuid.New().String(),
		WorkflowID:  workflow.ID,
		UserID:      workflow.Owner,
		Status:      models.ExecutionStatusPending,
		TriggerData: triggerData,
	}

	if err := d.persistence.SaveExecution(ctx, execution); err != nil {
		return err
	}

	job := events.ExecutionRequested{
		BaseEvent:   events.NewBaseEvent(events.ExecutionRequestedEvent, workflow.ID),
		ExecutionID: execution.ID,
		UserID:      execution.UserID,
		TriggerData: triggerData,
		Attempt:     1,
	}

	return d.jobBus.Publish(ctx, workflow.ID, job)
}
