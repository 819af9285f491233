package main

import (
	"context"
	"os"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"

	"github.com/zzyra-io/zzyra-sei-sub011/pkg/cmd"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/events"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/log"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/otelhelper"
)

func main() {
	command := &cli.Command{
		Name:                  "zzyra-worker",
		EnableShellCompletion: true,
		Usage:                 "Start workers to execute workflow runs from the job queue",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "worker-id",
				Aliases: []string{"id"},
				Usage:   "Custom worker ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("WORKER_ID"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (kafka, gochannel)",
				Value:   "kafka",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log format (text, json)",
				Value:   "text",
				Sources: cli.EnvVars("LOG_FORMAT"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"), command.String("log-format"))

			workerID := command.String("worker-id")
			if workerID == "" {
				workerID = "worker-" + uuid.New().String()[:8]
			}

			logger := log.WithModule("zzyra-worker").With("worker_id", workerID)

			logger.InfoContext(ctx, "Initializing Zzyra Worker")

			tracer, err := otelhelper.NewTracer(ctx, "zzyra-worker")
			if err != nil {
				logger.ErrorContext(ctx, "Failed to initialize tracer, continuing without tracing", "error", err)
			}

			registry := cmd.NewRegistry(logger)

			jobBus := cmd.NewEventBus(command.String("event-bus"), events.ExecutionJobTopic, "zzyra-worker", logger)
			defer func() {
				err := jobBus.Close()
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close job bus", "error", err)
				}
			}()

			lifecycleBus := cmd.NewEventBus(command.String("event-bus"), events.LifecycleTopic, "zzyra-worker-events", logger)
			defer func() {
				err := lifecycleBus.Close()
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close lifecycle bus", "error", err)
				}
			}()

			persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			defer func() {
				err := persistence.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			worker := NewWorkerManager(
				workerID,
				persistence,
				jobBus,
				lifecycleBus,
				logger,
				registry,
				tracer,
			)

			err = worker.Start(ctx)
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start worker", "error", err)
			}

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
