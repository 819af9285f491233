package main

import (
	"context"
	"os"
	"time"

	cli "github.com/urfave/cli/v3"

	"github.com/zzyra-io/zzyra-sei-sub011/pkg/cmd"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/events"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/log"
)

func main() {
	command := &cli.Command{
		Name:                  "zzyra-scheduler",
		EnableShellCompletion: true,
		Usage:                 "Poll cron schedules and enqueue due workflow executions",
		Flags: []cli.Flag{
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
			&cli.DurationFlag{
				Name:    "poll-interval",
				Usage:   "How often to poll for due schedules",
				Value:   time.Minute,
				Sources: cli.EnvVars("POLL_INTERVAL"),
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

			logger := log.WithModule("zzyra-scheduler")

			logger.InfoContext(ctx, "Initializing Zzyra Scheduler")

			jobBus := cmd.NewEventBus(command.String("event-bus"), events.ExecutionJobTopic, "zzyra-scheduler", logger)
			defer func() {
				err := jobBus.Close()
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close job bus", "error", err)
				}
			}()

			persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			defer func() {
				err := persistence.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			dispatcher := NewDispatcher(logger, persistence, jobBus, command.Duration("poll-interval"))

			return dispatcher.Start(ctx)
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
