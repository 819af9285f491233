package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/zzyra-io/zzyra-sei-sub011/pkg/authz"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/cmd"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/events"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/log"
)

func main() {
	command := &cli.Command{
		Name:                  "zzyra-api",
		EnableShellCompletion: true,
		Usage:                 "Start the workflow management API server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   8080,
				Sources: cli.EnvVars("PORT"),
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
				Name:    "redis-addr",
				Usage:   "Redis address for the session key cache (disabled when empty)",
				Value:   "",
				Sources: cli.EnvVars("REDIS_ADDR"),
			},
			&cli.StringFlag{
				Name:    "redis-password",
				Usage:   "Redis password for the session key cache",
				Value:   "",
				Sources: cli.EnvVars("REDIS_PASSWORD"),
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

			logger := log.WithModule("zzyra-api")

			logger.InfoContext(ctx, "Initializing Zzyra API")

			registry := cmd.NewRegistry(logger)

			jobBus := cmd.NewEventBus(command.String("event-bus"), events.ExecutionJobTopic, "zzyra-api", logger)
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

			var authzCache *authz.Cache

			if addr := command.String("redis-addr"); addr != "" {
				var err error

				authzCache, err = authz.NewCache(ctx, logger, addr, command.String("redis-password"), 0)
				if err != nil {
					return err
				}

				defer func() {
					err := authzCache.Close()
					if err != nil {
						logger.ErrorContext(ctx, "Failed to close authz cache", "error", err)
					}
				}()
			}

			api := NewAPI(logger, persistence, registry, jobBus, authzCache)

			return api.Start(command.Int("port"))
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
