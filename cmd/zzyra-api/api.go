// Package main provides the Zzyra API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/zzyra-io/zzyra-sei-sub011/pkg/authz"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/eventbus"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/persistence"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/registry"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	jobBus      eventbus.EventBus
	authzCache  *authz.Cache
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	registry *registry.Registry,
	jobBus eventbus.EventBus,
	authzCache *authz.Cache,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		registry:    registry,
		jobBus:      jobBus,
		authzCache:  authzCache,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.logger, a.persistence, a.validate, a.registry, a.jobBus, a.authzCache)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Zzyra API")
	})

	w := app.Group("/workflows")
	w.Get("/", handlers.GetWorkflows)
	w.Post("/", handlers.CreateWorkflow)
	w.Get("/:id", handlers.GetWorkflow)
	w.Delete("/:id", handlers.DeleteWorkflow)
	w.Post("/:id/validate", handlers.ValidateWorkflow)
	w.Post("/:id/executions", handlers.CreateExecution)
	w.Post("/:id/schedules", handlers.CreateSchedule)

	e := app.Group("/executions")
	e.Get("/:id", handlers.GetExecution)
	e.Get("/:id/nodes", handlers.GetNodeExecutions)
	e.Get("/:id/logs", handlers.GetExecutionLogs)
	e.Post("/:id/pause", handlers.PauseExecution)
	e.Post("/:id/resume", handlers.ResumeExecution)

	app.Get("/blocks", handlers.GetBlockTypes)
	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}
