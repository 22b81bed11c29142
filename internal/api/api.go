package api

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/mkarlsen/datapilot/internal/metrics"
	"github.com/mkarlsen/datapilot/internal/taskstore"
	"github.com/mkarlsen/datapilot/internal/tools"
)

// Runner answers free-form prompts. A nil Runner disables the /agent routes.
type Runner interface {
	Run(ctx context.Context, prompt string) (string, error)
	Model() string
}

// API serves the tool catalogue and the agent over HTTP.
type API struct {
	registry *tools.Registry
	agent    Runner
	store    *taskstore.Store
	metrics  *metrics.Collector
	logger   *slog.Logger
	validate *validator.Validate
	version  string
}

// New creates the API over an already-built tool registry.
func New(
	registry *tools.Registry,
	agent Runner,
	store *taskstore.Store,
	collector *metrics.Collector,
	logger *slog.Logger,
	version string,
) *API {
	return &API{
		registry: registry,
		agent:    agent,
		store:    store,
		metrics:  collector,
		logger:   logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		version:  version,
	}
}

// App builds the Fiber application with all routes registered.
func (a *API) App() *fiber.App {
	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Datapilot API")
	})

	ag := app.Group("/agent")
	ag.Post("/run", a.handleAgentRun)
	ag.Get("/status/:id", a.handleAgentStatus)

	tl := app.Group("/tools")
	tl.Get("/list", a.handleListTools)
	tl.Get("/list/:category", a.handleListCategory)
	tl.Post("/:category/:name", a.handleCallTool)
	tl.Get("/:category/:name/info", a.handleToolInfo)

	app.Get("/health", a.handleHealth)
	app.Get("/metrics", a.handleMetrics)

	return app
}

// Start builds the app and listens on host:port. Blocks until shutdown.
// An empty host binds all interfaces.
func (a *API) Start(host string, port int) error {
	app := a.App()

	return app.Listen(listenAddr(host, port))
}

func listenAddr(host string, port int) string {
	return host + ":" + strconv.Itoa(port)
}
