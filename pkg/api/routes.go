package api

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/open-teleop/keypad/domain/odometry"
	"github.com/open-teleop/keypad/domain/teleop"
	customlog "github.com/open-teleop/keypad/pkg/log"
	"github.com/open-teleop/keypad/pkg/metrics"
	"github.com/open-teleop/keypad/pkg/processing"
	"github.com/open-teleop/keypad/services"
)

// Dependencies are the services exposed over HTTP. Odometry may be nil when
// the hook is disabled.
type Dependencies struct {
	Teleop   *teleop.TeleopService
	Odometry *odometry.OdometryService
	Topics   *processing.TopicRegistry
	Config   services.TeleopConfigService
	Logger   customlog.Logger
}

// NewApp creates the Fiber app with the middleware every route shares.
func NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Open-Teleop Keypad",
		ErrorHandler:          errorHandler,
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(metrics.Middleware())
	return app
}

// RegisterRoutes mounts all keypad endpoints on app.
func RegisterRoutes(app *fiber.App, deps Dependencies) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "online",
			"service": "open-teleop keypad",
		})
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})
	app.Get("/metrics", metrics.Handler())

	api := app.Group("/api")

	teleopRoutes := api.Group("/teleop")
	teleopRoutes.Post("/press/:button", deps.Teleop.PressHandler)
	teleopRoutes.Post("/release", deps.Teleop.ReleaseHandler)
	teleopRoutes.Post("/event", deps.Teleop.EventHandler)
	teleopRoutes.Get("/state", deps.Teleop.StateHandler)

	if deps.Odometry != nil {
		api.Get("/odometry", deps.Odometry.GetPoseHandler)
	}
	if deps.Topics != nil {
		api.Get("/topics", topicsHandler(deps.Topics))
	}

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/keypad", websocket.New(KeypadWebSocketHandler(deps.Teleop, deps.Logger)))

	if deps.Config != nil {
		RegisterConfigRoutes(app, deps.Config, deps.Logger)
	}
}

func topicsHandler(registry *processing.TopicRegistry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"topics": registry.GetAllTopics(),
		})
	}
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
