package routes

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/synapse-ia/salesagent/internal/handlers"
	"github.com/synapse-ia/salesagent/internal/middleware"
)

// Handlers groups the endpoint handlers mounted by SetupRoutes. Nil handlers
// leave their routes unmounted.
type Handlers struct {
	Health   *handlers.HealthHandler
	WhatsApp *handlers.WhatsAppHandler
	Agents   *handlers.AgentHandler
	Router   *handlers.RouterHandler
}

// NewApp creates the fiber app with the shared middleware chain.
func NewApp(appName string) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               appName,
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			message := "internal server error"
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
				message = e.Message
			}
			return c.Status(code).JSON(fiber.Map{
				"error": message,
			})
		},
	})

	app.Use(middleware.RequestID())
	app.Use(middleware.RequestLogger())
	app.Use(middleware.Recover())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		AllowMethods: "GET, POST, OPTIONS",
	}))
	return app
}

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, h Handlers) {
	if h.Health != nil {
		app.Get("/health", h.Health.Check)
	}

	if h.WhatsApp != nil {
		wa := app.Group("/whatsapp")
		wa.Get("/status", h.WhatsApp.Status)
		wa.Get("/webhook", h.WhatsApp.Verify)
		wa.Post("/webhook", h.WhatsApp.Webhook)

		// Legacy path still configured on older provider instances.
		legacy := app.Group("/webhook")
		legacy.Get("/agno", h.WhatsApp.Verify)
		legacy.Post("/agno", h.WhatsApp.Webhook)
	}

	if h.Agents != nil {
		app.Get("/agents", h.Agents.List)
		app.Post("/agents/:id/runs", h.Agents.Run)
		app.Post("/workflows/sales/runs", h.Agents.RunWorkflow)
	}

	if h.Router != nil {
		app.Post("/router/classify", h.Router.Classify)
	}
}
