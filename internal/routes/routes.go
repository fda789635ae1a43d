package routes

import (
	"github.com/calculon/goals-api/internal/config"
	"github.com/calculon/goals-api/internal/handlers"
	"github.com/calculon/goals-api/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
)

// NewApp builds the Fiber app with its middleware and routes.
func NewApp(cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "calculon",
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))
	if cfg.IsDevelopment() {
		app.Use(logger.New())
	}

	Setup(app)
	return app
}

func Setup(app *fiber.App) {
	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/signup", handlers.Signup)
	auth.Post("/login", handlers.Login)
	auth.Post("/logout", middleware.Protected(), handlers.Logout)

	protected := api.Group("/", middleware.Protected())

	protected.Get("/me", handlers.GetMe)
	protected.Get("/categories", handlers.GetCategories)

	goals := protected.Group("/goals")
	goals.Get("/", handlers.GetGoals)
	goals.Post("/", handlers.CreateGoal)
	goals.Get("/:id", handlers.GetGoal)
	goals.Delete("/:id", handlers.DeleteGoal)
	goals.Get("/:id/summary", handlers.GetGoalSummary)

	goals.Post("/:id/expenses", handlers.CreateExpense)
	goals.Post("/:id/adjustments", handlers.CreateAdjustment)

	// Sharing
	goals.Post("/:id/collaborators", handlers.AddCollaborator)
	goals.Get("/:id/collaborators", handlers.GetCollaborators)

	protected.Get("/expenses", handlers.GetExpenses)
	protected.Get("/adjustments", handlers.GetAdjustments)

	settings := protected.Group("/settings")
	settings.Get("/theme", handlers.GetTheme)
	settings.Put("/theme", handlers.UpdateTheme)

	// Device token for push notifications
	protected.Post("/device-token", handlers.RegisterDeviceToken)

	// WebSocket for real-time goal updates
	app.Get("/ws/goals/:id", handlers.WebSocketUpgrade(), websocket.New(handlers.HandleWebSocket))
}
