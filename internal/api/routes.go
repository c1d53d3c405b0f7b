package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/bilgisen/factcheck/internal/middleware"
	"github.com/bilgisen/factcheck/internal/models"
)

// NewApp builds the fiber app with the shared error handler
func NewApp(cfg fiber.Config) *fiber.App {
	cfg.ErrorHandler = middleware.ErrorHandler
	return fiber.New(cfg)
}

// SetupRoutes configures all the routes for the application
func SetupRoutes(app *fiber.App, h *Handlers) {
	app.Use(recover.New())
	app.Use(middleware.NewLogger())

	// API group with versioning
	api := app.Group("/api/v1")

	api.Get("/health", h.HealthCheck)
	api.Post("/auth/login", middleware.ValidateBody[loginRequest](), h.Login)

	authed := api.Group("", middleware.NewAuth(middleware.AuthConfig{
		Resolver: h.auth.Resolve,
	}))
	authed.Post("/auth/logout", h.Logout)
	authed.Get("/me", h.Me)

	// Submitter endpoints
	authed.Post("/articles", middleware.RequireRole(models.RoleUser), middleware.ValidateBody[submitRequest](), h.SubmitArticle)
	authed.Get("/articles", middleware.RequireRole(models.RoleUser), h.MyArticles)
	authed.Get("/articles/:id", h.GetArticle)

	// Reviewer endpoints
	reviewer := authed.Group("/reviewer", middleware.RequireRole(models.RoleReviewer))
	{
		reviewer.Get("/dashboard", h.ReviewerDashboard)
		reviewer.Post("/articles/:id/review", middleware.ValidateBody[reviewRequest](), h.Review)
		reviewer.Post("/articles/:id/dismiss", h.DismissAdminReview)
	}

	// Admin endpoints
	admin := authed.Group("/admin", middleware.RequireRole(models.RoleAdmin))
	{
		admin.Get("/dashboard", h.AdminDashboard)
		admin.Post("/articles/:id/verify", middleware.ValidateBody[verifyRequest](), h.AdminVerify)
		admin.Post("/users", middleware.ValidateBody[createUserRequest](), h.CreateUser)
	}

	// 404 Handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Endpoint not found",
		})
	})
}
