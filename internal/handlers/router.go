package handlers

import (
	"github.com/gofiber/fiber/v2"

	"mattertrack/internal/middleware"
	"mattertrack/internal/services"
)

// Deps bundles everything the API routes need. main builds one per process;
// tests build one per case.
type Deps struct {
	Identities services.IdentityService
	Documents  *services.DocumentService
	Backups    *services.BackupService
	Metrics    *services.Metrics
	Cookies    CookieOptions
	RateLimits *middleware.RateLimitConfig
	Backend    string
}

// RegisterRoutes mounts the whole /api surface plus /health on app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	authHandler := NewAuthHandler(deps.Identities, deps.Cookies, deps.Metrics)
	userHandler := NewUserHandler(deps.Identities, deps.Cookies)
	documentHandler := NewDocumentHandler(deps.Documents)
	backupHandler := NewBackupHandler(deps.Backups)
	healthHandler := NewHealthHandler(deps.Backend)

	app.Get("/health", healthHandler.Handle)

	api := app.Group("/api")

	requireAuth := middleware.SessionAuth(deps.Identities)
	optionalAuth := middleware.OptionalSessionAuth(deps.Identities)

	auth := api.Group("/auth")
	if deps.RateLimits != nil {
		credLimiter := middleware.AuthRateLimiter(deps.RateLimits)
		auth.Post("/register", credLimiter, authHandler.Register)
		auth.Post("/login", credLimiter, authHandler.Login)
	} else {
		auth.Post("/register", authHandler.Register)
		auth.Post("/login", authHandler.Login)
	}
	auth.Post("/logout", authHandler.Logout)
	auth.Post("/change-password", requireAuth, authHandler.ChangePassword)

	api.Get("/me", optionalAuth, userHandler.Me)
	api.Patch("/me", requireAuth, userHandler.UpdateProfile)

	api.Get("/projects", requireAuth, documentHandler.Get)
	api.Put("/projects", requireAuth, documentHandler.Put)

	api.Get("/backup", requireAuth, backupHandler.Export)
	api.Post("/restore", requireAuth, backupHandler.Restore)
}
