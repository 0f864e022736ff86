package main

import (
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"mattertrack/internal/config"
	"mattertrack/internal/database"
	"mattertrack/internal/handlers"
	"mattertrack/internal/jobs"
	"mattertrack/internal/logging"
	"mattertrack/internal/middleware"
	"mattertrack/internal/services"
	"mattertrack/internal/store"
	"mattertrack/pkg/auth"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Structured logging: JSON in production, text in dev
	logging.Init()

	log.Println("🚀 Starting mattertrack server...")

	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found or error loading it: %v", err)
	} else {
		log.Println("✅ .env file loaded successfully")
	}

	cfg := config.Load()
	log.Printf("📋 Configuration loaded (Port: %s, Backend: %s)", cfg.Port, cfg.StoreBackend)

	var (
		documents  store.DocumentStore
		identities services.IdentityService
		sessions   *services.SessionService
		fileStore  *store.FileStore
	)

	switch cfg.StoreBackend {
	case config.BackendSQLite:
		db, err := database.New(cfg.DatabasePath)
		if err != nil {
			log.Fatalf("❌ Failed to connect to database: %v", err)
		}
		defer db.Close()

		if err := db.Initialize(); err != nil {
			log.Fatalf("❌ Failed to initialize database: %v", err)
		}

		sqlStore := store.NewSQLStore(db)
		documents = sqlStore

		users := services.NewUserService(db)
		sessions = services.NewSessionService(db, cfg.SessionTTL)
		identities = services.NewAccountService(users, sessions, sqlStore)
		log.Println("✅ SQLite backend ready (multi-tenant)")

	case config.BackendFile:
		log.Println("⚠️  File backend selected: single-tenant dev mode, one implicit user")

		fs, err := store.NewFileStore(cfg.DataFile, cfg.BackupDir, cfg.BackupKeep)
		if err != nil {
			log.Fatalf("❌ Failed to open data file %s: %v", cfg.DataFile, err)
		}
		fileStore = fs
		documents = fs

		secret := cfg.SessionSecret
		if secret == "" {
			if cfg.Production() {
				log.Fatal("❌ SESSION_SECRET is required in production with the file backend. Generate with: openssl rand -hex 32")
			}
			secret = "dev-only-insecure-secret"
			log.Println("⚠️  SESSION_SECRET not set, using an insecure development default")
		}

		signer, err := auth.NewStatelessTokenSigner(secret, cfg.SessionTTL)
		if err != nil {
			log.Fatalf("❌ Failed to initialize session signer: %v", err)
		}
		identities = services.NewLocalIdentityService(signer)
		log.Printf("✅ File backend ready (%s)", cfg.DataFile)

	default:
		log.Fatalf("❌ Unknown STORE_BACKEND %q (expected %q or %q)",
			cfg.StoreBackend, config.BackendSQLite, config.BackendFile)
	}

	logging.WithStore(slog.Default(), cfg.StoreBackend).Info("document store ready")

	var sessionCounter services.SessionCounter
	if sessions != nil {
		sessionCounter = sessions
	}
	metrics := services.InitMetrics(sessionCounter)
	documentService := services.NewDocumentService(documents, metrics)
	backupService := services.NewBackupService(documentService, metrics)

	app := fiber.New(fiber.Config{
		AppName:      "mattertrack v1.0",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		BodyLimit:    5 * 1024 * 1024, // documents and backups are small JSON
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())

	// Prometheus metrics middleware
	prometheus := fiberprometheus.New("mattertrack")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)
	log.Println("📊 Prometheus metrics endpoint enabled at /metrics")

	// Rate limiting
	rateLimitConfig := middleware.LoadRateLimitConfig()
	log.Printf("🛡️  [RATE-LIMIT] Loaded config: Global=%d/min, Auth=%d/5min",
		rateLimitConfig.GlobalAPIMax, rateLimitConfig.AuthMax)

	// CORS configuration with environment-based origins
	allowedOrigins := cfg.AllowedOrigins
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:5173,http://localhost:3000"
		log.Println("⚠️  ALLOWED_ORIGINS not set, using development defaults")
	}

	// Fiber's CORS middleware does not allow AllowCredentials with wildcard
	// origins. With a wildcard the frontend is same-origin anyway.
	allowCredentials := allowedOrigins != "*"

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept",
		AllowCredentials: allowCredentials,
	}))
	log.Printf("🔒 [SECURITY] CORS allowed origins: %s", allowedOrigins)

	// Global API rate limiter
	app.Use("/api", middleware.GlobalAPIRateLimiter(rateLimitConfig))
	log.Println("🛡️  [RATE-LIMIT] Global API rate limiter enabled")

	handlers.RegisterRoutes(app, handlers.Deps{
		Identities: identities,
		Documents:  documentService,
		Backups:    backupService,
		Metrics:    metrics,
		Cookies: handlers.CookieOptions{
			CrossSite: cfg.CookieCrossSite,
			Secure:    cfg.Production() || cfg.CookieCrossSite,
		},
		RateLimits: rateLimitConfig,
		Backend:    cfg.StoreBackend,
	})

	// Background jobs: session purge (sqlite), snapshot rotation (file)
	maintenance, err := jobs.NewMaintenance(sessions, fileStore, metrics)
	if err != nil {
		log.Fatalf("❌ Failed to create maintenance scheduler: %v", err)
	}
	if err := maintenance.Start(); err != nil {
		log.Printf("⚠️  Failed to start maintenance scheduler: %v", err)
	}

	// Serve the built client with an SPA fallback for non-API paths
	if _, err := os.Stat(cfg.StaticDir); err == nil {
		app.Static("/", cfg.StaticDir, fiber.Static{
			Compress:      true,
			CacheDuration: 24 * time.Hour,
		})
		app.Get("/*", func(c *fiber.Ctx) error {
			path := c.Path()
			if strings.HasPrefix(path, "/api/") || path == "/health" || path == "/metrics" {
				return c.Next()
			}
			return c.SendFile(filepath.Join(cfg.StaticDir, "index.html"))
		})
		log.Printf("🌐 Frontend serving from %s", cfg.StaticDir)
	} else {
		log.Printf("⚠️  Static directory %s not found, API-only mode", cfg.StaticDir)
	}

	log.Printf("✅ Server ready on port %s", cfg.Port)
	log.Printf("📡 Health check: http://localhost:%s/health", cfg.Port)

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("\n🛑 Shutting down server...")

		if err := maintenance.Stop(); err != nil {
			log.Printf("⚠️ Error stopping maintenance scheduler: %v", err)
		}

		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️ Error shutting down server: %v", err)
		}
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}
