package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"firdesk/internal/assistant"
	"firdesk/internal/backend"
	"firdesk/internal/config"
	"firdesk/internal/handlers"
	"firdesk/internal/jobs"
	"firdesk/internal/logging"
	"firdesk/internal/middleware"
	"firdesk/internal/preflight"
	"firdesk/internal/retrieval"
	"firdesk/internal/services"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Initialize structured logging (JSON in production, text in dev)
	logging.Init()

	log.Println("🚀 Starting FIR desk server...")

	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found or error loading it: %v", err)
	} else {
		log.Println("✅ .env file loaded successfully")
	}

	cfg := config.Load()
	log.Printf("📋 Configuration loaded (Port: %s, Store: %s)", cfg.Port, cfg.StoreBackend)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Metrics first so the stores can report faults from their first read
	feed := services.NewChangeFeed()
	metrics := services.NewMetrics(prometheus.DefaultRegisterer, feed)

	stores, err := backend.Open(ctx, cfg, metrics.RecordStoreFault)
	if err != nil {
		log.Fatalf("❌ Failed to open %s store: %v", cfg.StoreBackend, err)
	}
	defer stores.Close()

	if cfg.WatchDataDir {
		if err := stores.WatchDir(ctx); err != nil {
			log.Printf("⚠️  Data directory watcher disabled: %v", err)
		}
	}

	kb, err := retrieval.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load knowledge base: %v", err)
	}

	// Pre-flight checks
	checks := stores.PreflightOptions()
	checks.Knowledge = kb
	checks.OracleKey = cfg.GeminiAPIKey
	if preflight.HasFailures(preflight.NewChecker(checks).RunAll()) {
		log.Fatal("❌ Pre-flight checks failed")
	}

	// Collections
	drafts := services.NewDraftsService(stores.Drafts, cfg.EnforceUniqueIDs)
	reports := services.NewReportsService(stores.Reports, cfg.ValidateReports, cfg.EnforceUniqueIDs)
	for _, svc := range []*services.CollectionService{drafts, reports} {
		svc.SetFeed(feed)
		svc.SetMetrics(metrics)
	}

	// Assistant (runs without an oracle; every query gets the fallback reply)
	var oracle assistant.Oracle
	if cfg.GeminiAPIKey != "" {
		gemini, err := assistant.NewGeminiOracle(ctx, assistant.GeminiConfig{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.GeminiModel,
			BaseURL: cfg.GeminiBaseURL,
		})
		if err != nil {
			log.Printf("⚠️  Gemini oracle disabled: %v", err)
		} else {
			oracle = gemini
			log.Printf("✅ Gemini oracle ready (model: %s)", gemini.Model())
		}
	} else {
		log.Println("⚠️  GEMINI_API_KEY not set - assistant will answer with fallback replies")
	}
	assist := assistant.New(kb, oracle, assistant.Options{
		Timeout:       cfg.OracleTimeout,
		RatePerSecond: cfg.OracleRatePerS,
	})
	assist.SetMetrics(metrics)

	// Background jobs
	var jobScheduler *jobs.JobScheduler
	if cfg.SnapshotCron != "" {
		jobScheduler, err = jobs.NewJobScheduler()
		if err != nil {
			log.Fatalf("❌ Failed to create job scheduler: %v", err)
		}
		snapshot := jobs.NewSnapshotJob(cfg.SnapshotDir, cfg.SnapshotKeep, drafts, reports)
		if err := jobScheduler.Register("snapshot", cfg.SnapshotCron, snapshot); err != nil {
			log.Fatalf("❌ %v", err)
		}
		jobScheduler.Start()
	}

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "FIR Desk v1.0",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.OracleTimeout + 10*time.Second, // assistant replies wait on the oracle
		IdleTimeout:  120 * time.Second,
		BodyLimit:    1 * 1024 * 1024,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())

	prom := fiberprometheus.New("firdesk")
	prom.RegisterAt(app, "/metrics")
	app.Use(prom.Middleware)
	log.Println("📊 Prometheus metrics endpoint enabled at /metrics")

	rateLimitConfig := middleware.LoadRateLimitConfig()
	log.Printf("🛡️  [RATE-LIMIT] Loaded config: Global=%d/min, Assistant=%d/min, WS=%d/min",
		rateLimitConfig.GlobalAPIMax,
		rateLimitConfig.AssistantMax,
		rateLimitConfig.WebSocketMax,
	)

	// Fiber's CORS middleware does not allow AllowCredentials with wildcard origins
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     "GET,POST,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept",
		AllowCredentials: cfg.AllowedOrigins != "*",
	}))
	log.Printf("🔒 [SECURITY] CORS allowed origins: %s", cfg.AllowedOrigins)

	app.Use("/api", middleware.GlobalAPIRateLimiter(rateLimitConfig))

	// Routes
	app.Get("/health", handlers.NewHealthHandler(drafts, reports, feed, assist.HasOracle(), stores.Kind).Handle)

	api := app.Group("/api")
	handlers.NewCollectionHandler(drafts, reports).Register(api)
	api.Post("/assistant", middleware.AssistantRateLimiter(rateLimitConfig), handlers.NewAssistantHandler(assist).Ask)

	app.Use("/ws", handlers.RequireUpgrade)
	app.Use("/ws/feed", middleware.WebSocketRateLimiter(rateLimitConfig))
	app.Get("/ws/feed", websocket.New(handlers.NewFeedHandler(feed).Handle, websocket.Config{
		Origins: strings.Split(cfg.AllowedOrigins, ","),
	}))

	log.Printf("✅ Server ready on port %s", cfg.Port)
	log.Printf("🔗 Change feed: ws://localhost:%s/ws/feed", cfg.Port)
	log.Printf("📡 Health check: http://localhost:%s/health", cfg.Port)
	if jobScheduler != nil {
		log.Printf("🕐 Snapshot job: %s -> %s (keep %d)", cfg.SnapshotCron, cfg.SnapshotDir, cfg.SnapshotKeep)
	}

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("🛑 Shutting down server...")

		if jobScheduler != nil {
			if err := jobScheduler.Stop(); err != nil {
				log.Printf("⚠️ Error stopping job scheduler: %v", err)
			}
		}

		// stops the directory watcher
		cancel()

		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("⚠️ Error shutting down server: %v", err)
		}
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}
