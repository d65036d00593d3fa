package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"phish-scoreboard/config"
	"phish-scoreboard/database"
	"phish-scoreboard/handlers"
	"phish-scoreboard/middleware"
	"phish-scoreboard/services"
	"phish-scoreboard/utils"
	"phish-scoreboard/workers"

	"github.com/go-co-op/gocron/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("invalid configuration:", err)
	}

	db, err := database.Open(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}
	defer database.Close(db)

	policy := services.DefaultPointPolicy().With(cfg.PointOverrides)
	if len(cfg.PointOverrides) > 0 {
		log.Printf("⚠️  Point table overrides applied: %v", cfg.PointOverrides)
	}

	dispatcher := workers.NewDispatcher(cfg.TaskTimeout)
	participantService := services.NewParticipantService(db)
	ledger := services.NewLedger(db, policy, participantService)
	scoreboardService := services.NewScoreboardService(db)
	notifier := services.NewWebhookNotifier(cfg.WebhookURL, cfg.WebhookTimeout)
	enrollmentService := services.NewEnrollmentService(participantService, ledger, notifier, dispatcher, cfg.TaskTimeout)
	exportService := services.NewExportService(participantService, cfg.ExportName)
	generator := services.NewPhishingGenerator(cfg.Gemini.APIKey, cfg.Gemini.BaseURL, cfg.Gemini.Model, cfg.PhishingLink, cfg.Gemini.Timeout)
	if !generator.Enabled() {
		log.Println("⚠️  GEMINI_API_KEY not set, phishing generation disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var snapshotScheduler gocron.Scheduler
	if cfg.SnapshotInterval > 0 {
		store, err := utils.NewObjectStore(ctx, utils.ObjectStoreConfig{
			Bucket:          cfg.Storage.Bucket,
			Endpoint:        cfg.Storage.Endpoint,
			Region:          cfg.Storage.Region,
			AccessKeyID:     cfg.Storage.AccessKeyID,
			SecretAccessKey: cfg.Storage.SecretAccessKey,
			PublicBaseURL:   cfg.Storage.CDNBaseURL,
		})
		if err != nil {
			log.Fatal("failed to initialize object store:", err)
		}
		snapshotScheduler, err = services.NewSnapshotService(exportService, store).StartSnapshotScheduler(cfg.SnapshotInterval)
		if err != nil {
			log.Fatal("failed to start snapshot scheduler:", err)
		}
	}

	app := fiber.New(fiber.Config{
		AppName: "phish-scoreboard",
	})
	app.Use(middleware.RequestLogMiddleware())

	origins := strings.Join(cfg.Origins(), ",")
	if origins == "" {
		origins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, X-Request-ID",
		ExposeHeaders:    "Content-Disposition, X-Request-ID",
		AllowCredentials: origins != "*", // fiber rejects credentials with a wildcard origin
		MaxAge:           86400,
	}))

	handlers.SetupHealthRoutes(app, db)
	api := app.Group("/api")
	handlers.SetupParticipantRoutes(api, enrollmentService, participantService)
	handlers.SetupLedgerRoutes(api, ledger, scoreboardService, cfg.LeaderboardLimit)
	handlers.SetupAdminRoutes(api, ledger, exportService)
	handlers.SetupPhishingRoutes(api, generator)

	go func() {
		if err := app.Listen(cfg.ListenAddr); err != nil {
			log.Printf("Server error: %v", err)
			stop()
		}
	}()

	log.Printf("✅ Server running on %s", cfg.ListenAddr)
	log.Printf("✅ CORS configured for origins: %s", origins)

	<-ctx.Done()
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	if snapshotScheduler != nil {
		if err := snapshotScheduler.Shutdown(); err != nil {
			log.Printf("Scheduler shutdown error: %v", err)
		}
	}
	if err := dispatcher.Shutdown(shutdownCtx); err != nil {
		log.Printf("Background task shutdown error: %v", err)
	}
}
