package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "kudos-backend/internal/api/http"
	"kudos-backend/internal/config"
	"kudos-backend/internal/events"
	"kudos-backend/internal/jobs"
	"kudos-backend/internal/logger"
	"kudos-backend/internal/provider"
	"kudos-backend/internal/repository/postgres"
	"kudos-backend/internal/scheduler"
	"kudos-backend/internal/service"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Kudos Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)

	// Initialize Database
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Initialize Providers
	billing := provider.NewBillingClient(
		cfg.Billing.BaseURL,
		cfg.Billing.APIKey,
		time.Duration(cfg.Billing.TimeoutSeconds)*time.Second,
	)
	fulfillment := provider.NewFulfillmentClient(
		cfg.Fulfillment.BaseURL,
		cfg.Fulfillment.APIKey,
		time.Duration(cfg.Fulfillment.TimeoutSeconds)*time.Second,
	)

	pointsPerUnit, err := decimal.NewFromString(cfg.Points.PointsPerUnit)
	if err != nil {
		log.Fatalf("Invalid points_per_unit %q: %v", cfg.Points.PointsPerUnit, err)
	}

	// Initialize Email Service
	emailSvc := service.NewEmailService(cfg.Email.APIKey, cfg.Email.FromEmail, cfg.Email.FromName)

	// Initialize event queue and sinks
	queue := events.NewQueue(cfg.Events.QueueSize)
	hub := httpapi.NewHub()
	feedSink := events.NewFeedSink(store.NotificationRepository)
	dispatcher := events.NewDispatcher(queue, feedSink, hub)
	dispatcher.Start()

	// Initialize Services. Transfer and redemption entry points are a
	// library surface consumed by the caller-facing deployment; this
	// process runs the scheduled jobs and the notification stream.
	billingSvc := service.NewBillingService(
		store.TenantRepository,
		store.SubscriptionPaymentRepository,
		billing,
		emailSvc,
		queue,
	)
	grantSvc := service.NewPointsGrantService(
		store.EmployeeRepository,
		store.WalletRepository,
		cfg.Points.MonthlyGiftableGrant,
	)
	redemptionSvc := service.NewRedemptionService(
		store.TenantRepository,
		store.EmployeeRepository,
		store.WalletRepository,
		store.LedgerRepository,
		store.OrderRepository,
		store.CatalogRepository,
		fulfillment,
		emailSvc,
		queue,
		pointsPerUnit,
	)

	// Initialize scheduled jobs
	jobRunner := jobs.NewJobRunner(db, store, &jobs.Services{
		Billing:     billingSvc,
		PointsGrant: grantSvc,
		Redemption:  redemptionSvc,
		Email:       emailSvc,
	}, cfg)
	sched := scheduler.NewScheduler(jobRunner)
	sched.Start()

	// Set up HTTP server (health + live notification feed)
	router := httpapi.NewRouter(hub)
	server := &http.Server{
		Addr:    cfg.GetServerAddress(),
		Handler: router,
	}

	go func() {
		logger.Info("HTTP server listening", "address", cfg.GetServerAddress())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			log.Fatalf("Failed to serve: %v", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("Shutting down...", "signal", sig.String())

	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	// Stop intake and let the dispatcher drain buffered events
	queue.Close()
	dispatcher.Wait()

	logger.Info("Shutdown complete")
}
