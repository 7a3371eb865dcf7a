package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"kudos-backend/internal/config"
	"kudos-backend/internal/events"
	"kudos-backend/internal/jobs"
	"kudos-backend/internal/logger"
	"kudos-backend/internal/provider"
	"kudos-backend/internal/repository/postgres"
	"kudos-backend/internal/scheduler"
	"kudos-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'charge-due-tenants', 'all-daily', 'all-monthly')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Kudos Cronjob Runner...", "log_level", cfg.Log.Level)

	// Initialize Database
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
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

	// Initialize Providers and Services
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
	emailService := service.NewEmailService(cfg.Email.APIKey, cfg.Email.FromEmail, cfg.Email.FromName)

	pointsPerUnit, err := decimal.NewFromString(cfg.Points.PointsPerUnit)
	if err != nil {
		log.Fatalf("Invalid points_per_unit %q: %v", cfg.Points.PointsPerUnit, err)
	}

	// Billing failure events from the job runner still land in the
	// notification feed; nobody is connected for a live push here.
	queue := events.NewQueue(cfg.Events.QueueSize)
	dispatcher := events.NewDispatcher(queue, events.NewFeedSink(store.NotificationRepository))
	dispatcher.Start()

	billingService := service.NewBillingService(
		store.TenantRepository,
		store.SubscriptionPaymentRepository,
		billing,
		emailService,
		queue,
	)
	grantService := service.NewPointsGrantService(
		store.EmployeeRepository,
		store.WalletRepository,
		cfg.Points.MonthlyGiftableGrant,
	)
	redemptionService := service.NewRedemptionService(
		store.TenantRepository,
		store.EmployeeRepository,
		store.WalletRepository,
		store.LedgerRepository,
		store.OrderRepository,
		store.CatalogRepository,
		fulfillment,
		emailService,
		queue,
		pointsPerUnit,
	)

	jobServices := &jobs.Services{
		Billing:     billingService,
		PointsGrant: grantService,
		Redemption:  redemptionService,
		Email:       emailService,
	}

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(db, store, jobServices, cfg)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		runJobOnce(jobRunner, *runOnce)
		queue.Close()
		dispatcher.Wait()
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler := scheduler.NewScheduler(jobRunner)

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	queue.Close()
	dispatcher.Wait()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

// runJobOnce runs a specific job once and exits
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) {
	switch jobName {
	case "charge-due-tenants":
		jobRunner.ChargeDueTenants()
	case "retry-failed-refunds":
		jobRunner.RetryFailedRefunds()
	case "grant-monthly-points":
		jobRunner.GrantMonthlyPoints()
	case "expire-giftable-points":
		jobRunner.ExpireGiftablePoints()
	case "all-daily":
		jobRunner.RunAllDailyJobs()
	case "all-monthly":
		jobRunner.RunAllMonthlyJobs()
	default:
		logger.Error("Unknown job name", "job", jobName)
		fmt.Printf("Available jobs:\n")
		fmt.Printf("  - charge-due-tenants\n")
		fmt.Printf("  - retry-failed-refunds\n")
		fmt.Printf("  - grant-monthly-points\n")
		fmt.Printf("  - expire-giftable-points\n")
		fmt.Printf("  - all-daily\n")
		fmt.Printf("  - all-monthly\n")
		os.Exit(1)
	}
}
