package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/passion-dev-group/guardian/internal/clock"
	"github.com/passion-dev-group/guardian/internal/config"
	"github.com/passion-dev-group/guardian/internal/events/kafka"
	"github.com/passion-dev-group/guardian/internal/handler"
	"github.com/passion-dev-group/guardian/internal/integrations/plaid"
	"github.com/passion-dev-group/guardian/internal/metrics"
	"github.com/passion-dev-group/guardian/internal/middleware"
	"github.com/passion-dev-group/guardian/internal/repository"
	"github.com/passion-dev-group/guardian/internal/service"
	"github.com/passion-dev-group/guardian/internal/utils/email"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

func main() {
	// Local development convenience, production sets real env vars
	_ = godotenv.Load()

	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logLevel, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}
	if err := runMigrations(db, cfg.MigrationsURL); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize layers
	repo := repository.NewRepository(db)
	plaidClient := plaid.NewClient(cfg, logger)
	clocks := clock.NewResolver(cfg.IsProduction(), plaidClient, logger)
	mailer := email.NewSender(cfg, logger)

	var publisher service.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		kp := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		defer kp.Close()
		publisher = kp
	}

	svc := service.NewService(repo, plaidClient, clocks, publisher, mailer, logger, cfg)
	h := handler.NewHandler(svc, logger)

	// Setup router
	r := mux.NewRouter()
	r.Use(middleware.LoggingMiddleware(logger))
	// Public routes
	r.HandleFunc("/api/auth/register", h.Register).Methods("POST")
	r.HandleFunc("/api/auth/login", h.Login).Methods("POST")
	r.HandleFunc("/api/do-daily-check", h.DailyCheck).Methods("POST")
	r.HandleFunc("/healthz", h.Health).Methods("GET")
	r.Handle("/metrics", metrics.Handler()).Methods("GET")
	// Protected routes
	authRouter := r.PathPrefix("/api").Subrouter()
	authRouter.Use(middleware.AuthMiddleware(cfg))
	authRouter.HandleFunc("/start-circle", h.StartCircle).Methods("POST")
	authRouter.HandleFunc("/admin-recurring", h.AdminRecurring).Methods("POST")

	// Schedule the cycle monitor
	c := cron.New()
	if _, err := c.AddFunc(cfg.DailyCheckSchedule, func() {
		result, err := svc.RunDailyCheck(context.Background())
		if err != nil {
			logger.Errorf("Scheduled daily check failed: %v", err)
			return
		}
		logger.WithFields(logrus.Fields{
			"checked":        result.Checked,
			"ended":          result.Ended,
			"settled":        result.Settled,
			"pending_review": result.PendingReview,
			"failed":         result.Failed,
		}).Info("Scheduled daily check finished")
	}); err != nil {
		logger.Fatalf("Failed to schedule daily check: %v", err)
	}
	c.Start()
	defer c.Stop()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	logger.Infof("Starting server on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server failed: %v", err)
	}
}

func runMigrations(db *sql.DB, sourceURL string) error {
	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance(sourceURL, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}
