package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	grpcapi "momo-proxy-backend/internal/api/grpc"
	httpapi "momo-proxy-backend/internal/api/http"
	"momo-proxy-backend/internal/config"
	"momo-proxy-backend/internal/events"
	"momo-proxy-backend/internal/jobs"
	"momo-proxy-backend/internal/logger"
	"momo-proxy-backend/internal/repository/postgres"
	"momo-proxy-backend/internal/scheduler"
	"momo-proxy-backend/internal/security"
	"momo-proxy-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	withScheduler := flag.Bool("with-scheduler", false, "Also run the queue processor and sweeper in this process")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting MoMo Proxy Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "http_address", cfg.GetServerAddress(), "grpc_address", cfg.GetGRPCAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)

	// Initialize Database
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer)
	ingestVerifier := security.NewIngestVerifier(cfg.Ingest.TokenHash)

	// Initialize Services
	alertSvc := service.NewAlertService(cfg.Alerts.SendGridAPIKey, service.AlertConfig{
		FromEmail:      cfg.Alerts.FromEmail,
		FromName:       cfg.Alerts.FromName,
		OperatorEmails: cfg.Alerts.OperatorEmails,
	})
	ledgerSvc := service.NewLedgerService(store.Balances, store.Countries, store.TxManager)
	feeSvc := service.NewFeeService(store.FeeRules, store.TxManager)
	resolver := service.NewDestinationResolver(store.Countries)
	intakeSvc := service.NewIntakeService(store.WorkItems, store.Transactions, service.BlackoutWindows{
		PushPull: time.Duration(cfg.Blackout.PushPullMinutes) * time.Minute,
		Airtime:  time.Duration(cfg.Blackout.AirtimeMinutes) * time.Minute,
	})
	txSvc := service.NewTransactionService(store.Transactions)
	reconcileSvc := service.NewReconcileService(
		store.Transactions,
		store.TxManager,
		ledgerSvc,
		alertSvc,
		time.Duration(cfg.Matcher.TimeWindowMinutes)*time.Minute,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Optional in-process scheduler; production runs cmd/cronjob instead
	if *withScheduler {
		jobRunner, err := jobs.NewJobRunnerFromConfig(cfg, store)
		if err != nil {
			log.Fatalf("Failed to initialize job runner: %v", err)
		}
		cronScheduler, err := scheduler.NewScheduler(jobRunner, cfg.Scheduler)
		if err != nil {
			log.Fatalf("Failed to initialize scheduler: %v", err)
		}
		cronScheduler.Start()
		defer cronScheduler.Stop()
	}

	// Confirmation notices from the broker
	if cfg.RabbitMQ.Enabled {
		consumer, err := events.NewNoticeConsumer(cfg.RabbitMQ, reconcileSvc)
		if err != nil {
			logger.Error("Failed to initialize notice consumer", "error", err)
			log.Fatalf("Failed to initialize notice consumer: %v", err)
		}
		defer consumer.Close()
		go func() {
			if err := consumer.Start(ctx); err != nil {
				logger.Error("Notice consumer stopped", "error", err)
			}
		}()
	}

	// Set up gRPC server (health + reflection)
	grpcServer := grpcapi.NewServer(tokenManager, store)
	go grpcServer.WatchDatabase(ctx, 15*time.Second)

	lis, err := net.Listen("tcp", cfg.GetGRPCAddress())
	if err != nil {
		logger.Error("Failed to listen", "error", err, "address", cfg.GetGRPCAddress())
		log.Fatalf("Failed to listen: %v", err)
	}
	go func() {
		logger.Info("gRPC server listening", "address", cfg.GetGRPCAddress())
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("Failed to serve gRPC", "error", err)
		}
	}()

	// Set up HTTP server
	handler := httpapi.NewHandler(intakeSvc, txSvc, ledgerSvc, feeSvc, resolver, reconcileSvc, store)
	httpServer := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           httpapi.NewRouter(handler, tokenManager, ingestVerifier),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("HTTP server listening", "address", cfg.GetServerAddress())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", "error", err)
	}
	grpcServer.GracefulStop()
	logger.Info("Server stopped. Goodbye!")
}
