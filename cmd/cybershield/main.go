package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cybershield/internal/alerts"
	"cybershield/internal/classifier"
	"cybershield/internal/config"
	"cybershield/internal/evidence"
	"cybershield/internal/logger"
	"cybershield/internal/moderation"
	"cybershield/internal/server"
	"cybershield/internal/storage"
)

func main() {
	// Define command line flags
	configPath := flag.String("config", "configs/config.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up logging first
	if err := logger.Setup(cfg); err != nil {
		log.Fatalf("Failed to set up logger: %v", err)
	}

	// Initialize database
	if err := storage.Initialize(cfg); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	if err := storage.Migrate(storage.DB); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database connection established")

	// Repositories
	users := storage.NewUserRepository(storage.DB)
	messages := storage.NewMessageRepository(storage.DB)
	incidents := storage.NewIncidentRepository(storage.DB)
	reports := storage.NewReportRepository(storage.DB)

	// Evidence store
	store, err := evidence.NewStore(cfg.Evidence.Directory)
	if err != nil {
		log.Fatalf("Failed to initialize evidence store: %v", err)
	}

	// Optional Telegram admin alerts
	alerter, err := alerts.NewTelegramNotifier(&cfg.Alerts)
	if err != nil {
		log.Fatalf("Failed to initialize alert notifier: %v", err)
	}

	// Moderation core
	escalator := moderation.NewEscalator(storage.DB, &cfg.Moderation)
	bot := moderation.NewCyberBOT(messages, &cfg.Moderation)
	var alerterIface moderation.Alerter
	if alerter != nil {
		alerterIface = alerter
	}
	modService := moderation.NewService(escalator, bot, store, alerterIface)

	// Verdict source
	detector := classifier.NewDetector(&cfg.Classifier)

	srv := server.New(cfg, detector, modService, users, messages, incidents, reports, store)

	// Start HTTP server in a goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	log.Println("CyberShield backend is running")

	// Create a channel for receiving OS signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Wait for signal
	sig := <-sigChan
	log.Printf("Received signal: %v, shutting down...", sig)

	// Gracefully shutdown server
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	log.Println("Server gracefully stopped")
}
