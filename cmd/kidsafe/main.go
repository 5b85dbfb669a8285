package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kidsafe/config"
	"kidsafe/internal/api"
	"kidsafe/internal/auth"
	"kidsafe/internal/core"
	"kidsafe/internal/email"
	"kidsafe/internal/insights"
	"kidsafe/internal/logging"
	"kidsafe/internal/notify"
	"kidsafe/internal/otp"
	"kidsafe/internal/scheduler"
	"kidsafe/internal/storage/sqlite"

	"github.com/joho/godotenv"
)

const (
	shutdownTimeout   = 10 * time.Second
	watcherInterval   = 1 * time.Minute
	defaultConfigPath = "config.json"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	// Parse command-line flags
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	useEnv := flag.Bool("env", false, "Load configuration from environment variables")
	flag.Parse()

	// Load configuration
	var cfg *config.Config
	var err error

	if *useEnv {
		// .env is optional; real env vars win either way
		_ = godotenv.Load()
		cfg, err = config.LoadFromEnv()
	} else {
		cfg, err = config.Load(*configPath)
	}

	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.NewLogger(logging.LoggerConfig{
		Format: cfg.Logging.Format,
		Level:  logging.ParseLevel(cfg.Logging.Level),
	})

	// Initialize database
	logger.Info("Initializing SQLite database", "component", "main", "path", cfg.Database.Path)
	db, err := sqlite.New(cfg.Database.Path, cfg.Location())
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	calculator := core.NewDashboardCalculator(cfg.Location())
	otpStore := otp.NewStore(otp.DefaultTTL)
	tokens := auth.NewTokens(cfg.Security.JWTSecret, cfg.TokenTTL())

	mailer := email.NewClient(email.Config{
		APIKey:    cfg.Email.APIKey,
		APISecret: cfg.Email.APISecret,
		FromEmail: cfg.Email.FromEmail,
		FromName:  cfg.Email.FromName,
	}, logging.ForComponent(logger, "email"))

	// Optional Telegram alert channel
	var channel notify.Channel
	if cfg.Telegram.Token != "" {
		telegram, err := notify.NewTelegramChannel(cfg.Telegram.Token, cfg.Telegram.ChatID)
		if err != nil {
			return fmt.Errorf("failed to initialize telegram channel: %w", err)
		}
		logger.Info("Telegram alert channel enabled", "component", "main")
		channel = telegram
	}

	notifier := notify.NewNotifier(mailer, channel, logging.ForComponent(logger, "notify"))

	// Start the daily-limit watcher
	watcher := scheduler.NewLimitWatcher(db, calculator, notifier, watcherInterval, logger)
	go watcher.Start()

	// Initialize REST API
	router := api.NewRouter(api.RouterConfig{
		Storage:        db,
		Calculator:     calculator,
		OTPStore:       otpStore,
		Tokens:         tokens,
		Mailer:         mailer,
		Notifier:       notifier,
		Insights:       insights.NewProvider(),
		AllowedOrigins: cfg.Security.AllowedOrigins,
		Logger:         logger,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server",
			"component", "main",
			"host", cfg.Server.Host,
			"port", cfg.Server.Port,
		)
		serverErrors <- server.ListenAndServe()
	}()

	// Wait for interrupt signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info("Starting graceful shutdown", "component", "main", "signal", sig.String())

		watcher.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		logger.Info("Graceful shutdown complete", "component", "main")
	}

	return nil
}
