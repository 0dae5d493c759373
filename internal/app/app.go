package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/uncle-T0ny/nearmarket/internal/bot"
	"github.com/uncle-T0ny/nearmarket/internal/config"
	"github.com/uncle-T0ny/nearmarket/internal/near"
	"github.com/uncle-T0ny/nearmarket/internal/storage"
)

// App represents the application
type App struct {
	config *config.Config
	logger *zap.Logger
	store  *storage.MemoryStore
	bot    *bot.Bot
	server *http.Server
}

// New creates and initializes a new application instance
func New() (*App, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file found, using system environment variables")
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	app := &App{config: cfg, logger: logger}

	logger.Info("Starting NEAR market bot",
		zap.String("network", cfg.Network),
		zap.String("contract", cfg.Contract),
	)

	app.store = storage.NewMemoryStore()
	nearClient := near.NewClient(cfg, app.store, logger)

	telegramBot, err := bot.NewBot(cfg, nearClient, app.store, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	app.bot = telegramBot

	app.initHTTPServer()

	return app, nil
}

// initHTTPServer initializes the HTTP server for wallet redirect callbacks
func (a *App) initHTTPServer() {
	mux := http.NewServeMux()
	bot.NewCallbackServer(a.bot).RegisterRoutes(mux)

	a.server = &http.Server{
		Addr:         ":" + a.config.Port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		a.logger.Info("Starting HTTP server", zap.String("port", a.config.Port))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("HTTP server error", zap.Error(err))
		}
	}()
}

// Run starts the application and blocks until shutdown
func (a *App) Run() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := a.bot.Start(); err != nil {
			a.logger.Fatal("Failed to start bot", zap.Error(err))
		}
	}()

	<-sigChan

	a.logger.Info("Shutting down...")
	return a.Shutdown()
}

// Shutdown gracefully shuts down the application
func (a *App) Shutdown() error {
	a.bot.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("HTTP server shutdown error", zap.Error(err))
		return err
	}

	a.logger.Info("Shutdown complete")
	return nil
}
