package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"petkart/internal/checkout"
	"petkart/internal/config"
	"petkart/internal/database"
	"petkart/internal/handler"
	"petkart/internal/inventory"
	"petkart/internal/loyalty"
	"petkart/internal/metrics"
	"petkart/internal/notify"
	"petkart/internal/payment"
	"petkart/internal/repository"
	"petkart/internal/router"
	"petkart/internal/session"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting petkart API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Apply schema migrations before opening the pool
	if err := database.Migrate(cfg.Database, logger); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	// Redis holds the live OTP challenges
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}
	defer redisClient.Close()

	// Metrics registry
	coreMetrics := metrics.New()

	// Repositories
	productRepo := repository.NewProductRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)

	// External collaborators
	inventoryLookup := inventory.NewHTTPLookup(cfg.Inventory.BaseURL, cfg.Inventory.Timeout, logger)
	accountService := loyalty.NewHTTPAccountService(cfg.Loyalty.BaseURL, cfg.Loyalty.Timeout, logger)

	var notifier notify.Notifier
	if cfg.Kafka.Brokers != "" {
		notifier = notify.NewKafkaNotifier(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
	} else {
		notifier = notify.NewNopNotifier(logger)
		logger.Info().Msg("no kafka brokers configured, OTP delivery disabled")
	}

	// Per-customer session state (cart ledger, reconciler, balance resolver)
	sessions := session.NewManager(
		inventoryLookup,
		accountService,
		loyalty.ResolverConfig{
			RetryAttempts: cfg.Loyalty.RetryAttempts,
			RetryDelay:    cfg.Loyalty.RetryDelay,
		},
		coreMetrics,
		logger,
	)
	defer sessions.Shutdown()

	// Core components
	engine := loyalty.NewEngine(cfg.Loyalty.PointValue)
	orchestrator := checkout.NewOrchestrator(orderRepo, engine, cfg.Checkout.DeliveryFee, logger)
	challengeStore := payment.NewRedisChallengeStore(redisClient, logger)
	confirmer := payment.NewConfirmer(challengeStore, orderRepo, notifier, coreMetrics, cfg.OTP.TTL, logger)

	// HTTP handlers
	cartHandler := handler.NewCartHandler(sessions, productRepo, logger)
	checkoutHandler := handler.NewCheckoutHandler(sessions, orchestrator, logger)
	paymentHandler := handler.NewPaymentHandler(confirmer, orderRepo, sessions, logger)

	// Router
	mux := router.New(cartHandler, checkoutHandler, paymentHandler, coreMetrics, cfg.Auth.APIKey, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}
