package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"comics-store/internal/catalogimport"
	"comics-store/internal/config"
	"comics-store/internal/database"
	"comics-store/internal/handler"
	"comics-store/internal/mailer"
	"comics-store/internal/payment"
	"comics-store/internal/repository"
	"comics-store/internal/router"
	"comics-store/internal/service"
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
	logger.Info().Msg("starting comics-store API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	// Initialize repositories
	productRepo := repository.NewProductRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	ticketRepo := repository.NewTicketRepository(pool, logger)
	userRepo := repository.NewUserRepository(pool, logger)
	visitorRepo := repository.NewVisitorRepository(pool, logger)
	analyticsRepo := repository.NewAnalyticsRepository(pool, logger)

	// Seed the catalogue when a seed file is configured
	if cfg.Import.SeedFile != "" {
		var loader catalogimport.Loader
		seedPath := cfg.Import.SeedFile

		if cfg.Import.S3Enabled {
			loader, err = catalogimport.NewS3Loader(ctx, cfg.Import.S3Bucket, cfg.Import.S3Region, logger)
			if err != nil {
				logger.Warn().
					Err(err).
					Msg("failed to initialise S3 loader, falling back to local file system")
				loader = catalogimport.NewFileLoader(logger)
			} else {
				seedPath = cfg.Import.S3Prefix + cfg.Import.SeedFile
			}
		} else {
			loader = catalogimport.NewFileLoader(logger)
		}

		importer := catalogimport.NewImporter(loader, productRepo, logger)
		count, err := importer.Run(ctx, seedPath)
		if err != nil {
			return fmt.Errorf("catalog import failed: %w", err)
		}
		logger.Info().Int("products", count).Msg("catalog seed imported")
	}

	// Initialize payment gateway
	gateway := payment.NewPesapalGateway(cfg.Pesapal, logger)

	// Initialize ticket delivery dispatcher
	var dispatcher mailer.Dispatcher
	if cfg.AMQP.Enabled {
		dispatcher, err = mailer.NewAMQPDispatcher(cfg.AMQP.URL, cfg.AMQP.Exchange, logger)
		if err != nil {
			return fmt.Errorf("failed to connect to AMQP broker: %w", err)
		}
		defer dispatcher.Close()
	} else {
		dispatcher = mailer.NewNopDispatcher(logger)
		logger.Info().Msg("ticket delivery dispatch disabled (AMQP disabled)")
	}

	// Initialize services
	productService := service.NewProductService(productRepo, logger)
	cartService := service.NewCartService(orderRepo, productRepo, gateway, logger)
	ticketService := service.NewTicketService(ticketRepo, userRepo, dispatcher, cfg.SiteURL, logger)
	orderService := service.NewOrderService(orderRepo, productRepo, ticketRepo, ticketService, logger)
	analyticsService := service.NewAnalyticsService(analyticsRepo, visitorRepo, logger)

	// Initialize router
	mux := router.New(router.Deps{
		Products:          handler.NewProductHandler(productService, logger),
		Cart:              handler.NewCartHandler(cartService, logger),
		Orders:            handler.NewOrderHandler(orderService, logger),
		Payments:          handler.NewPaymentHandler(orderService, logger),
		Tickets:           handler.NewTicketHandler(ticketService, logger),
		Analytics:         handler.NewAnalyticsHandler(analyticsService, logger),
		Visitors:          visitorRepo,
		AdminAPIKey:       cfg.Auth.AdminAPIKey,
		SessionCookieName: cfg.Session.CookieName,
	}, logger)

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
