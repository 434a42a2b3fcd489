package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/brewline/coffeedesk/backend/internal/adapters/cache"
	"github.com/brewline/coffeedesk/backend/internal/adapters/database"
	"github.com/brewline/coffeedesk/backend/internal/adapters/events"
	"github.com/brewline/coffeedesk/backend/internal/api/handlers"
	"github.com/brewline/coffeedesk/backend/internal/api/middleware"
	"github.com/brewline/coffeedesk/backend/internal/api/routes"
	"github.com/brewline/coffeedesk/backend/internal/application/services"
	"github.com/brewline/coffeedesk/backend/internal/domain/providers"
	"github.com/brewline/coffeedesk/backend/internal/infrastructure/clients/postgres"
	"github.com/brewline/coffeedesk/backend/internal/infrastructure/clients/redis"
	"github.com/brewline/coffeedesk/backend/internal/infrastructure/messaging"
	"github.com/brewline/coffeedesk/backend/internal/infrastructure/observability"
	"github.com/brewline/coffeedesk/backend/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, os.Getenv("APP_ENV"))

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	var shutdown func(context.Context) error
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err = observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			log.Printf("Warning: Failed to set up OpenTelemetry: %v", err)
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Printf("Error shutting down OpenTelemetry: %v", err)
				}
			}()
			log.Println("OpenTelemetry initialized successfully")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to initialize metrics: %v", err)
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize PostgreSQL client: %v", err)
	}
	defer pgClient.Close()
	log.Println("PostgreSQL client initialized successfully")

	// Initialize Redis client
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Printf("Warning: Failed to initialize Redis client: %v", err)
		// Continue without Redis - the application can work without caching
		redisClient = nil
	} else {
		defer redisClient.Close()
		log.Println("Redis client initialized successfully")
	}

	var cacheProvider providers.CacheProvider
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
	}

	// Initialize event bus for real-time updates
	var eventBus providers.EventBus
	var streamHandler *handlers.StreamHandler
	if redisClient != nil {
		eventBus = events.NewRedisEventBus(redisClient)
		streamHandler = handlers.NewStreamHandler(eventBus)
		log.Println("Event bus initialized successfully")
	} else {
		log.Println("Event bus disabled (Redis not available)")
	}

	// Initialize adapters
	feedbackAdapter := database.NewFeedbackAdapter(pgClient)
	templateAdapter := database.NewTemplateAdapter(pgClient)
	profileAdapter := database.NewProfileAdapter(pgClient)
	messageLogAdapter := database.NewMessageLogAdapter(sqlx.NewDb(pgClient.DB(), "postgres"))

	// Initialize the SMS sender. Missing credentials disable the messaging
	// surface but leave the rest of the API up.
	var messageHandler *handlers.MessageHandler
	templateService := services.NewTemplateService(templateAdapter)

	sender, err := messaging.NewTwilioSender(&cfg.Twilio)
	if err != nil {
		log.Printf("Warning: SMS sending disabled: %v", err)
	} else {
		dispatchService := services.NewDispatchService(sender, messageLogAdapter)
		dispatchService.SetMetrics(metrics)
		if eventBus != nil {
			dispatchService.SetEventBus(eventBus)
			log.Println("Event bus configured for dispatch service")
		}
		messageHandler = handlers.NewMessageHandler(dispatchService, templateService)
		log.Println("SMS dispatch initialized successfully")
	}

	// Initialize services
	feedbackService := services.NewFeedbackService(feedbackAdapter, cacheProvider)
	profileService := services.NewProfileService(profileAdapter)

	// Initialize handlers
	feedbackHandler := handlers.NewFeedbackHandler(feedbackService, cacheProvider)
	templateHandler := handlers.NewTemplateHandler(templateService)
	profileHandler := handlers.NewProfileHandler(profileService)

	// Initialize cache middleware
	var cacheMiddleware *middleware.CacheMiddleware
	if cacheProvider != nil {
		cacheMiddleware = middleware.NewCacheMiddleware(cacheProvider)
		log.Println("Cache middleware initialized successfully")
	}

	// Set up router
	router := routes.NewRouter(
		feedbackHandler,
		messageHandler,
		streamHandler,
		templateHandler,
		profileHandler,
		cacheMiddleware,
		metrics,
	)

	handler := router.SetupRoutes()

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout: 15 * time.Second,
		// No write timeout: the event stream endpoint holds its connection
		// open indefinitely.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s", serverAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}

	// Close event bus
	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Printf("Error closing event bus: %v", err)
		}
	}

	log.Println("Server stopped")
}
