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

	"github.com/brewline/coffeedesk/backend/internal/gateway"
	"github.com/brewline/coffeedesk/backend/internal/infrastructure/messaging"
	"github.com/brewline/coffeedesk/backend/internal/infrastructure/observability"
	"github.com/brewline/coffeedesk/backend/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	observability.InitLogger("coffeedesk-smsgateway", os.Getenv("APP_ENV"))

	// The sender is built per request: credentials are re-read from the
	// loaded config each time, and a missing credential becomes a request
	// error rather than a crashed process.
	handler := gateway.NewHandler(func() (gateway.Sender, error) {
		return messaging.NewTwilioSender(&cfg.Twilio)
	})

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("SMS gateway starting on %s", serverAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("SMS gateway shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}

	log.Println("SMS gateway stopped")
}
