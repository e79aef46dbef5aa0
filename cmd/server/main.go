// Command main is the entry point for the StockTalk backend server.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stocktalk/internal/bootstrap"
	"stocktalk/internal/config"
	"stocktalk/internal/server"
)

// @title StockTalk API
// @version 1.0
// @description Stock discussion API with posts, comments and likes
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@stocktalk.dev

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:4000
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{Tracing: true})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}

	// Create server with dependency injection
	srv, err := server.NewServer(cfg, server.Deps{
		DB:        rt.DB,
		Redis:     rt.Redis,
		Publisher: rt.Publisher,
		Avatars:   rt.Avatars,
	})
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	err = srv.Start()

	closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if closeErr := rt.Close(closeCtx); closeErr != nil {
		log.Printf("Runtime shutdown error: %v", closeErr)
	}
	if err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
