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

	"policymitr-client/internal/api"
	"policymitr-client/internal/auth"
	"policymitr-client/internal/config"
	"policymitr-client/internal/database"
	"policymitr-client/internal/handlers"
	"policymitr-client/internal/middleware"
	"policymitr-client/internal/router"
	"policymitr-client/internal/scope"
	"policymitr-client/internal/speech"
	"policymitr-client/internal/surface"
	"policymitr-client/internal/websocket"
)

func main() {
	log.Println("🚀 Starting PolicyMitr bridge...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")
	if cfg.JWTSecret == "" {
		log.Println("  JWT_SECRET not set: token signatures are left to the backend")
	}

	// ──── Step 2: Initialize Redis (optional) ────
	redisClient, err := database.NewRedisPubSub(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		log.Println("✓ Redis connected")
	}

	// ──── Step 3: Backend API Client ────
	// Every request forwards the bearer token of the browser that made it.
	client := api.NewClient(cfg.APIBaseURL, cfg.APITimeout, auth.ContextProvider{})
	log.Printf("✓ Backend API at %s (timeout %s)", cfg.APIBaseURL, cfg.APITimeout)

	// ──── Step 4: Surfaces ────
	registry := surface.NewRegistry()
	deps := surface.Deps{
		Backend:  client,
		Player:   speech.NewExecPlayer(cfg.AudioPlayer, cfg.AudioPlayerArgs...),
		Resolver: scope.NewResolver(),
	}

	// ──── Step 5: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClient, cfg.JWTSecret)
	log.Println("✓ WebSocket hub started")

	// ──── Initialize Handlers ────
	sessionAuth := middleware.NewSessionAuth(cfg.JWTSecret)
	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMin, time.Minute)
	surfaceHandler := handlers.NewSurfaceHandler(registry, deps, wsHub, cfg.DefaultLanguage, cfg.TranslateLanguage)
	documentHandler := handlers.NewDocumentHandler(client)

	// ──── Step 6: Start HTTP Server ────
	r := router.New(
		sessionAuth,
		limiter,
		surfaceHandler,
		documentHandler,
		wsHub,
		client,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.APITimeout + 15*time.Second, // speak and translate wait on the backend
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		registry.Close()
		limiter.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ PolicyMitr bridge ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
