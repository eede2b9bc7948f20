package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/gabrieljoian/portfolio/backend/internal/config"
	"github.com/gabrieljoian/portfolio/backend/internal/handler"
	"github.com/gabrieljoian/portfolio/backend/internal/middleware"
	"github.com/gabrieljoian/portfolio/backend/internal/model/persona"
	"github.com/gabrieljoian/portfolio/backend/internal/service/ai"
	"github.com/gabrieljoian/portfolio/backend/internal/service/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	personaStore, err := persona.Open(cfg.Assistant.PersonaFile)
	if err != nil {
		log.Fatalf("failed to load personas: %v", err)
	}
	log.Printf("loaded %d personas", len(personaStore.List()))

	chatModel, err := ai.NewChatModel(ctx, cfg.AI)
	if err != nil {
		log.Printf("warning: %v", err)
		log.Println("falling back to the OpenAI client; submissions will fail until credentials are configured")
		chatModel = ai.NewOpenAIClient(ai.OpenAIConfigFrom(cfg.AI))
	}
	aiService := ai.NewService(chatModel)
	log.Printf("completion provider=%s", cfg.AI.Provider)

	registry := session.NewRegistry(personaStore, aiService, cfg.Assistant.SessionTTL)
	go registry.Run(ctx, cfg.Assistant.JanitorInterval)

	limiter := newLimiter(ctx, cfg.RateLimit)
	if closer, ok := limiter.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	router := handler.NewRouter(cfg.Server.AllowedOrigins, personaStore, registry, limiter)

	startServer(ctx, cfg.Server, router)
}

func newLimiter(ctx context.Context, cfg config.RateLimitConfig) middleware.Limiter {
	if !cfg.Enabled() {
		log.Println("submission rate limiting disabled")
		return nil
	}

	if cfg.RedisURL != "" {
		limiter, err := middleware.NewRedisLimiter(ctx, cfg.RedisURL, cfg.Submits, cfg.Window)
		if err == nil {
			log.Printf("rate limiting submissions via redis: %d per %s", cfg.Submits, cfg.Window)
			return limiter
		}
		log.Printf("warning: %v", err)
		log.Println("falling back to in-memory rate limiting")
	}

	log.Printf("rate limiting submissions in memory: %d per %s", cfg.Submits, cfg.Window)
	return middleware.NewMemoryLimiter(cfg.Submits, cfg.Window)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("portfolio assistant listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
