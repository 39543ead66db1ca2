package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/dom/deception-server/internal/api"
	"github.com/dom/deception-server/internal/config"
	"github.com/dom/deception-server/internal/repository"
	"github.com/dom/deception-server/internal/repository/memory"
	"github.com/dom/deception-server/internal/repository/postgres"
	"github.com/dom/deception-server/internal/service"
	"github.com/dom/deception-server/internal/telemetry"
	"github.com/dom/deception-server/internal/websocket"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, "deception-server", cfg.OTelEndpoint)
	if err != nil {
		log.Fatalf("failed to set up tracing: %v", err)
	}

	repos, err := openStore(cfg)
	if err != nil {
		log.Fatalf("failed to open %s store: %v", cfg.Store, err)
	}

	services := service.NewServices(repos, cfg)

	// Card templates are seeded on every boot so a fresh database is playable.
	n, err := services.Card.Sync(ctx)
	if err != nil {
		log.Fatalf("failed to sync card catalog: %v", err)
	}
	log.Printf("Card catalog synced (%d cards)", n)

	hub := websocket.NewHub(services, cfg)
	router := api.NewRouter(services, hub, cfg)

	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run()
		return nil
	})
	g.Go(func() error {
		log.Printf("Server starting on port %s (store=%s)", cfg.Port, cfg.Store)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		hub.Stop()
		if terr := shutdownTracing(shutdownCtx); terr != nil {
			log.Printf("ERROR [main] tracer shutdown failed: %v", terr)
		}
		return err
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("server stopped with error: %v", err)
	}
	log.Println("Server stopped")
}

func openStore(cfg *config.Config) (*repository.Repositories, error) {
	if cfg.Store == "memory" {
		return memory.NewRepositories(memory.NewStore()), nil
	}
	db, err := postgres.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		return nil, err
	}
	return postgres.NewRepositories(db), nil
}
