// Package app constructs the application object graph once at startup and
// hands components their dependencies explicitly, so nothing reaches for
// global state and tests can substitute fakes.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/praxislearn/praxis/internal/api"
	"github.com/praxislearn/praxis/internal/backoff"
	"github.com/praxislearn/praxis/internal/cache"
	"github.com/praxislearn/praxis/internal/circuitbreaker"
	"github.com/praxislearn/praxis/internal/config"
	"github.com/praxislearn/praxis/internal/llm/models"
	"github.com/praxislearn/praxis/internal/llm/query"
	"github.com/praxislearn/praxis/internal/llm/routing"
	"github.com/praxislearn/praxis/internal/ollama"
	"github.com/praxislearn/praxis/internal/problems"
	"github.com/praxislearn/praxis/internal/proof"
	"github.com/praxislearn/praxis/internal/sessions"
	"github.com/praxislearn/praxis/internal/skills"
	"go.uber.org/zap"
)

// App owns every process-lifetime component.
type App struct {
	Config       *config.Config
	Logger       *zap.Logger
	Client       *ollama.Client
	Availability *ollama.AvailabilityService
	Registry     *models.Registry
	Router       *routing.Router
	Cache        *cache.ResponseCache
	Breakers     *circuitbreaker.Manager
	Orchestrator *query.Orchestrator
	Skills       *skills.Store
	Sessions     *sessions.Store
	Problems     *problems.Store
	Generator    *problems.Generator
	Queue        *problems.Queue
	Prefetcher   *problems.Prefetcher
	Proof        *proof.Service
}

// New wires the full object graph from configuration.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	client := ollama.NewClient(cfg.Ollama.BaseURL, cfg.Ollama.RequestTimeout, logger)
	avail := ollama.NewAvailabilityService(client, cfg.Ollama.CheckTimeout, cfg.Ollama.PullTimeout, logger)
	registry := models.NewRegistry(cfg.Models, client, avail, logger)
	router := routing.NewRouter(cfg.Models, registry, logger)

	responseCache, err := cache.New(cfg.Cache.Capacity)
	if err != nil {
		return nil, err
	}

	breakers := circuitbreaker.NewManager(cfg.Breaker.Threshold, cfg.Breaker.Cooldown)
	policy := backoff.Policy{
		Initial:    cfg.Backoff.Initial,
		Max:        cfg.Backoff.Max,
		Multiplier: cfg.Backoff.Multiplier,
	}

	orch := query.NewOrchestrator(registry, router, responseCache, avail, breakers, policy, cfg.Query, logger)

	skillStore := skills.NewStore(cfg.Storage.DataDir, logger)
	sessionStore := sessions.NewStore(cfg.Storage.DataDir, logger)
	problemStore := problems.NewStore(cfg.Storage.DataDir, logger)
	generator := problems.NewGenerator(problemStore, orch, logger)
	queue := problems.NewQueue(cfg.Storage.DataDir, logger)
	prefetcher := problems.NewPrefetcher(queue, problemStore, generator, skillStore, cfg.Prefetch, logger)

	return &App{
		Config:       cfg,
		Logger:       logger,
		Client:       client,
		Availability: avail,
		Registry:     registry,
		Router:       router,
		Cache:        responseCache,
		Breakers:     breakers,
		Orchestrator: orch,
		Skills:       skillStore,
		Sessions:     sessionStore,
		Problems:     problemStore,
		Generator:    generator,
		Queue:        queue,
		Prefetcher:   prefetcher,
		Proof:        proof.NewService(orch, logger),
	}, nil
}

// Handler builds the HTTP surface over the wired services.
func (a *App) Handler() http.Handler {
	h := &api.Handler{
		Orchestrator: a.Orchestrator,
		Proof:        a.Proof,
		Generator:    a.Generator,
		Prefetcher:   a.Prefetcher,
		Skills:       a.Skills,
		Sessions:     a.Sessions,
		Registry:     a.Registry,
		Availability: a.Availability,
		Logger:       a.Logger,
	}
	return api.NewRouter(h, a.Config.CORS, a.Logger)
}

// Start launches background work: model warm-up and the prefetch loop. Both
// stop when ctx is cancelled.
func (a *App) Start(ctx context.Context) {
	go a.Availability.Warmup(ctx, a.Registry.Available())
	go a.Prefetcher.Run(ctx)
}

// Serve runs the HTTP server until ctx is cancelled, then shuts down
// gracefully within the configured window.
func (a *App) Serve(ctx context.Context) error {
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Handler(),
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.GracefulShutdown)
	defer cancel()

	a.Logger.Info("Shutting down HTTP server",
		zap.Duration("grace", a.Config.Server.GracefulShutdown))
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
