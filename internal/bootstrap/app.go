package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/yanqian/multimodal-summarizer/internal/infra/config"
)

// Prober checks the remote summarize endpoint.
type Prober interface {
	Health(ctx context.Context) error
	BaseURL() string
}

// App encapsulates the HTTP server lifecycle.
type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	server   *http.Server
	endpoint Prober
}

// NewApp is used by Wire to build the runnable app.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server, endpoint Prober) *App {
	return &App{
		cfg:      cfg,
		logger:   logger.With("component", "bootstrap"),
		server:   server,
		endpoint: endpoint,
	}
}

// Run starts the HTTP server and blocks until shutdown.
func (a *App) Run(ctx context.Context) error {
	a.probeEndpoint(ctx)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server starting", "address", a.cfg.HTTP.Address, "endpoint", a.endpoint.BaseURL())
		if err := a.server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.logger.Info("shutdown signal received")
		return a.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// probeEndpoint only logs: the page still works, and every submission surfaces
// its own failure, when the endpoint comes up later.
func (a *App) probeEndpoint(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := a.endpoint.Health(probeCtx); err != nil {
		a.logger.Warn("summarize endpoint not reachable", "base_url", a.endpoint.BaseURL(), "error", err)
		return
	}
	a.logger.Info("summarize endpoint reachable", "base_url", a.endpoint.BaseURL())
}
