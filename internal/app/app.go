package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/goetzcj/ninjamcp/internal/auth"
	"github.com/goetzcj/ninjamcp/internal/mcpserver"
	"github.com/goetzcj/ninjamcp/internal/ninja"
)

// App orchestrates the lifecycle of the authentication manager and the MCP
// server.
type App struct {
	cfg     *Config
	manager *auth.Manager
	server  *mcpserver.Server
}

// New creates a new App instance.
func New(cfg *Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	backend, err := cfg.Auth.NewTokenBackend()
	if err != nil {
		return nil, fmt.Errorf("failed to create token storage backend: %w", err)
	}

	store := auth.NewStore(backend)

	// Without machine credentials the manager runs in injection-only mode
	// and never performs a network flow.
	var exchange *auth.Exchange
	if !cfg.InjectionOnly() {
		exchange = auth.NewExchange(
			cfg.Ninja.BaseURL,
			cfg.Ninja.ClientID,
			cfg.Ninja.ClientSecret,
			auth.WithRedirectPort(int(cfg.Auth.RedirectPort)),
			auth.WithAuthorizationTimeout(cfg.Auth.AuthorizationTimeout),
			auth.WithHTTPClient(&http.Client{Timeout: 30 * time.Second}),
		)
	}

	manager := auth.NewManager(store, exchange, auth.ManagerConfig{
		Mode:         cfg.Auth.Mode,
		ClientScopes: cfg.Auth.ClientScopes,
		UserScopes:   cfg.Auth.UserScopes,
	})

	client := ninja.NewClient(cfg.Ninja.BaseURL, manager)

	return &App{
		cfg:     cfg,
		manager: manager,
		server:  mcpserver.New(client, manager),
	}, nil
}

// Start initializes authentication and serves the MCP stdio transport until
// the context is cancelled or the client closes the stream.
func (a *App) Start(ctx context.Context) error {
	if err := a.manager.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize authentication: %w", err)
	}

	g, gCtx := errgroup.WithContext(ctx)

	slog.InfoContext(gCtx, "starting MCP server", "transport", "stdio")

	g.Go(func() error {
		if err := a.server.Start(gCtx); err != nil {
			slog.ErrorContext(gCtx, "mcp server runtime error", "error", err)
			return fmt.Errorf("mcp server: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("application stopped")
	return nil
}
