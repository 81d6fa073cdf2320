// ABOUTME: Gateway assembly that wires the store, orchestrator, and MCP server
// ABOUTME: Manages the HTTP server, timeout monitor, and graceful shutdown lifecycle

package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/2389/swarm-gateway/internal/agent"
	"github.com/2389/swarm-gateway/internal/config"
	"github.com/2389/swarm-gateway/internal/mcp"
	"github.com/2389/swarm-gateway/internal/metrics"
	"github.com/2389/swarm-gateway/internal/orchestrator"
	"github.com/2389/swarm-gateway/internal/queue"
	"github.com/2389/swarm-gateway/internal/scratch"
	"github.com/2389/swarm-gateway/internal/store"
	"github.com/2389/swarm-gateway/internal/task"
	"github.com/2389/swarm-gateway/internal/tools"
)

// Gateway assembles the swarm-gateway server components. It owns the
// durable store, the orchestration core, the timeout monitor, and the
// HTTP server carrying the MCP endpoint, health checks, and metrics.
type Gateway struct {
	config     *config.Config
	store      store.Store
	orch       *orchestrator.Orchestrator
	monitor    *orchestrator.Monitor
	metrics    *metrics.Metrics
	mcpServer  *mcp.Server
	httpServer *http.Server
	logger     *slog.Logger

	// serverID identifies this gateway instance
	serverID string
}

// initStore creates a store based on config and environment.
// SWARM_DB_PATH overrides the configured sqlite path.
func initStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case config.BackendMemory:
		return store.NewMemoryStore(), nil
	case config.BackendSQLite:
		dbPath := cfg.Store.Path
		if envPath := os.Getenv("SWARM_DB_PATH"); envPath != "" {
			dbPath = envPath
		}
		s, err := store.NewSQLiteStore(dbPath)
		if err != nil {
			return nil, fmt.Errorf("initializing sqlite store: %w", err)
		}
		return s, nil
	case config.BackendRedis:
		// The connectivity ping gets its own deadline; New has no ctx.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s, err := store.NewRedisStore(ctx, cfg.Store.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("initializing redis store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// New creates a new Gateway instance with the given configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Gateway, error) {
	s, err := initStore(cfg)
	if err != nil {
		return nil, err
	}

	m := metrics.New()

	orch := orchestrator.New(
		task.NewManager(s, logger),
		agent.NewRegistry(s, logger),
		queue.NewDispatcher(s),
		m,
		logger,
	)

	registry := tools.NewRegistry(logger)
	if err := registry.RegisterAll(tools.OrchestrationTools(orch, scratch.New(s))); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("registering tools: %w", err)
	}

	mcpServer, err := mcp.NewServer(mcp.Config{
		Registry: registry,
		Logger:   logger.With("component", "mcp"),
	})
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("creating MCP server: %w", err)
	}

	gw := &Gateway{
		config:    cfg,
		store:     s,
		orch:      orch,
		metrics:   m,
		mcpServer: mcpServer,
		logger:    logger.With("component", "gateway"),
		serverID:  generateServerID(),
	}

	if cfg.Monitor.Enabled {
		gw.monitor = orchestrator.NewMonitor(orch, cfg.Monitor.Interval, logger)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", gw.handleHealth)
	mux.HandleFunc("/health/ready", gw.handleReady)
	if cfg.Metrics.Enabled {
		mux.Handle(cfg.Metrics.Path, m.Handler())
	}
	mcpServer.RegisterRoutes(mux)

	gw.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return gw, nil
}

// Handler returns the gateway's HTTP handler. Exposed for tests that
// drive the full stack through httptest.
func (g *Gateway) Handler() http.Handler {
	return g.httpServer.Handler
}

// Run starts the gateway and blocks until the context is canceled.
// Returns nil on graceful shutdown (context canceled), or an error if
// the HTTP server fails.
func (g *Gateway) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", g.config.Server.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listening on HTTP address: %w", err)
	}

	if g.monitor != nil {
		g.monitor.Start(ctx)
		g.logger.Info("timeout monitor running", "interval", g.config.Monitor.Interval)
	}

	errCh := make(chan error, 1)
	go func() {
		g.logger.Info("HTTP server listening", "addr", ln.Addr().String(), "server_id", g.serverID)
		if err := g.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		g.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		g.logger.Error("server error", "error", serverErr)
	}

	shutdownErr := g.gracefulShutdown()

	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
// Uses context.Background() intentionally since the original context is
// already canceled.
func (g *Gateway) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return g.Shutdown(ctx)
}

// Shutdown gracefully stops the gateway and releases resources.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.logger.Info("shutting down gateway")

	var errs []error
	if err := g.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("HTTP shutdown: %w", err))
	}

	if g.monitor != nil {
		g.monitor.Stop()
	}

	if err := g.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store close: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	return nil
}

// handleHealth returns 200 OK if the server is alive.
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleReady returns 200 OK once the store answers queries. A store
// that cannot be reached means polls and submits will fail, so the
// instance should not receive traffic.
func (g *Gateway) handleReady(w http.ResponseWriter, r *http.Request) {
	agents, err := g.orch.ListAgents(r.Context(), agent.FilterAll)
	if err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = fmt.Fprintf(w, "store unavailable: %v", err)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "ready (%d agents)", len(agents))
}

// generateServerID creates a unique identifier for this gateway instance.
func generateServerID() string {
	return fmt.Sprintf("swarm-gateway-%d", time.Now().UnixNano()%1000000)
}
