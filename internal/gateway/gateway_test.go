// ABOUTME: Tests for gateway assembly, HTTP surface, and lifecycle.

package gateway

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/2389/swarm-gateway/internal/config"
)

func newTestGateway(t *testing.T, mutate func(*config.Config)) *Gateway {
	t.Helper()

	cfg := config.Default()
	cfg.Server.HTTPAddr = "127.0.0.1:0"
	if mutate != nil {
		mutate(cfg)
	}

	gw, err := New(cfg, slog.Default())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = gw.Shutdown(ctx)
	})
	return gw
}

func TestHealthEndpoint(t *testing.T) {
	gw := newTestGateway(t, nil)
	ts := httptest.NewServer(gw.Handler())
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestReadyEndpoint(t *testing.T) {
	gw := newTestGateway(t, nil)
	ts := httptest.NewServer(gw.Handler())
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/health/ready")
	if err != nil {
		t.Fatalf("GET /health/ready: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.HasPrefix(string(body), "ready") {
		t.Errorf("body = %q", body)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	gw := newTestGateway(t, nil)
	ts := httptest.NewServer(gw.Handler())
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "swarm_task_created_total") {
		t.Error("task counter not exposed")
	}
}

func TestMetricsDisabled(t *testing.T) {
	gw := newTestGateway(t, func(c *config.Config) {
		c.Metrics.Enabled = false
	})
	ts := httptest.NewServer(gw.Handler())
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestMCPEndpointIsWired(t *testing.T) {
	gw := newTestGateway(t, nil)
	ts := httptest.NewServer(gw.Handler())
	defer ts.Close()

	resp, err := ts.Client().Post(ts.URL+"/mcp", "application/json",
		strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`))
	if err != nil {
		t.Fatalf("POST /mcp: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if resp.Header.Get("Mcp-Session-Id") == "" {
		t.Error("initialize returned no session id")
	}

	var out struct {
		Result map[string]any `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	info, ok := out.Result["serverInfo"].(map[string]any)
	if !ok || info["name"] != "swarm-gateway" {
		t.Errorf("serverInfo = %v", out.Result["serverInfo"])
	}
}

func TestSQLiteBackendAssembly(t *testing.T) {
	newTestGateway(t, func(c *config.Config) {
		c.Store.Backend = config.BackendSQLite
		c.Store.Path = filepath.Join(t.TempDir(), "swarm.db")
	})
}

func TestUnknownBackendFails(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Backend = "carrier-pigeon"

	if _, err := New(cfg, slog.Default()); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	gw := newTestGateway(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- gw.Run(ctx) }()

	// Give the listener a moment to come up, then cancel.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v, want nil on graceful shutdown", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after context cancel")
	}
}
