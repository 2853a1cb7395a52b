package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/niels/plank/pkg/app/demo"
	"github.com/niels/plank/pkg/config"
)

func TestServerSingleApp(t *testing.T) {
	cfg := config.LoadDefault()

	srv, err := New(cfg, false, false)
	if err != nil {
		t.Fatalf("Failed to build server: %v", err)
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
	if rec.Body.String() != demo.DefaultGreeting {
		t.Errorf("Expected body '%s', got '%s'", demo.DefaultGreeting, rec.Body.String())
	}
}

func TestServerMountDispatch(t *testing.T) {
	cfg := config.LoadDefault()
	cfg.Mounts = []config.MountConfig{
		{Path: "/", App: "hello", Options: map[string]interface{}{"greeting": "root"}},
		{Path: "/time", App: "clock"},
	}

	srv, err := New(cfg, false, false)
	if err != nil {
		t.Fatalf("Failed to build server: %v", err)
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Body.String() != "root" {
		t.Errorf("Expected root mount body 'root', got '%s'", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/time", nil))
	body := rec.Body.String()
	if body != demo.EvenBody && body != demo.OddBody {
		t.Errorf("Expected /time to hit the clock app, got '%s'", body)
	}

	// Longer prefix must win even when declared after "/"
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/time/now", nil))
	body = rec.Body.String()
	if body != demo.EvenBody && body != demo.OddBody {
		t.Errorf("Expected /time/now to hit the clock app, got '%s'", body)
	}
}

func TestServerMountSegmentBoundary(t *testing.T) {
	cfg := config.LoadDefault()
	cfg.Mounts = []config.MountConfig{
		{Path: "/", App: "hello", Options: map[string]interface{}{"greeting": "root"}},
		{Path: "/time", App: "clock"},
	}

	srv, err := New(cfg, false, false)
	if err != nil {
		t.Fatalf("Failed to build server: %v", err)
	}

	// A mount matches whole path segments only: /timex is not under
	// /time and must fall through to the root app
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/timex", nil))
	if rec.Body.String() != "root" {
		t.Errorf("Expected /timex to fall through to the root mount, got '%s'", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/time", nil))
	body := rec.Body.String()
	if body != demo.EvenBody && body != demo.OddBody {
		t.Errorf("Expected exact /time to still hit the clock app, got '%s'", body)
	}
}

func TestServerUnknownApp(t *testing.T) {
	cfg := config.LoadDefault()
	cfg.App.Name = "no-such-app"

	_, err := New(cfg, false, false)
	if err == nil {
		t.Errorf("Expected error for unknown app, got nil")
	}
}

func TestServerInvalidConfig(t *testing.T) {
	cfg := config.LoadDefault()
	cfg.Server.Port = -1

	_, err := New(cfg, false, false)
	if err == nil {
		t.Errorf("Expected error for invalid config, got nil")
	}
}

func TestServerInFlightLimit(t *testing.T) {
	cfg := config.LoadDefault()
	cfg.Server.MaxInFlight = 2

	srv, err := New(cfg, false, false)
	if err != nil {
		t.Fatalf("Failed to build server: %v", err)
	}

	// With a bound in place requests still complete one after another
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("Expected status 200 under limit, got %d", rec.Code)
		}
	}
}

func TestLimitInFlightRejection(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	handler := limitInFlight(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entered <- struct{}{}
		<-release
		w.WriteHeader(http.StatusOK)
	}), 1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	}()
	<-entered

	// With the slot taken, a waiter whose context is already gone is
	// turned away with a response, not a bare status
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil).WithContext(ctx))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Expected a content type on the 503, got '%s'", ct)
	}
	if !strings.Contains(rec.Body.String(), "Service Unavailable") {
		t.Errorf("Expected a 503 body, got: %s", rec.Body.String())
	}

	close(release)
	<-done
}

func TestServerListenAndServe(t *testing.T) {
	cfg := config.LoadDefault()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0 // ephemeral
	cfg.Server.ShutdownTimeout = 2

	srv, err := New(cfg, false, false)
	if err != nil {
		t.Fatalf("Failed to build server: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ready := make(chan string, 1)
	done := make(chan error, 1)
	go func() {
		done <- srv.ListenAndServe(ctx, func(addr string) { ready <- addr })
	}()

	var addr string
	select {
	case addr = <-ready:
	case <-time.After(5 * time.Second):
		t.Fatal("Server never reported ready")
	}
	if addr == "" || srv.Addr() != addr {
		t.Errorf("Expected Addr() to match the ready address, got '%s' and '%s'", srv.Addr(), addr)
	}

	resp, err := http.Get("http://" + addr + "/")
	if err != nil {
		t.Fatalf("Failed to reach the server: %v", err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("Failed to read response body: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	if string(body) != demo.DefaultGreeting {
		t.Errorf("Expected body '%s', got '%s'", demo.DefaultGreeting, string(body))
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Expected clean shutdown, got: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Server did not shut down")
	}
}
