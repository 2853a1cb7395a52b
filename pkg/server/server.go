package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/niels/plank/pkg/app"
	"github.com/niels/plank/pkg/config"
	"github.com/niels/plank/pkg/logging"
	"github.com/niels/plank/pkg/stats"
)

// Server is the hosting process: it accepts TCP connections, parses
// HTTP, invokes apps through adapters and serializes their responses.
// Concurrency is owned here, not by the apps: net/http runs each
// request on its own goroutine, optionally bounded by a semaphore.
type Server struct {
	cfg     *config.Config
	handler http.Handler
	tracker *stats.Tracker
	httpSrv *http.Server
	addr    string
}

// New builds a server from a descriptor. Apps are resolved by name
// from the registry; a mounts list dispatches by longest path prefix,
// otherwise the single configured app is mounted at "/".
func New(cfg *config.Config, debug bool, useColor bool) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	tracker := stats.NewTracker(useColor)

	handler, err := buildHandler(cfg, debug, tracker)
	if err != nil {
		return nil, err
	}

	if cfg.Server.MaxInFlight > 0 {
		handler = limitInFlight(handler, cfg.Server.MaxInFlight)
	}

	return &Server{
		cfg:     cfg,
		handler: handler,
		tracker: tracker,
	}, nil
}

// buildHandler resolves the configured apps and wires them into a
// router
func buildHandler(cfg *config.Config, debug bool, tracker *stats.Tracker) (http.Handler, error) {
	router := mux.NewRouter()

	mounts := cfg.Mounts
	if len(mounts) == 0 {
		mounts = []config.MountConfig{{
			Path:    "/",
			App:     cfg.App.Name,
			Options: cfg.App.Options,
		}}
	}

	// Longest prefix first so /time wins over / for /time/now
	sorted := make([]config.MountConfig, len(mounts))
	copy(sorted, mounts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Path) > len(sorted[j].Path)
	})

	for _, m := range sorted {
		a, err := app.Create(m.App, m.Options)
		if err != nil {
			return nil, fmt.Errorf("mount %s: %w", m.Path, err)
		}
		adapter := NewAdapter(a, m.Path, debug).WithRecorder(tracker)
		if prefix := strings.TrimSuffix(m.Path, "/"); prefix == "" {
			router.PathPrefix("/").Handler(adapter)
		} else {
			// An exact route plus a slash-terminated prefix keeps the
			// mount on path-segment boundaries: /time and /time/now
			// match, /timex falls through to a shorter mount.
			router.Path(prefix).Handler(adapter)
			router.PathPrefix(prefix + "/").Handler(adapter)
		}
		logger := logging.WithComponent("server")
		logger.Info().
			Str("app", m.App).
			Str("path", m.Path).
			Msg("mounted app")
	}

	return router, nil
}

// limitInFlight bounds the number of concurrently served requests.
// Requests past the limit wait their turn; a client that goes away
// while waiting is released by its context.
func limitInFlight(next http.Handler, max int) http.Handler {
	semaphore := make(chan struct{}, max)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case semaphore <- struct{}{}:
			defer func() { <-semaphore }()
			next.ServeHTTP(w, r)
		case <-r.Context().Done():
			logging.Warn("request abandoned while waiting for capacity")
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprint(w, "<h1>Service Unavailable</h1>")
		}
	})
}

// Handler returns the fully wired http.Handler. Exposed for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Tracker returns the request stats tracker
func (s *Server) Tracker() *stats.Tracker {
	return s.tracker
}

// Addr returns the address the server is listening on, valid after
// ListenAndServe has bound its listener
func (s *Server) Addr() string {
	return s.addr
}

// ListenAndServe binds the configured host and port and serves until
// ctx is cancelled, then shuts down gracefully within the configured
// timeout. onReady, when non-nil, runs once the listener is bound.
func (s *Server) ListenAndServe(ctx context.Context, onReady func(addr string)) error {
	bind := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	listener, err := net.Listen("tcp", bind)
	if err != nil {
		logging.Error(fmt.Sprintf("failed to bind %s: %v", bind, err))
		return fmt.Errorf("failed to bind %s: %w", bind, err)
	}
	s.addr = listener.Addr().String()

	s.httpSrv = &http.Server{
		Handler: s.handler,
	}

	if onReady != nil {
		onReady(s.addr)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpSrv.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		timeout := time.Duration(s.cfg.Server.ShutdownTimeout) * time.Second
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		logger := logging.WithComponent("server")
		logger.Info().Msg("shutting down")
		if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
		return nil
	}
}
