// Package server provides the HTTP operator surface of the gesture mouse.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ayusman/airmouse/internal/app"
	"github.com/ayusman/airmouse/internal/config"
	"github.com/ayusman/airmouse/internal/gesture"
	"github.com/ayusman/airmouse/internal/server/api"
	"github.com/ayusman/airmouse/internal/store"
)

const shutdownTimeout = 5 * time.Second

// Engine is the running gesture loop as seen by the server.
type Engine interface {
	Status() app.Status
	Rules() []gesture.Rule
	Snapshot() ([]byte, bool)
	Subscribe() (<-chan app.Event, func())
	SetEnabled(bool)
	IsEnabled() bool
}

// Config holds the server configuration. Routes whose dependency is unset
// are not registered.
type Config struct {
	StaticDir string
	Store     *store.Store
	Engine    Engine
	// Metrics serves /metrics.
	Metrics http.Handler
	// Base is the configuration persisted settings are validated against.
	Base   config.Config
	Logger *slog.Logger
	// StreamInterval is the MJPEG frame spacing.
	StreamInterval time.Duration
}

// Server represents the HTTP server.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
	logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
		logger: logger,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Engine != nil {
		s.mux.HandleFunc("/api/enabled", s.handleEnabled)
		s.mux.Handle("/api/rules", api.NewRulesHandler(s.config.Engine))
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Engine, s.config.StreamInterval))
		s.mux.Handle("/api/events", NewEventsHandler(s.config.Engine, s.logger))
	}

	if s.config.Store != nil {
		settings := api.NewSettingsHandler(s.config.Store, s.config.Base, s.logger)
		s.mux.Handle("/api/settings", settings)
		s.mux.Handle("/api/settings/", settings)
	}

	if s.config.Metrics != nil {
		s.mux.Handle("/metrics", s.config.Metrics)
	}

	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

type healthResponse struct {
	Status string      `json:"status"`
	Uptime string      `json:"uptime"`
	Engine *app.Status `json:"engine,omitempty"`
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := healthResponse{
		Status: "ok",
		Uptime: time.Since(s.start).Round(time.Second).String(),
	}
	if s.config.Engine != nil {
		status := s.config.Engine.Status()
		response.Engine = &status
	}

	writeJSON(w, http.StatusOK, response)
}

type enabledBody struct {
	Enabled *bool `json:"enabled"`
}

// handleEnabled reports or toggles gesture control.
func (s *Server) handleEnabled(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPut:
		var body enabledBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Enabled == nil {
			http.Error(w, `body must be {"enabled": true|false}`, http.StatusBadRequest)
			return
		}
		s.config.Engine.SetEnabled(*body.Enabled)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	on := s.config.Engine.IsEnabled()
	writeJSON(w, http.StatusOK, enabledBody{Enabled: &on})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
