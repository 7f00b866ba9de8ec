// Package server exposes conversation sessions over HTTP with streamed replies.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/iksnae/persona-chat/internal"
)

const shutdownTimeout = 10 * time.Second

// Server serves the session API
type Server struct {
	cfg      *internal.Config
	catalog  *internal.Catalog
	gateway  internal.Gateway
	registry *Registry
}

// New creates a server whose sessions share catalog and gateway
func New(cfg *internal.Config, catalog *internal.Catalog, gateway internal.Gateway) *Server {
	return &Server{
		cfg:      cfg,
		catalog:  catalog,
		gateway:  gateway,
		registry: NewRegistry(cfg.Server.SessionTTL),
	}
}

// Registry returns the live session registry
func (s *Server) Registry() *Registry {
	return s.registry
}

// Handler returns the chi router with all routes mounted
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/personas", s.listPersonas)
		r.Get("/models", s.listModels)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.createSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.withSession(s.getSession))
				r.Delete("/", s.deleteSession)
				r.Put("/persona", s.withSession(s.setPersona))
				r.Put("/model", s.withSession(s.setModel))
				r.Put("/custom-prompt", s.withSession(s.setCustomPrompt))
				r.Delete("/history", s.withSession(s.clearHistory))
				r.Post("/turns", s.withSession(s.submitTurn))
				r.Get("/export", s.withSession(s.exportSession))
			})
		})
	})

	return r
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		internal.LogInfo("Listening on http://%s", s.cfg.Server.Listen)
		errCh <- srv.ListenAndServe()
	}()

	go s.pruneLoop(ctx)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	internal.LogInfo("Shutting down")
	s.registry.CloseAll()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) pruneLoop(ctx context.Context) {
	ttl := s.cfg.Server.SessionTTL
	if ttl <= 0 {
		return
	}
	interval := ttl / 2
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.registry.Prune(); n > 0 {
				internal.LogDebug("Pruned %d idle sessions", n)
			}
		}
	}
}

// requestLogger logs one line per request through the application logger
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			internal.Logger().Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}
