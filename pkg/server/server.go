package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/snaplink/pkg/observability"
	"github.com/matzehuels/snaplink/pkg/pipeline"
)

// DefaultShutdownTimeout bounds graceful shutdown in ListenAndServe.
const DefaultShutdownTimeout = 5 * time.Second

// Options configure a Server.
type Options struct {
	// Runner exports the workspace. Nil means an uncached runner.
	Runner *pipeline.Runner

	// Hooks observe requests. Nil uses the Env's counters.
	Hooks observability.HTTPHooks

	Logger *log.Logger
}

// Server serves one Env.
type Server struct {
	mu     sync.Mutex
	env    *pipeline.Env
	runner *pipeline.Runner
	hooks  observability.HTTPHooks
	log    *log.Logger
	router chi.Router
}

// New creates a server for env.
func New(env *pipeline.Env, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = env.Logger
	}
	if opts.Runner == nil {
		opts.Runner = pipeline.NewRunner(nil, nil, opts.Logger)
	}
	if opts.Hooks == nil {
		opts.Hooks = env.Counters
	}
	s := &Server{
		env:    env,
		runner: opts.Runner,
		hooks:  opts.Hooks,
		log:    opts.Logger,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/metrics", s.locked(s.handleMetrics))

	r.Route("/blocks", func(r chi.Router) {
		r.Get("/", s.locked(s.handleList))
		r.Post("/", s.locked(s.handleSpawn))
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.locked(s.handleGet))
			r.Patch("/", s.locked(s.handlePatch))
			r.Delete("/", s.locked(s.handleDispose))
			r.Post("/probe", s.locked(s.handleProbe))
			r.Post("/drag", s.locked(s.handleDrag))
			r.Post("/unplug", s.locked(s.handleUnplug))
			r.Put("/fields/{name}", s.locked(s.handleSetField))
		})
	})
	r.Get("/export/{format}", s.locked(s.handleExport))
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// locked runs h while holding the session lock, then flushes the events
// the request recorded.
func (s *Server) locked(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		h(w, r)
		if err := s.env.Flush(r.Context()); err != nil {
			s.log.Warn("flush events", "err", err)
		}
	}
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.hooks.OnRequest(r.Method, route)
		s.hooks.OnResponse(r.Method, route, status, time.Since(start))
		s.log.Debug("request", "method", r.Method, "route", route, "status", status, "duration", time.Since(start))
	})
}
