package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"rollcall/internal/platform/sl"
	"rollcall/internal/ports/input"
	"rollcall/internal/ports/output"
)

// Engine is the use case surface the HTTP API exposes.
type Engine interface {
	input.ParticipationUseCase
	input.EventUseCase
}

type Translator = output.Translator

// HealthCheck reports a dependency failure.
type HealthCheck func(ctx context.Context) error

type Option func(*options)

type options struct {
	tr      Translator
	metrics http.Handler
	checks  []HealthCheck
	now     func() time.Time
}

// WithTranslator renders error messages from the catalogue.
func WithTranslator(tr Translator) Option {
	return func(o *options) { o.tr = tr }
}

// WithMetricsHandler mounts h on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(o *options) { o.metrics = h }
}

func WithHealthCheck(check HealthCheck) Option {
	return func(o *options) { o.checks = append(o.checks, check) }
}

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func NewRouter(log *slog.Logger, engine Engine, opts ...Option) http.Handler {
	o := options{now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(&o)
	}
	h := &handlers{
		log:    log.With(sl.Module("api")),
		engine: engine,
		tr:     o.tr,
		now:    o.now,
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(10 * time.Second))

	router.NotFound(h.notFound)
	router.MethodNotAllowed(h.notAllowed)

	router.Get("/healthz", h.healthz(o.checks))
	if o.metrics != nil {
		router.Handle("/metrics", o.metrics)
	}

	router.Route("/v1", func(v1 chi.Router) {
		v1.Use(render.SetContentType(render.ContentTypeJSON))
		v1.Post("/events", h.createEvent)
		v1.Route("/events/{eventID}", func(ev chi.Router) {
			ev.Get("/", h.getEvent)
			ev.Put("/schedule", h.reschedule)
			ev.Put("/capacity", h.updateCapacity)
			ev.Post("/scan", h.scan)
			ev.Get("/participants", h.listParticipants)
			ev.Post("/participants", h.register)
			ev.Get("/participants/{userID}", h.getParticipation)
			ev.Delete("/participants/{userID}", h.cancel)
		})
		v1.Post("/admin/sweep", h.sweep)
	})

	return router
}

// Server runs the HTTP API until its context ends.
type Server struct {
	httpServer *http.Server
	log        *slog.Logger
}

func NewServer(addr string, handler http.Handler, log *slog.Logger) *Server {
	log = log.With(sl.Module("api.server"))
	return &Server{
		log: log,
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ErrorLog:     slog.NewLogLogger(log.Handler(), slog.LevelError),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("starting api server", slog.String("address", s.httpServer.Addr))
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	s.log.Info("stopping api server")
	return s.httpServer.Shutdown(shutdownCtx)
}
