// Package httpapi exposes flow editors over JSON HTTP.
//
// Every flow route resolves its editor through a session.Manager, so a
// flow that is not open is reopened from its latest saved revision.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"

	"github.com/randalmurphal/chatflow/pkg/chatflow/observability"
	"github.com/randalmurphal/chatflow/pkg/chatflow/palette"
	"github.com/randalmurphal/chatflow/pkg/chatflow/session"
	"github.com/randalmurphal/chatflow/pkg/chatflow/store"
)

// RevisionLister lists saved revisions of a flow.
type RevisionLister interface {
	Revisions(ctx context.Context, flowID string) ([]store.Info, error)
}

// MetricsCollector reads current metric values.
type MetricsCollector interface {
	Collect(ctx context.Context) ([]observability.MetricPoint, error)
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger for requests and handler errors.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPalette sets the catalog served at /templates.
// Default: palette.Default()
func WithPalette(c *palette.Catalog) Option {
	return func(s *Server) {
		if c != nil {
			s.palette = c
		}
	}
}

// WithRevisions enables the revisions route.
func WithRevisions(r RevisionLister) Option {
	return func(s *Server) { s.revisions = r }
}

// WithMetricsCollector enables GET /debug/metrics.
func WithMetricsCollector(c MetricsCollector) Option {
	return func(s *Server) { s.metrics = c }
}

// WithCORSOrigins sets the allowed browser origins.
// Default: all origins.
func WithCORSOrigins(origins ...string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.origins = origins
		}
	}
}

// Server routes HTTP requests to flow editors.
type Server struct {
	sessions  *session.Manager
	palette   *palette.Catalog
	revisions RevisionLister
	metrics   MetricsCollector
	logger    *slog.Logger
	origins   []string
	validate  *validator.Validate
}

// New creates a Server over the given sessions.
func New(sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		sessions: sessions,
		palette:  palette.Default(),
		logger:   slog.Default(),
		origins:  []string{"*"},
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)
	if s.metrics != nil {
		r.Get("/debug/metrics", s.debugMetrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/templates", s.listTemplates)

		r.Route("/flows", func(r chi.Router) {
			r.Post("/", s.createFlow)

			r.Route("/{flowID}", func(r chi.Router) {
				r.Get("/", s.getFlow)
				r.Put("/viewport", s.setViewport)
				r.Post("/drop", s.drop)
				r.Patch("/nodes/{nodeID}/position", s.moveNode)
				r.Post("/edges", s.connect)
				r.Delete("/edges/{edgeID}", s.removeEdge)
				r.Put("/selection", s.selectNode)
				r.Delete("/selection", s.clearSelection)
				r.Put("/inspector/text", s.editText)
				r.Post("/save", s.save)
				r.Delete("/notification", s.dismissNotification)
				r.Get("/revisions", s.listRevisions)
			})
		})
	})

	return r
}

// requestLogger logs one line per request.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info("http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
