package rest

import (
	"context"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggo/swag"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"archviz/application/services"
	_ "archviz/docs"
	"archviz/interfaces/http/rest/handlers"
	"archviz/interfaces/http/rest/middleware"
	"archviz/interfaces/http/web"
	"archviz/pkg/common"
	"archviz/pkg/errors"
	"archviz/pkg/observability"
)

// Options toggles optional parts of the router
type Options struct {
	EnableMetrics  bool
	EnableCORS     bool
	AllowedOrigins []string
	MaxBodyBytes   int64
}

// ReadinessCheck reports whether the app can serve traffic
type ReadinessCheck func(ctx context.Context) error

// Router creates and configures the HTTP router
type Router struct {
	service      *services.RepositoryService
	templates    *template.Template
	collector    *observability.Collector
	tracer       trace.Tracer
	logger       *zap.Logger
	errorHandler *errors.ErrorHandler
	ready        ReadinessCheck
	opts         Options
}

// NewRouter creates a new router instance
func NewRouter(
	service *services.RepositoryService,
	templates *template.Template,
	collector *observability.Collector,
	tracer trace.Tracer,
	logger *zap.Logger,
	errorHandler *errors.ErrorHandler,
	ready ReadinessCheck,
	opts Options,
) *Router {
	return &Router{
		service:      service,
		templates:    templates,
		collector:    collector,
		tracer:       tracer,
		logger:       logger,
		errorHandler: errorHandler,
		ready:        ready,
		opts:         opts,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.Logger(rt.logger))
	router.Use(rt.errorHandler.Middleware)
	router.Use(observability.TracingMiddleware(rt.tracer))
	if rt.opts.EnableMetrics {
		router.Use(observability.MetricsMiddleware(rt.collector))
	}
	if rt.opts.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: rt.opts.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}
	if rt.opts.MaxBodyBytes > 0 {
		router.Use(chimiddleware.RequestSize(rt.opts.MaxBodyBytes))
	}

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	if rt.opts.EnableMetrics {
		router.Handle("/metrics", promhttp.HandlerFor(rt.collector.Registry(), promhttp.HandlerOpts{}))
	}
	router.Get("/swagger/doc.json", rt.swaggerDoc)

	systemHandler := handlers.NewSystemHandler(rt.service, rt.logger, rt.errorHandler)
	previewHandler := handlers.NewPreviewHandler(rt.service, rt.logger, rt.errorHandler)
	pageHandler := handlers.NewPageHandler(rt.service, rt.templates, rt.logger)

	// Pages
	router.Get("/", pageHandler.Index)
	router.Get("/diagram/{system}/{type}", pageHandler.Diagram)
	router.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(web.Static())))

	router.Post("/preview", previewHandler.Preview)

	router.Route("/api/systems", func(r chi.Router) {
		r.Get("/", systemHandler.ListSystems)
		r.Post("/", systemHandler.CreateSystem)
		r.Delete("/{system}", systemHandler.DeleteSystem)
		r.Get("/{system}/{type}", systemHandler.GetSlot)
		r.Put("/{system}/{type}", systemHandler.SaveSlot)
		r.Get("/{system}/{type}/view", systemHandler.ViewSlot)
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// readinessCheck reports not ready while the store is unreachable
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	if rt.ready != nil {
		ctx, cancel := context.WithTimeout(req.Context(), 3*time.Second)
		defer cancel()
		if err := rt.ready(ctx); err != nil {
			rt.logger.Warn("Readiness check failed", zap.Error(err))
			common.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
			return
		}
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (rt *Router) swaggerDoc(w http.ResponseWriter, req *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		rt.errorHandler.Handle(w, req, errors.NewInternalError("failed to read API document").WithCause(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(doc))
}
