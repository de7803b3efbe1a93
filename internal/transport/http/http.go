package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	graphqltransport "github.com/corray333/backend-labs/delivery/internal/transport/graphql"
	"github.com/corray333/backend-labs/delivery/internal/transport/http/middleware/auth"
	"github.com/corray333/backend-labs/delivery/pkg/http/middleware/trace"
	"github.com/corray333/backend-labs/delivery/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

type HTTPTransport struct {
	server        *http.Server
	router        *chi.Mux
	schema        *graphql.Schema
	authenticator *auth.Authenticator
	healthChecks  map[string]HealthCheck
}

// option is a function that configures the HTTPTransport.
type option func(*HTTPTransport)

// WithHealthCheck adds a named check to /healthz.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithHealthCheck(name string, check HealthCheck) option {
	return func(h *HTTPTransport) {
		h.healthChecks[name] = check
	}
}

func NewHTTPTransport(schema *graphql.Schema, authenticator *auth.Authenticator, opts ...option) *HTTPTransport {
	router := newRouter()
	server := newServer(router)
	h := &HTTPTransport{
		server:        server,
		router:        router,
		schema:        schema,
		authenticator: authenticator,
		healthChecks:  make(map[string]HealthCheck),
	}
	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Run serves HTTP until Shutdown is called.
func (h *HTTPTransport) Run() error {
	if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// Shutdown gracefully stops the server.
func (h *HTTPTransport) Shutdown(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

// Handler returns the router.
func (h *HTTPTransport) Handler() http.Handler {
	return h.router
}

// RegisterRoutes registers the routes for the HTTPTransport.
func (h *HTTPTransport) RegisterRoutes() {
	h.router.Get("/healthz", h.health)
	h.router.Handle("/metrics", promhttp.Handler())

	ws := graphqltransport.NewWSHandler(h.schema, h.authenticator,
		graphqltransport.WithAllowedOrigins(viper.GetStringSlice("server.http.cors.allowed_origins")),
	)

	h.router.Group(func(r chi.Router) {
		r.Use(h.authenticator.Middleware)
		r.Post("/graphql", (&relay.Handler{Schema: h.schema}).ServeHTTP)
		r.Get("/graphql", ws.ServeHTTP)
	})
}

func (h *HTTPTransport) health(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	checks := make(map[string]string, len(h.healthChecks))

	for name, check := range h.healthChecks {
		if err := check(r.Context()); err != nil {
			slog.ErrorContext(r.Context(), "Health check failed", "check", name, "error", err)
			checks[name] = "down"
			status = http.StatusServiceUnavailable

			continue
		}
		checks[name] = "up"
	}

	body := map[string]any{"status": "ok", "checks": checks}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Error sending health response", "error", err)
	}
}

func newRouter() *chi.Mux {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(trace.NewTraceMiddleware)
	router.Use(logger.NewLoggerMiddleware(slog.Default()))
	router.Use(middleware.Recoverer)

	allowedOrigins := viper.GetStringSlice("server.http.cors.allowed_origins")
	allowedMethods := viper.GetStringSlice("server.http.cors.allowed_methods")
	allowedHeaders := viper.GetStringSlice("server.http.cors.allowed_headers")
	exposedHeaders := viper.GetStringSlice("server.http.cors.exposed_headers")
	allowCredentials := viper.GetBool("server.http.cors.allow_credentials")
	maxAge := viper.GetInt("server.http.cors.max_age")

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   allowedMethods,
		AllowedHeaders:   allowedHeaders,
		ExposedHeaders:   exposedHeaders,
		AllowCredentials: allowCredentials,
		MaxAge:           maxAge,
	})

	router.Use(c.Handler)

	return router
}

func newServer(router http.Handler) *http.Server {
	return &http.Server{
		Addr:    "0.0.0.0:" + viper.GetString("server.http.port"),
		Handler: router,
	}
}
