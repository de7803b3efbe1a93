// Package logger holds the slog handler and the HTTP access log middleware used by the service.
package logger

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/trace"
)

// Handler is a JSON slog handler that adds the request id and the trace id found in the context.
type Handler struct {
	slog.Handler
}

// NewHandler creates a Handler writing to stdout. nil opts means debug level with source.
func NewHandler(opts *slog.HandlerOptions) *Handler {
	return newHandler(slog.NewJSONHandler(os.Stdout, defaultOptions(opts)))
}

func newHandler(h slog.Handler) *Handler {
	return &Handler{Handler: h}
}

func defaultOptions(opts *slog.HandlerOptions) *slog.HandlerOptions {
	if opts != nil {
		return opts
	}

	return &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: true,
	}
}

// Handle enriches r with request_id and trace_id.
func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		r.AddAttrs(slog.String("request_id", reqID))
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		r.AddAttrs(slog.String("trace_id", sc.TraceID().String()))
	}

	return h.Handler.Handle(ctx, r)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{Handler: h.Handler.WithGroup(name)}
}

// NewLoggerMiddleware logs one line per request after it is served.
func NewLoggerMiddleware(log *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				log.InfoContext(r.Context(), "Request served",
					"method", r.Method,
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start).String(),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
