package httputil

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/picgraph/pkg/observability"
)

// RequestLogger returns middleware that logs every request at info level
// (debug for health checks) and reports it to observability.HTTP().
func RequestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = log.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			observability.HTTP().OnRequest(ctx, r.Method, r.URL.Path)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			elapsed := time.Since(start)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			observability.HTTP().OnResponse(ctx, r.Method, r.URL.Path, status, elapsed)

			logf := logger.Info
			if r.URL.Path == "/healthz" {
				logf = logger.Debug
			}
			logf("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"request_id", middleware.GetReqID(ctx),
				"duration", elapsed.Round(time.Microsecond))
		})
	}
}
