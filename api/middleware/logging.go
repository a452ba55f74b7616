package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/pins-charity/orderforms-backend/pkg/logger"
)

// Logging writes one line per finished request. Health check and scrape traffic is
// passed through silently.
func Logging(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if logg == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if quietPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			ctx := logg.WithFields(r.Context(), map[string]any{
				"method": r.Method,
				"path":   r.URL.Path,
			})
			rec := &statusRecorder{ResponseWriter: w}
			start := time.Now()

			r = r.WithContext(ctx)
			next.ServeHTTP(rec, r)

			ctx = logg.WithFields(ctx, map[string]any{
				"route":       routePattern(r),
				"status":      rec.Status(),
				"bytes":       rec.bytes,
				"duration_ms": time.Since(start).Milliseconds(),
			})
			if rec.Status() >= http.StatusInternalServerError {
				logg.Warn(ctx, "http.request_failed")
				return
			}
			logg.Info(ctx, "http.request")
		})
	}
}

func quietPath(path string) bool {
	return path == "/metrics" || strings.HasPrefix(path, "/health/")
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) Status() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}
