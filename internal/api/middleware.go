package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/aristath/planner/internal/logging"
)

// statusRecorder remembers the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.ResponseWriter.Write(b)
}

// withRequestScope bounds each request by timeout, attaches a request-scoped
// logger to its context, and logs the outcome.
func withRequestScope(next http.Handler, logger *slog.Logger, timeout time.Duration) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ctx := r.Context()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		reqLogger := logger.With("method", r.Method, "path", r.URL.Path)
		ctx = logging.WithLogger(ctx, reqLogger)

		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r.WithContext(ctx))

		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		reqLogger.Info("request", "status", rec.status, "duration", time.Since(start))
	})
}
