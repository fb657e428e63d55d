package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/mcoot/tkserver/internal/metrics"
)

// ResponseWriter records the status code and byte count of a response
type ResponseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

// NewResponseWriter wraps w with a default status of 200
func NewResponseWriter(w http.ResponseWriter) *ResponseWriter {
	return &ResponseWriter{ResponseWriter: w, status: http.StatusOK}
}

func (rw *ResponseWriter) WriteHeader(status int) {
	rw.status = status
	rw.ResponseWriter.WriteHeader(status)
}

func (rw *ResponseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

// Status returns the recorded status code
func (rw *ResponseWriter) Status() int {
	return rw.status
}

// Size returns the number of body bytes written
func (rw *ResponseWriter) Size() int {
	return rw.size
}

// Logging logs each request and counts it in tk_admin_requests_total.
// Paths in quiet are logged at debug level so scrapes and probes stay out
// of the info log.
func Logging(logger *slog.Logger, quiet ...string) func(http.Handler) http.Handler {
	quietPaths := make(map[string]struct{}, len(quiet))
	for _, p := range quiet {
		quietPaths[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := NewResponseWriter(w)

			next.ServeHTTP(wrapped, r)

			metrics.AdminRequests.WithLabelValues(r.Method, strconv.Itoa(wrapped.status)).Inc()

			level := slog.LevelInfo
			if _, ok := quietPaths[r.URL.Path]; ok {
				level = slog.LevelDebug
			}
			logger.LogAttrs(r.Context(), level, "http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", wrapped.status),
				slog.Int("size", wrapped.size),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}
