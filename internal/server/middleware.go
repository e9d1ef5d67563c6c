package server

import (
	"log/slog"
	"net/http"
	"time"

	verrors "github.com/vexhq/vexdb/internal/errors"
)

// acceptedAPIVersions lists the X-API-Version header values this server
// speaks. An absent header selects the current version.
var acceptedAPIVersions = map[string]bool{
	"":    true,
	"1.0": true,
}

// checkAPIVersion rejects requests pinned to an unsupported API version.
func (s *Server) checkAPIVersion(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		version := r.Header.Get("X-API-Version")
		if !acceptedAPIVersions[version] {
			writeError(w, verrors.Validation("unsupported API version "+version))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for the request log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// requestLogger logs one line per request at debug level, errors at warn.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		attrs := []any{
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("duration", time.Since(start)),
		}
		if rec.status >= http.StatusInternalServerError {
			s.logger.Warn("request failed", attrs...)
		} else {
			s.logger.Debug("request", attrs...)
		}
	})
}
