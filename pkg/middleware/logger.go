package middleware

import (
	"net/http"
	"os"
	"time"

	"github.com/apex/log"
	"github.com/apex/log/handlers/json"
)

// SetupLogging switches apex/log to one JSON object per line on stderr.
func SetupLogging(service string) *log.Entry {
	log.SetHandler(json.New(os.Stderr))
	if os.Getenv("LOG_LEVEL") == "debug" {
		log.SetLevel(log.DebugLevel)
	}
	return log.WithField("service", service)
}

func LoggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		LogRequest(GetTraceID(r), r.Method, r.URL.Path, rw.statusCode, time.Since(start))
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// Flush keeps SSE handlers working behind the wrapper.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func LogRequest(traceID, method, path string, statusCode int, duration time.Duration) {
	entry := log.WithFields(log.Fields{
		"trace_id": traceID,
		"method":   method,
		"path":     path,
		"status":   statusCode,
		"duration": duration.String(),
	})
	switch {
	case statusCode >= 500:
		entry.Error("HTTP Request")
	case statusCode >= 400:
		entry.Warn("HTTP Request")
	default:
		entry.Info("HTTP Request")
	}
}

func LogError(traceID, message string, err error) {
	log.WithField("trace_id", traceID).WithError(err).Error(message)
}
