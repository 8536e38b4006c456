package httpapi

import (
	"log"
	"net/http"
	"time"
)

// statusWriter records the status code written by a handler. Handlers that
// never call WriteHeader implicitly respond 200.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(logger *log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		logger.Printf("%s %s %d from=%s dur=%s", r.Method, r.URL.Path, sw.status, r.RemoteAddr, time.Since(start))
	})
}
