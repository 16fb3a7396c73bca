package middleware

import (
	"log"
	"net/http"
	"time"
)

// Logging writes one access-log line per request. The request id assigned
// by RequestID is included so a failed purchase or cancel can be correlated
// with the ledger logs for the same request.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		log.Printf(
			"[HTTP] %s %s %d %s rid=%s",
			r.Method,
			r.URL.Path,
			rec.status,
			time.Since(start),
			GetRequestID(r.Context()),
		)
	})
}

// statusRecorder captures the status code written by the handler chain.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}
