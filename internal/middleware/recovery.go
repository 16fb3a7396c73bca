package middleware

import (
	"log"
	"net/http"
	"runtime/debug"

	"itemmarket-rest-api/pkg/apierror"
)

// Recovery converts handler panics into a 500 response instead of killing
// the connection. The panic value, request path and request id are logged
// with the stack so the failing listing operation can be located.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				log.Printf("[Recovery] panic on %s %s rid=%s: %v\n%s",
					r.Method, r.URL.Path, GetRequestID(r.Context()), v, debug.Stack())

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				w.Write(apierror.InternalError("internal server error").ToJSON())
			}
		}()

		next.ServeHTTP(w, r)
	})
}
