package http

import (
	"log"
	"net/http"
	"time"

	"github.com/sikong32/mytodo/internal/auth"
)

// RequestLogger logs basic request details and latency. The user is logged
// when the request was authenticated.
func RequestLogger(next http.Handler, logger *log.Logger) http.Handler {
	if logger == nil {
		logger = log.Default()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		user := rec.user
		if user == "" {
			user = "-"
		}
		logger.Printf(
			"request method=%s path=%s status=%d user=%s duration=%s",
			r.Method,
			r.URL.Path,
			rec.status,
			user,
			time.Since(start),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	user   string
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// RequireAuth rejects requests authn cannot resolve and stores the user id
// in the request context.
func RequireAuth(authn auth.Authenticator, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := authn.Authenticate(r)
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="mytodo"`)
			writeError(w, http.StatusUnauthorized, codeUnauthenticated, "authentication required")
			return
		}
		if rec, ok := w.(*statusRecorder); ok {
			rec.user = userID
		}
		next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), userID)))
	})
}
