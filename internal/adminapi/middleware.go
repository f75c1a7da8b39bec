package adminapi

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rtsyn/rtsyn/internal/obs"
)

type contextKey string

const contextKeyRequestID contextKey = "request_id"

// requestIDMiddleware stamps every request with an id, reusing one the
// caller supplied so a request can be traced across the HTTP boundary.
func requestIDMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Request-ID")
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", id)
			ctx := context.WithValue(r.Context(), contextKeyRequestID, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// recoveryMiddleware converts a panicking handler into a 500 rather than
// taking down the whole HTTP server.
func recoveryMiddleware(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error("panic recovered in adminapi handler",
						obs.String("path", r.URL.Path),
						obs.String("method", r.Method))
					writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// loggingMiddleware records one structured line per request.
func loggingMiddleware(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			log.Debug("adminapi request",
				obs.String("method", r.Method),
				obs.String("path", r.URL.Path),
				obs.String("remote", r.RemoteAddr))
		})
	}
}
