package middlewares

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/fivemhub/forumd/internal/observability/logger"
)

const requestIDHeader = "X-Request-ID"

// RequestID tags each request with an id (honoring an inbound header)
// and binds a request-scoped logger into the context.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(requestIDHeader)
			if id == "" {
				id = uuid.NewString()
			}

			ctx := context.WithValue(r.Context(), requestIDKey, id)
			ctx = logger.ToContext(ctx, logger.L().With(logger.RequestID(id)))

			w.Header().Set(requestIDHeader, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
