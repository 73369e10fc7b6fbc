package middlewares

import (
	"fmt"
	"net/http"
	"runtime/debug"

	apperrors "github.com/fivemhub/forumd/internal/http/errors"
	"github.com/fivemhub/forumd/internal/observability/logger"
)

// Recover converts handler panics into a 500 response and logs the stack.
func Recover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.From(r.Context()).Error("panic recovered",
						logger.Component("http"),
						logger.Method(r.Method),
						logger.Path(r.URL.Path),
						logger.Err(fmt.Errorf("%v", rec)),
					)
					logger.From(r.Context()).Debug(string(debug.Stack()))
					apperrors.WriteError(w, apperrors.ErrInternal)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
