package middlewares

import (
	"errors"
	"net/http"

	"github.com/fivemhub/forumd/internal/auth"
	apperrors "github.com/fivemhub/forumd/internal/http/errors"
	"github.com/fivemhub/forumd/internal/http/helpers"
)

// Authenticate resolves the caller's credential (Bearer header or
// session cookie) to its active user and injects it into the request
// context. Requests without a valid credential get a 401 whose code
// distinguishes missing, invalid, expired and deactivated.
func Authenticate(gw *auth.Gateway, cookieName string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			credential := helpers.Credential(r, cookieName)
			if credential == "" {
				apperrors.WriteError(w, apperrors.ErrUnauthenticated)
				return
			}

			user, err := gw.CurrentIdentity(r.Context(), credential)
			if err != nil {
				apperrors.WriteError(w, mapIdentityErr(err))
				return
			}

			next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
		})
	}
}

func mapIdentityErr(err error) *apperrors.AppError {
	switch {
	case errors.Is(err, auth.ErrCredentialExpired):
		return apperrors.ErrCredentialExpired
	case errors.Is(err, auth.ErrCredentialInvalid):
		return apperrors.ErrCredentialInvalid
	case errors.Is(err, auth.ErrUserInactive):
		return apperrors.ErrUserInactive
	default:
		return apperrors.ErrInternal.WithCause(err)
	}
}
