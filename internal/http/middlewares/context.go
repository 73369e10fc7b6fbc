package middlewares

import (
	"context"

	"github.com/fivemhub/forumd/internal/store/core"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	userKey
)

// RequestIDFromContext returns the request id set by RequestID, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// UserFromContext returns the authenticated user set by Authenticate.
func UserFromContext(ctx context.Context) (*core.User, bool) {
	u, ok := ctx.Value(userKey).(*core.User)
	return u, ok
}

func withUser(ctx context.Context, u *core.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}
