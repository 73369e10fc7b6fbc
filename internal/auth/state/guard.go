// Package state implements the CSRF guard for login attempts: one-time
// random state tokens bound to a provider, consumed exactly once.
package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fivemhub/forumd/internal/cache"
	tokens "github.com/fivemhub/forumd/internal/security/token"
)

// ErrInvalidState covers every rejection: missing, mismatched, expired
// or already-consumed state. Callers get no finer detail.
var ErrInvalidState = errors.New("state: invalid or expired")

const keyPrefix = "login_state:"

// tokenBytes yields 128 bits of entropy per token.
const tokenBytes = 16

// Guard issues and consumes state tokens over the shared cache, so a
// multi-instance deployment validates callbacks regardless of which
// instance issued the state.
type Guard struct {
	cache cache.Client
	ttl   time.Duration
}

// New creates a guard. ttl bounds how long a login attempt may stay
// in-flight before its state expires.
func New(c cache.Client, ttl time.Duration) *Guard {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Guard{cache: c, ttl: ttl}
}

// Issue generates an unguessable state token bound to the provider and
// records it with the guard's TTL.
func (g *Guard) Issue(ctx context.Context, provider string) (string, error) {
	token, err := tokens.GenerateOpaqueToken(tokenBytes)
	if err != nil {
		return "", fmt.Errorf("state: generate: %w", err)
	}
	if err := g.cache.Set(ctx, keyPrefix+token, provider, g.ttl); err != nil {
		return "", fmt.Errorf("state: record: %w", err)
	}
	return token, nil
}

// Consume validates and burns a state token in one atomic step. The
// token must exist, be unexpired, and have been issued for the same
// provider; replaying a consumed token fails.
func (g *Guard) Consume(ctx context.Context, token, provider string) error {
	if token == "" {
		return ErrInvalidState
	}
	boundProvider, err := g.cache.GetDel(ctx, keyPrefix+token)
	if errors.Is(err, cache.ErrNotFound) {
		return ErrInvalidState
	}
	if err != nil {
		return fmt.Errorf("state: consume: %w", err)
	}
	if boundProvider != provider {
		return ErrInvalidState
	}
	return nil
}
