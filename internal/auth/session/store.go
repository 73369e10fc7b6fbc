package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fivemhub/forumd/internal/cache"
	tokens "github.com/fivemhub/forumd/internal/security/token"
)

const sidPrefix = "sid:"

// expiryGrace keeps expired records around briefly so validation can
// answer ErrExpired instead of ErrInvalid for recently-expired sessions.
const expiryGrace = time.Hour

// StoreIssuer holds sessions server-side in the shared cache, addressed
// by an opaque random id. The record is keyed under the id's hash so a
// cache dump never exposes usable credentials.
type StoreIssuer struct {
	cache cache.Client
	ttl   time.Duration
	now   func() time.Time
}

// StoreConfig configures the server-held issuer.
type StoreConfig struct {
	Cache cache.Client
	TTL   time.Duration

	// Now overrides the clock in tests.
	Now func() time.Time
}

func NewStoreIssuer(cfg StoreConfig) (*StoreIssuer, error) {
	if cfg.Cache == nil {
		return nil, fmt.Errorf("session: cache required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &StoreIssuer{cache: cfg.Cache, ttl: cfg.TTL, now: cfg.Now}, nil
}

func (i *StoreIssuer) Stateless() bool { return false }

type sessionRecord struct {
	UserID    int64     `json:"user_id"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (i *StoreIssuer) key(credential string) string {
	return sidPrefix + tokens.SHA256Base64URL(credential)
}

func (i *StoreIssuer) Mint(ctx context.Context, userID int64) (string, error) {
	id, err := tokens.GenerateOpaqueToken(32)
	if err != nil {
		return "", fmt.Errorf("session: generate id: %w", err)
	}
	now := i.now().UTC()
	rec := sessionRecord{UserID: userID, IssuedAt: now, ExpiresAt: now.Add(i.ttl)}
	b, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("session: encode record: %w", err)
	}
	if err := i.cache.Set(ctx, i.key(id), string(b), i.ttl+expiryGrace); err != nil {
		return "", fmt.Errorf("session: store record: %w", err)
	}
	return id, nil
}

func (i *StoreIssuer) Validate(ctx context.Context, credential string) (int64, error) {
	if credential == "" {
		return 0, ErrInvalid
	}
	v, err := i.cache.Get(ctx, i.key(credential))
	if errors.Is(err, cache.ErrNotFound) {
		return 0, ErrInvalid
	}
	if err != nil {
		return 0, fmt.Errorf("session: lookup: %w", err)
	}
	var rec sessionRecord
	if err := json.Unmarshal([]byte(v), &rec); err != nil {
		return 0, ErrInvalid
	}
	if !i.now().Before(rec.ExpiresAt) {
		// Expired but still within the grace window: clean up eagerly.
		_ = i.cache.Delete(ctx, i.key(credential))
		return 0, ErrExpired
	}
	return rec.UserID, nil
}

// Revoke deletes the backing record; the session is dead immediately.
func (i *StoreIssuer) Revoke(ctx context.Context, credential string) error {
	if credential == "" {
		return nil
	}
	return i.cache.Delete(ctx, i.key(credential))
}
