// Package cache abstracts the short-TTL key-value store backing the CSRF
// state guard and server-held sessions.
//
// Backends:
//   - memory (in-process, development and tests)
//   - redis (distributed, production)
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned for absent or expired keys.
var ErrNotFound = errors.New("cache: key not found")

// Client defines the cache operations. GetDel exists because state token
// consumption must be a single atomic check-and-delete step.
type Client interface {
	// Get returns the value or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set stores a value. ttl of 0 means no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// GetDel atomically fetches and deletes. Returns ErrNotFound when the
	// key is absent or expired; a second GetDel for the same key always
	// returns ErrNotFound.
	GetDel(ctx context.Context, key string) (string, error)

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Ping verifies connectivity.
	Ping(ctx context.Context) error

	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Kind   string // "memory" | "redis"
	Addr   string
	DB     int
	Prefix string

	// DefaultTTL applies to entries stored with ttl 0 in the memory backend.
	DefaultTTL time.Duration
}

// New builds a cache client from config.
func New(cfg Config) (Client, error) {
	switch cfg.Kind {
	case "redis":
		if cfg.Addr == "" {
			return nil, fmt.Errorf("cache: redis addr required")
		}
		return NewRedis(cfg.Addr, cfg.DB, cfg.Prefix), nil
	case "memory", "":
		return NewMemory(cfg.DefaultTTL), nil
	default:
		return nil, fmt.Errorf("cache: unknown kind %q", cfg.Kind)
	}
}
