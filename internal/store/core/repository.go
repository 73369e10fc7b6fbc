package core

import "context"

// UserRepository is the user directory: upsert-by-external-id plus the
// point lookups session validation needs. Implementations must make
// Upsert atomic per (provider, external_id): two concurrent first logins
// resolve to a single row, with the loser reading the winner's row.
type UserRepository interface {
	// Upsert creates the user on first login or refreshes the mutable
	// mirror fields and last_login_at on subsequent logins.
	Upsert(ctx context.Context, p UpsertProfile) (*User, error)

	// GetByID returns an active user or ErrNotFound. Deactivated accounts
	// are filtered here so a still-valid credential cannot resurrect them.
	GetByID(ctx context.Context, id int64) (*User, error)

	// UpdateProfile updates the caller-mutable profile fields. Empty
	// arguments leave the current value untouched.
	UpdateProfile(ctx context.Context, id int64, displayName, theme string) (*User, error)

	Ping(ctx context.Context) error
}
