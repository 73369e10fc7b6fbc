// Package session mints and validates the credential a caller presents
// to prove an authenticated identity. Two mutually exclusive strategies
// exist; deployments pick exactly one at startup:
//
//   - jwt: a stateless signed token carrying {user id, issued-at,
//     expiry}. Validation needs no storage; logout is advisory only.
//   - store: a server-held record addressed by an opaque random id.
//     Revocation is immediate.
package session

import (
	"context"
	"errors"
)

var (
	// ErrInvalid means the credential is forged, tampered or unknown.
	ErrInvalid = errors.New("session: invalid credential")

	// ErrExpired means the credential was genuine but its lifetime has
	// passed. Distinct from ErrInvalid so clients can prompt re-login.
	ErrExpired = errors.New("session: credential expired")
)

// Issuer mints, validates and revokes credentials.
type Issuer interface {
	// Mint issues a credential for the user, valid for the configured TTL.
	Mint(ctx context.Context, userID int64) (string, error)

	// Validate returns the user id bound to the credential, ErrExpired
	// past its lifetime, or ErrInvalid for anything tampered or unknown.
	Validate(ctx context.Context, credential string) (int64, error)

	// Revoke invalidates the credential. Best-effort for the stateless
	// strategy, immediate for the server-held one.
	Revoke(ctx context.Context, credential string) error

	// Stateless reports whether logout is advisory (true for jwt).
	Stateless() bool
}
