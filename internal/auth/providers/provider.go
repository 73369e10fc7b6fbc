// Package providers defines the identity-provider adapter surface.
//
// Two provider shapes exist:
//   - code exchange: a server-side OAuth2 authorization-code flow
//     (authorize URL, token exchange, profile fetch)
//   - asserted identity: the caller presents an identifier the provider
//     issued out-of-band, validated only by format
//
// Adding a provider means implementing one of the two shapes and
// registering it; the gateway never branches on a concrete provider.
package providers

import (
	"context"
	"errors"
)

// Kind tags the provider shape.
type Kind string

const (
	KindCodeExchange Kind = "code"
	KindAsserted     Kind = "asserted"
)

// Profile is the normalized provider profile. ExternalID is the only
// required field; the rest mirrors whatever the provider supplied.
type Profile struct {
	Provider      string
	ExternalID    string
	Username      string
	Discriminator string
	DisplayName   string
	Email         string
	AvatarURL     string
}

// Claim is a caller-supplied asserted identity. Fields other than
// ExternalID are advisory only.
type Claim struct {
	ExternalID  string
	DisplayName string
	AvatarURL   string
}

// Provider is the common surface of both shapes.
type Provider interface {
	Name() string
	Kind() Kind

	// AuthorizeURL builds the URL the caller is redirected to, with the
	// state token embedded.
	AuthorizeURL(state string) string
}

// CodeExchanger is the authorization-code shape. Exchange performs the
// server-to-server token exchange and the authenticated profile fetch;
// the access token is used only within that single call.
type CodeExchanger interface {
	Provider
	Exchange(ctx context.Context, code string) (*Profile, error)
}

// IdentityAsserter is the asserted-identity shape. ValidateClaim checks
// the identifier against the provider's required format; it does not by
// itself prove possession of the identity.
type IdentityAsserter interface {
	Provider
	ValidateClaim(ctx context.Context, claim Claim) (*Profile, error)
}

// Provider-level failures, mapped by the gateway onto the auth taxonomy.
var (
	ErrUnreachable       = errors.New("provider: unreachable")
	ErrRejected          = errors.New("provider: rejected")
	ErrMalformedResponse = errors.New("provider: malformed response")
	ErrInvalidIdentity   = errors.New("provider: invalid identity")
)
