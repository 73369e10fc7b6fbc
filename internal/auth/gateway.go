// Package auth orchestrates the login state machine: state issue,
// provider exchange or claim validation, user upsert, credential mint.
// A failed attempt is terminal; the caller restarts at BeginLogin with a
// fresh state token.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/fivemhub/forumd/internal/auth/providers"
	"github.com/fivemhub/forumd/internal/auth/session"
	"github.com/fivemhub/forumd/internal/auth/state"
	"github.com/fivemhub/forumd/internal/observability/logger"
	"github.com/fivemhub/forumd/internal/store/core"
)

// Gateway composes the provider adapters, state guard, user directory
// and session issuer into the user-facing login operations.
type Gateway struct {
	users    core.UserRepository
	sessions session.Issuer
	guard    *state.Guard
	registry *providers.Registry
}

// Deps wires the gateway. All fields are required.
type Deps struct {
	Users    core.UserRepository
	Sessions session.Issuer
	Guard    *state.Guard
	Registry *providers.Registry
}

func NewGateway(d Deps) *Gateway {
	return &Gateway{
		users:    d.Users,
		sessions: d.Sessions,
		guard:    d.Guard,
		registry: d.Registry,
	}
}

// LoginResult is a completed login: the minted credential and the
// upserted user.
type LoginResult struct {
	Credential string
	User       *core.User
}

// BeginLogin issues a fresh state token and builds the provider's
// authorization URL with it embedded.
func (g *Gateway) BeginLogin(ctx context.Context, provider string) (authURL, stateToken string, err error) {
	p, err := g.registry.Get(provider)
	if err != nil {
		return "", "", ErrUnknownProvider
	}
	stateToken, err = g.guard.Issue(ctx, provider)
	if err != nil {
		return "", "", fmt.Errorf("begin login: %w", err)
	}
	return p.AuthorizeURL(stateToken), stateToken, nil
}

// CompleteCode finishes a code-exchange login. The state check runs
// before any network call and fails closed; after it passes, the
// exchange, upsert and mint run in order. Internal failure reasons are
// logged, not returned.
func (g *Gateway) CompleteCode(ctx context.Context, provider, code, stateToken string) (*LoginResult, error) {
	if err := g.guard.Consume(ctx, stateToken, provider); err != nil {
		return nil, ErrInvalidState
	}
	p, err := g.registry.Get(provider)
	if err != nil {
		return nil, ErrUnknownProvider
	}
	exchanger, ok := p.(providers.CodeExchanger)
	if !ok {
		return nil, ErrUnknownProvider
	}
	profile, err := exchanger.Exchange(ctx, code)
	if err != nil {
		return nil, g.failed(ctx, provider, "exchange", err)
	}
	return g.establish(ctx, provider, profile)
}

// CompleteAsserted finishes an asserted-identity login. A state token is
// consumed when the caller carried one; claims arriving without state
// are accepted, which is part of this path's documented trust gap.
func (g *Gateway) CompleteAsserted(ctx context.Context, provider string, claim providers.Claim, stateToken string) (*LoginResult, error) {
	if stateToken != "" {
		if err := g.guard.Consume(ctx, stateToken, provider); err != nil {
			return nil, ErrInvalidState
		}
	}
	p, err := g.registry.Get(provider)
	if err != nil {
		return nil, ErrUnknownProvider
	}
	asserter, ok := p.(providers.IdentityAsserter)
	if !ok {
		return nil, ErrUnknownProvider
	}
	profile, err := asserter.ValidateClaim(ctx, claim)
	if err != nil {
		return nil, g.failed(ctx, provider, "validate claim", err)
	}
	return g.establish(ctx, provider, profile)
}

// establish is the shared tail of both completion paths: upsert the
// user, mint the credential. The upsert is the last side-effecting step,
// so an abandoned attempt leaves no partial user state behind.
func (g *Gateway) establish(ctx context.Context, provider string, profile *providers.Profile) (*LoginResult, error) {
	user, err := g.users.Upsert(ctx, core.UpsertProfile{
		Provider:      profile.Provider,
		ExternalID:    profile.ExternalID,
		Username:      profile.Username,
		Discriminator: profile.Discriminator,
		Email:         profile.Email,
		DisplayName:   profile.DisplayName,
		AvatarURL:     profile.AvatarURL,
	})
	if err != nil {
		return nil, g.failed(ctx, provider, "upsert", err)
	}
	credential, err := g.sessions.Mint(ctx, user.ID)
	if err != nil {
		return nil, g.failed(ctx, provider, "mint", err)
	}
	logger.From(ctx).Info("login completed",
		logger.Component("auth.gateway"),
		logger.Provider(provider),
		logger.UserID(user.ID),
	)
	return &LoginResult{Credential: credential, User: user}, nil
}

// CurrentIdentity resolves a credential to its active user.
func (g *Gateway) CurrentIdentity(ctx context.Context, credential string) (*core.User, error) {
	userID, err := g.sessions.Validate(ctx, credential)
	switch {
	case errors.Is(err, session.ErrExpired):
		return nil, ErrCredentialExpired
	case err != nil:
		return nil, ErrCredentialInvalid
	}
	user, err := g.users.GetByID(ctx, userID)
	if errors.Is(err, core.ErrNotFound) {
		// Valid credential, deactivated (or vanished) account.
		return nil, ErrUserInactive
	}
	if err != nil {
		return nil, fmt.Errorf("current identity: %w", err)
	}
	return user, nil
}

// EndSession revokes the credential. Advisory for the stateless
// strategy: the token stays verifiable until natural expiry.
func (g *Gateway) EndSession(ctx context.Context, credential string) error {
	return g.sessions.Revoke(ctx, credential)
}

// Stateless reports whether the active session strategy is the signed
// token one, where logout is advisory.
func (g *Gateway) Stateless() bool {
	return g.sessions.Stateless()
}

// Providers lists the registered provider names.
func (g *Gateway) Providers() []string {
	return g.registry.Names()
}

// failed logs the internal reason and returns the collapsed outcome so
// callers cannot probe provider internals through error detail.
func (g *Gateway) failed(ctx context.Context, provider, stage string, err error) error {
	logger.From(ctx).Warn("login attempt failed",
		logger.Component("auth.gateway"),
		logger.Provider(provider),
		logger.Op(stage),
		logger.Err(err),
	)
	return ErrAuthenticationFailed
}
