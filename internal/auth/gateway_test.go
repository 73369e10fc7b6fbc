package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivemhub/forumd/internal/auth/providers"
	"github.com/fivemhub/forumd/internal/auth/session"
	"github.com/fivemhub/forumd/internal/auth/state"
	"github.com/fivemhub/forumd/internal/cache"
	"github.com/fivemhub/forumd/internal/store/core"
)

// memRepo is an in-memory UserRepository with the same upsert contract
// as the PostgreSQL one.
type memRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[string]*core.User // provider/external_id
	byID   map[int64]*core.User
}

func newMemRepo() *memRepo {
	return &memRepo{nextID: 1, users: map[string]*core.User{}, byID: map[int64]*core.User{}}
}

func (r *memRepo) Upsert(ctx context.Context, p core.UpsertProfile) (*core.User, error) {
	if p.Provider == "" || p.ExternalID == "" {
		return nil, core.ErrInvalid
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	key := p.Provider + "/" + p.ExternalID
	now := time.Now()
	if u, ok := r.users[key]; ok {
		if p.Username != "" {
			u.Username = p.Username
		}
		if p.AvatarURL != "" {
			u.AvatarURL = p.AvatarURL
		}
		u.LastLoginAt = &now
		cp := *u
		return &cp, nil
	}
	displayName := p.DisplayName
	if displayName == "" {
		displayName = p.Username
	}
	u := &core.User{
		ID:           r.nextID,
		Provider:     p.Provider,
		ExternalID:   p.ExternalID,
		Username:     p.Username,
		Email:        p.Email,
		DisplayName:  displayName,
		AvatarURL:    p.AvatarURL,
		ProfileTheme: core.DefaultProfileTheme,
		Rank:         core.DefaultRank,
		IsActive:     true,
		CreatedAt:    now,
		LastLoginAt:  &now,
	}
	r.nextID++
	r.users[key] = u
	r.byID[u.ID] = u
	cp := *u
	return &cp, nil
}

func (r *memRepo) GetByID(ctx context.Context, id int64) (*core.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok || !u.IsActive {
		return nil, core.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memRepo) UpdateProfile(ctx context.Context, id int64, displayName, theme string) (*core.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	if displayName != "" {
		u.DisplayName = displayName
	}
	if theme != "" {
		u.ProfileTheme = theme
	}
	cp := *u
	return &cp, nil
}

func (r *memRepo) Ping(ctx context.Context) error { return nil }

func (r *memRepo) deactivate(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byID[id]; ok {
		u.IsActive = false
	}
}

// fakeCode is a code-exchange provider that accepts one known code.
type fakeCode struct {
	name    string
	code    string
	profile providers.Profile
	err     error
}

func (f *fakeCode) Name() string                   { return f.name }
func (f *fakeCode) Kind() providers.Kind           { return providers.KindCodeExchange }
func (f *fakeCode) AuthorizeURL(state string) string {
	return "https://provider.example/authorize?state=" + url.QueryEscape(state)
}

func (f *fakeCode) Exchange(ctx context.Context, code string) (*providers.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	if code != f.code {
		return nil, fmt.Errorf("%w: bad code", providers.ErrRejected)
	}
	p := f.profile
	return &p, nil
}

// fakeAsserted validates claims by a trivial length check.
type fakeAsserted struct {
	name string
}

func (f *fakeAsserted) Name() string                   { return f.name }
func (f *fakeAsserted) Kind() providers.Kind           { return providers.KindAsserted }
func (f *fakeAsserted) AuthorizeURL(state string) string { return "https://asserted.example/login" }

func (f *fakeAsserted) ValidateClaim(ctx context.Context, claim providers.Claim) (*providers.Profile, error) {
	if len(claim.ExternalID) < 5 {
		return nil, fmt.Errorf("%w: too short", providers.ErrInvalidIdentity)
	}
	return &providers.Profile{
		Provider:    f.name,
		ExternalID:  claim.ExternalID,
		Username:    claim.DisplayName,
		DisplayName: claim.DisplayName,
		AvatarURL:   claim.AvatarURL,
	}, nil
}

type fixture struct {
	gw    *Gateway
	repo  *memRepo
	code  *fakeCode
	guard *state.Guard
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	repo := newMemRepo()
	kv := cache.NewMemory(time.Minute)
	guard := state.New(kv, time.Minute)

	issuer, err := session.NewJWTIssuer(session.JWTConfig{
		Secret: []byte("test-secret-test-secret-test-sec"),
		TTL:    time.Hour,
	})
	require.NoError(t, err)

	code := &fakeCode{
		name: "discord",
		code: "good-code",
		profile: providers.Profile{
			Provider:    "discord",
			ExternalID:  "ext-1",
			Username:    "nelly",
			DisplayName: "Nelly",
			Email:       "nelly@example.com",
		},
	}
	registry := providers.NewRegistry()
	registry.Register(code)
	registry.Register(&fakeAsserted{name: "steam"})

	return &fixture{
		gw: NewGateway(Deps{
			Users:    repo,
			Sessions: issuer,
			Guard:    guard,
			Registry: registry,
		}),
		repo:  repo,
		code:  code,
		guard: guard,
	}
}

func TestBeginLoginEmbedsState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	authURL, stateToken, err := f.gw.BeginLogin(ctx, "discord")
	require.NoError(t, err)
	require.NotEmpty(t, stateToken)
	assert.Contains(t, authURL, url.QueryEscape(stateToken))
}

func TestBeginLoginUnknownProvider(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.gw.BeginLogin(context.Background(), "myspace")
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestCompleteCodeFullFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, stateToken, err := f.gw.BeginLogin(ctx, "discord")
	require.NoError(t, err)

	result, err := f.gw.CompleteCode(ctx, "discord", "good-code", stateToken)
	require.NoError(t, err)
	require.NotEmpty(t, result.Credential)
	assert.Equal(t, "ext-1", result.User.ExternalID)
	assert.Equal(t, core.DefaultRank, result.User.Rank)
	require.NotNil(t, result.User.LastLoginAt)

	// The minted credential resolves back to the same user.
	me, err := f.gw.CurrentIdentity(ctx, result.Credential)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, me.ID)
}

func TestCompleteCodeStateIsSingleUse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, stateToken, err := f.gw.BeginLogin(ctx, "discord")
	require.NoError(t, err)

	_, err = f.gw.CompleteCode(ctx, "discord", "good-code", stateToken)
	require.NoError(t, err)

	// Replaying the callback fails before any provider call.
	_, err = f.gw.CompleteCode(ctx, "discord", "good-code", stateToken)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestCompleteCodeForgedState(t *testing.T) {
	f := newFixture(t)
	_, err := f.gw.CompleteCode(context.Background(), "discord", "good-code", "forged")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestCompleteCodeStateBoundToProvider(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, stateToken, err := f.gw.BeginLogin(ctx, "steam")
	require.NoError(t, err)

	_, err = f.gw.CompleteCode(ctx, "discord", "good-code", stateToken)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestCompleteCodeProviderRejection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, stateToken, err := f.gw.BeginLogin(ctx, "discord")
	require.NoError(t, err)

	_, err = f.gw.CompleteCode(ctx, "discord", "wrong-code", stateToken)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestCompleteCodeFailureLeavesNoUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, stateToken, err := f.gw.BeginLogin(ctx, "discord")
	require.NoError(t, err)
	_, err = f.gw.CompleteCode(ctx, "discord", "wrong-code", stateToken)
	require.Error(t, err)

	assert.Empty(t, f.repo.users)
}

func TestSecondLoginReusesUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, s1, err := f.gw.BeginLogin(ctx, "discord")
	require.NoError(t, err)
	first, err := f.gw.CompleteCode(ctx, "discord", "good-code", s1)
	require.NoError(t, err)

	_, s2, err := f.gw.BeginLogin(ctx, "discord")
	require.NoError(t, err)
	second, err := f.gw.CompleteCode(ctx, "discord", "good-code", s2)
	require.NoError(t, err)

	assert.Equal(t, first.User.ID, second.User.ID)
	assert.Len(t, f.repo.users, 1)
}

func TestCompleteAssertedFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.gw.CompleteAsserted(ctx, "steam", providers.Claim{
		ExternalID:  "76561197960287930",
		DisplayName: "gabe",
	}, "")
	require.NoError(t, err)
	assert.Equal(t, "76561197960287930", result.User.ExternalID)
	assert.Equal(t, "gabe", result.User.DisplayName)
}

func TestCompleteAssertedInvalidClaim(t *testing.T) {
	f := newFixture(t)
	_, err := f.gw.CompleteAsserted(context.Background(), "steam", providers.Claim{ExternalID: "abc"}, "")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestCompleteAssertedConsumesStateWhenPresent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, stateToken, err := f.gw.BeginLogin(ctx, "steam")
	require.NoError(t, err)

	claim := providers.Claim{ExternalID: "76561197960287930"}
	_, err = f.gw.CompleteAsserted(ctx, "steam", claim, stateToken)
	require.NoError(t, err)

	_, err = f.gw.CompleteAsserted(ctx, "steam", claim, stateToken)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestCompleteCodeOnAssertedProvider(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, stateToken, err := f.gw.BeginLogin(ctx, "steam")
	require.NoError(t, err)

	_, err = f.gw.CompleteCode(ctx, "steam", "whatever", stateToken)
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestCurrentIdentityGarbageCredential(t *testing.T) {
	f := newFixture(t)
	_, err := f.gw.CurrentIdentity(context.Background(), "garbage")
	assert.ErrorIs(t, err, ErrCredentialInvalid)
}

func TestCurrentIdentityDeactivatedUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, stateToken, err := f.gw.BeginLogin(ctx, "discord")
	require.NoError(t, err)
	result, err := f.gw.CompleteCode(ctx, "discord", "good-code", stateToken)
	require.NoError(t, err)

	f.repo.deactivate(result.User.ID)

	_, err = f.gw.CurrentIdentity(ctx, result.Credential)
	assert.ErrorIs(t, err, ErrUserInactive)
}

func TestEndSessionAdvisoryForJWT(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, stateToken, err := f.gw.BeginLogin(ctx, "discord")
	require.NoError(t, err)
	result, err := f.gw.CompleteCode(ctx, "discord", "good-code", stateToken)
	require.NoError(t, err)

	require.NoError(t, f.gw.EndSession(ctx, result.Credential))
	assert.True(t, f.gw.Stateless())

	// jwt logout is advisory: the token stays verifiable.
	_, err = f.gw.CurrentIdentity(ctx, result.Credential)
	assert.NoError(t, err)
}

func TestProvidersSorted(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, []string{"discord", "steam"}, f.gw.Providers())
}

func TestFailureDetailIsOpaque(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.code.err = errors.New("token endpoint leaked something sensitive")

	_, stateToken, err := f.gw.BeginLogin(ctx, "discord")
	require.NoError(t, err)

	_, err = f.gw.CompleteCode(ctx, "discord", "good-code", stateToken)
	require.ErrorIs(t, err, ErrAuthenticationFailed)
	assert.NotContains(t, err.Error(), "sensitive")
}
