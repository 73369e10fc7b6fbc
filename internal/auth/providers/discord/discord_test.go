package discord

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivemhub/forumd/internal/auth/providers"
)

type stubEndpoints struct {
	tokenStatus int
	tokenBody   any
	userStatus  int
	userBody    any

	gotTokenForm url.Values
	gotAuthz     string
}

func newStub(t *testing.T, s *stubEndpoints) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		s.gotTokenForm = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(s.tokenStatus)
		_ = json.NewEncoder(w).Encode(s.tokenBody)
	})
	mux.HandleFunc("/users/@me", func(w http.ResponseWriter, r *http.Request) {
		s.gotAuthz = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(s.userStatus)
		if b, ok := s.userBody.(string); ok {
			_, _ = w.Write([]byte(b))
			return
		}
		_ = json.NewEncoder(w).Encode(s.userBody)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newProvider(t *testing.T, base string) *Provider {
	t.Helper()
	p, err := New(Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "http://localhost:8080/api/auth/discord/callback",
		AuthURL:      base + "/oauth2/authorize",
		TokenURL:     base + "/oauth2/token",
		UserURL:      base + "/users/@me",
	})
	require.NoError(t, err)
	return p
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(Config{ClientID: "only-id"})
	assert.Error(t, err)
}

func TestAuthorizeURL(t *testing.T) {
	p := newProvider(t, "https://stub.example")

	u, err := url.Parse(p.AuthorizeURL("state-token"))
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "state-token", q.Get("state"))
	assert.Contains(t, q.Get("scope"), "identify")
}

func TestExchangeHappyPath(t *testing.T) {
	stub := &stubEndpoints{
		tokenStatus: http.StatusOK,
		tokenBody:   map[string]any{"access_token": "at-123", "token_type": "bearer"},
		userStatus:  http.StatusOK,
		userBody: map[string]any{
			"id":          "80351110224678912",
			"username":    "nelly",
			"global_name": "Nelly",
			"avatar":      "8342729096ea3675442027381ff50dfe",
			"email":       "nelly@example.com",
		},
	}
	srv := newStub(t, stub)
	p := newProvider(t, srv.URL)

	profile, err := p.Exchange(context.Background(), "auth-code")
	require.NoError(t, err)

	assert.Equal(t, ProviderName, profile.Provider)
	assert.Equal(t, "80351110224678912", profile.ExternalID)
	assert.Equal(t, "nelly", profile.Username)
	assert.Equal(t, "Nelly", profile.DisplayName)
	assert.Equal(t, "nelly@example.com", profile.Email)
	assert.Contains(t, profile.AvatarURL, "80351110224678912/8342729096ea3675442027381ff50dfe.png")

	assert.Equal(t, "auth-code", stub.gotTokenForm.Get("code"))
	assert.Equal(t, "client-id", stub.gotTokenForm.Get("client_id"))
	assert.Equal(t, "Bearer at-123", stub.gotAuthz)
}

func TestExchangeDisplayNameFallsBackToUsername(t *testing.T) {
	srv := newStub(t, &stubEndpoints{
		tokenStatus: http.StatusOK,
		tokenBody:   map[string]any{"access_token": "at", "token_type": "bearer"},
		userStatus:  http.StatusOK,
		userBody:    map[string]any{"id": "1", "username": "nelly"},
	})
	p := newProvider(t, srv.URL)

	profile, err := p.Exchange(context.Background(), "code")
	require.NoError(t, err)
	assert.Equal(t, "nelly", profile.DisplayName)
	assert.Empty(t, profile.AvatarURL)
}

func TestExchangeTokenRejected(t *testing.T) {
	srv := newStub(t, &stubEndpoints{
		tokenStatus: http.StatusBadRequest,
		tokenBody:   map[string]any{"error": "invalid_grant"},
	})
	p := newProvider(t, srv.URL)

	_, err := p.Exchange(context.Background(), "bad-code")
	assert.ErrorIs(t, err, providers.ErrRejected)
}

func TestExchangeTokenEndpointDown(t *testing.T) {
	srv := newStub(t, &stubEndpoints{})
	srv.Close()
	p := newProvider(t, srv.URL)

	_, err := p.Exchange(context.Background(), "code")
	assert.ErrorIs(t, err, providers.ErrUnreachable)
}

func TestExchangeProfileRejected(t *testing.T) {
	srv := newStub(t, &stubEndpoints{
		tokenStatus: http.StatusOK,
		tokenBody:   map[string]any{"access_token": "at", "token_type": "bearer"},
		userStatus:  http.StatusUnauthorized,
		userBody:    map[string]any{"message": "401: Unauthorized"},
	})
	p := newProvider(t, srv.URL)

	_, err := p.Exchange(context.Background(), "code")
	assert.ErrorIs(t, err, providers.ErrRejected)
}

func TestExchangeMalformedProfile(t *testing.T) {
	srv := newStub(t, &stubEndpoints{
		tokenStatus: http.StatusOK,
		tokenBody:   map[string]any{"access_token": "at", "token_type": "bearer"},
		userStatus:  http.StatusOK,
		userBody:    "{not json",
	})
	p := newProvider(t, srv.URL)

	_, err := p.Exchange(context.Background(), "code")
	assert.ErrorIs(t, err, providers.ErrMalformedResponse)
}

func TestExchangeProfileMissingID(t *testing.T) {
	srv := newStub(t, &stubEndpoints{
		tokenStatus: http.StatusOK,
		tokenBody:   map[string]any{"access_token": "at", "token_type": "bearer"},
		userStatus:  http.StatusOK,
		userBody:    map[string]any{"username": "ghost"},
	})
	p := newProvider(t, srv.URL)

	_, err := p.Exchange(context.Background(), "code")
	assert.ErrorIs(t, err, providers.ErrMalformedResponse)
}
