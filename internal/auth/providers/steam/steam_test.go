package steam

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

const validID = "76561197960287930"

func TestValidSteamID64(t *testing.T) {
	cases := []struct {
		name string
		id   string
		want bool
	}{
		{"known valid id", validID, true},
		{"account id zero", "76561197960265728", true},
		{"empty", "", false},
		{"too short", "7656119796028793", false},
		{"too long", "765611979602879301", false},
		{"non numeric", "7656119796028793x", false},
		{"below base", "16561197960265728", false},
		{"account id overflow", "76561202255331072", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ValidSteamID64(tc.id))
		})
	}
}

func TestAuthorizeURL(t *testing.T) {
	p := New(Config{
		Realm:     "http://localhost:8000",
		ReturnURL: "http://localhost:8000/auth/steam/return",
	})

	u, err := url.Parse(p.AuthorizeURL("state-token"))
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "checkid_setup", q.Get("openid.mode"))
	assert.Equal(t, "http://localhost:8000", q.Get("openid.realm"))

	ret, err := url.Parse(q.Get("openid.return_to"))
	require.NoError(t, err)
	assert.Equal(t, "state-token", ret.Query().Get("state"))
}

func TestValidateClaimRejectsMalformedID(t *testing.T) {
	p := New(Config{})

	_, err := p.ValidateClaim(context.Background(), Claim{ExternalID: "not-a-steamid"})
	assert.ErrorIs(t, err, providers.ErrInvalidIdentity)
}

func TestValidateClaimWithoutAPIKey(t *testing.T) {
	p := New(Config{})

	profile, err := p.ValidateClaim(context.Background(), Claim{
		ExternalID:  validID,
		DisplayName: "gabe",
		AvatarURL:   "https://avatars.example/gabe.png",
	})
	require.NoError(t, err)

	assert.Equal(t, ProviderName, profile.Provider)
	assert.Equal(t, validID, profile.ExternalID)
	assert.Equal(t, "gabe", profile.DisplayName)
	assert.Equal(t, "https://avatars.example/gabe.png", profile.AvatarURL)
}

func TestValidateClaimEnrichesFromAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, validID, r.URL.Query().Get("steamids"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"response": map[string]any{
				"players": []map[string]any{{
					"steamid":     validID,
					"personaname": "Rabscuttle",
					"avatarfull":  "https://avatars.example/full.jpg",
				}},
			},
		})
	}))
	defer srv.Close()

	p := New(Config{APIKey: "test-key", APIBase: srv.URL})

	profile, err := p.ValidateClaim(context.Background(), Claim{
		ExternalID:  validID,
		DisplayName: "stale-name",
	})
	require.NoError(t, err)
	assert.Equal(t, "Rabscuttle", profile.DisplayName)
	assert.Equal(t, "Rabscuttle", profile.Username)
	assert.Equal(t, "https://avatars.example/full.jpg", profile.AvatarURL)
}

func TestValidateClaimSurvivesAPIOutage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := New(Config{APIKey: "test-key", APIBase: srv.URL})

	profile, err := p.ValidateClaim(context.Background(), Claim{
		ExternalID:  validID,
		DisplayName: "gabe",
	})
	require.NoError(t, err)
	assert.Equal(t, "gabe", profile.DisplayName)
}
