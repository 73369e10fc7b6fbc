// Package steam implements the Steam asserted-identity provider.
//
// Steam has no server-side code exchange; callers present a SteamID64
// claim which is validated by format only. When a Steam Web API key is
// configured the profile is enriched via GetPlayerSummaries, otherwise
// the claim's own name/avatar are mirrored as-is. Neither path proves
// possession of the identity; see the trust note on ValidateClaim.
package steam

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/fivemhub/forumd/internal/auth/providers"
	"github.com/fivemhub/forumd/internal/observability/logger"
)

const ProviderName = "steam"

const (
	defaultAPIBase       = "https://api.steampowered.com"
	defaultCommunityBase = "https://steamcommunity.com"

	// steamID64Base is the SteamID64 of account id 0 in the public
	// individual-account universe. Valid ids are base + accountID with
	// accountID < 2^32.
	steamID64Base uint64 = 76561197960265728
)

// Config configures the provider. APIBase is overridable for tests.
type Config struct {
	// APIKey enables profile enrichment. Optional.
	APIKey string

	// Realm is the OpenID realm presented on the community login URL.
	Realm string

	// ReturnURL is where the community site sends the user back.
	ReturnURL string

	APIBase       string
	CommunityBase string
	Timeout       time.Duration
}

type Provider struct {
	cfg  Config
	http *http.Client
	sf   singleflight.Group
}

func New(cfg Config) *Provider {
	if cfg.APIBase == "" {
		cfg.APIBase = defaultAPIBase
	}
	if cfg.CommunityBase == "" {
		cfg.CommunityBase = defaultCommunityBase
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Provider{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

func (p *Provider) Name() string         { return ProviderName }
func (p *Provider) Kind() providers.Kind { return providers.KindAsserted }

// AuthorizeURL builds the Steam community OpenID login URL. The state
// token rides on the return URL so the callback can carry it back.
func (p *Provider) AuthorizeURL(state string) string {
	returnTo := p.cfg.ReturnURL
	if state != "" {
		sep := "?"
		if u, err := url.Parse(returnTo); err == nil && u.RawQuery != "" {
			sep = "&"
		}
		returnTo += sep + "state=" + url.QueryEscape(state)
	}
	q := url.Values{}
	q.Set("openid.ns", "http://specs.openid.net/auth/2.0")
	q.Set("openid.mode", "checkid_setup")
	q.Set("openid.return_to", returnTo)
	q.Set("openid.realm", p.cfg.Realm)
	q.Set("openid.identity", "http://specs.openid.net/auth/2.0/identifier_select")
	q.Set("openid.claimed_id", "http://specs.openid.net/auth/2.0/identifier_select")
	return p.cfg.CommunityBase + "/openid/login?" + q.Encode()
}

// ValidateClaim checks the SteamID64 format and normalizes the claim
// into a profile.
//
// Trust note: a well-formed SteamID64 does not prove the caller owns
// that account. Deployments must layer provider-side verification (the
// OpenID assertion check) before trusting this path in production.
func (p *Provider) ValidateClaim(ctx context.Context, claim Claim) (*providers.Profile, error) {
	if !ValidSteamID64(claim.ExternalID) {
		return nil, fmt.Errorf("%w: malformed steamid64 %q", providers.ErrInvalidIdentity, claim.ExternalID)
	}

	profile := &providers.Profile{
		Provider:    ProviderName,
		ExternalID:  claim.ExternalID,
		Username:    claim.DisplayName,
		DisplayName: claim.DisplayName,
		AvatarURL:   claim.AvatarURL,
	}

	// Enrichment is best-effort: a Steam API outage must not block login.
	if p.cfg.APIKey != "" {
		if enriched, err := p.playerSummary(ctx, claim.ExternalID); err != nil {
			logger.From(ctx).Warn("steam profile enrichment failed",
				logger.Component("providers.steam"), logger.Err(err))
		} else if enriched != nil {
			profile.Username = enriched.PersonaName
			profile.DisplayName = enriched.PersonaName
			profile.AvatarURL = enriched.AvatarFull
		}
	}
	return profile, nil
}

// Claim aliases the shared claim type for callers of this package.
type Claim = providers.Claim

// ValidSteamID64 reports whether s is a plausible public individual
// SteamID64: 17 decimal digits, at or above the account-0 base, with a
// 32-bit account id.
func ValidSteamID64(s string) bool {
	if len(s) != 17 {
		return false
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return false
	}
	if id < steamID64Base {
		return false
	}
	return id-steamID64Base <= 1<<32-1
}

type playerSummary struct {
	SteamID     string `json:"steamid"`
	PersonaName string `json:"personaname"`
	Avatar      string `json:"avatar"`
	AvatarFull  string `json:"avatarfull"`
	ProfileURL  string `json:"profileurl"`
}

// playerSummary fetches GetPlayerSummaries, deduped per steam id via
// singleflight so concurrent logins for the same account share one call.
func (p *Provider) playerSummary(ctx context.Context, steamID string) (*playerSummary, error) {
	v, err, _ := p.sf.Do(steamID, func() (any, error) {
		u := fmt.Sprintf("%s/ISteamUser/GetPlayerSummaries/v0002/?key=%s&steamids=%s",
			p.cfg.APIBase, url.QueryEscape(p.cfg.APIKey), url.QueryEscape(steamID))
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		resp, err := p.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", providers.ErrUnreachable, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%w: status %d", providers.ErrRejected, resp.StatusCode)
		}
		var payload struct {
			Response struct {
				Players []playerSummary `json:"players"`
			} `json:"response"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return nil, fmt.Errorf("%w: %v", providers.ErrMalformedResponse, err)
		}
		if len(payload.Response.Players) == 0 {
			return nil, fmt.Errorf("%w: player not found", providers.ErrMalformedResponse)
		}
		return &payload.Response.Players[0], nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*playerSummary), nil
}
