// Package discord implements the Discord OAuth2 code-exchange provider.
package discord

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/fivemhub/forumd/internal/auth/providers"
)

const ProviderName = "discord"

const (
	defaultAuthURL  = "https://discord.com/api/oauth2/authorize"
	defaultTokenURL = "https://discord.com/api/oauth2/token"
	defaultUserURL  = "https://discord.com/api/users/@me"
	cdnBase         = "https://cdn.discordapp.com"
)

// Config configures the provider. The endpoint URLs are overridable so
// tests can point at a stub server.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string

	AuthURL  string
	TokenURL string
	UserURL  string

	// Timeout bounds the token exchange plus profile fetch. Defaults to 10s.
	Timeout time.Duration
}

type Provider struct {
	oauth   oauth2.Config
	userURL string
	http    *http.Client
}

// New builds the provider from config.
func New(cfg Config) (*Provider, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("discord: client_id and client_secret required")
	}
	if cfg.AuthURL == "" {
		cfg.AuthURL = defaultAuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = defaultTokenURL
	}
	if cfg.UserURL == "" {
		cfg.UserURL = defaultUserURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{"identify", "email"}
	}
	return &Provider{
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		userURL: cfg.UserURL,
		http:    &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (p *Provider) Name() string         { return ProviderName }
func (p *Provider) Kind() providers.Kind { return providers.KindCodeExchange }

// AuthorizeURL builds the Discord authorization URL with response_type
// fixed to code and the state token embedded.
func (p *Provider) AuthorizeURL(state string) string {
	return p.oauth.AuthCodeURL(state)
}

// discordUser is the /users/@me payload, reduced to the fields mirrored
// into the local user record.
type discordUser struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Discriminator string `json:"discriminator"`
	GlobalName    string `json:"global_name"`
	Avatar        string `json:"avatar"`
	Email         string `json:"email"`
}

// Exchange trades the authorization code for an access token and fetches
// the canonical profile with it. The token lives only inside this call.
func (p *Provider) Exchange(ctx context.Context, code string) (*providers.Profile, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.http)

	tok, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			return nil, fmt.Errorf("%w: token endpoint status %d", providers.ErrRejected, re.Response.StatusCode)
		}
		return nil, fmt.Errorf("%w: token exchange: %v", providers.ErrUnreachable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userURL, nil)
	if err != nil {
		return nil, fmt.Errorf("discord: build profile request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: profile fetch: %v", providers.ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: profile endpoint status %d", providers.ErrRejected, resp.StatusCode)
	}

	var du discordUser
	if err := json.NewDecoder(resp.Body).Decode(&du); err != nil {
		return nil, fmt.Errorf("%w: decode profile: %v", providers.ErrMalformedResponse, err)
	}
	if du.ID == "" {
		return nil, fmt.Errorf("%w: profile missing id", providers.ErrMalformedResponse)
	}

	displayName := du.GlobalName
	if displayName == "" {
		displayName = du.Username
	}
	return &providers.Profile{
		Provider:      ProviderName,
		ExternalID:    du.ID,
		Username:      du.Username,
		Discriminator: du.Discriminator,
		DisplayName:   displayName,
		Email:         du.Email,
		AvatarURL:     avatarURL(du.ID, du.Avatar),
	}, nil
}

func avatarURL(id, hash string) string {
	if hash == "" {
		return ""
	}
	return fmt.Sprintf("%s/avatars/%s/%s.png", cdnBase, id, hash)
}
