// Package config loads the process configuration from a YAML file with
// environment variable overrides for secrets. The resulting Config is
// immutable after Load and is passed explicitly to every constructor.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env      string `yaml:"env"`
		LogLevel string `yaml:"log_level"`
	} `yaml:"app"`

	Server struct {
		Addr               string   `yaml:"addr"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
		// FrontendURL is where completed logins are redirected.
		FrontendURL string `yaml:"frontend_url"`
	} `yaml:"server"`

	Storage struct {
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxOpenConns    int    `yaml:"max_open_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Cache struct {
		Kind  string `yaml:"kind"` // memory | redis
		Redis struct {
			Addr   string `yaml:"addr"`
			DB     int    `yaml:"db"`
			Prefix string `yaml:"prefix"`
		} `yaml:"redis"`
		Memory struct {
			DefaultTTL string `yaml:"default_ttl"`
		} `yaml:"memory"`
	} `yaml:"cache"`

	Auth struct {
		Session struct {
			// Strategy selects the credential shape: "jwt" (stateless signed
			// token) or "store" (server-held opaque id). Exactly one is
			// active per deployment.
			Strategy   string `yaml:"strategy"`
			JWTSecret  string `yaml:"jwt_secret"`
			JWTTTL     string `yaml:"jwt_ttl"`
			StoreTTL   string `yaml:"store_ttl"`
			CookieName string `yaml:"cookie_name"`
			Domain     string `yaml:"domain"`
			SameSite   string `yaml:"samesite"`
			Secure     bool   `yaml:"secure"`
		} `yaml:"session"`
		State struct {
			TTL string `yaml:"ttl"`
		} `yaml:"state"`
	} `yaml:"auth"`

	Providers struct {
		Discord struct {
			ClientID     string   `yaml:"client_id"`
			ClientSecret string   `yaml:"client_secret"`
			RedirectURI  string   `yaml:"redirect_uri"`
			Scopes       []string `yaml:"scopes"`
		} `yaml:"discord"`
		Steam struct {
			APIKey string `yaml:"api_key"`
			Realm  string `yaml:"realm"`
		} `yaml:"steam"`
	} `yaml:"providers"`

	Rate struct {
		Enabled     bool   `yaml:"enabled"`
		Window      string `yaml:"window"`
		MaxRequests int    `yaml:"max_requests"`
	} `yaml:"rate"`

	Flags struct {
		Migrate bool `yaml:"migrate"`
	} `yaml:"flags"`
}

// Load reads the YAML file at path and applies env overrides.
func Load(path string) (*Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config read: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("config parse: %w", err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv lets deployment env vars win over YAML for addresses and secrets.
func (c *Config) applyEnv() {
	if v := os.Getenv("FORUMD_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("FORUMD_DSN"); v != "" {
		c.Storage.DSN = v
	}
	if v := os.Getenv("FRONTEND_URL"); v != "" {
		c.Server.FrontendURL = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.Auth.Session.JWTSecret = v
	}
	if v := os.Getenv("DISCORD_CLIENT_ID"); v != "" {
		c.Providers.Discord.ClientID = v
	}
	if v := os.Getenv("DISCORD_CLIENT_SECRET"); v != "" {
		c.Providers.Discord.ClientSecret = v
	}
	if v := os.Getenv("DISCORD_REDIRECT_URI"); v != "" {
		c.Providers.Discord.RedirectURI = v
	}
	if v := os.Getenv("STEAM_API_KEY"); v != "" {
		c.Providers.Steam.APIKey = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.FrontendURL == "" {
		c.Server.FrontendURL = "http://localhost:8000"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Auth.Session.Strategy == "" {
		c.Auth.Session.Strategy = "jwt"
	}
	if c.Auth.Session.CookieName == "" {
		c.Auth.Session.CookieName = "sid"
	}
	if len(c.Providers.Discord.Scopes) == 0 {
		c.Providers.Discord.Scopes = []string{"identify", "email"}
	}
}

func (c *Config) validate() error {
	switch strings.ToLower(c.Auth.Session.Strategy) {
	case "jwt":
		if c.Auth.Session.JWTSecret == "" {
			return fmt.Errorf("config: auth.session.jwt_secret required for jwt strategy")
		}
	case "store":
	default:
		return fmt.Errorf("config: unknown auth.session.strategy %q", c.Auth.Session.Strategy)
	}
	return nil
}

// SessionTTL resolves the active strategy's credential lifetime.
func (c *Config) SessionTTL() time.Duration {
	if strings.ToLower(c.Auth.Session.Strategy) == "store" {
		return durationOr(c.Auth.Session.StoreTTL, 24*time.Hour)
	}
	return durationOr(c.Auth.Session.JWTTTL, 7*24*time.Hour)
}

// StateTTL is how long a login attempt's state token stays valid.
func (c *Config) StateTTL() time.Duration {
	return durationOr(c.Auth.State.TTL, 10*time.Minute)
}

// RateWindow parses the rate limit window, defaulting to one minute.
func (c *Config) RateWindow() time.Duration {
	return durationOr(c.Rate.Window, time.Minute)
}

func durationOr(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
