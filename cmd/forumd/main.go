// Command forumd runs the community API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/fivemhub/forumd/internal/auth"
	"github.com/fivemhub/forumd/internal/auth/providers"
	"github.com/fivemhub/forumd/internal/auth/providers/discord"
	"github.com/fivemhub/forumd/internal/auth/providers/steam"
	"github.com/fivemhub/forumd/internal/auth/session"
	"github.com/fivemhub/forumd/internal/auth/state"
	"github.com/fivemhub/forumd/internal/cache"
	"github.com/fivemhub/forumd/internal/config"
	httpserver "github.com/fivemhub/forumd/internal/http"
	authctrl "github.com/fivemhub/forumd/internal/http/controllers/auth"
	"github.com/fivemhub/forumd/internal/http/controllers/health"
	profilectrl "github.com/fivemhub/forumd/internal/http/controllers/profile"
	"github.com/fivemhub/forumd/internal/http/middlewares"
	"github.com/fivemhub/forumd/internal/http/router"
	"github.com/fivemhub/forumd/internal/observability/logger"
	"github.com/fivemhub/forumd/internal/security/secretbox"
	"github.com/fivemhub/forumd/internal/store/pg"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("FORUMD_CONFIG")
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.L().Fatal("config load failed", logger.Err(err))
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.App.LogLevel,
		ServiceName: "forumd",
	})
	defer func() { _ = logger.Sync() }()
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Flags.Migrate {
		if err := pg.Migrate(cfg.Storage.DSN); err != nil {
			log.Fatal("migrations failed", logger.Err(err))
		}
		log.Info("migrations applied", logger.Component("pg"))
	}

	users, err := pg.New(ctx, pg.Config{
		DSN:             cfg.Storage.DSN,
		MaxOpenConns:    cfg.Storage.Postgres.MaxOpenConns,
		ConnMaxLifetime: parseDuration(cfg.Storage.Postgres.ConnMaxLifetime),
	})
	if err != nil {
		log.Fatal("postgres connect failed", logger.Err(err))
	}
	defer users.Close()

	kv, err := cache.New(cache.Config{
		Kind:       cfg.Cache.Kind,
		Addr:       cfg.Cache.Redis.Addr,
		DB:         cfg.Cache.Redis.DB,
		Prefix:     cfg.Cache.Redis.Prefix,
		DefaultTTL: parseDuration(cfg.Cache.Memory.DefaultTTL),
	})
	if err != nil {
		log.Fatal("cache init failed", logger.Err(err))
	}
	defer func() { _ = kv.Close() }()

	registry := providers.NewRegistry()
	registerProviders(cfg, registry, log)

	guard := state.New(kv, cfg.StateTTL())
	gateway := auth.NewGateway(auth.Deps{
		Users:    users,
		Sessions: buildIssuer(cfg, kv, log),
		Guard:    guard,
		Registry: registry,
	})

	cookies := authctrl.CookieConfig{
		Name:     cfg.Auth.Session.CookieName,
		Domain:   cfg.Auth.Session.Domain,
		Secure:   cfg.Auth.Session.Secure,
		SameSite: parseSameSite(cfg.Auth.Session.SameSite),
		TTL:      cfg.SessionTTL(),
	}

	var rate *middlewares.RateLimitConfig
	if cfg.Rate.Enabled {
		rate = &middlewares.RateLimitConfig{
			Window:      cfg.RateWindow(),
			MaxRequests: cfg.Rate.MaxRequests,
		}
	}

	handler := router.New(router.Deps{
		Gateway: gateway,
		Auth: authctrl.New(authctrl.Deps{
			Gateway:     gateway,
			Cookies:     cookies,
			FrontendURL: cfg.Server.FrontendURL,
			StateTTL:    cfg.StateTTL(),
		}),
		Profile:    profilectrl.New(users),
		Health:     health.New(users, kv),
		CookieName: cfg.Auth.Session.CookieName,
		CORS: middlewares.CORSConfig{
			AllowedOrigins: corsOrigins(cfg),
		},
		Rate: rate,
	})

	srv := httpserver.NewServer(cfg.Server.Addr, handler)
	if err := srv.Run(ctx); err != nil {
		log.Fatal("server failed", logger.Err(err))
	}
	log.Info("server stopped")
}

// registerProviders wires every configured identity provider. Providers
// without credentials in the config are simply left unregistered.
func registerProviders(cfg *config.Config, registry *providers.Registry, log *zap.Logger) {
	if cfg.Providers.Discord.ClientID != "" {
		secret, err := secretbox.MaybeDecrypt(cfg.Providers.Discord.ClientSecret)
		if err != nil {
			log.Fatal("discord client secret decrypt failed", logger.Err(err))
		}
		p, err := discord.New(discord.Config{
			ClientID:     cfg.Providers.Discord.ClientID,
			ClientSecret: secret,
			RedirectURI:  cfg.Providers.Discord.RedirectURI,
			Scopes:       cfg.Providers.Discord.Scopes,
		})
		if err != nil {
			log.Fatal("discord provider init failed", logger.Err(err))
		}
		registry.Register(p)
		log.Info("provider registered", logger.Provider(discord.ProviderName))
	}

	realm := cfg.Providers.Steam.Realm
	if realm == "" {
		realm = cfg.Server.FrontendURL
	}
	apiKey, err := secretbox.MaybeDecrypt(cfg.Providers.Steam.APIKey)
	if err != nil {
		log.Fatal("steam api key decrypt failed", logger.Err(err))
	}
	registry.Register(steam.New(steam.Config{
		APIKey:    apiKey,
		Realm:     realm,
		ReturnURL: realm + "/auth/steam/return",
	}))
	log.Info("provider registered", logger.Provider(steam.ProviderName))
}

// buildIssuer picks the configured session strategy.
func buildIssuer(cfg *config.Config, kv cache.Client, log *zap.Logger) session.Issuer {
	switch cfg.Auth.Session.Strategy {
	case "store":
		issuer, err := session.NewStoreIssuer(session.StoreConfig{
			Cache: kv,
			TTL:   cfg.SessionTTL(),
		})
		if err != nil {
			log.Fatal("session issuer init failed", logger.Err(err))
		}
		return issuer
	default:
		secret, err := secretbox.MaybeDecrypt(cfg.Auth.Session.JWTSecret)
		if err != nil {
			log.Fatal("jwt secret decrypt failed", logger.Err(err))
		}
		issuer, err := session.NewJWTIssuer(session.JWTConfig{
			Secret: []byte(secret),
			Issuer: "forumd",
			TTL:    cfg.SessionTTL(),
		})
		if err != nil {
			log.Fatal("session issuer init failed", logger.Err(err))
		}
		return issuer
	}
}

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}

func parseSameSite(s string) http.SameSite {
	switch s {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

func corsOrigins(cfg *config.Config) []string {
	if len(cfg.Server.CORSAllowedOrigins) > 0 {
		return cfg.Server.CORSAllowedOrigins
	}
	return []string{cfg.Server.FrontendURL}
}
