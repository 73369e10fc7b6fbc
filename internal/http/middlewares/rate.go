package middlewares

import (
	"net"
	"net/http"
	"time"

	gocache "github.com/patrickmn/go-cache"

	apperrors "github.com/fivemhub/forumd/internal/http/errors"
)

// RateLimitConfig tunes the per-client fixed window limiter.
type RateLimitConfig struct {
	Window      time.Duration
	MaxRequests int
}

// RateLimit enforces a fixed-window request budget per client IP. The
// counter lives in process memory; each node enforces its own budget.
func RateLimit(cfg RateLimitConfig) Middleware {
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = 120
	}
	counters := gocache.New(cfg.Window, 2*cfg.Window)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r)
			_ = counters.Add(key, int64(0), cfg.Window)
			n, err := counters.IncrementInt64(key, 1)
			if err == nil && n > int64(cfg.MaxRequests) {
				apperrors.WriteError(w, apperrors.ErrRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
