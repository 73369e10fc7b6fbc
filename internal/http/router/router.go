// Package router assembles the chi route tree and the middleware stack.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fivemhub/forumd/internal/auth"
	authctrl "github.com/fivemhub/forumd/internal/http/controllers/auth"
	"github.com/fivemhub/forumd/internal/http/controllers/health"
	profilectrl "github.com/fivemhub/forumd/internal/http/controllers/profile"
	apperrors "github.com/fivemhub/forumd/internal/http/errors"
	"github.com/fivemhub/forumd/internal/http/middlewares"
	"github.com/fivemhub/forumd/internal/observability/metrics"
)

// Deps carries everything the route tree needs.
type Deps struct {
	Gateway *auth.Gateway
	Auth    *authctrl.Controller
	Profile *profilectrl.Controller
	Health  *health.Controller

	CookieName string
	CORS       middlewares.CORSConfig
	Rate       *middlewares.RateLimitConfig
}

// New builds the HTTP handler. The middleware order is fixed: request id
// first so every later log line carries it, recovery before anything
// that can panic, metrics around the routed handlers.
func New(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middlewares.RequestID(),
		middlewares.Recover(),
		middlewares.SecurityHeaders(),
		middlewares.Metrics(),
		middlewares.Logging(),
		middlewares.CORS(d.CORS),
	)
	if d.Rate != nil {
		r.Use(middlewares.RateLimit(*d.Rate))
	}

	r.Get("/healthz", d.Health.Check)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	requireAuth := middlewares.Authenticate(d.Gateway, d.CookieName)

	r.Route("/api", func(api chi.Router) {
		api.Route("/auth", func(ar chi.Router) {
			ar.Get("/providers", d.Auth.Providers)
			ar.Post("/logout", d.Auth.Logout)
			ar.With(requireAuth).Get("/me", d.Auth.Me)

			ar.Get("/{provider}", d.Auth.Begin)
			ar.Get("/{provider}/callback", d.Auth.Callback)
			ar.Post("/{provider}/callback", d.Auth.AssertedCallback)
		})

		api.Route("/profile", func(pr chi.Router) {
			pr.Use(requireAuth)
			pr.Get("/", d.Profile.Get)
			pr.Post("/update", d.Profile.Update)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		apperrors.WriteError(w, apperrors.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		apperrors.WriteError(w, apperrors.ErrBadRequest.WithDetail("method not allowed"))
	})

	return r
}
