// Package auth exposes the login endpoints: begin, provider callback
// (code exchange and asserted identity), current identity and logout.
package auth

import (
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fivemhub/forumd/internal/auth"
	"github.com/fivemhub/forumd/internal/auth/providers"
	apperrors "github.com/fivemhub/forumd/internal/http/errors"
	"github.com/fivemhub/forumd/internal/http/dto"
	"github.com/fivemhub/forumd/internal/http/helpers"
	"github.com/fivemhub/forumd/internal/http/middlewares"
	"github.com/fivemhub/forumd/internal/observability/metrics"
)

// stateCookie carries the state token across the provider redirect so
// the callback can cross-check the browser that started the attempt.
const stateCookie = "oauth_state"

// CookieConfig shapes the session cookie set under the store strategy.
type CookieConfig struct {
	Name     string
	Domain   string
	Secure   bool
	SameSite http.SameSite
	TTL      time.Duration
}

// Controller handles the /auth routes.
type Controller struct {
	gw          *auth.Gateway
	cookies     CookieConfig
	frontendURL string
	stateTTL    time.Duration
}

// Deps wires the controller.
type Deps struct {
	Gateway     *auth.Gateway
	Cookies     CookieConfig
	FrontendURL string
	StateTTL    time.Duration
}

func New(d Deps) *Controller {
	if d.StateTTL <= 0 {
		d.StateTTL = 10 * time.Minute
	}
	return &Controller{
		gw:          d.Gateway,
		cookies:     d.Cookies,
		frontendURL: d.FrontendURL,
		stateTTL:    d.StateTTL,
	}
}

// Begin starts a login attempt: issues a state token, returns the
// provider authorization URL and mirrors the state into a short-lived
// cookie for the callback cross-check.
func (c *Controller) Begin(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")

	authURL, state, err := c.gw.BeginLogin(r.Context(), provider)
	if err != nil {
		apperrors.WriteError(w, c.mapLoginErr(err))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   int(c.stateTTL.Seconds()),
		HttpOnly: true,
		Secure:   c.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	helpers.WriteJSON(w, http.StatusOK, dto.BeginLoginResponse{AuthURL: authURL})
}

// Callback finishes a code-exchange login. The provider redirects the
// browser here with ?code=...&state=...; on success the browser is sent
// back to the frontend carrying the credential.
func (c *Controller) Callback(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")

	// The cookie set at Begin must match the state echoed by the
	// provider. A missing cookie is tolerated (the attempt may have
	// started on another device); a mismatching one is not.
	if ck, err := r.Cookie(stateCookie); err == nil && ck.Value != state {
		metrics.ObserveLogin(provider, false)
		c.clearStateCookie(w)
		apperrors.WriteError(w, apperrors.ErrAuthFailed)
		return
	}
	c.clearStateCookie(w)

	if code == "" || state == "" {
		metrics.ObserveLogin(provider, false)
		apperrors.WriteError(w, apperrors.ErrBadRequest.WithDetail("code and state are required"))
		return
	}

	result, err := c.gw.CompleteCode(r.Context(), provider, code, state)
	if err != nil {
		metrics.ObserveLogin(provider, false)
		apperrors.WriteError(w, c.mapLoginErr(err))
		return
	}
	metrics.ObserveLogin(provider, true)

	c.deliverBrowser(w, r, result)
}

// AssertedCallback finishes an asserted-identity login from a JSON body.
func (c *Controller) AssertedCallback(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")

	var req dto.AssertedCallbackRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if req.ExternalID == "" {
		metrics.ObserveLogin(provider, false)
		apperrors.WriteError(w, apperrors.ErrInvalidIdentity.WithDetail("externalId is required"))
		return
	}

	claim := providers.Claim{
		ExternalID:  req.ExternalID,
		DisplayName: req.DisplayName,
		AvatarURL:   req.Avatar,
	}
	result, err := c.gw.CompleteAsserted(r.Context(), provider, claim, req.State)
	if err != nil {
		metrics.ObserveLogin(provider, false)
		apperrors.WriteError(w, c.mapLoginErr(err))
		return
	}
	metrics.ObserveLogin(provider, true)

	resp := dto.LoginResponse{Success: true, User: result.User}
	if c.gw.Stateless() {
		resp.Token = result.Credential
	} else {
		c.setSessionCookie(w, result.Credential)
	}
	helpers.WriteJSON(w, http.StatusOK, resp)
}

// Me returns the authenticated caller. Runs behind Authenticate.
func (c *Controller) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middlewares.UserFromContext(r.Context())
	if !ok {
		apperrors.WriteError(w, apperrors.ErrUnauthenticated)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.ProfileResponse{User: user})
}

// Logout revokes the caller's credential. Succeeds even without one so
// clients can always converge to the logged-out state.
func (c *Controller) Logout(w http.ResponseWriter, r *http.Request) {
	if credential := helpers.Credential(r, c.cookies.Name); credential != "" {
		if err := c.gw.EndSession(r.Context(), credential); err != nil {
			apperrors.WriteError(w, apperrors.ErrInternal.WithCause(err))
			return
		}
	}
	c.clearSessionCookie(w)
	helpers.WriteJSON(w, http.StatusOK, dto.LogoutResponse{Success: true})
}

// Providers lists the registered provider names.
func (c *Controller) Providers(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, dto.ProvidersResponse{Providers: c.gw.Providers()})
}

// deliverBrowser hands the credential back to the frontend after a
// redirect-based login: as a URL fragment for the stateless strategy
// (fragments never reach servers or logs), as a cookie otherwise.
func (c *Controller) deliverBrowser(w http.ResponseWriter, r *http.Request, result *auth.LoginResult) {
	target := c.frontendURL
	if c.gw.Stateless() {
		target += "/#token=" + url.QueryEscape(result.Credential)
	} else {
		c.setSessionCookie(w, result.Credential)
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func (c *Controller) setSessionCookie(w http.ResponseWriter, credential string) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.cookies.Name,
		Value:    credential,
		Path:     "/",
		Domain:   c.cookies.Domain,
		MaxAge:   int(c.cookies.TTL.Seconds()),
		HttpOnly: true,
		Secure:   c.cookies.Secure,
		SameSite: c.cookies.SameSite,
	})
}

func (c *Controller) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.cookies.Name,
		Value:    "",
		Path:     "/",
		Domain:   c.cookies.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.cookies.Secure,
		SameSite: c.cookies.SameSite,
	})
}

func (c *Controller) clearStateCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// mapLoginErr collapses gateway failures onto the opaque HTTP envelope.
// Only "unknown provider" stays distinct; everything else a failed login
// can produce shares one code.
func (c *Controller) mapLoginErr(err error) *apperrors.AppError {
	switch err {
	case auth.ErrUnknownProvider:
		return apperrors.ErrUnknownProvider
	case auth.ErrInvalidState, auth.ErrAuthenticationFailed:
		return apperrors.ErrAuthFailed
	default:
		return apperrors.ErrInternal.WithCause(err)
	}
}
