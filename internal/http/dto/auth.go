// Package dto defines the JSON request and response bodies of the HTTP
// API. Field names follow the camelCase convention of the frontend.
package dto

import "github.com/fivemhub/forumd/internal/store/core"

// BeginLoginResponse carries the provider authorization URL the client
// should navigate to.
type BeginLoginResponse struct {
	AuthURL string `json:"authUrl"`
}

// AssertedCallbackRequest is the POST body of an asserted-identity
// login. ExternalID is required; the rest is advisory profile data.
type AssertedCallbackRequest struct {
	ExternalID  string `json:"externalId"`
	DisplayName string `json:"displayName,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
	State       string `json:"state,omitempty"`
}

// LoginResponse is the body of a successful asserted-identity login.
// Token is present only under the stateless strategy; the store
// strategy delivers the credential as a cookie instead.
type LoginResponse struct {
	Success bool       `json:"success"`
	User    *core.User `json:"user"`
	Token   string     `json:"token,omitempty"`
}

// LogoutResponse acknowledges a logout.
type LogoutResponse struct {
	Success bool `json:"success"`
}

// ProvidersResponse lists the identity providers accepted for login.
type ProvidersResponse struct {
	Providers []string `json:"providers"`
}
