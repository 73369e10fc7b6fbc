package auth

import "errors"

// Gateway outcomes. Login failures collapse to ErrAuthenticationFailed
// (internal reason logged, never surfaced) except the state check, which
// stays distinct so replayed callbacks are observable as such. Identity
// checks keep their full taxonomy because clients react differently to
// "log in again" versus "this credential is garbage".
var (
	ErrUnknownProvider      = errors.New("auth: unknown provider")
	ErrInvalidState         = errors.New("auth: invalid state")
	ErrAuthenticationFailed = errors.New("auth: authentication failed")

	ErrCredentialInvalid = errors.New("auth: credential invalid")
	ErrCredentialExpired = errors.New("auth: credential expired")
	ErrUserInactive      = errors.New("auth: user inactive")
)
