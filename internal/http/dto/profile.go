package dto

import "github.com/fivemhub/forumd/internal/store/core"

// ProfileResponse wraps the caller's own profile.
type ProfileResponse struct {
	User *core.User `json:"user"`
}

// UpdateProfileRequest carries the caller-editable profile fields.
// Empty fields are left unchanged.
type UpdateProfileRequest struct {
	DisplayName  string `json:"displayName,omitempty"`
	ProfileTheme string `json:"profileTheme,omitempty"`
}
