package core

import "time"

// User is the local principal. Exactly one row exists per
// (provider, external_id); the internal id is never reassigned.
type User struct {
	ID            int64      `json:"id"`
	Provider      string     `json:"provider"`
	ExternalID    string     `json:"external_id"`
	Username      string     `json:"username"`
	Discriminator string     `json:"discriminator,omitempty"`
	Email         string     `json:"-"`
	DisplayName   string     `json:"display_name"`
	AvatarURL     string     `json:"avatar_url,omitempty"`
	BannerURL     string     `json:"banner_url,omitempty"`
	ProfileTheme  string     `json:"profile_theme"`
	Rank          string     `json:"rank"`
	IsActive      bool       `json:"-"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"-"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
}

// Defaults applied on first login.
const (
	DefaultProfileTheme = "theme-1"
	DefaultRank         = "Community Member"
)

// UpsertProfile carries the normalized provider profile into the user
// directory. Empty mirror fields never overwrite existing values.
type UpsertProfile struct {
	Provider      string
	ExternalID    string
	Username      string
	Discriminator string
	Email         string
	DisplayName   string
	AvatarURL     string
}
