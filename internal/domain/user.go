package domain

import (
	"strings"
	"time"
)

// Role decides which side of the marketplace a user acts on.
type Role string

const (
	RoleClient     Role = "client"
	RoleFreelancer Role = "freelancer"
	RoleAdmin      Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleFreelancer, RoleAdmin:
		return true
	}
	return false
}

// Identity is the user record owned by the hosted auth provider.
type Identity struct {
	ID        string         `json:"id"`
	Email     string         `json:"email"`
	Metadata  map[string]any `json:"user_metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at,omitzero"`
}

// MetadataString returns a string attribute from the identity metadata.
func (i Identity) MetadataString(key string) string {
	if i.Metadata == nil {
		return ""
	}
	v, _ := i.Metadata[key].(string)
	return strings.TrimSpace(v)
}

// AuthSession is an authenticated session issued by the auth provider.
type AuthSession struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	Identity     Identity  `json:"user"`
}

// Expired reports whether the access token is past its expiry (minus margin).
func (s AuthSession) Expired(now time.Time, margin time.Duration) bool {
	if s.ExpiresAt.IsZero() {
		return false
	}
	return !now.Add(margin).Before(s.ExpiresAt)
}

// Profile mirrors a row of the profiles table.
type Profile struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	FullName   string    `json:"full_name,omitempty"`
	Role       Role      `json:"role,omitempty"`
	AvatarURL  string    `json:"avatar_url,omitempty"`
	Bio        string    `json:"bio,omitempty"`
	Skills     []string  `json:"skills,omitempty"`
	HourlyRate float64   `json:"hourly_rate,omitempty"`
	Location   string    `json:"location,omitempty"`
	CreatedAt  time.Time `json:"created_at,omitzero"`
	UpdatedAt  time.Time `json:"updated_at,omitzero"`
}

// ProfilePatch carries the editable profile attributes; nil fields are left untouched.
type ProfilePatch struct {
	FullName   *string   `json:"full_name,omitempty"`
	AvatarURL  *string   `json:"avatar_url,omitempty"`
	Bio        *string   `json:"bio,omitempty"`
	Skills     *[]string `json:"skills,omitempty"`
	HourlyRate *float64  `json:"hourly_rate,omitempty"`
	Location   *string   `json:"location,omitempty"`
}

// User is the merged view of the signed-in identity and its profile attributes.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// MergeUser combines an identity with its profile. A missing profile falls back to
// the attributes the identity was registered with.
func MergeUser(identity Identity, profile *Profile) User {
	user := User{
		ID:       identity.ID,
		Email:    identity.Email,
		Role:     Role(identity.MetadataString("role")),
		FullName: identity.MetadataString("full_name"),
	}
	if profile != nil {
		if profile.Role != "" {
			user.Role = profile.Role
		}
		if profile.FullName != "" {
			user.FullName = profile.FullName
		}
		if profile.Email != "" && user.Email == "" {
			user.Email = profile.Email
		}
		user.AvatarURL = profile.AvatarURL
	}
	return user
}
