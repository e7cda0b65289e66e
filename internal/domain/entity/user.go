package entity

import (
	"time"
)

// User is the aggregate root for the account/channel domain.
// PasswordHash and RefreshTokenHash never leave the service layer.
type User struct {
	ID            string
	Username      string
	Email         string
	FullName      string
	PasswordHash  string
	AvatarURL     string
	CoverImageURL string
	// RefreshTokenHash is the SHA-256 digest of the only refresh token
	// currently accepted for this user; nil means logged out.
	RefreshTokenHash *string
	WatchHistory     []string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// HasRefreshToken reports whether hash matches the stored refresh token digest.
func (u *User) HasRefreshToken(hash string) bool {
	return u.RefreshTokenHash != nil && *u.RefreshTokenHash != "" && *u.RefreshTokenHash == hash
}
