package entity

import (
	"strings"
	"time"
)

// User is the identity record behind a Session.
// PasswordHash is a bcrypt hash and is empty for phone-only accounts.
// Role never changes after provisioning.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Phone        string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DisplayName derives a name for the session; it is not stored.
func (u *User) DisplayName() string {
	if at := strings.IndexByte(u.Email, '@'); at > 0 {
		return u.Email[:at]
	}
	if u.Email != "" {
		return u.Email
	}
	return u.Phone
}

// NormalizeEmail lowercases and trims an email for lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
