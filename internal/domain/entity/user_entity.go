package entity

import (
	"time"
)

// User is the aggregate root for the account domain.
// Password holds a bcrypt hash, never the plaintext.
type User struct {
	ID          string
	Username    string
	Email       string
	Fullname    string
	PhoneNumber string
	Bio         string
	Image       string

	Password          string
	PasswordChangedAt *time.Time
	PasswordHistory   []string

	FailedLoginAttempts    int
	LastFailedLoginAttempt *time.Time
	AccountLocked          bool

	ResetPasswordToken   string
	ResetPasswordExpires *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PasswordBaseline is the instant the current password started to age.
func (u *User) PasswordBaseline() time.Time {
	if u.PasswordChangedAt != nil && !u.PasswordChangedAt.IsZero() {
		return *u.PasswordChangedAt
	}
	return u.CreatedAt
}

// PushPasswordHistory appends hash and keeps only the newest depth entries.
func PushPasswordHistory(history []string, hash string, depth int) []string {
	out := make([]string, 0, len(history)+1)
	out = append(out, history...)
	out = append(out, hash)
	if depth > 0 && len(out) > depth {
		out = out[len(out)-depth:]
	}
	return out
}
