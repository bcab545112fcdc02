package models

import "time"

type AccountRole string

const (
	AccountRoleUser  AccountRole = "user"
	AccountRoleAdmin AccountRole = "admin"
)

type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "active"
	AccountStatusSuspended AccountStatus = "suspended"
	AccountStatusPending   AccountStatus = "pending"
)

// Account is the auth entity. RefreshToken holds the single currently
// valid refresh token for the account, or nil when no session is active.
// IsVerified is tracked but does not gate any flow yet.
type Account struct {
	ID               string
	Username         string
	Email            string
	PasswordHash     string
	Role             AccountRole
	Status           AccountStatus
	IsVerified       bool
	RefreshToken     *string
	RefreshExpiresAt *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// SessionExpired reports whether the stored refresh token has outlived
// its recorded expiry. An account with no session is not expired. The
// maintenance sweep applies the same predicate in SQL.
func (a Account) SessionExpired(now time.Time) bool {
	return a.RefreshToken != nil && a.RefreshExpiresAt != nil && a.RefreshExpiresAt.Before(now)
}

// Sanitized returns a copy safe to hand across the service boundary:
// the password hash and refresh token are stripped.
func (a Account) Sanitized() Account {
	a.PasswordHash = ""
	a.RefreshToken = nil
	a.RefreshExpiresAt = nil
	return a
}

// AccountPatch is a partial update. Nil fields are left untouched.
type AccountPatch struct {
	PasswordHash     *string
	RefreshToken     *string
	RefreshExpiresAt *time.Time
	Status           *AccountStatus
	IsVerified       *bool
}
