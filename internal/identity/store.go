// Copyright (c) 2026 Hireline. All rights reserved.

package identity

import (
	"context"
	"time"
)

// # Principal Data Access

// PrincipalStore defines the data access contract for principal accounts.
// Lookup methods return an apperr 404 when no such account exists.
type PrincipalStore interface {

	// FindByID returns the account with the given id.
	FindByID(ctx context.Context, id int64) (*Principal, error)

	// FindByEmail returns the account with the given unique email.
	FindByEmail(ctx context.Context, email string) (*Principal, error)

	// Create persists a brand-new principal and fills in its generated id.
	Create(ctx context.Context, principal *Principal) error

	// UpdatePassword replaces only the principal's password hash.
	UpdatePassword(ctx context.Context, principalID int64, newHash string) error
}

// # Session Record Data Access

// SessionStore defines the data access contract for per-principal session records.
type SessionStore interface {

	// Upsert replaces the principal's session record with the new token pair.
	// Last write wins under concurrent logins.
	Upsert(ctx context.Context, principalID int64, accessToken, refreshToken string) error

	// SetResetToken finds-or-creates the principal's record and overwrites
	// its reset token and expiry in place.
	SetResetToken(ctx context.Context, principalID int64, resetToken string, expiry time.Time) error

	// ConsumeResetToken looks up the record holding resetToken, clears the
	// token so a second redemption fails, and returns the owning principal.
	// Returns an apperr 404 when no record holds the token.
	ConsumeResetToken(ctx context.Context, resetToken string) (*Principal, error)

	// Destroy removes the principal's session record on logout.
	Destroy(ctx context.Context, principalID int64) error
}

// # Volatile Data Access

// LoginThrottle tracks failed login attempts per email in a volatile store.
type LoginThrottle interface {

	// TooManyFailures reports whether the email has exhausted its attempts.
	TooManyFailures(ctx context.Context, email string) (bool, error)

	// RecordFailure counts one failed attempt within the rolling window.
	RecordFailure(ctx context.Context, email string) error

	// Clear resets the counter after a successful login.
	Clear(ctx context.Context, email string) error
}

// # External Collaborators

// Notifier hands recovery tokens to the outbound delivery subsystem.
// Email dispatch itself is outside this core.
type Notifier interface {
	SendPasswordReset(ctx context.Context, email, token string) error
}
