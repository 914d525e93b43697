// Copyright (c) 2026 Hireline. All rights reserved.

/*
Package identity implements principal accounts and the credential lifecycle.

It defines the core domain entities (Principal, SessionRecord) and the logic
for signup, login, token refresh, logout, and password recovery.

# Architecture

This layer is the "Truth" of the system for who a caller is. What that caller
may do is decided elsewhere, by the rbac matrix through the authz guard.
*/
package identity

import "time"

// # Domain Entities

// PrincipalKind distinguishes back-office operators from portal customers.
// Both authenticate the same way; their reach is governed by the role matrix,
// not by the kind.
type PrincipalKind string

const (
	KindAdmin    PrincipalKind = "admin"
	KindCustomer PrincipalKind = "customer"
)

// Principal represents an authenticated identity (admin or customer).
type Principal struct {
	ID           int64         `json:"id"`
	Kind         PrincipalKind `json:"kind"`
	Email        string        `json:"email"`
	PasswordHash string        `json:"-"` // Explicitly omitted from JSON for security.
	FullName     string        `json:"full_name"`
	RoleID       int64         `json:"role_id,omitempty"` // 0 means no role assigned yet.
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// SessionRecord tracks the most recently issued token pair per principal.
//
// At most one record exists per principal: each login overwrites the previous
// one (last login wins). For recovery flows the same record carries the
// pending reset token. Clearing or overwriting the record does not shorten
// the life of previously issued tokens, which remain valid until their own
// embedded expiry.
type SessionRecord struct {
	PrincipalID      int64      `json:"principal_id"`
	AccessToken      string     `json:"-"`
	RefreshToken     string     `json:"-"`
	ResetToken       string     `json:"-"`
	ResetTokenExpiry *time.Time `json:"reset_token_expiry,omitempty"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// # Field Identifiers

// Global field names for validation and identity mapping in the credential domain.
const (
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldFullName        = "full_name"
	FieldToken           = "token"
	FieldRefreshToken    = "refresh_token"
	FieldCurrentPassword = "current_password"
	FieldNewPassword     = "new_password"
)
