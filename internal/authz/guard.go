// Copyright (c) 2026 Hireline. All rights reserved.

/*
Package authz implements the authorization guard that every protected request
passes through.

It turns a bearer token plus a required (resource, action) pair into an
allow/deny decision by walking a fixed chain: extract token → verify signature
and expiry → resolve the principal → resolve the role → resolve the resource →
consult the permission matrix.

# Architecture

The guard owns no storage. It depends on three narrow interfaces implemented
elsewhere ([TokenVerifier] by platform/sec, [PrincipalFinder] by the identity
service, [PermissionMatrix] by the rbac store), which keeps it trivially
testable and free of import cycles.

# Consistency

Every decision re-fetches the resource and the permission row from the
persistence layer. There is deliberately no in-process cache: a permission
change is visible to the very next request.
*/
package authz

import (
	"context"
	"fmt"
	"strings"

	"github.com/hireline/hireline/internal/platform/apperr"
	"github.com/hireline/hireline/internal/platform/ctxkey"
	"github.com/hireline/hireline/internal/platform/sec"
)

// Action is one of the four permission verbs of the matrix.
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Actor is the authorized principal attached to the request context after a
// successful decision. It is an explicit, typed value — handlers receive it
// through [ActorFromContext], never through a loosely-typed request object.
type Actor struct {
	ID     int64
	Email  string
	RoleID int64
}

// Flags holds the four permission booleans of one matrix row.
type Flags struct {
	CanCreate bool
	CanRead   bool
	CanUpdate bool
	CanDelete bool
}

// Allows reports whether the flag corresponding to action is set.
func (f Flags) Allows(action Action) bool {
	switch action {
	case ActionCreate:
		return f.CanCreate
	case ActionRead:
		return f.CanRead
	case ActionUpdate:
		return f.CanUpdate
	case ActionDelete:
		return f.CanDelete
	default:
		return false
	}
}

// # Collaborator Contracts

// TokenVerifier verifies a bearer token of the expected kind.
type TokenVerifier interface {
	VerifyKind(tokenString string, kind sec.TokenKind) (*sec.Claims, error)
}

// PrincipalFinder resolves a principal id to the slim [Actor] view the guard needs.
// Implementations return an [apperr.AppError] with status 404 when no such
// principal exists.
type PrincipalFinder interface {
	FindActor(ctx context.Context, principalID int64) (*Actor, error)
}

// PermissionMatrix exposes the two lookups of the decision chain.
// Both return an [apperr.AppError] with status 404 when the row is absent.
type PermissionMatrix interface {
	FindResourceIDByName(ctx context.Context, name string) (int64, error)
	FindFlags(ctx context.Context, roleID, resourceID int64) (*Flags, error)
}

// Guard orchestrates the ordered authorization decision chain.
type Guard struct {
	tokens     TokenVerifier
	principals PrincipalFinder
	matrix     PermissionMatrix
}

// NewGuard constructs a [Guard] with its three collaborators.
func NewGuard(tokens TokenVerifier, principals PrincipalFinder, matrix PermissionMatrix) *Guard {
	return &Guard{
		tokens:     tokens,
		principals: principals,
		matrix:     matrix,
	}
}

// Authenticate performs the identity half of the decision chain (steps 1–4):
// bearer extraction, token verification, and principal resolution. It is the
// building block for endpoints that need a caller but no matrix consult
// (logout, change-password).
func (guard *Guard) Authenticate(ctx context.Context, authorizationHeader string) (*Actor, error) {

	// ── 1. Bearer Extraction ──────────────────────────────────────────────
	// A missing or malformed header denies immediately; no verification work
	// is performed.
	token, ok := bearerToken(authorizationHeader)
	if !ok {
		return nil, apperr.Unauthorized("Authorization header missing or invalid")
	}

	// ── 2. Signature & Expiry ─────────────────────────────────────────────
	// One verification attempt, no retry. Forged, malformed, and expired
	// tokens all surface the same way.
	claims, err := guard.tokens.VerifyKind(token, sec.KindAccess)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired token")
	}

	// ── 3. Principal Identifier ───────────────────────────────────────────
	if claims.PrincipalID <= 0 {
		return nil, apperr.Unauthorized("Invalid token: Admin ID missing")
	}

	// ── 4. Principal Resolution ───────────────────────────────────────────
	actor, err := guard.principals.FindActor(ctx, claims.PrincipalID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound("Account")
		}
		return nil, err
	}

	return actor, nil
}

// Authorize runs the full decision chain for a required resource and action.
//
// # Flow
//
//  1. Extract the bearer token (deny Unauthorized before any other work).
//  2. Verify signature and expiry.
//  3. Require a principal identifier in the claims.
//  4. Load the principal (deny NotFound if gone).
//  5. Require a role on the principal.
//  6. Resolve the resource by name (deny NotFound).
//  7. Look up the permission row for (role, resource) (deny Forbidden if absent).
//  8. Check the flag for the requested action (deny Forbidden if false).
//
// Steps execute strictly in this order: each lookup needs an identifier
// produced by the previous one.
func (guard *Guard) Authorize(ctx context.Context, authorizationHeader, resourceName string, action Action) (*Actor, error) {

	// Steps 1–4 are shared with Authenticate.
	actor, err := guard.Authenticate(ctx, authorizationHeader)
	if err != nil {
		return nil, err
	}

	// ── 5. Role Resolution ────────────────────────────────────────────────
	// The role comes from the stored principal, not from the token claims, so
	// a role reassignment takes effect without re-issuing tokens.
	if actor.RoleID <= 0 {
		return nil, apperr.Unauthorized("Invalid token: role_id missing")
	}

	// ── 6. Resource Resolution ────────────────────────────────────────────
	resourceID, err := guard.matrix.FindResourceIDByName(ctx, resourceName)
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.NotFound(fmt.Sprintf("Resource '%s'", resourceName))
		}
		return nil, err
	}

	// ── 7. Permission Row ─────────────────────────────────────────────────
	// No row for (role, resource) is equivalent to all-false.
	flags, err := guard.matrix.FindFlags(ctx, actor.RoleID, resourceID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.Forbidden("Access Denied: No permission assigned")
		}
		return nil, err
	}

	// ── 8. Action Flag ────────────────────────────────────────────────────
	if !flags.Allows(action) {
		return nil, apperr.Forbidden(fmt.Sprintf("Access Denied: '%s' not allowed on '%s'", action, resourceName))
	}

	return actor, nil
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if header == "" || !strings.HasPrefix(header, prefix) {
		return "", false
	}

	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", false
	}

	return token, true
}

// isNotFound reports whether err carries a 404 [apperr.AppError].
func isNotFound(err error) bool {
	appError := apperr.As(err)
	return appError != nil && appError.HTTPStatus == 404
}

// # Actor Context

// WithActor returns a new context with the authorized actor attached.
func WithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, ctxkey.KeyActor, actor)
}

// ActorFromContext retrieves the authorized [*Actor] from the context.
// Returns nil if the request never passed the guard.
func ActorFromContext(ctx context.Context) *Actor {
	actor, ok := ctx.Value(ctxkey.KeyActor).(*Actor)
	if !ok {
		return nil
	}
	return actor
}
