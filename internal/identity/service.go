// Copyright (c) 2026 Hireline. All rights reserved.

// Service layer for the identity domain: credential verification, token
// issuance, and session record bookkeeping.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, issuance,
// or recovery logic must be reviewed by the security team.

package identity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hireline/hireline/internal/authz"
	"github.com/hireline/hireline/internal/platform/apperr"
	"github.com/hireline/hireline/internal/platform/ctxutil"
	"github.com/hireline/hireline/internal/platform/sec"
)

// TokenIssuer defines the contract for issuing and verifying security tokens.
//
// Implemented by [sec.TokenService]. All three kinds share one signing secret;
// the kind tag in the claims is what keeps them apart.
type TokenIssuer interface {
	IssueAccess(principalID int64, email string, roleID int64) (string, error)
	IssueRefresh(principalID int64, email string, roleID int64) (string, error)
	IssueReset(principalID int64, email string) (string, error)
	VerifyKind(tokenString string, kind sec.TokenKind) (*sec.Claims, error)
}

// Service implements the credential lifecycle use cases.
type Service struct {
	principals PrincipalStore
	sessions   SessionStore
	throttle   LoginThrottle
	tokens     TokenIssuer
	notifier   Notifier
	resetTTL   time.Duration
}

// NewService constructs a new identity [Service] with necessary dependencies.
func NewService(
	principals PrincipalStore,
	sessions SessionStore,
	throttle LoginThrottle,
	tokens TokenIssuer,
	notifier Notifier,
	resetTTL time.Duration,
) *Service {
	return &Service{
		principals: principals,
		sessions:   sessions,
		throttle:   throttle,
		tokens:     tokens,
		notifier:   notifier,
		resetTTL:   resetTTL,
	}
}

// SignupInput holds the data required to enroll a new customer account.
type SignupInput struct {
	Email    string
	Password string
	FullName string
}

// Signup validates, hashes, and persists a brand new customer principal.
//
// # Business Rules
//   - Emails must be unique.
//   - New signups carry no role; an operator assigns one later. Until then
//     the guard denies every matrix-protected request.
func (service *Service) Signup(ctx context.Context, input SignupInput) (*Principal, error) {

	// ── 1. Uniqueness Check ───────────────────────────────────────────────
	// Return a client-safe Conflict error.
	_, err := service.principals.FindByEmail(ctx, input.Email)
	if err == nil {
		return nil, apperr.Conflict("Email is already registered")
	}
	if !isNotFound(err) {
		return nil, err
	}

	// ── 2. Security ───────────────────────────────────────────────────────
	// Prevent storing plain-text passwords. Default cost balances security
	// against CPU utilization during signup spikes.
	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("identity_service_hash_failed: %w", err)
	}

	// ── 3. Persistence ────────────────────────────────────────────────────
	principal := &Principal{
		Kind:         KindCustomer,
		Email:        input.Email,
		PasswordHash: hashedPassword,
		FullName:     input.FullName,
	}

	if err := service.principals.Create(ctx, principal); err != nil {
		return nil, err
	}

	return principal, nil
}

// TokenPair is a freshly issued access/refresh pair.
type TokenPair struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	Principal    *Principal `json:"principal"`
}

// Login validates credentials and issues a fresh token pair.
//
// # Flow
//  1. Refuse if the email has exhausted its failed-attempt budget.
//  2. Lookup the principal by email.
//  3. Verify the password hash using bcrypt.
//  4. Issue access + refresh tokens and overwrite the session record.
//
// A generic Unauthorized is returned for any credential failure to prevent
// account enumeration.
func (service *Service) Login(ctx context.Context, email, password string) (*TokenPair, error) {

	// ── 1. Throttle Check ─────────────────────────────────────────────────
	// The throttle is advisory: a volatile-store outage must not lock every
	// account out, so lookup errors are logged and ignored.
	blocked, err := service.throttle.TooManyFailures(ctx, email)
	if err != nil {
		ctxutil.GetLogger(ctx).WarnContext(ctx, "login_throttle_unavailable", slog.Any("error", err))
	} else if blocked {
		return nil, apperr.RateLimited("Too many failed login attempts. Try again later.")
	}

	// ── 2. Fetch Principal ────────────────────────────────────────────────
	principal, err := service.principals.FindByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			service.recordFailure(ctx, email)
			return nil, apperr.Unauthorized("Invalid login credentials")
		}
		return nil, err
	}

	// ── 3. Credential Verification ────────────────────────────────────────
	// bcrypt compares in constant time; a mismatch reports false, never panics.
	if !sec.CheckPasswordHash(password, principal.PasswordHash) {
		service.recordFailure(ctx, email)
		return nil, apperr.Unauthorized("Invalid login credentials")
	}

	if err := service.throttle.Clear(ctx, email); err != nil {
		ctxutil.GetLogger(ctx).WarnContext(ctx, "login_throttle_clear_failed", slog.Any("error", err))
	}

	// ── 4. Token Issuance & Session Record ───────────────────────────────
	return service.issuePair(ctx, principal)
}

// Refresh exchanges a valid refresh token for a brand new token pair.
//
// Verification is purely cryptographic: the session record is not consulted,
// so a refresh token stays exchangeable until its own embedded expiry even if
// a later login overwrote the stored record.
func (service *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := service.tokens.VerifyKind(refreshToken, sec.KindRefresh)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired refresh token")
	}

	principal, err := service.principals.FindByID(ctx, claims.PrincipalID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperr.Unauthorized("Account not found or removed")
		}
		return nil, err
	}

	return service.issuePair(ctx, principal)
}

// Logout clears the principal's session record.
//
// Tokens already in the wild remain cryptographically valid until their own
// expiry; the guard does not re-check the record on ordinary requests.
func (service *Service) Logout(ctx context.Context, principalID int64) error {
	return service.sessions.Destroy(ctx, principalID)
}

// ForgotPassword issues a single-use reset token and hands it to the notifier.
//
// The response is identical whether or not the email exists, to prevent
// account enumeration through the recovery form.
func (service *Service) ForgotPassword(ctx context.Context, email string) error {
	principal, err := service.principals.FindByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return err
	}

	resetToken, err := service.tokens.IssueReset(principal.ID, principal.Email)
	if err != nil {
		return fmt.Errorf("identity_service_reset_token_failed: %w", err)
	}

	// The stored expiry mirrors the token's embedded one. It is bookkeeping:
	// redemption trusts the signature's expiry, not this column.
	expiry := time.Now().Add(service.resetTTL)
	if err := service.sessions.SetResetToken(ctx, principal.ID, resetToken, expiry); err != nil {
		return err
	}

	return service.notifier.SendPasswordReset(ctx, principal.Email, resetToken)
}

// ResetPassword redeems a reset token exactly once and replaces the password.
//
// # Flow
//  1. Verify the token cryptographically, kind-checked as a reset token.
//  2. Consume the stored record (second redemption of the same token fails
//     here, the record is already cleared).
//  3. Hash and persist the new password.
func (service *Service) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	if _, err := service.tokens.VerifyKind(resetToken, sec.KindReset); err != nil {
		return apperr.Unauthorized("Reset token is invalid or expired")
	}

	principal, err := service.sessions.ConsumeResetToken(ctx, resetToken)
	if err != nil {
		if isNotFound(err) {
			return apperr.Unauthorized("Reset token is invalid or already used")
		}
		return err
	}

	hashedPassword, err := sec.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("identity_service_hash_failed: %w", err)
	}

	return service.principals.UpdatePassword(ctx, principal.ID, hashedPassword)
}

// ChangePassword replaces the caller's password after re-verifying the current one.
func (service *Service) ChangePassword(ctx context.Context, principalID int64, currentPassword, newPassword string) error {
	principal, err := service.principals.FindByID(ctx, principalID)
	if err != nil {
		return err
	}

	if !sec.CheckPasswordHash(currentPassword, principal.PasswordHash) {
		return apperr.Unauthorized("Current password is incorrect")
	}

	hashedPassword, err := sec.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("identity_service_hash_failed: %w", err)
	}

	return service.principals.UpdatePassword(ctx, principal.ID, hashedPassword)
}

// FindActor adapts a principal lookup to the slim view the authorization
// guard consumes. Implements [authz.PrincipalFinder].
func (service *Service) FindActor(ctx context.Context, principalID int64) (*authz.Actor, error) {
	principal, err := service.principals.FindByID(ctx, principalID)
	if err != nil {
		return nil, err
	}

	return &authz.Actor{
		ID:     principal.ID,
		Email:  principal.Email,
		RoleID: principal.RoleID,
	}, nil
}

// issuePair mints an access/refresh pair and overwrites the session record.
func (service *Service) issuePair(ctx context.Context, principal *Principal) (*TokenPair, error) {
	accessToken, err := service.tokens.IssueAccess(principal.ID, principal.Email, principal.RoleID)
	if err != nil {
		return nil, fmt.Errorf("identity_service_access_token_failed: %w", err)
	}

	refreshToken, err := service.tokens.IssueRefresh(principal.ID, principal.Email, principal.RoleID)
	if err != nil {
		return nil, fmt.Errorf("identity_service_refresh_token_failed: %w", err)
	}

	// Last write wins: whichever concurrent login lands last owns the record.
	if err := service.sessions.Upsert(ctx, principal.ID, accessToken, refreshToken); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Principal:    principal,
	}, nil
}

// recordFailure best-effort counts a failed attempt.
func (service *Service) recordFailure(ctx context.Context, email string) {
	if err := service.throttle.RecordFailure(ctx, email); err != nil {
		ctxutil.GetLogger(ctx).WarnContext(ctx, "login_throttle_record_failed", slog.Any("error", err))
	}
}

// isNotFound reports whether err carries a 404 [apperr.AppError].
func isNotFound(err error) bool {
	appError := apperr.As(err)
	return appError != nil && appError.HTTPStatus == 404
}
