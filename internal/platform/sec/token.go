// Copyright (c) 2026 Hireline. All rights reserved.

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, JWT Signing) from
// the domain logic. It acts as an Infrastructure service injected into the
// Application layer via narrow interfaces.
package sec

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenKind discriminates the three token variants issued by the platform.
//
// # Why a kind tag?
//
// All three kinds are signed with the same shared secret, so without a tag a
// reset token would verify just as well as an access token. Embedding the kind
// in the claims lets [TokenService.VerifyKind] give callers a kind-checked
// result instead of leaving the discrimination to every call site.
type TokenKind string

const (
	// KindAccess authorizes ordinary protected requests. Short-lived.
	KindAccess TokenKind = "access"

	// KindRefresh obtains a fresh access/refresh pair. Longer-lived.
	KindRefresh TokenKind = "refresh"

	// KindReset authorizes exactly one password change. Shortest-lived.
	KindReset TokenKind = "reset"
)

// Claims is the payload embedded inside every Hireline JWT.
//
// Wire shape: { id, email, role_id?, type }. PrincipalID and Email are always
// present; RoleID is zero for principals with no role assigned (reset tokens
// never carry one).
type Claims struct {
	jwt.RegisteredClaims

	PrincipalID int64     `json:"id"`
	Email       string    `json:"email"`
	RoleID      int64     `json:"role_id,omitempty"`
	Kind        TokenKind `json:"type"`
}

// ErrInvalidToken is the uniform verification failure.
//
// Bad signature, malformed structure, and elapsed expiry all collapse into
// this one error: the platform deliberately does not tell callers (or
// attackers) which of the three it was.
var ErrInvalidToken = fmt.Errorf("sec: invalid or expired token")

// TokenService issues and verifies the three Hireline token kinds using
// HS256 with one process-wide signing secret.
type TokenService struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	resetTTL   time.Duration
}

// NewTokenService creates a TokenService bound to the shared signing secret.
//
// # Parameters
//   - secret: The shared HMAC signing secret (all kinds, no key separation).
//   - issuer: The 'iss' claim stamped on every token.
//   - accessTTL, refreshTTL, resetTTL: Per-kind validity windows.
func NewTokenService(secret, issuer string, accessTTL, refreshTTL, resetTTL time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, fmt.Errorf("sec: signing secret must not be empty")
	}

	return &TokenService{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		resetTTL:   resetTTL,
	}, nil
}

// IssueAccess creates a signed access token for ordinary protected requests.
func (service *TokenService) IssueAccess(principalID int64, email string, roleID int64) (string, error) {
	return service.sign(principalID, email, roleID, KindAccess, service.accessTTL)
}

// IssueRefresh creates a signed refresh token used to rotate token pairs.
func (service *TokenService) IssueRefresh(principalID int64, email string, roleID int64) (string, error) {
	return service.sign(principalID, email, roleID, KindRefresh, service.refreshTTL)
}

// IssueReset creates a signed single-purpose password-reset token.
// Reset tokens never carry a role claim.
func (service *TokenService) IssueReset(principalID int64, email string) (string, error) {
	return service.sign(principalID, email, 0, KindReset, service.resetTTL)
}

// sign builds and signs the claim set shared by all three kinds.
func (service *TokenService) sign(principalID int64, email string, roleID int64, kind TokenKind, ttl time.Duration) (string, error) {
	currentTime := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", principalID),
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(ttl)),
		},
		PrincipalID: principalID,
		Email:       email,
		RoleID:      roleID,
		Kind:        kind,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(service.secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign token: %w", err)
	}

	return signedToken, nil
}

// Verify checks the signature and expiry of a token of any kind.
//
// This is the single verification primitive shared by all three kinds. It
// returns [ErrInvalidToken] uniformly for bad signature, malformed structure,
// or elapsed expiry. Callers that care which kind they hold should use
// [TokenService.VerifyKind].
func (service *TokenService) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return service.secret, nil
	})

	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// VerifyKind verifies the token and additionally checks its kind tag.
//
// A cryptographically valid token of the wrong kind fails exactly like a
// forged one, so a leaked reset token can never be replayed as an access token.
func (service *TokenService) VerifyKind(tokenString string, kind TokenKind) (*Claims, error) {
	claims, err := service.Verify(tokenString)
	if err != nil {
		return nil, err
	}

	if claims.Kind != kind {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
