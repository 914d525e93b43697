// Copyright (c) 2026 Hireline. All rights reserved.

// PostgreSQL implementations of the identity storage contracts.
//
// # Error Mapping
//
// Storage-specific errors (like pgx.ErrNoRows) are mapped to domain-friendly
// [apperr.AppError] types via dberr to avoid leaking storage details.

package identity

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hireline/hireline/internal/platform/dberr"
)

// PostgresPrincipalStore implements the PrincipalStore interface using pgx.
type PostgresPrincipalStore struct {
	pool *pgxpool.Pool
}

// NewPrincipalStore creates a new PostgreSQL implementation of the PrincipalStore.
func NewPrincipalStore(pool *pgxpool.Pool) *PostgresPrincipalStore {
	return &PostgresPrincipalStore{pool: pool}
}

var _ PrincipalStore = (*PostgresPrincipalStore)(nil)

const principalColumns = `id, kind, email, passwordhash, fullname, COALESCE(roleid, 0), createdat, updatedat`

func (store *PostgresPrincipalStore) FindByID(ctx context.Context, id int64) (*Principal, error) {
	const query = `
		SELECT ` + principalColumns + `
		FROM identity.principal
		WHERE id = $1`

	principal := &Principal{}
	err := store.pool.QueryRow(ctx, query, id).Scan(
		&principal.ID,
		&principal.Kind,
		&principal.Email,
		&principal.PasswordHash,
		&principal.FullName,
		&principal.RoleID,
		&principal.CreatedAt,
		&principal.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "find_principal_by_id")
	}

	return principal, nil
}

func (store *PostgresPrincipalStore) FindByEmail(ctx context.Context, email string) (*Principal, error) {
	const query = `
		SELECT ` + principalColumns + `
		FROM identity.principal
		WHERE email = $1`

	principal := &Principal{}
	err := store.pool.QueryRow(ctx, query, email).Scan(
		&principal.ID,
		&principal.Kind,
		&principal.Email,
		&principal.PasswordHash,
		&principal.FullName,
		&principal.RoleID,
		&principal.CreatedAt,
		&principal.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "find_principal_by_email")
	}

	return principal, nil
}

func (store *PostgresPrincipalStore) Create(ctx context.Context, principal *Principal) error {
	const query = `
		INSERT INTO identity.principal (kind, email, passwordhash, fullname, roleid, createdat, updatedat)
		VALUES ($1, $2, $3, $4, NULLIF($5, 0), $6, $7)
		RETURNING id`

	now := time.Now()
	principal.CreatedAt = now
	principal.UpdatedAt = now

	err := store.pool.QueryRow(ctx, query,
		principal.Kind,
		principal.Email,
		principal.PasswordHash,
		principal.FullName,
		principal.RoleID,
		principal.CreatedAt,
		principal.UpdatedAt,
	).Scan(&principal.ID)
	if err != nil {
		return dberr.Wrap(err, "create_principal")
	}

	return nil
}

func (store *PostgresPrincipalStore) UpdatePassword(ctx context.Context, principalID int64, newHash string) error {
	const query = `
		UPDATE identity.principal
		SET passwordhash = $2, updatedat = $3
		WHERE id = $1`

	tag, err := store.pool.Exec(ctx, query, principalID, newHash, time.Now())
	if err != nil {
		return dberr.Wrap(err, "update_principal_password")
	}
	if tag.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}

	return nil
}

// ── Session Record Store ─────────────────────────────────────────────────────

// PostgresSessionStore implements the SessionStore interface.
type PostgresSessionStore struct {
	pool *pgxpool.Pool
}

// NewSessionStore creates a new PostgreSQL implementation of SessionStore.
func NewSessionStore(pool *pgxpool.Pool) *PostgresSessionStore {
	return &PostgresSessionStore{pool: pool}
}

var _ SessionStore = (*PostgresSessionStore)(nil)

// Upsert replaces the principal's record with the new token pair. The unique
// index on principalid makes concurrent logins last-write-wins.
func (store *PostgresSessionStore) Upsert(ctx context.Context, principalID int64, accessToken, refreshToken string) error {
	const query = `
		INSERT INTO identity.session_record (principalid, accesstoken, refreshtoken, updatedat)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (principalid) DO UPDATE
		SET accesstoken  = EXCLUDED.accesstoken,
		    refreshtoken = EXCLUDED.refreshtoken,
		    updatedat    = EXCLUDED.updatedat`

	_, err := store.pool.Exec(ctx, query, principalID, accessToken, refreshToken, time.Now())
	if err != nil {
		return dberr.Wrap(err, "upsert_session_record")
	}

	return nil
}

// SetResetToken finds-or-creates the record and overwrites the reset fields in place.
func (store *PostgresSessionStore) SetResetToken(ctx context.Context, principalID int64, resetToken string, expiry time.Time) error {
	const query = `
		INSERT INTO identity.session_record (principalid, resettoken, resettokenexpiry, updatedat)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (principalid) DO UPDATE
		SET resettoken       = EXCLUDED.resettoken,
		    resettokenexpiry = EXCLUDED.resettokenexpiry,
		    updatedat        = EXCLUDED.updatedat`

	_, err := store.pool.Exec(ctx, query, principalID, resetToken, expiry, time.Now())
	if err != nil {
		return dberr.Wrap(err, "set_reset_token")
	}

	return nil
}

// ConsumeResetToken atomically clears the matching reset token and returns the
// owning principal. The stored expiry column travels with the record but is
// not compared against the clock here: the token's own embedded expiry has
// already been enforced by signature verification.
func (store *PostgresSessionStore) ConsumeResetToken(ctx context.Context, resetToken string) (*Principal, error) {
	const query = `
		WITH consumed AS (
			UPDATE identity.session_record
			SET resettoken = NULL, resettokenexpiry = NULL, updatedat = $2
			WHERE resettoken = $1
			RETURNING principalid
		)
		SELECT p.id, p.kind, p.email, p.passwordhash, p.fullname, COALESCE(p.roleid, 0), p.createdat, p.updatedat
		FROM identity.principal p
		JOIN consumed c ON p.id = c.principalid`

	principal := &Principal{}
	err := store.pool.QueryRow(ctx, query, resetToken, time.Now()).Scan(
		&principal.ID,
		&principal.Kind,
		&principal.Email,
		&principal.PasswordHash,
		&principal.FullName,
		&principal.RoleID,
		&principal.CreatedAt,
		&principal.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "consume_reset_token")
	}

	return principal, nil
}

func (store *PostgresSessionStore) Destroy(ctx context.Context, principalID int64) error {
	const query = `DELETE FROM identity.session_record WHERE principalid = $1`

	_, err := store.pool.Exec(ctx, query, principalID)
	if err != nil {
		return dberr.Wrap(err, "destroy_session_record")
	}

	return nil
}
