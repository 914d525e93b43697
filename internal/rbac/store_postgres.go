// Copyright (c) 2026 Hireline. All rights reserved.

package rbac

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hireline/hireline/internal/authz"
	"github.com/hireline/hireline/internal/platform/dberr"
)

// PostgresStore implements the Store interface using pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL implementation of the Store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

var _ Store = (*PostgresStore)(nil)

func (store *PostgresStore) FindRoleByID(ctx context.Context, id int64) (*Role, error) {
	const query = `
		SELECT id, name, status, createdat, updatedat
		FROM rbac.role
		WHERE id = $1`

	role := &Role{}
	err := store.pool.QueryRow(ctx, query, id).Scan(
		&role.ID,
		&role.Name,
		&role.Status,
		&role.CreatedAt,
		&role.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "find_role_by_id")
	}

	return role, nil
}

func (store *PostgresStore) FindRoleByName(ctx context.Context, name string) (*Role, error) {
	const query = `
		SELECT id, name, status, createdat, updatedat
		FROM rbac.role
		WHERE name = $1`

	role := &Role{}
	err := store.pool.QueryRow(ctx, query, name).Scan(
		&role.ID,
		&role.Name,
		&role.Status,
		&role.CreatedAt,
		&role.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "find_role_by_name")
	}

	return role, nil
}

func (store *PostgresStore) ListRoles(ctx context.Context, limit, offset int) ([]*Role, int, error) {
	const countQuery = `SELECT COUNT(*) FROM rbac.role`

	total := 0
	if err := store.pool.QueryRow(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "count_roles")
	}

	const query = `
		SELECT id, name, status, createdat, updatedat
		FROM rbac.role
		ORDER BY name ASC
		LIMIT $1 OFFSET $2`

	rows, err := store.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_roles")
	}
	defer rows.Close()

	roles := make([]*Role, 0)
	for rows.Next() {
		role := &Role{}
		if err := rows.Scan(&role.ID, &role.Name, &role.Status, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, 0, dberr.Wrap(err, "scan_role")
		}
		roles = append(roles, role)
	}

	return roles, total, nil
}

// CreateRoleWithPermissions writes the role and every permission row inside
// one transaction so a partial failure leaves no half-configured role behind.
func (store *PostgresStore) CreateRoleWithPermissions(ctx context.Context, role *Role, rows []PermissionInput) error {
	tx, err := store.pool.Begin(ctx)
	if err != nil {
		return dberr.Wrap(err, "begin_create_role")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now()
	role.CreatedAt = now
	role.UpdatedAt = now

	const roleQuery = `
		INSERT INTO rbac.role (name, status, createdat, updatedat)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	if err := tx.QueryRow(ctx, roleQuery, role.Name, role.Status, role.CreatedAt, role.UpdatedAt).Scan(&role.ID); err != nil {
		return dberr.Wrap(err, "insert_role")
	}

	const permQuery = `
		INSERT INTO rbac.permission (roleid, resourceid, cancreate, canread, canupdate, candelete)
		VALUES ($1, $2, $3, $4, $5, $6)`

	for _, row := range rows {
		_, err := tx.Exec(ctx, permQuery,
			role.ID,
			row.ResourceID,
			row.CanCreate,
			row.CanRead,
			row.CanUpdate,
			row.CanDelete,
		)
		if err != nil {
			return dberr.Wrap(err, "insert_permission")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return dberr.Wrap(err, "commit_create_role")
	}

	return nil
}

func (store *PostgresStore) UpdateRoleStatus(ctx context.Context, roleID int64, status RoleStatus) error {
	const query = `
		UPDATE rbac.role
		SET status = $2, updatedat = $3
		WHERE id = $1`

	tag, err := store.pool.Exec(ctx, query, roleID, status, time.Now())
	if err != nil {
		return dberr.Wrap(err, "update_role_status")
	}
	if tag.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}

	return nil
}

// UpsertPermission relies on the (roleid, resourceid) unique constraint for
// find-or-create-then-update semantics.
func (store *PostgresStore) UpsertPermission(ctx context.Context, roleID int64, row PermissionInput) error {
	const query = `
		INSERT INTO rbac.permission (roleid, resourceid, cancreate, canread, canupdate, candelete)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (roleid, resourceid) DO UPDATE
		SET cancreate = EXCLUDED.cancreate,
		    canread   = EXCLUDED.canread,
		    canupdate = EXCLUDED.canupdate,
		    candelete = EXCLUDED.candelete`

	_, err := store.pool.Exec(ctx, query,
		roleID,
		row.ResourceID,
		row.CanCreate,
		row.CanRead,
		row.CanUpdate,
		row.CanDelete,
	)
	if err != nil {
		return dberr.Wrap(err, "upsert_permission")
	}

	return nil
}

func (store *PostgresStore) ListPermissions(ctx context.Context, roleID int64) ([]*Permission, error) {
	const query = `
		SELECT id, roleid, resourceid, cancreate, canread, canupdate, candelete
		FROM rbac.permission
		WHERE roleid = $1
		ORDER BY resourceid ASC`

	rows, err := store.pool.Query(ctx, query, roleID)
	if err != nil {
		return nil, dberr.Wrap(err, "list_permissions")
	}
	defer rows.Close()

	permissions := make([]*Permission, 0)
	for rows.Next() {
		p := &Permission{}
		if err := rows.Scan(&p.ID, &p.RoleID, &p.ResourceID, &p.CanCreate, &p.CanRead, &p.CanUpdate, &p.CanDelete); err != nil {
			return nil, dberr.Wrap(err, "scan_permission")
		}
		permissions = append(permissions, p)
	}

	return permissions, nil
}

func (store *PostgresStore) ListResources(ctx context.Context) ([]*Resource, error) {
	const query = `SELECT id, name FROM rbac.resource ORDER BY name ASC`

	rows, err := store.pool.Query(ctx, query)
	if err != nil {
		return nil, dberr.Wrap(err, "list_resources")
	}
	defer rows.Close()

	resources := make([]*Resource, 0)
	for rows.Next() {
		r := &Resource{}
		if err := rows.Scan(&r.ID, &r.Name); err != nil {
			return nil, dberr.Wrap(err, "scan_resource")
		}
		resources = append(resources, r)
	}

	return resources, nil
}

func (store *PostgresStore) FindResourceIDByName(ctx context.Context, name string) (int64, error) {
	const query = `SELECT id FROM rbac.resource WHERE name = $1`

	var id int64
	if err := store.pool.QueryRow(ctx, query, name).Scan(&id); err != nil {
		return 0, dberr.Wrap(err, "find_resource_by_name")
	}

	return id, nil
}

func (store *PostgresStore) FindFlags(ctx context.Context, roleID, resourceID int64) (*authz.Flags, error) {
	const query = `
		SELECT cancreate, canread, canupdate, candelete
		FROM rbac.permission
		WHERE roleid = $1 AND resourceid = $2`

	flags := &authz.Flags{}
	err := store.pool.QueryRow(ctx, query, roleID, resourceID).Scan(
		&flags.CanCreate,
		&flags.CanRead,
		&flags.CanUpdate,
		&flags.CanDelete,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "find_flags")
	}

	return flags, nil
}

// CountPrincipalsWithRole is the external count check backing the
// deactivation invariant.
func (store *PostgresStore) CountPrincipalsWithRole(ctx context.Context, roleID int64) (int, error) {
	const query = `SELECT COUNT(*) FROM identity.principal WHERE roleid = $1`

	count := 0
	if err := store.pool.QueryRow(ctx, query, roleID).Scan(&count); err != nil {
		return 0, dberr.Wrap(err, "count_principals_with_role")
	}

	return count, nil
}
