// Copyright (c) 2026 Hireline. All rights reserved.

package rbac

import (
	"context"

	"github.com/hireline/hireline/internal/authz"
)

// # Matrix Data Access

// Store defines the data access contract for the permission matrix.
//
// Lookup methods return an apperr 404 when the row does not exist; write
// methods surface unique-constraint violations as apperr 409 Conflicts.
type Store interface {

	// FindRoleByID returns the role with the given id.
	FindRoleByID(ctx context.Context, id int64) (*Role, error)

	// FindRoleByName returns the role with the given unique name.
	FindRoleByName(ctx context.Context, name string) (*Role, error)

	// ListRoles returns one page of roles plus the total role count.
	ListRoles(ctx context.Context, limit, offset int) ([]*Role, int, error)

	// CreateRoleWithPermissions persists a new role and all of its permission
	// rows inside a single transaction. A failure on any row rolls back the
	// role as well.
	CreateRoleWithPermissions(ctx context.Context, role *Role, rows []PermissionInput) error

	// UpdateRoleStatus flips the role's lifecycle status in place.
	UpdateRoleStatus(ctx context.Context, roleID int64, status RoleStatus) error

	// UpsertPermission creates the (role, resource) row or overwrites its
	// flags if it already exists. Idempotent.
	UpsertPermission(ctx context.Context, roleID int64, row PermissionInput) error

	// ListPermissions returns every permission row belonging to the role.
	ListPermissions(ctx context.Context, roleID int64) ([]*Permission, error)

	// ListResources returns all seeded resources.
	ListResources(ctx context.Context) ([]*Resource, error)

	// FindResourceIDByName resolves a resource name to its id.
	FindResourceIDByName(ctx context.Context, name string) (int64, error)

	// FindFlags returns the four action flags for (roleID, resourceID).
	FindFlags(ctx context.Context, roleID, resourceID int64) (*authz.Flags, error)

	// CountPrincipalsWithRole reports how many principals currently reference
	// the role. Used as the deactivation precondition.
	CountPrincipalsWithRole(ctx context.Context, roleID int64) (int, error)
}
