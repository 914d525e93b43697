// Copyright (c) 2026 Hireline. All rights reserved.

/*
Package rbac implements the role-based permission matrix.

It defines the Role, Resource, and Permission entities, the management
operations operators use to shape the matrix, and the two read paths the
authorization guard consults on every protected request.

# Architecture

This layer is the "Truth" of access control. A principal's authorization
decision is fully determined by (role_id, resource_id, action) — there are no
per-principal overrides.
*/
package rbac

import "time"

// # Domain Entities

// RoleStatus is the lifecycle state of a role.
type RoleStatus string

const (
	// RoleStatusActive means the role can be assigned and grants its permissions.
	RoleStatusActive RoleStatus = "active"

	// RoleStatusInactive means the role is retired. A role may only become
	// inactive while zero principals reference it.
	RoleStatusInactive RoleStatus = "inactive"
)

// Role is a named bundle of permissions assigned to principals.
type Role struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Status    RoleStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Resource is a named protectable capability area (e.g. "Customers",
// "Roles And Permissions"). Resources are seeded by migration and read-only
// at the API.
type Resource struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Permission is one matrix row: the four action flags for a (role, resource)
// pair. Rows are unique per (role_id, resource_id); the absence of a row is
// equivalent to all four flags being false.
type Permission struct {
	ID         int64 `json:"id"`
	RoleID     int64 `json:"role_id"`
	ResourceID int64 `json:"resource_id"`
	CanCreate  bool  `json:"can_create"`
	CanRead    bool  `json:"can_read"`
	CanUpdate  bool  `json:"can_update"`
	CanDelete  bool  `json:"can_delete"`
}

// PermissionInput is one (resource, flags) pair supplied to the role
// management operations.
type PermissionInput struct {
	ResourceID int64 `json:"resource_id"`
	CanCreate  bool  `json:"can_create"`
	CanRead    bool  `json:"can_read"`
	CanUpdate  bool  `json:"can_update"`
	CanDelete  bool  `json:"can_delete"`
}

// RoleDetail is a role together with its full permission set.
type RoleDetail struct {
	Role        *Role         `json:"role"`
	Permissions []*Permission `json:"permissions"`
}

// # Canonical Resources

// Seeded resource names. The guard looks resources up by these exact strings.
const (
	ResourceCustomers  = "Customers"
	ResourceEmployees  = "Employees"
	ResourceJobs       = "Jobs"
	ResourceAdmins     = "Admins"
	ResourcePayments   = "Payments"
	ResourceRolesPerms = "Roles And Permissions"
)

// # Field Identifiers

const (
	FieldName        = "name"
	FieldStatus      = "status"
	FieldPermissions = "permissions"
	FieldResourceID  = "resource_id"
	FieldRoleID      = "role_id"
)
