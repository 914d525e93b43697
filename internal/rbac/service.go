// Copyright (c) 2026 Hireline. All rights reserved.

package rbac

import (
	"context"
	"fmt"

	"github.com/hireline/hireline/internal/platform/apperr"
	"github.com/hireline/hireline/pkg/pagination"
)

// Service implements the role and permission management use cases.
//
// # Review Process
//
// This service shapes who can do what across the platform. Any changes to the
// creation, upsert, or deactivation rules must be reviewed by the security team.
type Service struct {
	store Store
}

// NewService constructs a new [Service] with its storage dependency.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// CreateRoleInput holds the data required to create a role with its matrix rows.
type CreateRoleInput struct {
	Name        string
	Status      RoleStatus
	Permissions []PermissionInput
}

// CreateRole creates a new role together with its permission rows.
//
// # Business Rules
//   - Role names are unique; a duplicate is rejected as a Conflict.
//   - The role and all supplied permission rows are written atomically: a
//     failure on any row rolls the role back too.
//   - Duplicate (role, resource) pairs within the request surface as a
//     Conflict from the unique constraint.
func (service *Service) CreateRole(ctx context.Context, input CreateRoleInput) (*Role, error) {

	// ── 1. Uniqueness Check ───────────────────────────────────────────────
	// Cheap pre-check for a friendly message; the unique index remains the
	// authority under concurrent creates.
	_, err := service.store.FindRoleByName(ctx, input.Name)
	if err == nil {
		return nil, apperr.Conflict(fmt.Sprintf("A role named '%s' already exists", input.Name))
	}
	if !isNotFoundErr(err) {
		return nil, err
	}

	// ── 2. Atomic Persistence ─────────────────────────────────────────────
	role := &Role{
		Name:   input.Name,
		Status: input.Status,
	}

	if err := service.store.CreateRoleWithPermissions(ctx, role, input.Permissions); err != nil {
		return nil, err
	}

	return role, nil
}

// UpdateRoleInput holds the optional fields of a role update.
type UpdateRoleInput struct {
	// Status, when non-nil, replaces the role's lifecycle status.
	Status *RoleStatus

	// Permissions, when non-empty, are upserted row by row (find-or-create,
	// then overwrite flags). Rows for resources not listed are left untouched.
	Permissions []PermissionInput
}

// UpdateRole updates a role's status and/or upserts permission rows.
//
// Flipping the status to inactive runs the same referenced-by-principals
// check as [Service.DeactivateRole].
func (service *Service) UpdateRole(ctx context.Context, roleID int64, input UpdateRoleInput) (*RoleDetail, error) {
	role, err := service.store.FindRoleByID(ctx, roleID)
	if err != nil {
		if isNotFoundErr(err) {
			return nil, apperr.NotFound("Role")
		}
		return nil, err
	}

	// ── 1. Status Transition ──────────────────────────────────────────────
	if input.Status != nil && *input.Status != role.Status {
		if *input.Status == RoleStatusInactive {
			if err := service.ensureUnreferenced(ctx, roleID); err != nil {
				return nil, err
			}
		}

		if err := service.store.UpdateRoleStatus(ctx, roleID, *input.Status); err != nil {
			return nil, err
		}
		role.Status = *input.Status
	}

	// ── 2. Permission Upserts ─────────────────────────────────────────────
	for _, row := range input.Permissions {
		if err := service.store.UpsertPermission(ctx, roleID, row); err != nil {
			return nil, err
		}
	}

	permissions, err := service.store.ListPermissions(ctx, roleID)
	if err != nil {
		return nil, err
	}

	return &RoleDetail{Role: role, Permissions: permissions}, nil
}

// DeactivateRole retires a role.
//
// # Business Rules
//   - Deactivation is only valid while zero principals reference the role;
//     otherwise the operation is rejected as a Conflict.
func (service *Service) DeactivateRole(ctx context.Context, roleID int64) (*Role, error) {
	role, err := service.store.FindRoleByID(ctx, roleID)
	if err != nil {
		if isNotFoundErr(err) {
			return nil, apperr.NotFound("Role")
		}
		return nil, err
	}

	if role.Status == RoleStatusInactive {
		return role, nil
	}

	if err := service.ensureUnreferenced(ctx, roleID); err != nil {
		return nil, err
	}

	if err := service.store.UpdateRoleStatus(ctx, roleID, RoleStatusInactive); err != nil {
		return nil, err
	}

	role.Status = RoleStatusInactive
	return role, nil
}

// GetRole returns a role together with its full permission set.
func (service *Service) GetRole(ctx context.Context, roleID int64) (*RoleDetail, error) {
	role, err := service.store.FindRoleByID(ctx, roleID)
	if err != nil {
		if isNotFoundErr(err) {
			return nil, apperr.NotFound("Role")
		}
		return nil, err
	}

	permissions, err := service.store.ListPermissions(ctx, roleID)
	if err != nil {
		return nil, err
	}

	return &RoleDetail{Role: role, Permissions: permissions}, nil
}

// ListRoles returns one page of roles with pagination metadata.
func (service *Service) ListRoles(ctx context.Context, params pagination.Params) ([]*Role, pagination.Meta, error) {
	roles, total, err := service.store.ListRoles(ctx, params.Limit, params.Offset())
	if err != nil {
		return nil, pagination.Meta{}, err
	}

	return roles, pagination.NewMeta(params.Page, params.Limit, total), nil
}

// ListResources returns the seeded resource catalogue.
func (service *Service) ListResources(ctx context.Context) ([]*Resource, error) {
	return service.store.ListResources(ctx)
}

// ensureUnreferenced rejects deactivation while any principal still holds the role.
func (service *Service) ensureUnreferenced(ctx context.Context, roleID int64) error {
	count, err := service.store.CountPrincipalsWithRole(ctx, roleID)
	if err != nil {
		return err
	}

	if count > 0 {
		return apperr.Conflict(fmt.Sprintf("Role is assigned to %d account(s) and cannot be deactivated", count))
	}

	return nil
}

// isNotFoundErr reports whether err carries a 404 [apperr.AppError].
func isNotFoundErr(err error) bool {
	appError := apperr.As(err)
	return appError != nil && appError.HTTPStatus == 404
}
