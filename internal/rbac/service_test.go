// Copyright (c) 2026 Hireline. All rights reserved.

package rbac_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hireline/hireline/internal/authz"
	"github.com/hireline/hireline/internal/platform/apperr"
	"github.com/hireline/hireline/internal/rbac"
)

// # Test Double

// fakeStore is an in-memory rbac.Store. Writes are recorded so tests can
// assert what the service persisted.
type fakeStore struct {
	roles       map[int64]*rbac.Role
	rolesByName map[string]*rbac.Role
	permissions map[int64][]*rbac.Permission
	refCounts   map[int64]int

	nextID        int64
	createCalls   int
	upsertedRows  []rbac.PermissionInput
	statusUpdates []rbac.RoleStatus
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		roles:       map[int64]*rbac.Role{},
		rolesByName: map[string]*rbac.Role{},
		permissions: map[int64][]*rbac.Permission{},
		refCounts:   map[int64]int{},
		nextID:      1,
	}
}

func (f *fakeStore) seedRole(name string, status rbac.RoleStatus) *rbac.Role {
	role := &rbac.Role{ID: f.nextID, Name: name, Status: status}
	f.nextID++
	f.roles[role.ID] = role
	f.rolesByName[role.Name] = role
	return role
}

func (f *fakeStore) FindRoleByID(ctx context.Context, id int64) (*rbac.Role, error) {
	role, ok := f.roles[id]
	if !ok {
		return nil, apperr.NotFound("Role")
	}
	return role, nil
}

func (f *fakeStore) FindRoleByName(ctx context.Context, name string) (*rbac.Role, error) {
	role, ok := f.rolesByName[name]
	if !ok {
		return nil, apperr.NotFound("Role")
	}
	return role, nil
}

func (f *fakeStore) ListRoles(ctx context.Context, limit, offset int) ([]*rbac.Role, int, error) {
	roles := make([]*rbac.Role, 0, len(f.roles))
	for _, role := range f.roles {
		roles = append(roles, role)
	}
	return roles, len(roles), nil
}

func (f *fakeStore) CreateRoleWithPermissions(ctx context.Context, role *rbac.Role, rows []rbac.PermissionInput) error {
	f.createCalls++
	role.ID = f.nextID
	f.nextID++
	f.roles[role.ID] = role
	f.rolesByName[role.Name] = role

	for _, row := range rows {
		f.permissions[role.ID] = append(f.permissions[role.ID], &rbac.Permission{
			RoleID:     role.ID,
			ResourceID: row.ResourceID,
			CanCreate:  row.CanCreate,
			CanRead:    row.CanRead,
			CanUpdate:  row.CanUpdate,
			CanDelete:  row.CanDelete,
		})
	}
	return nil
}

func (f *fakeStore) UpdateRoleStatus(ctx context.Context, roleID int64, status rbac.RoleStatus) error {
	f.statusUpdates = append(f.statusUpdates, status)
	f.roles[roleID].Status = status
	return nil
}

func (f *fakeStore) UpsertPermission(ctx context.Context, roleID int64, row rbac.PermissionInput) error {
	f.upsertedRows = append(f.upsertedRows, row)

	for _, existing := range f.permissions[roleID] {
		if existing.ResourceID == row.ResourceID {
			existing.CanCreate = row.CanCreate
			existing.CanRead = row.CanRead
			existing.CanUpdate = row.CanUpdate
			existing.CanDelete = row.CanDelete
			return nil
		}
	}

	f.permissions[roleID] = append(f.permissions[roleID], &rbac.Permission{
		RoleID:     roleID,
		ResourceID: row.ResourceID,
		CanCreate:  row.CanCreate,
		CanRead:    row.CanRead,
		CanUpdate:  row.CanUpdate,
		CanDelete:  row.CanDelete,
	})
	return nil
}

func (f *fakeStore) ListPermissions(ctx context.Context, roleID int64) ([]*rbac.Permission, error) {
	return f.permissions[roleID], nil
}

func (f *fakeStore) ListResources(ctx context.Context) ([]*rbac.Resource, error) {
	return []*rbac.Resource{{ID: 5, Name: rbac.ResourceJobs}}, nil
}

func (f *fakeStore) FindResourceIDByName(ctx context.Context, name string) (int64, error) {
	if name == rbac.ResourceJobs {
		return 5, nil
	}
	return 0, apperr.NotFound("Resource")
}

func (f *fakeStore) FindFlags(ctx context.Context, roleID, resourceID int64) (*authz.Flags, error) {
	for _, row := range f.permissions[roleID] {
		if row.ResourceID == resourceID {
			return &authz.Flags{
				CanCreate: row.CanCreate,
				CanRead:   row.CanRead,
				CanUpdate: row.CanUpdate,
				CanDelete: row.CanDelete,
			}, nil
		}
	}
	return nil, apperr.NotFound("Permission")
}

func (f *fakeStore) CountPrincipalsWithRole(ctx context.Context, roleID int64) (int, error) {
	return f.refCounts[roleID], nil
}

var _ rbac.Store = (*fakeStore)(nil)

/*
TestService_CreateRole verifies creation with permission rows and the
duplicate-name rejection.
*/
func TestService_CreateRole(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		store := newFakeStore()
		service := rbac.NewService(store)

		role, err := service.CreateRole(context.Background(), rbac.CreateRoleInput{
			Name:   "Ops",
			Status: rbac.RoleStatusActive,
			Permissions: []rbac.PermissionInput{
				{ResourceID: 5, CanRead: true, CanUpdate: true},
			},
		})
		require.NoError(t, err)

		assert.NotZero(t, role.ID)
		assert.Equal(t, "Ops", role.Name)
		require.Len(t, store.permissions[role.ID], 1)
		assert.True(t, store.permissions[role.ID][0].CanRead)
		assert.False(t, store.permissions[role.ID][0].CanDelete)
	})

	t.Run("duplicate_name", func(t *testing.T) {
		store := newFakeStore()
		store.seedRole("Ops", rbac.RoleStatusActive)
		service := rbac.NewService(store)

		_, err := service.CreateRole(context.Background(), rbac.CreateRoleInput{
			Name:   "Ops",
			Status: rbac.RoleStatusActive,
			Permissions: []rbac.PermissionInput{
				{ResourceID: 5, CanRead: true},
			},
		})
		require.Error(t, err)

		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, 409, ae.HTTPStatus)
		assert.Equal(t, "A role named 'Ops' already exists", ae.Message)

		// The rejection happens before any persistence.
		assert.Zero(t, store.createCalls)
	})
}

/*
TestService_UpdateRole verifies status transitions and permission upserts.
*/
func TestService_UpdateRole(t *testing.T) {
	t.Run("upserts_rows_and_returns_detail", func(t *testing.T) {
		store := newFakeStore()
		role := store.seedRole("Ops", rbac.RoleStatusActive)
		service := rbac.NewService(store)

		detail, err := service.UpdateRole(context.Background(), role.ID, rbac.UpdateRoleInput{
			Permissions: []rbac.PermissionInput{
				{ResourceID: 5, CanRead: true},
				{ResourceID: 6, CanCreate: true, CanRead: true},
			},
		})
		require.NoError(t, err)

		assert.Len(t, store.upsertedRows, 2)
		assert.Len(t, detail.Permissions, 2)
		assert.Equal(t, rbac.RoleStatusActive, detail.Role.Status)
	})

	t.Run("upsert_overwrites_existing_row", func(t *testing.T) {
		store := newFakeStore()
		role := store.seedRole("Ops", rbac.RoleStatusActive)
		service := rbac.NewService(store)

		_, err := service.UpdateRole(context.Background(), role.ID, rbac.UpdateRoleInput{
			Permissions: []rbac.PermissionInput{{ResourceID: 5, CanRead: true}},
		})
		require.NoError(t, err)

		detail, err := service.UpdateRole(context.Background(), role.ID, rbac.UpdateRoleInput{
			Permissions: []rbac.PermissionInput{{ResourceID: 5, CanRead: true, CanDelete: true}},
		})
		require.NoError(t, err)

		// Still one row for the (role, resource) pair, with fresh flags.
		require.Len(t, detail.Permissions, 1)
		assert.True(t, detail.Permissions[0].CanDelete)
	})

	t.Run("deactivation_via_update_checks_references", func(t *testing.T) {
		store := newFakeStore()
		role := store.seedRole("Ops", rbac.RoleStatusActive)
		store.refCounts[role.ID] = 3
		service := rbac.NewService(store)

		inactive := rbac.RoleStatusInactive
		_, err := service.UpdateRole(context.Background(), role.ID, rbac.UpdateRoleInput{Status: &inactive})
		require.Error(t, err)

		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, 409, ae.HTTPStatus)
		assert.Empty(t, store.statusUpdates)
	})

	t.Run("role_not_found", func(t *testing.T) {
		service := rbac.NewService(newFakeStore())

		_, err := service.UpdateRole(context.Background(), 999, rbac.UpdateRoleInput{})
		require.Error(t, err)

		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, 404, ae.HTTPStatus)
	})
}

/*
TestService_DeactivateRole verifies the referenced-by-principals precondition.
*/
func TestService_DeactivateRole(t *testing.T) {
	t.Run("success_when_unreferenced", func(t *testing.T) {
		store := newFakeStore()
		role := store.seedRole("Ops", rbac.RoleStatusActive)
		service := rbac.NewService(store)

		updated, err := service.DeactivateRole(context.Background(), role.ID)
		require.NoError(t, err)
		assert.Equal(t, rbac.RoleStatusInactive, updated.Status)
	})

	t.Run("rejected_while_referenced", func(t *testing.T) {
		store := newFakeStore()
		role := store.seedRole("Ops", rbac.RoleStatusActive)
		store.refCounts[role.ID] = 2
		service := rbac.NewService(store)

		_, err := service.DeactivateRole(context.Background(), role.ID)
		require.Error(t, err)

		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, 409, ae.HTTPStatus)
		assert.Equal(t, "Role is assigned to 2 account(s) and cannot be deactivated", ae.Message)
	})

	t.Run("idempotent_when_already_inactive", func(t *testing.T) {
		store := newFakeStore()
		role := store.seedRole("Ops", rbac.RoleStatusInactive)
		// Even a referenced inactive role stays inactive without error.
		store.refCounts[role.ID] = 2
		service := rbac.NewService(store)

		updated, err := service.DeactivateRole(context.Background(), role.ID)
		require.NoError(t, err)
		assert.Equal(t, rbac.RoleStatusInactive, updated.Status)
		assert.Empty(t, store.statusUpdates)
	})
}

/*
TestService_GetRole verifies detail assembly and the 404 path.
*/
func TestService_GetRole(t *testing.T) {
	store := newFakeStore()
	role := store.seedRole("Ops", rbac.RoleStatusActive)
	service := rbac.NewService(store)

	_, err := service.UpdateRole(context.Background(), role.ID, rbac.UpdateRoleInput{
		Permissions: []rbac.PermissionInput{{ResourceID: 5, CanRead: true}},
	})
	require.NoError(t, err)

	detail, err := service.GetRole(context.Background(), role.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ops", detail.Role.Name)
	assert.Len(t, detail.Permissions, 1)

	_, err = service.GetRole(context.Background(), 999)
	require.Error(t, err)
	assert.Equal(t, 404, apperr.As(err).HTTPStatus)
}
