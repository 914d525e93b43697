// Copyright (c) 2026 Hireline. All rights reserved.

// HTTP delivery layer for role and permission management.
//
// Every route is mounted behind the authorization guard on the
// "Roles And Permissions" resource, so the matrix governs who may edit the
// matrix itself.

package rbac

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hireline/hireline/internal/authz"
	requestutil "github.com/hireline/hireline/internal/platform/request"
	"github.com/hireline/hireline/internal/platform/respond"
	"github.com/hireline/hireline/internal/platform/validate"
	"github.com/hireline/hireline/pkg/pagination"
)

// Handler implements role-management HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] with all role-management routes mounted
// behind the guard.
//
// # Endpoints
//   - POST  /            : Create a role with its permission rows (create).
//   - GET   /            : List roles, paginated (read).
//   - GET   /{roleID}    : Fetch one role with permissions (read).
//   - PATCH /{roleID}    : Update status and/or upsert permission rows (update).
//   - POST  /{roleID}/deactivate : Retire an unreferenced role (update).
func (handler *Handler) Routes(guard *authz.Guard) chi.Router {
	router := chi.NewRouter()

	router.With(guard.Require(ResourceRolesPerms, authz.ActionCreate)).
		Post("/", handler.create)
	router.With(guard.Require(ResourceRolesPerms, authz.ActionRead)).
		Get("/", handler.list)
	router.With(guard.Require(ResourceRolesPerms, authz.ActionRead)).
		Get("/{roleID}", handler.get)
	router.With(guard.Require(ResourceRolesPerms, authz.ActionUpdate)).
		Patch("/{roleID}", handler.update)
	router.With(guard.Require(ResourceRolesPerms, authz.ActionUpdate)).
		Post("/{roleID}/deactivate", handler.deactivate)

	return router
}

// ResourceRoutes returns the read-only resource catalogue routes.
func (handler *Handler) ResourceRoutes(guard *authz.Guard) chi.Router {
	router := chi.NewRouter()

	router.With(guard.Require(ResourceRolesPerms, authz.ActionRead)).
		Get("/", handler.listResources)

	return router
}

// # Request Payloads

type permissionRow struct {
	ResourceID int64 `json:"resource_id"`
	CanCreate  bool  `json:"can_create"`
	CanRead    bool  `json:"can_read"`
	CanUpdate  bool  `json:"can_update"`
	CanDelete  bool  `json:"can_delete"`
}

type createRoleRequest struct {
	Name        string          `json:"name"`
	Status      string          `json:"status"`
	Permissions []permissionRow `json:"permissions"`
}

type updateRoleRequest struct {
	Status      *string         `json:"status,omitempty"`
	Permissions []permissionRow `json:"permissions,omitempty"`
}

func toPermissionInputs(rows []permissionRow) []PermissionInput {
	inputs := make([]PermissionInput, 0, len(rows))
	for _, row := range rows {
		inputs = append(inputs, PermissionInput{
			ResourceID: row.ResourceID,
			CanCreate:  row.CanCreate,
			CanRead:    row.CanRead,
			CanUpdate:  row.CanUpdate,
			CanDelete:  row.CanDelete,
		})
	}
	return inputs
}

// create handles POST /api/v1/roles.
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	var input createRoleRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldName, input.Name).
		MaxLen(FieldName, input.Name, 100).
		Required(FieldStatus, input.Status).
		OneOf(FieldStatus, input.Status, string(RoleStatusActive), string(RoleStatusInactive))

	for _, row := range input.Permissions {
		validator.Positive(FieldResourceID, row.ResourceID)
	}

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	role, err := handler.service.CreateRole(request.Context(), CreateRoleInput{
		Name:        input.Name,
		Status:      RoleStatus(input.Status),
		Permissions: toPermissionInputs(input.Permissions),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, role)
}

// list handles GET /api/v1/roles.
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	roles, meta, err := handler.service.ListRoles(request.Context(), params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, roles, meta)
}

// get handles GET /api/v1/roles/{roleID}.
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	roleID, err := requestutil.NumericID(request, "roleID")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	detail, err := handler.service.GetRole(request.Context(), roleID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, detail)
}

// update handles PATCH /api/v1/roles/{roleID}.
func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	roleID, err := requestutil.NumericID(request, "roleID")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateRoleRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	if input.Status != nil {
		validator.OneOf(FieldStatus, *input.Status, string(RoleStatusActive), string(RoleStatusInactive))
	}
	for _, row := range input.Permissions {
		validator.Positive(FieldResourceID, row.ResourceID)
	}

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	serviceInput := UpdateRoleInput{Permissions: toPermissionInputs(input.Permissions)}
	if input.Status != nil {
		status := RoleStatus(*input.Status)
		serviceInput.Status = &status
	}

	detail, err := handler.service.UpdateRole(request.Context(), roleID, serviceInput)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, detail)
}

// deactivate handles POST /api/v1/roles/{roleID}/deactivate.
func (handler *Handler) deactivate(writer http.ResponseWriter, request *http.Request) {
	roleID, err := requestutil.NumericID(request, "roleID")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	role, err := handler.service.DeactivateRole(request.Context(), roleID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, role)
}

// listResources handles GET /api/v1/resources.
func (handler *Handler) listResources(writer http.ResponseWriter, request *http.Request) {
	resources, err := handler.service.ListResources(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, resources)
}
