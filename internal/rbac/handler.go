package rbac

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/user-management/internal"
	"github.com/frahmantamala/user-management/internal/transport"
)

type Handler struct {
	*transport.BaseHandler
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger),
		service:     service,
	}
}

func idParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, internal.NewValidationError("invalid "+name+" parameter", internal.ErrCodeValidationFailed)
	}
	return id, nil
}

func (h *Handler) CreateRole(w http.ResponseWriter, r *http.Request) {
	var dto RoleDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, internal.NewValidationError("invalid request body", internal.ErrCodeValidationFailed))
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteAppError(w, err)
		return
	}
	created, err := h.service.CreateRole(r.Context(), dto.Name)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.ListRoles(r.Context())
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, roles)
}

func (h *Handler) EditRole(w http.ResponseWriter, r *http.Request) {
	roleID, err := idParam(r, "id")
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	var dto RoleDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, internal.NewValidationError("invalid request body", internal.ErrCodeValidationFailed))
		return
	}
	updated, err := h.service.EditRole(r.Context(), roleID, dto.Name)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	roleID, err := idParam(r, "id")
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	if err := h.service.DeleteRole(r.Context(), roleID); err != nil {
		h.WriteAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RolePermissions(w http.ResponseWriter, r *http.Request) {
	roleID, err := idParam(r, "id")
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	permissions, err := h.service.PermissionsForRole(r.Context(), roleID)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, permissions)
}

func (h *Handler) AttachPermission(w http.ResponseWriter, r *http.Request) {
	roleID, err := idParam(r, "id")
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	permissionID, err := idParam(r, "permissionID")
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	if err := h.service.AssignPermissionToRole(r.Context(), roleID, permissionID); err != nil {
		h.WriteAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DetachPermission(w http.ResponseWriter, r *http.Request) {
	roleID, err := idParam(r, "id")
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	permissionID, err := idParam(r, "permissionID")
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	if err := h.service.RemovePermissionFromRole(r.Context(), roleID, permissionID); err != nil {
		h.WriteAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CreatePermission(w http.ResponseWriter, r *http.Request) {
	var dto PermissionDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, internal.NewValidationError("invalid request body", internal.ErrCodeValidationFailed))
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteAppError(w, err)
		return
	}
	created, err := h.service.CreatePermission(r.Context(), dto.Name, dto.Description)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	permissions, err := h.service.ListPermissions(r.Context())
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, permissions)
}

func (h *Handler) EditPermission(w http.ResponseWriter, r *http.Request) {
	permissionID, err := idParam(r, "id")
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	var dto PermissionDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, internal.NewValidationError("invalid request body", internal.ErrCodeValidationFailed))
		return
	}
	updated, err := h.service.EditPermission(r.Context(), permissionID, dto.Name, dto.Description)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) DeletePermission(w http.ResponseWriter, r *http.Request) {
	permissionID, err := idParam(r, "id")
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	if err := h.service.DeletePermission(r.Context(), permissionID); err != nil {
		h.WriteAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AssignRoles(w http.ResponseWriter, r *http.Request) {
	userID, err := idParam(r, "id")
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	var dto RoleSelectionDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, internal.NewValidationError("invalid request body", internal.ErrCodeValidationFailed))
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteAppError(w, err)
		return
	}
	changed, err := h.service.AssignRolesToUser(r.Context(), userID, dto.RoleIDs)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, AssignmentResultDTO{Changed: changed})
}

func (h *Handler) RemoveRoles(w http.ResponseWriter, r *http.Request) {
	userID, err := idParam(r, "id")
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	var dto RoleSelectionDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.WriteAppError(w, internal.NewValidationError("invalid request body", internal.ErrCodeValidationFailed))
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteAppError(w, err)
		return
	}
	changed, err := h.service.RemoveRolesFromUser(r.Context(), userID, dto.RoleIDs)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, AssignmentResultDTO{Changed: changed})
}
