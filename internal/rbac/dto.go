package rbac

import (
	"strings"

	"github.com/frahmantamala/user-management/internal"
)

type RoleDTO struct {
	Name string `json:"name"`
}

func (d RoleDTO) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return internal.NewValidationError("role name is required", internal.ErrCodeValidationFailed)
	}
	return nil
}

type PermissionDTO struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

func (d PermissionDTO) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return internal.NewValidationError("permission name is required", internal.ErrCodeValidationFailed)
	}
	return nil
}

type RoleSelectionDTO struct {
	RoleIDs []int64 `json:"role_ids"`
}

func (d RoleSelectionDTO) Validate() error {
	if len(d.RoleIDs) == 0 {
		return internal.ErrMissingSelection
	}
	return nil
}

type AssignmentResultDTO struct {
	Changed bool `json:"changed"`
}
