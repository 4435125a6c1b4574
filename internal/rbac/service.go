package rbac

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/frahmantamala/user-management/internal"
)

// Service manages roles, permissions and the edges connecting them to users.
// The default role is resolved once at wiring time and injected, not looked
// up by name on every deletion.
type Service struct {
	repo          RepositoryAPI
	tx            TransactorAPI
	logger        *slog.Logger
	defaultRoleID int64
}

func NewService(repo RepositoryAPI, tx TransactorAPI, logger *slog.Logger, defaultRoleID int64) *Service {
	return &Service{
		repo:          repo,
		tx:            tx,
		logger:        logger,
		defaultRoleID: defaultRoleID,
	}
}

func (s *Service) DefaultRoleID() int64 {
	return s.defaultRoleID
}

// ----------------- ROLES -----------------

func (s *Service) CreateRole(ctx context.Context, name string) (*Role, error) {
	if strings.TrimSpace(name) == "" {
		return nil, internal.ErrEmptyRoleName
	}

	existing, err := s.repo.GetRoleByName(ctx, name)
	if err != nil {
		return nil, internal.WrapStoreError(err)
	}
	if existing != nil {
		return nil, internal.ErrRoleNameInUse
	}

	role := &Role{Name: name}
	if err := s.repo.CreateRole(ctx, role); err != nil {
		return nil, internal.WrapStoreError(err)
	}

	s.logger.Info("created role", "role_id", role.ID, "name", role.Name)
	return role, nil
}

func (s *Service) EditRole(ctx context.Context, roleID int64, newName string) (*Role, error) {
	role, err := s.repo.GetRoleByID(ctx, roleID)
	if err != nil {
		return nil, internal.WrapStoreError(err)
	}
	if role == nil {
		return nil, internal.ErrRoleNotFound
	}
	if strings.TrimSpace(newName) == "" {
		return nil, internal.ErrEmptyRoleName
	}

	existing, err := s.repo.GetRoleByName(ctx, newName)
	if err != nil {
		return nil, internal.WrapStoreError(err)
	}
	if existing != nil && existing.ID != roleID {
		return nil, internal.ErrRoleNameInUse
	}

	role.Name = newName
	if err := s.repo.UpdateRole(ctx, role); err != nil {
		return nil, internal.WrapStoreError(err)
	}
	return role, nil
}

// DeleteRole removes a role inside a single transaction: every user holding
// it is reassigned to the default role, its permission edges are dropped,
// then the role row goes. No user is ever left role-less.
func (s *Service) DeleteRole(ctx context.Context, roleID int64) error {
	if roleID == s.defaultRoleID {
		return internal.NewValidationError("cannot delete the default role", internal.ErrCodeValidationFailed)
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		role, err := s.repo.GetRoleByID(ctx, roleID)
		if err != nil {
			return internal.WrapStoreError(err)
		}
		if role == nil {
			return internal.ErrRoleNotFound
		}

		if err := s.repo.ReassignRoleEdges(ctx, roleID, s.defaultRoleID); err != nil {
			return internal.WrapStoreError(err)
		}
		if err := s.repo.DeletePermissionEdgesForRole(ctx, roleID); err != nil {
			return internal.WrapStoreError(err)
		}
		if err := s.repo.DeleteRole(ctx, roleID); err != nil {
			return internal.WrapStoreError(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("deleted role", "role_id", roleID, "reassigned_to", s.defaultRoleID)
	return nil
}

func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	roles, err := s.repo.ListRoles(ctx)
	if err != nil {
		return nil, internal.WrapStoreError(err)
	}
	return roles, nil
}

// ----------------- USER <-> ROLE EDGES -----------------

// AssignRolesToUser attaches each role the user does not already hold.
// The batch runs in one transaction and reports true iff at least one new
// edge was created.
func (s *Service) AssignRolesToUser(ctx context.Context, userID int64, roleIDs []int64) (bool, error) {
	if len(roleIDs) == 0 {
		return false, internal.ErrMissingSelection
	}

	exists, err := s.repo.UserExists(ctx, userID)
	if err != nil {
		return false, internal.WrapStoreError(err)
	}
	if !exists {
		return false, internal.ErrUserNotFound
	}

	attached := false
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		for _, roleID := range roleIDs {
			has, err := s.repo.UserHasRole(ctx, userID, roleID)
			if err != nil {
				return internal.WrapStoreError(err)
			}
			if has {
				continue
			}
			if err := s.repo.AttachRole(ctx, userID, roleID); err != nil {
				s.logger.Error("failed to attach role", "user_id", userID, "role_id", roleID, "error", err)
				return internal.ErrRoleAssignment.WithCause(err)
			}
			attached = true
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return attached, nil
}

// RemoveRolesFromUser detaches roles left to right and aborts on the first
// role the user does not hold. Edges detached before the failure stay
// detached; the batch is deliberately not atomic.
func (s *Service) RemoveRolesFromUser(ctx context.Context, userID int64, roleIDs []int64) (bool, error) {
	if len(roleIDs) == 0 {
		return false, internal.ErrMissingSelection
	}

	exists, err := s.repo.UserExists(ctx, userID)
	if err != nil {
		return false, internal.WrapStoreError(err)
	}
	if !exists {
		return false, internal.ErrUserNotFound
	}

	detached := false
	for _, roleID := range roleIDs {
		has, err := s.repo.UserHasRole(ctx, userID, roleID)
		if err != nil {
			return false, internal.WrapStoreError(err)
		}
		if !has {
			return false, internal.ErrRoleNotAssigned.WithDetails(
				fmt.Sprintf("user does not have the role with ID: %d", roleID))
		}
		if err := s.repo.DetachRole(ctx, userID, roleID); err != nil {
			return false, internal.WrapStoreError(err)
		}
		detached = true
	}
	return detached, nil
}

func (s *Service) RolesForUser(ctx context.Context, userID int64) ([]Role, error) {
	exists, err := s.repo.UserExists(ctx, userID)
	if err != nil {
		return nil, internal.WrapStoreError(err)
	}
	if !exists {
		return nil, internal.ErrUserNotFound
	}

	roles, err := s.repo.RolesForUser(ctx, userID)
	if err != nil {
		return nil, internal.WrapStoreError(err)
	}
	return roles, nil
}

// UserHasRoleName reports whether the user holds a role with the exact name.
func (s *Service) UserHasRoleName(ctx context.Context, userID int64, roleName string) (bool, error) {
	roles, err := s.repo.RolesForUser(ctx, userID)
	if err != nil {
		return false, internal.WrapStoreError(err)
	}
	for _, role := range roles {
		if role.Name == roleName {
			return true, nil
		}
	}
	return false, nil
}

// UserHasPermissionName reports whether any of the user's roles grants the
// named permission.
func (s *Service) UserHasPermissionName(ctx context.Context, userID int64, permissionName string) (bool, error) {
	has, err := s.repo.UserHasPermissionName(ctx, userID, permissionName)
	if err != nil {
		return false, internal.WrapStoreError(err)
	}
	return has, nil
}

// ----------------- PERMISSIONS -----------------

func (s *Service) CreatePermission(ctx context.Context, name string, description *string) (*Permission, error) {
	if strings.TrimSpace(name) == "" {
		return nil, internal.ErrEmptyPermissionName
	}

	existing, err := s.repo.GetPermissionByName(ctx, name)
	if err != nil {
		return nil, internal.WrapStoreError(err)
	}
	if existing != nil {
		return nil, internal.ErrPermissionNameInUse
	}

	permission := &Permission{Name: name, Description: description}
	if err := s.repo.CreatePermission(ctx, permission); err != nil {
		return nil, internal.WrapStoreError(err)
	}

	s.logger.Info("created permission", "permission_id", permission.ID, "name", permission.Name)
	return permission, nil
}

func (s *Service) EditPermission(ctx context.Context, permissionID int64, newName string, newDescription *string) (*Permission, error) {
	if strings.TrimSpace(newName) == "" {
		return nil, internal.ErrEmptyPermissionName
	}

	existing, err := s.repo.GetPermissionByName(ctx, newName)
	if err != nil {
		return nil, internal.WrapStoreError(err)
	}
	if existing != nil && existing.ID != permissionID {
		return nil, internal.ErrPermissionNameInUse
	}

	permission, err := s.repo.GetPermissionByID(ctx, permissionID)
	if err != nil {
		return nil, internal.WrapStoreError(err)
	}
	if permission == nil {
		return nil, internal.ErrPermissionNotFound
	}

	permission.Name = newName
	permission.Description = newDescription
	if err := s.repo.UpdatePermission(ctx, permission); err != nil {
		return nil, internal.WrapStoreError(err)
	}
	return permission, nil
}

// DeletePermission drops the permission's role edges and then the permission
// itself, atomically.
func (s *Service) DeletePermission(ctx context.Context, permissionID int64) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		permission, err := s.repo.GetPermissionByID(ctx, permissionID)
		if err != nil {
			return internal.WrapStoreError(err)
		}
		if permission == nil {
			return internal.ErrPermissionNotFound
		}

		if err := s.repo.DeleteEdgesForPermission(ctx, permissionID); err != nil {
			return internal.WrapStoreError(err)
		}
		if err := s.repo.DeletePermission(ctx, permissionID); err != nil {
			return internal.WrapStoreError(err)
		}
		return nil
	})
}

func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	permissions, err := s.repo.ListPermissions(ctx)
	if err != nil {
		return nil, internal.WrapStoreError(err)
	}
	return permissions, nil
}

// ----------------- ROLE <-> PERMISSION EDGES -----------------

func (s *Service) AssignPermissionToRole(ctx context.Context, roleID, permissionID int64) error {
	if roleID == 0 || permissionID == 0 {
		return internal.ErrMissingSelection
	}

	role, err := s.repo.GetRoleByID(ctx, roleID)
	if err != nil {
		return internal.WrapStoreError(err)
	}
	if role == nil {
		return internal.ErrRoleNotFound
	}

	permission, err := s.repo.GetPermissionByID(ctx, permissionID)
	if err != nil {
		return internal.WrapStoreError(err)
	}
	if permission == nil {
		return internal.ErrPermissionNotFound
	}

	has, err := s.repo.RoleHasPermission(ctx, roleID, permissionID)
	if err != nil {
		return internal.WrapStoreError(err)
	}
	if has {
		return internal.ErrAlreadyAssigned
	}

	if err := s.repo.AttachPermission(ctx, roleID, permissionID); err != nil {
		return internal.WrapStoreError(err)
	}
	return nil
}

func (s *Service) RemovePermissionFromRole(ctx context.Context, roleID, permissionID int64) error {
	if roleID == 0 || permissionID == 0 {
		return internal.ErrMissingSelection
	}

	role, err := s.repo.GetRoleByID(ctx, roleID)
	if err != nil {
		return internal.WrapStoreError(err)
	}
	if role == nil {
		return internal.ErrRoleNotFound
	}

	has, err := s.repo.RoleHasPermission(ctx, roleID, permissionID)
	if err != nil {
		return internal.WrapStoreError(err)
	}
	if !has {
		return internal.ErrPermissionNotFound
	}

	if err := s.repo.DetachPermission(ctx, roleID, permissionID); err != nil {
		return internal.WrapStoreError(err)
	}
	return nil
}

func (s *Service) PermissionsForRole(ctx context.Context, roleID int64) ([]Permission, error) {
	role, err := s.repo.GetRoleByID(ctx, roleID)
	if err != nil {
		return nil, internal.WrapStoreError(err)
	}
	if role == nil {
		return nil, internal.ErrRoleNotFound
	}

	permissions, err := s.repo.PermissionsForRole(ctx, roleID)
	if err != nil {
		return nil, internal.WrapStoreError(err)
	}
	return permissions, nil
}
