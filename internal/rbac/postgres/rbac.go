package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/frahmantamala/user-management/internal/core/database"
	rbacDatamodel "github.com/frahmantamala/user-management/internal/core/datamodel/rbac"
	userDatamodel "github.com/frahmantamala/user-management/internal/core/datamodel/user"
	"github.com/frahmantamala/user-management/internal/rbac"
)

type RBACRepository struct {
	db *gorm.DB
}

func NewRBACRepository(db *gorm.DB) rbac.RepositoryAPI {
	return &RBACRepository{db: db}
}

func toRole(row rbacDatamodel.Role) rbac.Role {
	return rbac.Role{ID: row.ID, Name: row.Name}
}

func toPermission(row rbacDatamodel.Permission) rbac.Permission {
	return rbac.Permission{ID: row.ID, Name: row.Name, Description: row.Description}
}

func (r *RBACRepository) GetRoleByID(ctx context.Context, id int64) (*rbac.Role, error) {
	db := database.FromContext(ctx, r.db)

	var row rbacDatamodel.Role
	if err := db.Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	role := toRole(row)
	return &role, nil
}

func (r *RBACRepository) GetRoleByName(ctx context.Context, name string) (*rbac.Role, error) {
	db := database.FromContext(ctx, r.db)

	var row rbacDatamodel.Role
	if err := db.Where("name = ?", name).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	role := toRole(row)
	return &role, nil
}

func (r *RBACRepository) CreateRole(ctx context.Context, role *rbac.Role) error {
	db := database.FromContext(ctx, r.db)

	row := rbacDatamodel.Role{Name: role.Name}
	if err := db.Create(&row).Error; err != nil {
		return err
	}
	role.ID = row.ID
	return nil
}

func (r *RBACRepository) UpdateRole(ctx context.Context, role *rbac.Role) error {
	db := database.FromContext(ctx, r.db)
	return db.Model(&rbacDatamodel.Role{}).Where("id = ?", role.ID).
		Update("name", role.Name).Error
}

func (r *RBACRepository) DeleteRole(ctx context.Context, id int64) error {
	db := database.FromContext(ctx, r.db)
	return db.Where("id = ?", id).Delete(&rbacDatamodel.Role{}).Error
}

func (r *RBACRepository) ListRoles(ctx context.Context) ([]rbac.Role, error) {
	db := database.FromContext(ctx, r.db)

	var rows []rbacDatamodel.Role
	if err := db.Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	roles := make([]rbac.Role, 0, len(rows))
	for _, row := range rows {
		roles = append(roles, toRole(row))
	}
	return roles, nil
}

func (r *RBACRepository) UserExists(ctx context.Context, userID int64) (bool, error) {
	db := database.FromContext(ctx, r.db)

	var count int64
	if err := db.Model(&userDatamodel.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *RBACRepository) RolesForUser(ctx context.Context, userID int64) ([]rbac.Role, error) {
	db := database.FromContext(ctx, r.db)

	var rows []rbacDatamodel.Role
	err := db.Model(&rbacDatamodel.Role{}).
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ?", userID).
		Order("roles.id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	roles := make([]rbac.Role, 0, len(rows))
	for _, row := range rows {
		roles = append(roles, toRole(row))
	}
	return roles, nil
}

func (r *RBACRepository) UserHasRole(ctx context.Context, userID, roleID int64) (bool, error) {
	db := database.FromContext(ctx, r.db)

	var count int64
	err := db.Model(&rbacDatamodel.UserRole{}).
		Where("user_id = ? AND role_id = ?", userID, roleID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *RBACRepository) AttachRole(ctx context.Context, userID, roleID int64) error {
	db := database.FromContext(ctx, r.db)
	return db.Create(&rbacDatamodel.UserRole{UserID: userID, RoleID: roleID}).Error
}

func (r *RBACRepository) DetachRole(ctx context.Context, userID, roleID int64) error {
	db := database.FromContext(ctx, r.db)
	return db.Where("user_id = ? AND role_id = ?", userID, roleID).
		Delete(&rbacDatamodel.UserRole{}).Error
}

// ReassignRoleEdges moves every holder of fromRoleID onto toRoleID. Edges
// whose user already holds the target role are dropped first so the unique
// (user_id, role_id) index is never violated.
func (r *RBACRepository) ReassignRoleEdges(ctx context.Context, fromRoleID, toRoleID int64) error {
	db := database.FromContext(ctx, r.db)

	err := db.Where(
		"role_id = ? AND user_id IN (?)",
		fromRoleID,
		db.Session(&gorm.Session{NewDB: true}).
			Model(&rbacDatamodel.UserRole{}).
			Select("user_id").
			Where("role_id = ?", toRoleID),
	).Delete(&rbacDatamodel.UserRole{}).Error
	if err != nil {
		return err
	}

	return db.Model(&rbacDatamodel.UserRole{}).
		Where("role_id = ?", fromRoleID).
		Update("role_id", toRoleID).Error
}

func (r *RBACRepository) GetPermissionByID(ctx context.Context, id int64) (*rbac.Permission, error) {
	db := database.FromContext(ctx, r.db)

	var row rbacDatamodel.Permission
	if err := db.Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	permission := toPermission(row)
	return &permission, nil
}

func (r *RBACRepository) GetPermissionByName(ctx context.Context, name string) (*rbac.Permission, error) {
	db := database.FromContext(ctx, r.db)

	var row rbacDatamodel.Permission
	if err := db.Where("name = ?", name).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	permission := toPermission(row)
	return &permission, nil
}

func (r *RBACRepository) CreatePermission(ctx context.Context, permission *rbac.Permission) error {
	db := database.FromContext(ctx, r.db)

	row := rbacDatamodel.Permission{Name: permission.Name, Description: permission.Description}
	if err := db.Create(&row).Error; err != nil {
		return err
	}
	permission.ID = row.ID
	return nil
}

func (r *RBACRepository) UpdatePermission(ctx context.Context, permission *rbac.Permission) error {
	db := database.FromContext(ctx, r.db)
	return db.Model(&rbacDatamodel.Permission{}).Where("id = ?", permission.ID).
		Updates(map[string]interface{}{
			"name":        permission.Name,
			"description": permission.Description,
		}).Error
}

func (r *RBACRepository) DeletePermission(ctx context.Context, id int64) error {
	db := database.FromContext(ctx, r.db)
	return db.Where("id = ?", id).Delete(&rbacDatamodel.Permission{}).Error
}

func (r *RBACRepository) ListPermissions(ctx context.Context) ([]rbac.Permission, error) {
	db := database.FromContext(ctx, r.db)

	var rows []rbacDatamodel.Permission
	if err := db.Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	permissions := make([]rbac.Permission, 0, len(rows))
	for _, row := range rows {
		permissions = append(permissions, toPermission(row))
	}
	return permissions, nil
}

func (r *RBACRepository) PermissionsForRole(ctx context.Context, roleID int64) ([]rbac.Permission, error) {
	db := database.FromContext(ctx, r.db)

	var rows []rbacDatamodel.Permission
	err := db.Model(&rbacDatamodel.Permission{}).
		Joins("JOIN permission_roles ON permission_roles.permission_id = permissions.id").
		Where("permission_roles.role_id = ?", roleID).
		Order("permissions.id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	permissions := make([]rbac.Permission, 0, len(rows))
	for _, row := range rows {
		permissions = append(permissions, toPermission(row))
	}
	return permissions, nil
}

func (r *RBACRepository) RoleHasPermission(ctx context.Context, roleID, permissionID int64) (bool, error) {
	db := database.FromContext(ctx, r.db)

	var count int64
	err := db.Model(&rbacDatamodel.PermissionRole{}).
		Where("role_id = ? AND permission_id = ?", roleID, permissionID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *RBACRepository) AttachPermission(ctx context.Context, roleID, permissionID int64) error {
	db := database.FromContext(ctx, r.db)
	return db.Create(&rbacDatamodel.PermissionRole{RoleID: roleID, PermissionID: permissionID}).Error
}

func (r *RBACRepository) DetachPermission(ctx context.Context, roleID, permissionID int64) error {
	db := database.FromContext(ctx, r.db)
	return db.Where("role_id = ? AND permission_id = ?", roleID, permissionID).
		Delete(&rbacDatamodel.PermissionRole{}).Error
}

func (r *RBACRepository) DeletePermissionEdgesForRole(ctx context.Context, roleID int64) error {
	db := database.FromContext(ctx, r.db)
	return db.Where("role_id = ?", roleID).Delete(&rbacDatamodel.PermissionRole{}).Error
}

func (r *RBACRepository) DeleteEdgesForPermission(ctx context.Context, permissionID int64) error {
	db := database.FromContext(ctx, r.db)
	return db.Where("permission_id = ?", permissionID).Delete(&rbacDatamodel.PermissionRole{}).Error
}

func (r *RBACRepository) UserHasPermissionName(ctx context.Context, userID int64, permissionName string) (bool, error) {
	db := database.FromContext(ctx, r.db)

	var count int64
	err := db.Model(&rbacDatamodel.PermissionRole{}).
		Joins("JOIN permissions ON permissions.id = permission_roles.permission_id").
		Joins("JOIN user_roles ON user_roles.role_id = permission_roles.role_id").
		Where("user_roles.user_id = ? AND permissions.name = ?", userID, permissionName).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
