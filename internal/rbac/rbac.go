package rbac

import (
	"context"
)

type Role struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Permission struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

type RepositoryAPI interface {
	GetRoleByID(ctx context.Context, id int64) (*Role, error)
	GetRoleByName(ctx context.Context, name string) (*Role, error)
	CreateRole(ctx context.Context, role *Role) error
	UpdateRole(ctx context.Context, role *Role) error
	DeleteRole(ctx context.Context, id int64) error
	ListRoles(ctx context.Context) ([]Role, error)

	UserExists(ctx context.Context, userID int64) (bool, error)
	RolesForUser(ctx context.Context, userID int64) ([]Role, error)
	UserHasRole(ctx context.Context, userID, roleID int64) (bool, error)
	AttachRole(ctx context.Context, userID, roleID int64) error
	DetachRole(ctx context.Context, userID, roleID int64) error
	// ReassignRoleEdges moves every user edge from one role to another,
	// dropping edges that would duplicate an existing assignment.
	ReassignRoleEdges(ctx context.Context, fromRoleID, toRoleID int64) error

	GetPermissionByID(ctx context.Context, id int64) (*Permission, error)
	GetPermissionByName(ctx context.Context, name string) (*Permission, error)
	CreatePermission(ctx context.Context, permission *Permission) error
	UpdatePermission(ctx context.Context, permission *Permission) error
	DeletePermission(ctx context.Context, id int64) error
	ListPermissions(ctx context.Context) ([]Permission, error)

	PermissionsForRole(ctx context.Context, roleID int64) ([]Permission, error)
	RoleHasPermission(ctx context.Context, roleID, permissionID int64) (bool, error)
	AttachPermission(ctx context.Context, roleID, permissionID int64) error
	DetachPermission(ctx context.Context, roleID, permissionID int64) error
	DeletePermissionEdgesForRole(ctx context.Context, roleID int64) error
	DeleteEdgesForPermission(ctx context.Context, permissionID int64) error

	UserHasPermissionName(ctx context.Context, userID int64, permissionName string) (bool, error)
}

type TransactorAPI interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
