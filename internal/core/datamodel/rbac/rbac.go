package rbac

import "time"

type Role struct {
	ID        int64     `gorm:"primaryKey"`
	Name      string    `gorm:"column:name;uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"column:created_at;default:now()"`
	UpdatedAt time.Time `gorm:"column:updated_at;default:now()"`
}

func (Role) TableName() string {
	return "roles"
}

type Permission struct {
	ID          int64     `gorm:"primaryKey"`
	Name        string    `gorm:"column:name;uniqueIndex;not null"`
	Description *string   `gorm:"column:description"`
	CreatedAt   time.Time `gorm:"column:created_at;default:now()"`
	UpdatedAt   time.Time `gorm:"column:updated_at;default:now()"`
}

func (Permission) TableName() string {
	return "permissions"
}

// UserRole is the user<->role join row.
type UserRole struct {
	ID     int64 `gorm:"primaryKey"`
	UserID int64 `gorm:"column:user_id;not null;uniqueIndex:idx_user_role"`
	RoleID int64 `gorm:"column:role_id;not null;uniqueIndex:idx_user_role"`
}

func (UserRole) TableName() string {
	return "user_roles"
}

// PermissionRole is the role<->permission join row.
type PermissionRole struct {
	ID           int64 `gorm:"primaryKey"`
	RoleID       int64 `gorm:"column:role_id;not null;uniqueIndex:idx_permission_role"`
	PermissionID int64 `gorm:"column:permission_id;not null;uniqueIndex:idx_permission_role"`
}

func (PermissionRole) TableName() string {
	return "permission_roles"
}
