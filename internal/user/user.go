package user

import (
	"context"

	"github.com/frahmantamala/user-management/internal/rbac"
)

type User struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Verified   bool   `json:"verified"`
	Visibility string `json:"visibility"`
	Country    string `json:"country,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

// EditOptions is the allow-listed field set for user edits. Nil means leave
// the field untouched; arbitrary attribute assignment is deliberately not
// supported.
type EditOptions struct {
	Name       *string
	Email      *string
	Verified   *bool
	Visibility *string
	Country    *string
	Phone      *string
}

func (o EditOptions) empty() bool {
	return o.Name == nil && o.Email == nil && o.Verified == nil &&
		o.Visibility == nil && o.Country == nil && o.Phone == nil
}

// CreateParams carries everything the store needs for a new user row.
type CreateParams struct {
	Name         string
	Email        string
	PasswordHash string
	Verified     bool
	Visibility   string
	Country      string
	Phone        string
}

type RepositoryAPI interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, params CreateParams) (*User, error)
	Update(ctx context.Context, user *User) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]User, error)

	// Cascade helpers for deletion. Each scopes to one user.
	DetachRoleEdges(ctx context.Context, userID int64) error
	DeleteTokens(ctx context.Context, userID int64) error
	DeletePasswordHistory(ctx context.Context, userID int64) error
}

// RoleGraphAPI is the slice of the role graph the directory needs: default
// role attachment on creation and role listings.
type RoleGraphAPI interface {
	AttachRole(ctx context.Context, userID, roleID int64) error
	RolesForUser(ctx context.Context, userID int64) ([]rbac.Role, error)
}

type Hasher interface {
	Hash(password string) (string, error)
}

type TransactorAPI interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
