package auth

import (
	"context"
	"time"

	"github.com/frahmantamala/user-management/internal/rbac"
	"github.com/frahmantamala/user-management/internal/token"
	"github.com/frahmantamala/user-management/internal/user"
)

// RegisterOptions is the allow-listed option set for registration. The
// original surface accepted arbitrary attribute maps; here every field is
// explicit.
type RegisterOptions struct {
	Verified   *bool
	Visibility *string
	Country    *string
	Phone      *string
}

// NotificationKind selects the outbound template.
type NotificationKind string

const (
	NotifyVerification NotificationKind = "verification"
	NotifyReset        NotificationKind = "reset"
)

// Notifier delivers tokens to users out of band. Failures propagate: a
// registration whose notification cannot be sent rolls back entirely.
type Notifier interface {
	Notify(ctx context.Context, kind NotificationKind, toAddress, tokenValue string, userID int64) error
}

// TokenLedgerAPI is the slice of the token ledger the facade drives.
type TokenLedgerAPI interface {
	Issue(ctx context.Context, userID int64, purpose token.Purpose) (*token.Record, error)
	Validate(ctx context.Context, tokenValue string, userID int64, purpose token.Purpose) error
	Consume(ctx context.Context, userID int64, purpose token.Purpose, sideEffect func(ctx context.Context) error) error
}

// RoleGraphAPI covers default role attachment and authorization lookups.
type RoleGraphAPI interface {
	AttachRole(ctx context.Context, userID, roleID int64) error
	RolesForUser(ctx context.Context, userID int64) ([]rbac.Role, error)
	UserHasPermissionName(ctx context.Context, userID int64, permissionName string) (bool, error)
}

// UserStoreAPI is the slice of the user store the facade needs.
type UserStoreAPI interface {
	GetByID(ctx context.Context, id int64) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	Create(ctx context.Context, params user.CreateParams) (*user.User, error)
	Update(ctx context.Context, u *user.User) error
}

// CredentialReaderAPI exposes hash lookup and overwrite. Hashes stay out of
// the user domain type; login and reset read them through this narrow
// surface instead.
type CredentialReaderAPI interface {
	UserPasswordHash(ctx context.Context, userID int64) (string, error)
	UpdateUserPasswordHash(ctx context.Context, userID int64, hash string) error
}

type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

type TransactorAPI interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// SessionAPI is the session manager surface the facade drives.
type SessionAPI interface {
	Start(ctx context.Context) error
	Login(ctx context.Context, userID int64, ttl time.Duration) error
	Destroy(ctx context.Context) error
	UserID() int64
	IsLoggedIn() bool
	IsValid() bool
}
