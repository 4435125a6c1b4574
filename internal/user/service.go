package user

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/user-management/internal"
	"github.com/frahmantamala/user-management/internal/rbac"
)

// Directory is the administrative user surface: CRUD without any session or
// token side effects. Registration and login live in the auth facade.
type Directory struct {
	repo              RepositoryAPI
	roles             RoleGraphAPI
	hasher            Hasher
	tx                TransactorAPI
	logger            *slog.Logger
	defaultRoleID     int64
	defaultVisibility string
}

func NewDirectory(repo RepositoryAPI, roles RoleGraphAPI, hasher Hasher, tx TransactorAPI, logger *slog.Logger, defaultRoleID int64, defaultVisibility string) *Directory {
	if defaultVisibility == "" {
		defaultVisibility = internal.DefaultVisibility
	}
	return &Directory{
		repo:              repo,
		roles:             roles,
		hasher:            hasher,
		tx:                tx,
		logger:            logger,
		defaultRoleID:     defaultRoleID,
		defaultVisibility: defaultVisibility,
	}
}

// CreateUser creates a user with the default role attached, all in one
// transaction. Unlike registration it never logs in or issues tokens.
func (d *Directory) CreateUser(ctx context.Context, name, email, password string, options EditOptions) (*User, error) {
	existing, err := d.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, internal.WrapStoreError(err)
	}
	if existing != nil {
		return nil, internal.ErrDuplicateEmail
	}

	hash, err := d.hasher.Hash(password)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	params := CreateParams{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Visibility:   d.defaultVisibility,
	}
	if options.Verified != nil {
		params.Verified = *options.Verified
	}
	if options.Visibility != nil {
		params.Visibility = *options.Visibility
	}
	if options.Country != nil {
		params.Country = *options.Country
	}
	if options.Phone != nil {
		params.Phone = *options.Phone
	}

	var created *User
	err = d.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		created, err = d.repo.Create(ctx, params)
		if err != nil {
			return internal.WrapStoreError(err)
		}
		if err := d.roles.AttachRole(ctx, created.ID, d.defaultRoleID); err != nil {
			return internal.ErrRoleAssignment.WithCause(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	d.logger.Info("created user", "user_id", created.ID, "email", created.Email)
	return created, nil
}

// EditUser applies the allow-listed options to an existing user. An empty
// option set is rejected rather than silently succeeding.
func (d *Directory) EditUser(ctx context.Context, userID int64, options EditOptions) (*User, error) {
	if options.empty() {
		return nil, internal.ErrInvalidUserOptions
	}

	existing, err := d.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, internal.WrapStoreError(err)
	}
	if existing == nil {
		return nil, internal.ErrUserNotFound
	}

	if options.Email != nil && *options.Email != existing.Email {
		other, err := d.repo.GetByEmail(ctx, *options.Email)
		if err != nil {
			return nil, internal.WrapStoreError(err)
		}
		if other != nil {
			return nil, internal.ErrDuplicateEmail
		}
		existing.Email = *options.Email
	}
	if options.Name != nil {
		existing.Name = *options.Name
	}
	if options.Verified != nil {
		existing.Verified = *options.Verified
	}
	if options.Visibility != nil {
		existing.Visibility = *options.Visibility
	}
	if options.Country != nil {
		existing.Country = *options.Country
	}
	if options.Phone != nil {
		existing.Phone = *options.Phone
	}

	if err := d.repo.Update(ctx, existing); err != nil {
		return nil, internal.WrapStoreError(err)
	}
	return existing, nil
}

// DeleteUser removes the user and everything hanging off it: role edges,
// pending tokens of both kinds, password change history. All or nothing.
func (d *Directory) DeleteUser(ctx context.Context, userID int64) error {
	err := d.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		existing, err := d.repo.GetByID(ctx, userID)
		if err != nil {
			return internal.WrapStoreError(err)
		}
		if existing == nil {
			return internal.ErrUserNotFound
		}

		if err := d.repo.DetachRoleEdges(ctx, userID); err != nil {
			return internal.WrapStoreError(err)
		}
		if err := d.repo.DeleteTokens(ctx, userID); err != nil {
			return internal.WrapStoreError(err)
		}
		if err := d.repo.DeletePasswordHistory(ctx, userID); err != nil {
			return internal.WrapStoreError(err)
		}
		if err := d.repo.Delete(ctx, userID); err != nil {
			return internal.WrapStoreError(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	d.logger.Info("deleted user", "user_id", userID)
	return nil
}

func (d *Directory) GetUser(ctx context.Context, userID int64) (*User, error) {
	user, err := d.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, internal.WrapStoreError(err)
	}
	if user == nil {
		return nil, internal.ErrUserNotFound
	}
	return user, nil
}

func (d *Directory) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	user, err := d.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, internal.WrapStoreError(err)
	}
	if user == nil {
		return nil, internal.ErrUserNotFound
	}
	return user, nil
}

func (d *Directory) ListUsers(ctx context.Context) ([]User, error) {
	users, err := d.repo.List(ctx)
	if err != nil {
		return nil, internal.WrapStoreError(err)
	}
	return users, nil
}

func (d *Directory) UserIDExists(ctx context.Context, userID int64) (bool, error) {
	user, err := d.repo.GetByID(ctx, userID)
	if err != nil {
		return false, internal.WrapStoreError(err)
	}
	return user != nil, nil
}

func (d *Directory) UserEmailExists(ctx context.Context, email string) (bool, error) {
	user, err := d.repo.GetByEmail(ctx, email)
	if err != nil {
		return false, internal.WrapStoreError(err)
	}
	return user != nil, nil
}

func (d *Directory) UserRoles(ctx context.Context, userID int64) ([]rbac.Role, error) {
	exists, err := d.UserIDExists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, internal.ErrUserNotFound
	}

	roles, err := d.roles.RolesForUser(ctx, userID)
	if err != nil {
		return nil, internal.WrapStoreError(err)
	}
	return roles, nil
}
