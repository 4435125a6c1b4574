package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/user-management/internal"
	"github.com/frahmantamala/user-management/internal/token"
	"github.com/frahmantamala/user-management/internal/user"
)

// Service is the facade composing credentials, sessions, the token ledger
// and the role graph into the register/login/verify/reset flows.
type Service struct {
	users       UserStoreAPI
	credentials CredentialReaderAPI
	roles       RoleGraphAPI
	tokens      TokenLedgerAPI
	sessions    SessionAPI
	notifier    Notifier
	hasher      Hasher
	tx          TransactorAPI
	logger      *slog.Logger

	defaultRoleID     int64
	defaultVisibility string
	sessionTTL        time.Duration
}

func NewService(
	users UserStoreAPI,
	creds CredentialReaderAPI,
	roles RoleGraphAPI,
	tokens TokenLedgerAPI,
	sessions SessionAPI,
	notifier Notifier,
	hasher Hasher,
	tx TransactorAPI,
	logger *slog.Logger,
	defaultRoleID int64,
	defaultVisibility string,
	sessionTTL time.Duration,
) *Service {
	if defaultVisibility == "" {
		defaultVisibility = internal.DefaultVisibility
	}
	if sessionTTL <= 0 {
		sessionTTL = internal.DefaultSessionTTL
	}
	return &Service{
		users:             users,
		credentials:       creds,
		roles:             roles,
		tokens:            tokens,
		sessions:          sessions,
		notifier:          notifier,
		hasher:            hasher,
		tx:                tx,
		logger:            logger,
		defaultRoleID:     defaultRoleID,
		defaultVisibility: defaultVisibility,
		sessionTTL:        sessionTTL,
	}
}

// Register creates the user with the default role attached, then either logs
// the pre-verified user in or issues a verification token and notifies.
// Never both. Everything runs inside one transaction; a notifier failure
// rolls back user creation.
func (s *Service) Register(ctx context.Context, name, email, password string, options RegisterOptions) (*user.User, error) {
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, internal.WrapStoreError(err)
	}
	if existing != nil {
		return nil, internal.ErrDuplicateEmail
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	params := user.CreateParams{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Visibility:   s.defaultVisibility,
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

	var created *user.User
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		created, err = s.users.Create(ctx, params)
		if err != nil {
			// Racing registrations settle on the store's unique
			// constraint, not the pre-check above.
			return internal.ErrDuplicateEmail.WithCause(err)
		}
		if err := s.roles.AttachRole(ctx, created.ID, s.defaultRoleID); err != nil {
			return internal.ErrRoleAssignment.WithCause(err)
		}

		if created.Verified {
			if err := s.sessions.Login(ctx, created.ID, s.sessionTTL); err != nil {
				return internal.NewInternalError("failed to start session", err)
			}
			return nil
		}

		record, err := s.tokens.Issue(ctx, created.ID, token.PurposeVerification)
		if err != nil {
			return err
		}
		if err := s.notifier.Notify(ctx, NotifyVerification, created.Email, record.Token, created.ID); err != nil {
			return internal.ErrNotifierFailure.WithCause(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("registered user", "user_id", created.ID, "email", created.Email, "verified", created.Verified)
	return created, nil
}

// Login authenticates by email and password. An unverified account fails
// before the password is even looked at. Declined credentials are not an
// error: an unknown email and a wrong password both return false, so the
// response never reveals which emails are registered.
func (s *Service) Login(ctx context.Context, email, password string) (bool, error) {
	matched, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return false, internal.WrapStoreError(err)
	}
	if matched == nil {
		return false, nil
	}
	if !matched.Verified {
		return false, internal.ErrAccountUnverified
	}

	hash, err := s.credentials.UserPasswordHash(ctx, matched.ID)
	if err != nil {
		return false, internal.WrapStoreError(err)
	}
	if !s.hasher.Verify(password, hash) {
		return false, nil
	}

	if err := s.sessions.Login(ctx, matched.ID, s.sessionTTL); err != nil {
		return false, internal.NewInternalError("failed to start session", err)
	}

	s.logger.Info("user logged in", "user_id", matched.ID)
	return true, nil
}

func (s *Service) Logout(ctx context.Context) error {
	return s.sessions.Destroy(ctx)
}

// CurrentUser returns the session principal, or nil when nobody is logged
// in or the session has expired.
func (s *Service) CurrentUser(ctx context.Context) (*user.User, error) {
	if !s.sessions.IsValid() {
		return nil, nil
	}
	current, err := s.users.GetByID(ctx, s.sessions.UserID())
	if err != nil {
		return nil, internal.WrapStoreError(err)
	}
	return current, nil
}

// GenerateVerificationToken issues a fresh verification token for an
// existing, still unverified account and notifies the address. Used when the
// original registration mail never arrived.
func (s *Service) GenerateVerificationToken(ctx context.Context, email string) error {
	matched, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return internal.WrapStoreError(err)
	}
	if matched == nil {
		return internal.ErrUserNotFound
	}
	if matched.Verified {
		return internal.ErrAlreadyVerified
	}

	record, err := s.tokens.Issue(ctx, matched.ID, token.PurposeVerification)
	if err != nil {
		return err
	}
	if err := s.notifier.Notify(ctx, NotifyVerification, matched.Email, record.Token, matched.ID); err != nil {
		return internal.ErrNotifierFailure.WithCause(err)
	}
	return nil
}

// ForgotPassword issues a reset token for the account and notifies the
// address.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	matched, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return internal.WrapStoreError(err)
	}
	if matched == nil {
		return internal.ErrUserNotFound
	}

	record, err := s.tokens.Issue(ctx, matched.ID, token.PurposeReset)
	if err != nil {
		return err
	}
	if err := s.notifier.Notify(ctx, NotifyReset, matched.Email, record.Token, matched.ID); err != nil {
		return internal.ErrNotifierFailure.WithCause(err)
	}
	return nil
}

// ValidateAccountToken checks a verification token without consuming it.
func (s *Service) ValidateAccountToken(ctx context.Context, tokenValue string, userID int64) error {
	return s.tokens.Validate(ctx, tokenValue, userID, token.PurposeVerification)
}

// ValidateResetToken checks a reset token without consuming it.
func (s *Service) ValidateResetToken(ctx context.Context, tokenValue string, userID int64) error {
	return s.tokens.Validate(ctx, tokenValue, userID, token.PurposeReset)
}

// MarkVerified consumes the pending verification token and flips the user's
// verified flag, atomically.
func (s *Service) MarkVerified(ctx context.Context, userID int64) error {
	return s.tokens.Consume(ctx, userID, token.PurposeVerification, func(ctx context.Context) error {
		matched, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return internal.WrapStoreError(err)
		}
		if matched == nil {
			return internal.ErrUserNotFound
		}
		matched.Verified = true
		if err := s.users.Update(ctx, matched); err != nil {
			return internal.WrapStoreError(err)
		}
		return nil
	})
}

// ResetPassword consumes the pending reset token and overwrites the user's
// password hash, atomically.
func (s *Service) ResetPassword(ctx context.Context, userID int64, newPassword string) error {
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return internal.NewInternalError("failed to hash password", err)
	}
	return s.tokens.Consume(ctx, userID, token.PurposeReset, func(ctx context.Context) error {
		if err := s.credentials.UpdateUserPasswordHash(ctx, userID, hash); err != nil {
			return internal.WrapStoreError(err)
		}
		return nil
	})
}

// HasRole reports whether the given user, or the session principal when
// userID is zero, holds the named role.
func (s *Service) HasRole(ctx context.Context, roleName string, userID int64) (bool, error) {
	if userID == 0 {
		if !s.sessions.IsValid() {
			return false, nil
		}
		userID = s.sessions.UserID()
	}

	roles, err := s.roles.RolesForUser(ctx, userID)
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

// HasPermission reports whether the session principal holds the named
// permission through any role.
func (s *Service) HasPermission(ctx context.Context, permissionName string) (bool, error) {
	if !s.sessions.IsValid() {
		return false, nil
	}

	has, err := s.roles.UserHasPermissionName(ctx, s.sessions.UserID(), permissionName)
	if err != nil {
		return false, internal.WrapStoreError(err)
	}
	return has, nil
}
