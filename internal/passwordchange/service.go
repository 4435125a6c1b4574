package passwordchange

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/user-management/internal"
)

// Service enforces the rolling rate limit on password changes: at most
// maxChanges per window (one year by default), counted from the record's
// last_change_date.
type Service struct {
	repo       RepositoryAPI
	hasher     Hasher
	tx         TransactorAPI
	logger     *slog.Logger
	maxChanges int
	window     time.Duration

	now func() time.Time
}

func NewService(repo RepositoryAPI, hasher Hasher, tx TransactorAPI, logger *slog.Logger, maxChanges int, window time.Duration) *Service {
	if maxChanges <= 0 {
		maxChanges = internal.DefaultMaxPasswordChanges
	}
	if window <= 0 {
		window = internal.DefaultPasswordChangeWindow
	}
	return &Service{
		repo:       repo,
		hasher:     hasher,
		tx:         tx,
		logger:     logger,
		maxChanges: maxChanges,
		window:     window,
		now:        time.Now,
	}
}

// RequestChange verifies the current password, applies the rate limit and
// swaps in the new hash. Every mutation happens inside one transaction; a
// limit hit leaves no trace.
func (s *Service) RequestChange(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	currentHash, err := s.repo.UserPasswordHash(ctx, userID)
	if err != nil {
		return internal.WrapStoreError(err)
	}
	if currentHash == "" {
		return internal.ErrUserNotFound
	}

	if !s.hasher.Verify(currentPassword, currentHash) {
		return internal.ErrInvalidPassword
	}

	now := s.now()
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		record, err := s.repo.LatestRecord(ctx, userID)
		if err != nil {
			return internal.WrapStoreError(err)
		}
		if record == nil {
			record = &Record{UserID: userID, ChangesCount: 0, LastChangeDate: now}
		}

		// Rolling window: a year after the last change the counter starts
		// over. Not a calendar-year reset.
		if now.After(record.LastChangeDate.Add(s.window)) {
			record.ChangesCount = 0
			record.LastChangeDate = now
		}

		if record.ChangesCount >= s.maxChanges {
			return internal.ErrPasswordChangeLimit
		}

		newHash, err := s.hasher.Hash(newPassword)
		if err != nil {
			return internal.NewInternalError("failed to hash new password", err)
		}

		if err := s.repo.UpdateUserPasswordHash(ctx, userID, newHash); err != nil {
			return internal.WrapStoreError(err)
		}

		record.OldPasswordHash = currentHash
		record.NewPasswordHash = newHash
		record.ChangesCount++
		if err := s.repo.SaveRecord(ctx, record); err != nil {
			return internal.WrapStoreError(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("password changed", "user_id", userID)
	return nil
}
