package token

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/user-management/internal"
)

// Ledger issues, validates and consumes single-use tokens for account
// verification and password reset.
type Ledger struct {
	repo   RepositoryAPI
	tx     TransactorAPI
	logger *slog.Logger

	verificationTTL time.Duration
	resetTTL        time.Duration

	now func() time.Time
}

func NewLedger(repo RepositoryAPI, tx TransactorAPI, logger *slog.Logger, verificationTTL, resetTTL time.Duration) *Ledger {
	if verificationTTL <= 0 {
		verificationTTL = internal.DefaultVerificationTokenTTL
	}
	if resetTTL <= 0 {
		resetTTL = internal.DefaultResetTokenTTL
	}
	return &Ledger{
		repo:            repo,
		tx:              tx,
		logger:          logger,
		verificationTTL: verificationTTL,
		resetTTL:        resetTTL,
		now:             time.Now,
	}
}

func (l *Ledger) TTL(purpose Purpose) time.Duration {
	if purpose == PurposeReset {
		return l.resetTTL
	}
	return l.verificationTTL
}

// Issue generates a fresh random token for the user and persists it with
// expires_at = now + TTL. Any prior pending token for the same user and
// purpose is replaced.
func (l *Ledger) Issue(ctx context.Context, userID int64, purpose Purpose) (*Record, error) {
	value, err := GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	record := &Record{
		UserID:    userID,
		Token:     value,
		ExpiresAt: l.now().Add(l.TTL(purpose)),
	}
	if err := l.repo.Upsert(ctx, purpose, record); err != nil {
		l.logger.Error("failed to persist token", "purpose", purpose, "user_id", userID, "error", err)
		return nil, internal.WrapStoreError(err)
	}

	l.logger.Info("issued token", "purpose", purpose, "user_id", userID, "expires_at", record.ExpiresAt)
	return record, nil
}

// Validate checks a token against the ledger. Checks run in a fixed order:
// existence, then expiry, then ownership. An expired token belonging to a
// different user therefore reports expiry, not a relationship mismatch.
func (l *Ledger) Validate(ctx context.Context, tokenValue string, userID int64, purpose Purpose) error {
	record, err := l.repo.FindByToken(ctx, purpose, tokenValue)
	if err != nil {
		return internal.WrapStoreError(err)
	}
	if record == nil {
		return internal.ErrTokenNotFound
	}
	if !record.ExpiresAt.After(l.now()) {
		return internal.ErrTokenExpired
	}
	if record.UserID != userID {
		return internal.ErrTokenRelationship
	}
	return nil
}

// Consume applies sideEffect and deletes the user's pending record for the
// purpose, atomically. Consuming without a prior Issue fails with a
// precondition error.
func (l *Ledger) Consume(ctx context.Context, userID int64, purpose Purpose, sideEffect func(ctx context.Context) error) error {
	err := l.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		record, err := l.repo.FindByUser(ctx, purpose, userID)
		if err != nil {
			return internal.WrapStoreError(err)
		}
		if record == nil {
			return internal.ErrTokenPrecondition
		}
		if sideEffect != nil {
			if err := sideEffect(ctx); err != nil {
				return err
			}
		}
		if err := l.repo.DeleteForUser(ctx, purpose, userID); err != nil {
			return internal.WrapStoreError(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	l.logger.Info("consumed token", "purpose", purpose, "user_id", userID)
	return nil
}
