package passwordchange

import (
	"context"
	"time"
)

// Record is the single evolving rate-limit row per user. It doubles as an
// audit trail: each change overwrites the old/new hash pair.
type Record struct {
	ID              int64
	UserID          int64
	OldPasswordHash string
	NewPasswordHash string
	ChangesCount    int
	LastChangeDate  time.Time
}

type RepositoryAPI interface {
	// UserPasswordHash returns the stored hash, or ("", nil) when the user
	// does not exist.
	UserPasswordHash(ctx context.Context, userID int64) (string, error)
	UpdateUserPasswordHash(ctx context.Context, userID int64, hash string) error

	// LatestRecord returns the user's most recent change record, or nil.
	LatestRecord(ctx context.Context, userID int64) (*Record, error)
	SaveRecord(ctx context.Context, record *Record) error
}

// Hasher is the slice of the credential store this package needs.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

type TransactorAPI interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
