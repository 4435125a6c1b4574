package token

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"
)

// Purpose selects which of the two ledgers a token belongs to. Both share
// identical mechanics; only TTL and side effects differ.
type Purpose string

const (
	PurposeVerification Purpose = "verification"
	PurposeReset        Purpose = "reset"
)

// Record is one pending token. A user holds at most one live record per
// purpose; issuing again replaces it.
type Record struct {
	UserID    int64
	Token     string
	ExpiresAt time.Time
}

type RepositoryAPI interface {
	// Upsert stores the record, replacing any prior record for the same
	// user and purpose.
	Upsert(ctx context.Context, purpose Purpose, record *Record) error
	FindByToken(ctx context.Context, purpose Purpose, token string) (*Record, error)
	FindByUser(ctx context.Context, purpose Purpose, userID int64) (*Record, error)
	DeleteForUser(ctx context.Context, purpose Purpose, userID int64) error
}

type TransactorAPI interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// GenerateToken returns a 256-bit random token, hex encoded.
func GenerateToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
