package database

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

// WithinTransaction runs fn inside a single database transaction. The
// transaction handle travels in the context, so repositories built on the same
// base connection join it transparently via FromContext. Any error from fn
// rolls the whole transaction back.
func WithinTransaction(ctx context.Context, db *gorm.DB, fn func(ctx context.Context) error) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// FromContext returns the transaction bound to ctx, or fallback when no
// transaction is in flight.
func FromContext(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return fallback.WithContext(ctx)
}

// Transactor is the injectable handle services use to group repository calls
// into one transaction without seeing gorm themselves.
type Transactor struct {
	db *gorm.DB
}

func NewTransactor(db *gorm.DB) *Transactor {
	return &Transactor{db: db}
}

func (t *Transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return WithinTransaction(ctx, t.db, fn)
}
