package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is wrapped by repositories when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is wrapped when a record changed since it was read.
	ErrConflict = errors.New("record was modified concurrently")
	// ErrQuantityLimit is wrapped when a cart line would exceed models.MaxItemQuantity.
	ErrQuantityLimit = errors.New("cart line quantity limit exceeded")
)

// Transactor runs a function inside a single database transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type txKey struct{}

// TxManager opens GORM transactions and hands them to repositories through
// the context, so every repository call made by fn joins the same transaction.
type TxManager struct {
	db *gorm.DB
}

// NewTxManager creates a new TxManager.
func NewTxManager(db *gorm.DB) *TxManager {
	return &TxManager{db: db}
}

// WithinTransaction commits if fn returns nil and rolls back otherwise.
// A call nested inside another transaction joins the outer one.
func (m *TxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// conn returns the transaction stored in ctx, or db bound to ctx.
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return db.WithContext(ctx)
}
