package repositories

import (
	"context"

	"maplestore/internal/models"
)

// CartRepository defines the interface for cart data access.
type CartRepository interface {
	// GetByCustomer returns the cart with its items and their products.
	GetByCustomer(ctx context.Context, customerID string) (*models.Cart, error)
	GetOrCreate(ctx context.Context, customerID string) (*models.Cart, error)
	// AddItem inserts a line or merges qty into the existing line for the
	// product. A merge past models.MaxItemQuantity fails with ErrQuantityLimit.
	AddItem(ctx context.Context, cartID, productID string, qty int64) error
	SetItemQuantity(ctx context.Context, cartID, itemID string, qty int64) error
	DeleteItem(ctx context.Context, cartID, itemID string) error
	// ClearItems reports how many lines it deleted.
	ClearItems(ctx context.Context, cartID string) (int64, error)
}
