package repositories

import (
	"context"

	"maplestore/internal/models"
)

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	ListActive(ctx context.Context) ([]models.Product, error)
	ListAll(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	// Update fails with ErrConflict when product.Version is stale.
	Update(ctx context.Context, product *models.Product) error
	Deactivate(ctx context.Context, id string) error
	// DecrementInventory removes qty units from an active product's stock.
	// It reports false, without changing anything, when stock is short.
	DecrementInventory(ctx context.Context, id string, qty int64) (bool, error)
}
