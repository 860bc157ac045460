package repositories

import (
	"context"

	"maplestore/internal/models"
)

// OrderRepository defines the interface for order data access. Orders are
// never deleted and only their status may change after creation.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	ListByCustomer(ctx context.Context, customerID string) ([]models.Order, error)
	ListAll(ctx context.Context) ([]models.Order, error)
	// CompareAndSetStatus moves the order to `to` only if it is still in
	// `from`, reporting whether the update happened.
	CompareAndSetStatus(ctx context.Context, id string, from, to models.OrderStatus) (bool, error)
}
