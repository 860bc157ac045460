package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"maplestore/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMCartRepository is a GORM implementation of CartRepository.
type GORMCartRepository struct {
	db *gorm.DB
}

// NewGORMCartRepository creates a new instance of GORMCartRepository.
func NewGORMCartRepository(db *gorm.DB) *GORMCartRepository {
	return &GORMCartRepository{db: db}
}

// GetByCustomer loads the customer's cart with items in insertion order.
func (r *GORMCartRepository) GetByCustomer(ctx context.Context, customerID string) (*models.Cart, error) {
	var cart models.Cart
	err := conn(ctx, r.db).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at, id") }).
		Preload("Items.Product").
		First(&cart, "customer_id = ?", customerID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("cart for customer %s: %w", customerID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get cart for customer %s: %w", customerID, err)
	}
	return &cart, nil
}

// GetOrCreate returns the customer's cart, creating it on first use. Two
// concurrent first calls converge on the same row through the unique index.
func (r *GORMCartRepository) GetOrCreate(ctx context.Context, customerID string) (*models.Cart, error) {
	cart := models.Cart{ID: uuid.New().String(), CustomerID: customerID}
	err := conn(ctx, r.db).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "customer_id"}}, DoNothing: true}).
		Create(&cart).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create cart for customer %s: %w", customerID, err)
	}
	return r.GetByCustomer(ctx, customerID)
}

// AddItem upserts the line for productID, adding qty to any existing quantity.
func (r *GORMCartRepository) AddItem(ctx context.Context, cartID, productID string, qty int64) error {
	now := time.Now()
	item := models.CartItem{
		ID:        uuid.New().String(),
		CartID:    cartID,
		ProductID: productID,
		Quantity:  qty,
		CreatedAt: now,
		UpdatedAt: now,
	}
	res := conn(ctx, r.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"quantity":   gorm.Expr("cart_items.quantity + excluded.quantity"),
			"updated_at": now,
		}),
		Where: clause.Where{Exprs: []clause.Expression{
			gorm.Expr("cart_items.quantity + excluded.quantity <= ?", models.MaxItemQuantity),
		}},
	}).Create(&item)
	if res.Error != nil {
		return fmt.Errorf("failed to add product %s to cart %s: %w", productID, cartID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product %s in cart %s: %w", productID, cartID, ErrQuantityLimit)
	}
	return nil
}

// SetItemQuantity overwrites the quantity of a line.
func (r *GORMCartRepository) SetItemQuantity(ctx context.Context, cartID, itemID string, qty int64) error {
	res := conn(ctx, r.db).Model(&models.CartItem{}).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		Updates(map[string]any{"quantity": qty, "updated_at": time.Now()})
	if res.Error != nil {
		return fmt.Errorf("failed to update cart item %s: %w", itemID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("cart item %s: %w", itemID, ErrNotFound)
	}
	return nil
}

// DeleteItem removes a line from the cart.
func (r *GORMCartRepository) DeleteItem(ctx context.Context, cartID, itemID string) error {
	res := conn(ctx, r.db).Where("id = ? AND cart_id = ?", itemID, cartID).Delete(&models.CartItem{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete cart item %s: %w", itemID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("cart item %s: %w", itemID, ErrNotFound)
	}
	return nil
}

// ClearItems deletes every line of the cart and reports how many were
// deleted. The cart row itself is kept.
func (r *GORMCartRepository) ClearItems(ctx context.Context, cartID string) (int64, error) {
	res := conn(ctx, r.db).Where("cart_id = ?", cartID).Delete(&models.CartItem{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to clear cart %s: %w", cartID, res.Error)
	}
	return res.RowsAffected, nil
}
