package models

import "time"

// MaxItemQuantity caps a single cart line, merged quantities included.
const MaxItemQuantity int64 = 9999

// Cart is a customer's single active cart. Prices are not stored on cart
// lines; the subtotal is always derived from current product prices.
type Cart struct {
	ID            string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CustomerID    string     `json:"customer_id" gorm:"type:varchar(36);uniqueIndex;not null"`
	Items         []CartItem `json:"items" gorm:"foreignKey:CartID"`
	SubtotalCents int64      `json:"subtotal_cents" gorm:"-"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// CartItem is one product line in a cart.
type CartItem struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CartID    string    `json:"cart_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_cart_items_cart_product"`
	ProductID string    `json:"product_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_cart_items_cart_product"`
	Product   *Product  `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Quantity  int64     `json:"quantity" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ComputeSubtotal recalculates SubtotalCents from the preloaded products.
func (c *Cart) ComputeSubtotal() int64 {
	var subtotal int64
	for _, item := range c.Items {
		if item.Product == nil {
			continue
		}
		subtotal += item.Product.PriceCents * item.Quantity
	}
	c.SubtotalCents = subtotal
	return subtotal
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}
