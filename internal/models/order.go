package models

import (
	"strings"
	"time"
)

// OrderStatus is a position in the order lifecycle.
type OrderStatus string

const (
	OrderStatusPendingPayment OrderStatus = "PENDING_PAYMENT"
	OrderStatusPaid           OrderStatus = "PAID"
	OrderStatusShipped        OrderStatus = "SHIPPED"
	OrderStatusDelivered      OrderStatus = "DELIVERED"
	OrderStatusCancelled      OrderStatus = "CANCELLED"
)

// PaymentMethodEMT is the only accepted payment method: a manual bank e-transfer.
const PaymentMethodEMT = "EMT"

// forward is the single legal successor of each non-terminal status.
var forward = map[OrderStatus]OrderStatus{
	OrderStatusPendingPayment: OrderStatusPaid,
	OrderStatusPaid:           OrderStatusShipped,
	OrderStatusShipped:        OrderStatusDelivered,
}

// ParseOrderStatus normalizes s and reports whether it names a known status.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	status := OrderStatus(strings.ToUpper(strings.TrimSpace(s)))
	return status, status.IsValid()
}

// IsValid reports whether s is a known status.
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPendingPayment, OrderStatusPaid, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no transition may leave s.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransitionTo reports whether moving from s to target follows the
// lifecycle: one step forward, or cancellation from any non-terminal status.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	if !s.IsValid() || s.IsTerminal() || !target.IsValid() {
		return false
	}
	if target == OrderStatusCancelled {
		return true
	}
	return forward[s] == target
}

// ShippingAddress is the destination captured at checkout.
type ShippingAddress struct {
	Line1      string `json:"line1" gorm:"column:line1;type:varchar(200)" validate:"required,max=200"`
	Line2      string `json:"line2" gorm:"column:line2;type:varchar(200)" validate:"omitempty,max=200"`
	City       string `json:"city" gorm:"column:city;type:varchar(100)" validate:"required,max=100"`
	Region     string `json:"region" gorm:"column:region;type:varchar(64)" validate:"required,max=64"`
	Country    string `json:"country" gorm:"column:country;type:varchar(64)" validate:"required,max=64"`
	PostalCode string `json:"postal_code" gorm:"column:postal;type:varchar(32)" validate:"required,max=32"`
}

// Lines returns the non-empty address parts in display order.
func (a ShippingAddress) Lines() []string {
	parts := []string{a.Line1, a.Line2, a.City, a.Region, a.Country, a.PostalCode}
	lines := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			lines = append(lines, p)
		}
	}
	return lines
}

// Order is a customer order. Everything except Status is fixed at checkout.
type Order struct {
	ID               string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CustomerID       string          `json:"customer_id" gorm:"type:varchar(36);index;not null"`
	Status           OrderStatus     `json:"status" gorm:"type:varchar(32);index;not null"`
	PaymentMethod    string          `json:"payment_method" gorm:"type:varchar(16);not null"`
	PaymentReference string          `json:"payment_reference" gorm:"type:varchar(120);not null"`
	PayerEmail       string          `json:"payer_email" gorm:"type:varchar(255);not null"`
	ShippingAddress  ShippingAddress `json:"shipping_address" gorm:"embedded;embeddedPrefix:shipping_"`
	ShippingZone     string          `json:"shipping_zone" gorm:"type:varchar(32)"`
	ShippingCents    int64           `json:"shipping_cents" gorm:"not null"`
	SubtotalCents    int64           `json:"subtotal_cents" gorm:"not null"`
	TotalCents       int64           `json:"total_cents" gorm:"not null"`
	Items            []OrderItem     `json:"items" gorm:"foreignKey:OrderID"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// OrderItem is a snapshot of a cart line at checkout time. ProductID is kept
// for display only; name and price never change after creation.
type OrderItem struct {
	ID             string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID        string `json:"order_id" gorm:"type:varchar(36);index;not null"`
	ProductID      string `json:"product_id" gorm:"type:varchar(36)"`
	ProductName    string `json:"product_name" gorm:"type:varchar(200)"`
	UnitPriceCents int64  `json:"unit_price_cents" gorm:"not null"`
	Quantity       int64  `json:"quantity" gorm:"not null"`
	Position       int    `json:"-" gorm:"not null"`
}

// LineTotalCents is the snapshotted price times quantity.
func (i OrderItem) LineTotalCents() int64 {
	return i.UnitPriceCents * i.Quantity
}

// ItemsSubtotal sums the snapshotted line totals.
func (o *Order) ItemsSubtotal() int64 {
	var subtotal int64
	for _, item := range o.Items {
		subtotal += item.LineTotalCents()
	}
	return subtotal
}
