package services

import (
	"context"
	"errors"
	"fmt"

	"maplestore/internal/apperrors"
	"maplestore/internal/metrics"
	"maplestore/internal/models"
	"maplestore/internal/repositories"
)

// CartService manages each customer's single cart. It never touches
// inventory; stock is only claimed at checkout.
type CartService struct {
	tx       repositories.Transactor
	carts    repositories.CartRepository
	products repositories.ProductRepository
	metrics  *metrics.Metrics
}

// NewCartService creates a new CartService.
func NewCartService(tx repositories.Transactor, carts repositories.CartRepository, products repositories.ProductRepository, m *metrics.Metrics) *CartService {
	return &CartService{tx: tx, carts: carts, products: products, metrics: m}
}

// GetCart returns the caller's cart with a live subtotal. Customers without
// a cart get an empty one that is not saved.
func (s *CartService) GetCart(ctx context.Context, p models.Principal) (*models.Cart, error) {
	if err := requireAuthenticated(p); err != nil {
		return nil, err
	}
	return s.load(ctx, p.UserID)
}

// AddItem adds qty units of an active product, merging into an existing line.
func (s *CartService) AddItem(ctx context.Context, p models.Principal, productID string, qty int64) (*models.Cart, error) {
	if err := requireAuthenticated(p); err != nil {
		return nil, err
	}
	if err := validateQuantity(qty); err != nil {
		return nil, err
	}

	var cart *models.Cart
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		product, err := s.products.GetByID(ctx, productID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return apperrors.NotFound("product", productID)
			}
			return err
		}
		if !product.Active {
			return apperrors.NotFound("product", productID)
		}

		existing, err := s.carts.GetOrCreate(ctx, p.UserID)
		if err != nil {
			return err
		}
		for _, item := range existing.Items {
			if item.ProductID == productID && item.Quantity+qty > models.MaxItemQuantity {
				return quantityLimit(item.Quantity)
			}
		}
		if err := s.carts.AddItem(ctx, existing.ID, productID, qty); err != nil {
			if errors.Is(err, repositories.ErrQuantityLimit) {
				return quantityLimit(0)
			}
			return err
		}
		cart, err = s.load(ctx, p.UserID)
		return err
	})
	if err != nil {
		return nil, internal(err)
	}
	s.metrics.CartMutations.WithLabelValues("add").Inc()
	return cart, nil
}

// SetItemQuantity overwrites a line's quantity. Zero is rejected; removing a
// line is a separate operation.
func (s *CartService) SetItemQuantity(ctx context.Context, p models.Principal, itemID string, qty int64) (*models.Cart, error) {
	if err := requireAuthenticated(p); err != nil {
		return nil, err
	}
	if err := validateQuantity(qty); err != nil {
		return nil, err
	}
	cart, err := s.mutateItem(ctx, p, itemID, func(ctx context.Context, cartID string) error {
		return s.carts.SetItemQuantity(ctx, cartID, itemID, qty)
	})
	if err != nil {
		return nil, err
	}
	s.metrics.CartMutations.WithLabelValues("set").Inc()
	return cart, nil
}

// RemoveItem deletes a line from the caller's cart.
func (s *CartService) RemoveItem(ctx context.Context, p models.Principal, itemID string) (*models.Cart, error) {
	if err := requireAuthenticated(p); err != nil {
		return nil, err
	}
	cart, err := s.mutateItem(ctx, p, itemID, func(ctx context.Context, cartID string) error {
		return s.carts.DeleteItem(ctx, cartID, itemID)
	})
	if err != nil {
		return nil, err
	}
	s.metrics.CartMutations.WithLabelValues("remove").Inc()
	return cart, nil
}

// mutateItem runs fn against the caller's cart. Lines of other carts are
// reported as missing.
func (s *CartService) mutateItem(ctx context.Context, p models.Principal, itemID string, fn func(ctx context.Context, cartID string) error) (*models.Cart, error) {
	var cart *models.Cart
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.carts.GetByCustomer(ctx, p.UserID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return apperrors.NotFound("cart item", itemID)
			}
			return err
		}
		if err := fn(ctx, existing.ID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return apperrors.NotFound("cart item", itemID)
			}
			return err
		}
		cart, err = s.load(ctx, p.UserID)
		return err
	})
	if err != nil {
		return nil, internal(err)
	}
	return cart, nil
}

func (s *CartService) load(ctx context.Context, customerID string) (*models.Cart, error) {
	cart, err := s.carts.GetByCustomer(ctx, customerID)
	if errors.Is(err, repositories.ErrNotFound) {
		cart = &models.Cart{CustomerID: customerID, Items: []models.CartItem{}}
	} else if err != nil {
		return nil, internal(err)
	}
	cart.ComputeSubtotal()
	return cart, nil
}

func validateQuantity(qty int64) error {
	if qty < 1 {
		return apperrors.Validation("Validation failed", map[string]string{
			"quantity": "quantity must be at least 1",
		})
	}
	if qty > models.MaxItemQuantity {
		return apperrors.Validation("Validation failed", map[string]string{
			"quantity": fmt.Sprintf("quantity must be at most %d", models.MaxItemQuantity),
		})
	}
	return nil
}

// quantityLimit rejects a merge that would push a line past the cap.
func quantityLimit(inCart int64) error {
	msg := fmt.Sprintf("a cart line holds at most %d units", models.MaxItemQuantity)
	if inCart > 0 {
		msg = fmt.Sprintf("%s; %d already in cart", msg, inCart)
	}
	return apperrors.Validation("Validation failed", map[string]string{"quantity": msg})
}
