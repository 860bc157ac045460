package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"maplestore/internal/apperrors"
	"maplestore/internal/events"
	"maplestore/internal/metrics"
	"maplestore/internal/models"
	"maplestore/internal/repositories"
)

// OrderService reads orders and drives their status lifecycle.
type OrderService struct {
	orders    repositories.OrderRepository
	publisher events.Publisher
	metrics   *metrics.Metrics
}

// NewOrderService creates a new OrderService.
func NewOrderService(orders repositories.OrderRepository, publisher events.Publisher, m *metrics.Metrics) *OrderService {
	return &OrderService{orders: orders, publisher: publisher, metrics: m}
}

// ListMine returns the caller's orders, newest first.
func (s *OrderService) ListMine(ctx context.Context, p models.Principal) ([]models.Order, error) {
	if err := requireAuthenticated(p); err != nil {
		return nil, err
	}
	orders, err := s.orders.ListByCustomer(ctx, p.UserID)
	if err != nil {
		return nil, internal(err)
	}
	return orders, nil
}

// GetMine returns one of the caller's orders. Orders of other customers are
// reported as missing.
func (s *OrderService) GetMine(ctx context.Context, p models.Principal, id string) (*models.Order, error) {
	if err := requireAuthenticated(p); err != nil {
		return nil, err
	}
	order, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != p.UserID {
		return nil, apperrors.NotFound("order", id)
	}
	return order, nil
}

// ListAll returns every order with items, payment and shipping details for
// reconciliation by staff.
func (s *OrderService) ListAll(ctx context.Context, p models.Principal) ([]models.Order, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}
	orders, err := s.orders.ListAll(ctx)
	if err != nil {
		return nil, internal(err)
	}
	return orders, nil
}

// MarkPaid confirms that the e-transfer for a PENDING_PAYMENT order arrived.
func (s *OrderService) MarkPaid(ctx context.Context, p models.Principal, id string) (*models.Order, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}
	return s.transition(ctx, id, models.OrderStatusPaid)
}

// SetStatus moves an order one step forward or cancels it.
func (s *OrderService) SetStatus(ctx context.Context, p models.Principal, id, target string) (*models.Order, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}
	status, ok := models.ParseOrderStatus(target)
	if !ok {
		return nil, apperrors.Validation("Validation failed", map[string]string{
			"status": fmt.Sprintf("unknown order status %q", target),
		})
	}
	return s.transition(ctx, id, status)
}

func (s *OrderService) transition(ctx context.Context, id string, to models.OrderStatus) (*models.Order, error) {
	order, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	from := order.Status
	if !from.CanTransitionTo(to) {
		return nil, apperrors.InvalidTransition(string(from), string(to))
	}

	// Losing a race to another transition leaves the order untouched.
	ok, err := s.orders.CompareAndSetStatus(ctx, id, from, to)
	if err != nil {
		return nil, internal(err)
	}
	if !ok {
		return nil, apperrors.InvalidTransition(string(from), string(to))
	}

	updated, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.metrics.OrderTransitions.WithLabelValues(string(from), string(to)).Inc()
	log.Printf("Order %s moved from %s to %s", id, from, to)

	if err := s.publisher.PublishOrderStatusChanged(ctx, updated, from); err != nil {
		log.Printf("Warning: failed to publish status change for order %s: %v", id, err)
	}
	return updated, nil
}

func (s *OrderService) get(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.NotFound("order", id)
		}
		return nil, internal(err)
	}
	return order, nil
}
