package services

import (
	"context"
	"errors"
	"log"
	"sort"
	"strings"

	"maplestore/internal/apperrors"
	"maplestore/internal/events"
	"maplestore/internal/metrics"
	"maplestore/internal/models"
	"maplestore/internal/repositories"
	"maplestore/internal/shipping"
)

// CheckoutRequest carries the payment declaration and destination supplied
// by the customer.
type CheckoutRequest struct {
	PaymentReference string                 `json:"payment_reference" validate:"required,max=120"`
	PayerEmail       string                 `json:"payer_email" validate:"required,email,max=255"`
	ShippingAddress  models.ShippingAddress `json:"shipping_address"`
}

func (r CheckoutRequest) normalized() CheckoutRequest {
	r.PaymentReference = strings.TrimSpace(r.PaymentReference)
	r.PayerEmail = strings.TrimSpace(r.PayerEmail)
	a := &r.ShippingAddress
	a.Line1 = strings.TrimSpace(a.Line1)
	a.Line2 = strings.TrimSpace(a.Line2)
	a.City = strings.TrimSpace(a.City)
	a.Region = strings.TrimSpace(a.Region)
	a.Country = strings.TrimSpace(a.Country)
	a.PostalCode = strings.TrimSpace(a.PostalCode)
	return r
}

// CheckoutService converts a cart into an order.
type CheckoutService struct {
	tx        repositories.Transactor
	carts     repositories.CartRepository
	products  repositories.ProductRepository
	orders    repositories.OrderRepository
	estimator *shipping.Estimator
	publisher events.Publisher
	metrics   *metrics.Metrics
}

// NewCheckoutService creates a new CheckoutService. The estimator must be the
// same instance that serves shipping previews.
func NewCheckoutService(
	tx repositories.Transactor,
	carts repositories.CartRepository,
	products repositories.ProductRepository,
	orders repositories.OrderRepository,
	estimator *shipping.Estimator,
	publisher events.Publisher,
	m *metrics.Metrics,
) *CheckoutService {
	return &CheckoutService{
		tx:        tx,
		carts:     carts,
		products:  products,
		orders:    orders,
		estimator: estimator,
		publisher: publisher,
		metrics:   m,
	}
}

// Checkout claims inventory for every cart line, snapshots prices into a new
// PENDING_PAYMENT order and empties the cart, all in one transaction. Any
// failure leaves inventory, cart and orders untouched. Nothing is retried.
func (s *CheckoutService) Checkout(ctx context.Context, p models.Principal, req CheckoutRequest) (*models.Order, error) {
	order, err := s.checkout(ctx, p, req)
	if err != nil {
		s.metrics.Checkouts.WithLabelValues(string(apperrors.CodeOf(err))).Inc()
		return nil, err
	}
	s.metrics.Checkouts.WithLabelValues("ok").Inc()
	log.Printf("Order %s created for customer %s, total %d cents", order.ID, order.CustomerID, order.TotalCents)

	if err := s.publisher.PublishOrderCreated(ctx, order); err != nil {
		log.Printf("Warning: failed to publish order created event for order %s: %v", order.ID, err)
	}
	return order, nil
}

func (s *CheckoutService) checkout(ctx context.Context, p models.Principal, req CheckoutRequest) (*models.Order, error) {
	if err := requireAuthenticated(p); err != nil {
		return nil, err
	}
	req = req.normalized()
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	address := req.ShippingAddress
	estimate, err := s.estimator.Estimate(shipping.Destination{
		Country:    address.Country,
		Region:     address.Region,
		PostalCode: address.PostalCode,
	})
	if err != nil {
		return nil, err
	}

	var order *models.Order
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		cart, err := s.carts.GetByCustomer(ctx, p.UserID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return apperrors.EmptyCart()
			}
			return err
		}
		if cart.IsEmpty() {
			return apperrors.EmptyCart()
		}

		for _, item := range cart.Items {
			if item.Product == nil || !item.Product.Active {
				return apperrors.ProductUnavailable(item.ProductID, productName(item))
			}
		}

		// Rows are locked in product id order so concurrent checkouts of
		// overlapping carts cannot deadlock.
		claims := make([]models.CartItem, len(cart.Items))
		copy(claims, cart.Items)
		sort.Slice(claims, func(i, j int) bool { return claims[i].ProductID < claims[j].ProductID })

		snapshots := make(map[string]*models.Product, len(claims))
		for _, item := range claims {
			ok, err := s.products.DecrementInventory(ctx, item.ProductID, item.Quantity)
			if err != nil {
				return err
			}
			current, err := s.products.GetByID(ctx, item.ProductID)
			if err != nil {
				if errors.Is(err, repositories.ErrNotFound) {
					return apperrors.ProductUnavailable(item.ProductID, productName(item))
				}
				return err
			}
			if !ok {
				if !current.Active {
					return apperrors.ProductUnavailable(item.ProductID, current.Name)
				}
				return apperrors.InsufficientInventory(item.ProductID, current.Name, item.Quantity, current.Inventory)
			}
			snapshots[item.ProductID] = current
		}

		order = &models.Order{
			CustomerID:       p.UserID,
			Status:           models.OrderStatusPendingPayment,
			PaymentMethod:    models.PaymentMethodEMT,
			PaymentReference: req.PaymentReference,
			PayerEmail:       req.PayerEmail,
			ShippingAddress:  address,
			ShippingZone:     estimate.Zone,
			ShippingCents:    estimate.CostCents,
			Items:            make([]models.OrderItem, 0, len(cart.Items)),
		}
		for _, item := range cart.Items {
			product := snapshots[item.ProductID]
			order.Items = append(order.Items, models.OrderItem{
				ProductID:      product.ID,
				ProductName:    product.Name,
				UnitPriceCents: product.PriceCents,
				Quantity:       item.Quantity,
			})
		}
		order.SubtotalCents = order.ItemsSubtotal()
		order.TotalCents = order.SubtotalCents + order.ShippingCents

		if err := s.orders.Create(ctx, order); err != nil {
			return err
		}

		// A concurrent checkout of the same cart may have claimed these lines
		// after they were read; only one of them may clear it.
		cleared, err := s.carts.ClearItems(ctx, cart.ID)
		if err != nil {
			return err
		}
		switch {
		case cleared < int64(len(cart.Items)):
			return apperrors.EmptyCart()
		case cleared > int64(len(cart.Items)):
			return apperrors.New(apperrors.CodeConflict, "cart changed during checkout")
		}
		return nil
	})
	if err != nil {
		return nil, internal(err)
	}
	return order, nil
}

func productName(item models.CartItem) string {
	if item.Product != nil {
		return item.Product.Name
	}
	return item.ProductID
}
