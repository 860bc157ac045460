package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"maplestore/internal/apperrors"
	"maplestore/internal/models"
	"maplestore/pkg/docgen"
)

// ReceiptRenderer produces receipt documents.
type ReceiptRenderer interface {
	RenderReceipt(ctx context.Context, req docgen.ReceiptRequest) (*docgen.Document, error)
}

// ReceiptService serves receipts to the customer who placed the order.
type ReceiptService struct {
	orders   *OrderService
	renderer ReceiptRenderer
}

// NewReceiptService creates a new ReceiptService.
func NewReceiptService(orders *OrderService, renderer ReceiptRenderer) *ReceiptService {
	return &ReceiptService{orders: orders, renderer: renderer}
}

// Receipt renders the receipt of one of the caller's orders.
func (s *ReceiptService) Receipt(ctx context.Context, p models.Principal, orderID string) (*docgen.Document, error) {
	order, err := s.orders.GetMine(ctx, p, orderID)
	if err != nil {
		return nil, err
	}

	doc, err := s.renderer.RenderReceipt(ctx, receiptRequest(order))
	if err != nil {
		if errors.Is(err, docgen.ErrUnavailable) {
			return nil, apperrors.New(apperrors.CodeUpstreamUnavailable, "receipt service is unavailable").Wrap(err)
		}
		return nil, apperrors.Internal(err)
	}
	return doc, nil
}

func receiptRequest(order *models.Order) docgen.ReceiptRequest {
	address := order.ShippingAddress
	street := address.Line1
	if address.Line2 != "" {
		street = strings.Join([]string{address.Line1, address.Line2}, ", ")
	}

	req := docgen.ReceiptRequest{
		OrderID:         order.ID,
		UserEmail:       order.PayerEmail,
		TotalCents:      order.TotalCents,
		ShippingCents:   order.ShippingCents,
		CreatedAt:       order.CreatedAt.Format(time.RFC3339),
		ShippingAddress: street,
		ShippingCity:    address.City,
		ShippingCountry: address.Country,
		Items:           make([]docgen.ReceiptItem, 0, len(order.Items)),
	}
	for _, item := range order.Items {
		req.Items = append(req.Items, docgen.ReceiptItem{
			Name:       item.ProductName,
			Quantity:   item.Quantity,
			PriceCents: item.UnitPriceCents,
		})
	}
	return req
}
