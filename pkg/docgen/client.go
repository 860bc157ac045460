// Package docgen is a client for the external receipt rendering service.
package docgen

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
)

var (
	// ErrUnavailable is returned when the service fails or the breaker is open.
	ErrUnavailable = errors.New("document service unavailable")
	// ErrRejected is returned when the service refuses the request.
	ErrRejected = errors.New("document service rejected the request")
)

// Config holds the document service connection details.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// FailureThreshold consecutive failures open the breaker for OpenTimeout.
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

// ReceiptItem is one line on a receipt.
type ReceiptItem struct {
	Name       string `json:"name"`
	Quantity   int64  `json:"quantity"`
	PriceCents int64  `json:"price_cents"`
}

// ReceiptRequest is the payload the service renders.
type ReceiptRequest struct {
	OrderID         string        `json:"order_id"`
	UserEmail       string        `json:"user_email"`
	TotalCents      int64         `json:"total_cents"`
	ShippingCents   int64         `json:"shipping_cents"`
	CreatedAt       string        `json:"created_at"`
	Items           []ReceiptItem `json:"items"`
	ShippingAddress string        `json:"shipping_address"`
	ShippingCity    string        `json:"shipping_city"`
	ShippingCountry string        `json:"shipping_country"`
}

// Document is a rendered artifact.
type Document struct {
	Content     []byte
	ContentType string
	Filename    string
}

// Client calls the document service through a circuit breaker.
type Client struct {
	http *resty.Client
	cb   *gobreaker.CircuitBreaker
}

// NewClient creates a new Client.
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenTimeout == 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        "docgen",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		// Rejections are the caller's problem, not the service's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrRejected)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("Circuit breaker %s changed from %s to %s", name, from, to)
		},
	}

	return &Client{
		http: resty.New().SetBaseURL(cfg.BaseURL).SetTimeout(cfg.Timeout),
		cb:   gobreaker.NewCircuitBreaker(settings),
	}
}

// RenderReceipt asks the service to render a receipt. It is never retried.
func (c *Client) RenderReceipt(ctx context.Context, req ReceiptRequest) (*Document, error) {
	result, err := c.cb.Execute(func() (interface{}, error) {
		resp, err := c.http.R().
			SetContext(ctx).
			SetHeader("Accept", "application/pdf").
			SetBody(req).
			Post("/generate-receipt")
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		switch {
		case resp.StatusCode() >= http.StatusInternalServerError:
			return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode())
		case resp.IsError():
			return nil, fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode())
		}
		contentType := resp.Header().Get("Content-Type")
		if contentType == "" {
			contentType = "application/pdf"
		}
		return &Document{
			Content:     resp.Body(),
			ContentType: contentType,
			Filename:    fmt.Sprintf("order-%s-receipt.pdf", req.OrderID),
		}, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err != nil {
		return nil, err
	}
	return result.(*Document), nil
}
