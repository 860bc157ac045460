// Package events publishes order lifecycle events and renders the
// notifications sent when they are consumed.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"maplestore/internal/models"
)

// Routing keys of order events.
const (
	OrderCreated       = "order.created"
	OrderStatusChanged = "order.status_changed"
)

// Publisher announces committed order changes. Publishing happens after the
// database commit and never undoes it.
type Publisher interface {
	PublishOrderCreated(ctx context.Context, order *models.Order) error
	PublishOrderStatusChanged(ctx context.Context, order *models.Order, from models.OrderStatus) error
}

// Broker is the transport an AMQPPublisher writes to.
type Broker interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
}

// Envelope is the wire format of every order event.
type Envelope struct {
	Type       string             `json:"type"`
	OccurredAt time.Time          `json:"occurred_at"`
	FromStatus models.OrderStatus `json:"from_status,omitempty"`
	Order      models.Order       `json:"order"`
}

// AMQPPublisher publishes JSON envelopes through a Broker.
type AMQPPublisher struct {
	broker Broker
}

// NewAMQPPublisher creates a new AMQPPublisher.
func NewAMQPPublisher(broker Broker) *AMQPPublisher {
	return &AMQPPublisher{broker: broker}
}

// PublishOrderCreated publishes an order.created event.
func (p *AMQPPublisher) PublishOrderCreated(ctx context.Context, order *models.Order) error {
	return p.publish(ctx, Envelope{Type: OrderCreated, OccurredAt: time.Now().UTC(), Order: *order})
}

// PublishOrderStatusChanged publishes an order.status_changed event carrying
// the previous status, so consumers such as a restocking job can react to
// cancellations.
func (p *AMQPPublisher) PublishOrderStatusChanged(ctx context.Context, order *models.Order, from models.OrderStatus) error {
	return p.publish(ctx, Envelope{Type: OrderStatusChanged, OccurredAt: time.Now().UTC(), FromStatus: from, Order: *order})
}

func (p *AMQPPublisher) publish(ctx context.Context, env Envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", env.Type, err)
	}
	if err := p.broker.Publish(ctx, env.Type, body); err != nil {
		return fmt.Errorf("failed to publish %s event for order %s: %w", env.Type, env.Order.ID, err)
	}
	return nil
}

// LogPublisher is used when no broker is configured.
type LogPublisher struct{}

// PublishOrderCreated logs the event.
func (LogPublisher) PublishOrderCreated(_ context.Context, order *models.Order) error {
	log.Printf("Order event %s for order %s (broker disabled)", OrderCreated, order.ID)
	return nil
}

// PublishOrderStatusChanged logs the event.
func (LogPublisher) PublishOrderStatusChanged(_ context.Context, order *models.Order, from models.OrderStatus) error {
	log.Printf("Order event %s for order %s: %s -> %s (broker disabled)", OrderStatusChanged, order.ID, from, order.Status)
	return nil
}
