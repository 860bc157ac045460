package events

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"maplestore/internal/models"

	"github.com/shopspring/decimal"
	"github.com/streadway/amqp"
)

// Notification is a rendered message for a customer or for staff.
type Notification struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers notifications.
type Sender interface {
	Send(n Notification) error
}

// LogSender writes notifications to the log.
type LogSender struct{}

// Send logs the notification.
func (LogSender) Send(n Notification) error {
	log.Printf("Notification to %s: %s\n%s", n.To, n.Subject, n.Body)
	return nil
}

// Notifier turns order events into notifications.
type Notifier struct {
	sender     Sender
	staffEmail string
}

// NewNotifier creates a new Notifier.
func NewNotifier(sender Sender, staffEmail string) *Notifier {
	return &Notifier{sender: sender, staffEmail: staffEmail}
}

// HandleDelivery decodes an AMQP delivery and sends its notifications.
func (n *Notifier) HandleDelivery(msg amqp.Delivery) error {
	var env Envelope
	if err := json.Unmarshal(msg.Body, &env); err != nil {
		return fmt.Errorf("failed to decode order event: %w", err)
	}
	for _, note := range n.Render(env) {
		if err := n.sender.Send(note); err != nil {
			return fmt.Errorf("failed to send notification for order %s: %w", env.Order.ID, err)
		}
	}
	return nil
}

// Render builds the notifications for an event. Events that need no
// notification render nothing.
func (n *Notifier) Render(env Envelope) []Notification {
	order := env.Order
	switch {
	case env.Type == OrderCreated:
		notes := []Notification{{
			To:      order.PayerEmail,
			Subject: fmt.Sprintf("Order #%s received", order.ID),
			Body: fmt.Sprintf("Thank you for your order.\n\nPayment method: e-Transfer\nPayment reference: %s\n\n%s\nWe will confirm once your transfer has been verified.",
				order.PaymentReference, summary(order)),
		}}
		if n.staffEmail != "" {
			notes = append(notes, Notification{
				To:      n.staffEmail,
				Subject: fmt.Sprintf("New order #%s awaiting payment", order.ID),
				Body: fmt.Sprintf("Reference: %s\nPayer email: %s\nAmount: %s\nZone: %s\n\n%s",
					order.PaymentReference, order.PayerEmail, Money(order.TotalCents), order.ShippingZone, summary(order)),
			})
		}
		return notes
	case env.Type == OrderStatusChanged && order.Status == models.OrderStatusShipped:
		return []Notification{{
			To:      order.PayerEmail,
			Subject: fmt.Sprintf("Order #%s has shipped", order.ID),
			Body:    fmt.Sprintf("Your order is on its way to:\n%s", strings.Join(order.ShippingAddress.Lines(), "\n")),
		}}
	default:
		return nil
	}
}

func summary(order models.Order) string {
	var b strings.Builder
	for _, item := range order.Items {
		fmt.Fprintf(&b, "  %s x%d  %s\n", item.ProductName, item.Quantity, Money(item.LineTotalCents()))
	}
	fmt.Fprintf(&b, "Subtotal: %s\nShipping: %s\nTotal: %s\n",
		Money(order.SubtotalCents), Money(order.ShippingCents), Money(order.TotalCents))
	return b.String()
}

// Money formats minor currency units, e.g. 4498 as "$44.98".
func Money(cents int64) string {
	return "$" + decimal.New(cents, -2).StringFixed(2)
}
