package handlers

import (
	"fmt"
	"log"

	"maplestore/internal/middleware"
	"maplestore/internal/services"

	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles checkout and the caller's orders.
type OrderHandler struct {
	checkout *services.CheckoutService
	orders   *services.OrderService
	receipts *services.ReceiptService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(checkout *services.CheckoutService, orders *services.OrderService, receipts *services.ReceiptService) *OrderHandler {
	return &OrderHandler{checkout: checkout, orders: orders, receipts: receipts}
}

// RegisterRoutes registers the order routes. They require authentication.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/checkout", h.HandleCheckout)

	orderRoutes := router.Group("/orders")
	orderRoutes.Get("/", h.HandleListOrders)
	orderRoutes.Get("/:id", h.HandleGetOrder)
	orderRoutes.Get("/:id/receipt", h.HandleReceipt)
}

// HandleCheckout turns the caller's cart into an order.
func (h *OrderHandler) HandleCheckout(c *fiber.Ctx) error {
	var req services.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}

	order, err := h.checkout.Checkout(c.UserContext(), middleware.Principal(c), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

// HandleListOrders lists the caller's orders, newest first.
func (h *OrderHandler) HandleListOrders(c *fiber.Ctx) error {
	orders, err := h.orders.ListMine(c.UserContext(), middleware.Principal(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(orders)
}

// HandleGetOrder returns one of the caller's orders.
func (h *OrderHandler) HandleGetOrder(c *fiber.Ctx) error {
	order, err := h.orders.GetMine(c.UserContext(), middleware.Principal(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(order)
}

// HandleReceipt downloads the receipt document of one of the caller's orders.
func (h *OrderHandler) HandleReceipt(c *fiber.Ctx) error {
	orderID := c.Params("id")
	doc, err := h.receipts.Receipt(c.UserContext(), middleware.Principal(c), orderID)
	if err != nil {
		return writeError(c, err)
	}
	log.Printf("Serving receipt for order %s", orderID)

	c.Set(fiber.HeaderContentType, doc.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", doc.Filename))
	return c.Send(doc.Content)
}
