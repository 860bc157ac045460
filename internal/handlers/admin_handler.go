package handlers

import (
	"maplestore/internal/middleware"
	"maplestore/internal/models"
	"maplestore/internal/services"

	"github.com/gofiber/fiber/v2"
)

// AdminHandler serves the staff reconciliation and catalog routes. Staff
// capability is enforced by the services.
type AdminHandler struct {
	products *services.ProductService
	orders   *services.OrderService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(products *services.ProductService, orders *services.OrderService) *AdminHandler {
	return &AdminHandler{products: products, orders: orders}
}

// RegisterRoutes registers the admin routes. They require authentication.
func (h *AdminHandler) RegisterRoutes(router fiber.Router) {
	admin := router.Group("/admin")

	admin.Get("/orders", h.HandleListOrders)
	admin.Post("/orders/:id/mark-paid", h.HandleMarkPaid)
	admin.Patch("/orders/:id/status", h.HandleSetStatus)

	admin.Get("/products", h.HandleListProducts)
	admin.Post("/products", h.HandleCreateProduct)
	admin.Put("/products/:id", h.HandleUpdateProduct)
	admin.Delete("/products/:id", h.HandleDeleteProduct)
}

// StatusRequest represents the request body for a status change.
type StatusRequest struct {
	Status string `json:"status"`
}

// HandleListOrders lists every order for reconciliation.
func (h *AdminHandler) HandleListOrders(c *fiber.Ctx) error {
	orders, err := h.orders.ListAll(c.UserContext(), middleware.Principal(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(orders)
}

// HandleMarkPaid records that an order's e-transfer was received.
func (h *AdminHandler) HandleMarkPaid(c *fiber.Ctx) error {
	order, err := h.orders.MarkPaid(c.UserContext(), middleware.Principal(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(order)
}

// HandleSetStatus moves an order along its lifecycle.
func (h *AdminHandler) HandleSetStatus(c *fiber.Ctx) error {
	var req StatusRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	order, err := h.orders.SetStatus(c.UserContext(), middleware.Principal(c), c.Params("id"), req.Status)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(order)
}

// HandleListProducts lists every product, including inactive ones.
func (h *AdminHandler) HandleListProducts(c *fiber.Ctx) error {
	products, err := h.products.ListAll(c.UserContext(), middleware.Principal(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(products)
}

// HandleCreateProduct adds a product to the catalog.
func (h *AdminHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var draft models.ProductDraft
	if err := c.BodyParser(&draft); err != nil {
		return badBody(c, err)
	}
	product, err := h.products.Create(c.UserContext(), middleware.Principal(c), draft)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct replaces a product's mutable fields.
func (h *AdminHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	var draft models.ProductDraft
	if err := c.BodyParser(&draft); err != nil {
		return badBody(c, err)
	}
	product, err := h.products.Update(c.UserContext(), middleware.Principal(c), c.Params("id"), draft)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(product)
}

// HandleDeleteProduct deactivates a product.
func (h *AdminHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.products.Delete(c.UserContext(), middleware.Principal(c), id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Product " + id + " deactivated successfully",
	})
}
