package handlers

import (
	"maplestore/internal/shipping"

	"github.com/gofiber/fiber/v2"
)

// ShippingHandler serves shipping previews from the estimator checkout uses.
type ShippingHandler struct {
	estimator *shipping.Estimator
}

// NewShippingHandler creates a new ShippingHandler.
func NewShippingHandler(estimator *shipping.Estimator) *ShippingHandler {
	return &ShippingHandler{estimator: estimator}
}

// RegisterRoutes registers the shipping routes.
func (h *ShippingHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/shipping/estimate", h.HandleEstimate)
}

// HandleEstimate prices delivery to ?country=&region=&postal=.
func (h *ShippingHandler) HandleEstimate(c *fiber.Ctx) error {
	estimate, err := h.estimator.Estimate(shipping.Destination{
		Country:    c.Query("country"),
		Region:     c.Query("region"),
		PostalCode: c.Query("postal"),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(estimate)
}
