package app

import (
	"context"
	"fmt"
	"log"

	"maplestore/internal/config"
	"maplestore/internal/models"
	"maplestore/internal/repositories"
	"maplestore/internal/services"
)

func demoProducts() []models.Product {
	return []models.Product{
		{
			Name:        "Amber Rich Maple Syrup 500ml",
			Description: "Classic amber syrup with a rich taste, tapped in northern Ontario.",
			PriceCents:  1999,
			Inventory:   50,
			Active:      true,
		},
		{
			Name:        "Dark Robust Maple Syrup 1L",
			Description: "Late-season dark syrup for baking and cooking.",
			PriceCents:  3499,
			Inventory:   25,
			Active:      true,
		},
	}
}

// seed creates the staff account and, when enabled, the demo catalog.
func seed(ctx context.Context, cfg *config.Config, auth *services.AuthService, products repositories.ProductRepository) error {
	if cfg.AdminUsername != "" && cfg.AdminPassword != "" {
		if err := auth.EnsureStaffUser(ctx, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			return fmt.Errorf("failed to seed staff user: %w", err)
		}
	}

	if !cfg.SeedDemo {
		return nil
	}
	existing, err := products.ListAll(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	for _, product := range demoProducts() {
		product := product
		if err := products.Create(ctx, &product); err != nil {
			return fmt.Errorf("failed to seed product %s: %w", product.Name, err)
		}
		log.Printf("Seeded product: %s (ID: %s)", product.Name, product.ID)
	}
	return nil
}
