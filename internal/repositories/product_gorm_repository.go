package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"maplestore/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// ListActive retrieves the products currently for sale.
func (r *GORMProductRepository) ListActive(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := conn(ctx, r.db).Where("active = ?", true).Order("name, id").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list active products: %w", err)
	}
	return products, nil
}

// ListAll retrieves every product, including deactivated ones.
func (r *GORMProductRepository) ListAll(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := conn(ctx, r.db).Order("name, id").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// GetByID retrieves a single product by its ID from the database.
func (r *GORMProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := conn(ctx, r.db).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return &product, nil
}

// Create creates a new product in the database.
func (r *GORMProductRepository) Create(ctx context.Context, product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if product.Version == 0 {
		product.Version = 1
	}
	if err := conn(ctx, r.db).Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Update replaces the mutable fields of an existing product, provided its
// version still matches product.Version. The version is bumped on success.
func (r *GORMProductRepository) Update(ctx context.Context, product *models.Product) error {
	now := time.Now()
	res := conn(ctx, r.db).Model(&models.Product{}).
		Where("id = ? AND version = ?", product.ID, product.Version).
		Updates(map[string]any{
			"name":        product.Name,
			"description": product.Description,
			"price_cents": product.PriceCents,
			"image_url":   product.ImageURL,
			"inventory":   product.Inventory,
			"active":      product.Active,
			"version":     gorm.Expr("version + 1"),
			"updated_at":  now,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, product.ID); err != nil {
			return err
		}
		return fmt.Errorf("product %s at version %d: %w", product.ID, product.Version, ErrConflict)
	}
	product.Version++
	product.UpdatedAt = now
	return nil
}

// Deactivate hides a product from the catalog. The row is kept so order
// history can still reference it.
func (r *GORMProductRepository) Deactivate(ctx context.Context, id string) error {
	res := conn(ctx, r.db).Model(&models.Product{}).Where("id = ?", id).Updates(map[string]any{
		"active":     false,
		"version":    gorm.Expr("version + 1"),
		"updated_at": time.Now(),
	})
	if res.Error != nil {
		return fmt.Errorf("failed to deactivate product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %s: %w", id, ErrNotFound)
	}
	return nil
}

// DecrementInventory performs a conditional decrement so concurrent callers
// can never drive inventory below zero.
func (r *GORMProductRepository) DecrementInventory(ctx context.Context, id string, qty int64) (bool, error) {
	res := conn(ctx, r.db).Model(&models.Product{}).
		Where("id = ? AND active = ? AND inventory >= ?", id, true, qty).
		Updates(map[string]any{
			"inventory":  gorm.Expr("inventory - ?", qty),
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to decrement inventory for product %s: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}
