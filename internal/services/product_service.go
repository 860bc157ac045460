package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"maplestore/internal/apperrors"
	"maplestore/internal/cache"
	"maplestore/internal/models"
	"maplestore/internal/repositories"
)

// ProductService handles business logic related to products.
type ProductService struct {
	repo     repositories.ProductRepository
	cache    cache.Cache
	cacheTTL time.Duration
}

// NewProductService creates a new ProductService. A nil cache disables
// caching of the public listing.
func NewProductService(repo repositories.ProductRepository, c cache.Cache, cacheTTL time.Duration) *ProductService {
	return &ProductService{
		repo:     repo,
		cache:    c,
		cacheTTL: cacheTTL,
	}
}

func (s *ProductService) listingKey() string {
	return s.cache.GenerateKey("products", "active")
}

// ListActive returns the products currently for sale.
func (s *ProductService) ListActive(ctx context.Context) ([]models.Product, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, s.listingKey()); err != nil {
			log.Printf("Error reading product listing from cache: %v", err)
		} else if cached != nil {
			var products []models.Product
			if err := json.Unmarshal(cached, &products); err == nil {
				return products, nil
			}
		}
	}

	products, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, internal(err)
	}

	if s.cache != nil {
		if data, err := json.Marshal(products); err == nil {
			if err := s.cache.Set(ctx, s.listingKey(), data, s.cacheTTL); err != nil {
				log.Printf("Error caching product listing: %v", err)
			}
		}
	}
	return products, nil
}

// GetActive returns a product that is for sale. Inactive products are
// reported as missing.
func (s *ProductService) GetActive(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, internal(err)
	}
	if !product.Active {
		return nil, apperrors.NotFound("product", id)
	}
	return product, nil
}

// ListAll returns every product, including inactive ones, for staff.
func (s *ProductService) ListAll(ctx context.Context, p models.Principal) ([]models.Product, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}
	products, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, internal(err)
	}
	return products, nil
}

// Create adds a product built from a validated draft.
func (s *ProductService) Create(ctx context.Context, p models.Principal, draft models.ProductDraft) (*models.Product, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}
	if err := validateStruct(draft); err != nil {
		return nil, err
	}

	product := &models.Product{}
	draft.ApplyTo(product)
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, internal(err)
	}
	s.invalidate(ctx)
	log.Printf("Product %s (%s) created", product.ID, product.Name)
	return product, nil
}

// Update replaces the mutable fields of a product with the draft. A draft
// carrying a version must match the product's current version; checkouts
// claiming stock bump it.
func (s *ProductService) Update(ctx context.Context, p models.Principal, id string, draft models.ProductDraft) (*models.Product, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}
	if err := validateStruct(draft); err != nil {
		return nil, err
	}

	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, internal(err)
	}

	if draft.Version != 0 && draft.Version != product.Version {
		return nil, productChanged(id, product.Version)
	}

	draft.ApplyTo(product)
	if err := s.repo.Update(ctx, product); err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return nil, apperrors.NotFound("product", id)
		case errors.Is(err, repositories.ErrConflict):
			return nil, productChanged(id, 0)
		}
		return nil, internal(err)
	}
	s.invalidate(ctx)
	return product, nil
}

// Delete deactivates a product. Order history keeps referring to it.
func (s *ProductService) Delete(ctx context.Context, p models.Principal, id string) error {
	if err := requireStaff(p); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.NotFound("product", id)
		}
		return internal(err)
	}
	s.invalidate(ctx)
	return nil
}

func (s *ProductService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, s.listingKey()); err != nil {
		log.Printf("Error invalidating product listing cache: %v", err)
	}
}

func productChanged(id string, current int64) error {
	err := apperrors.New(apperrors.CodeConflict, "product was modified since it was loaded; reload and retry").
		WithDetail("product_id", id)
	if current > 0 {
		err = err.WithDetail("current_version", fmt.Sprint(current))
	}
	return err
}
