package models

import "time"

// Product represents an item in the catalog. Products are never hard-deleted;
// staff deactivate them instead so historical orders keep their references.
type Product struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name        string    `json:"name" gorm:"type:varchar(200);not null"`
	Description string    `json:"description" gorm:"type:text"`
	PriceCents  int64     `json:"price_cents" gorm:"not null"`
	ImageURL    string    `json:"image_url" gorm:"type:varchar(500)"`
	Inventory   int64     `json:"inventory" gorm:"not null;default:0;check:inventory >= 0"`
	Active      bool      `json:"active" gorm:"not null;index"`
	// Version increases on every write, stock claims included.
	Version     int64     `json:"version" gorm:"not null;default:1"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProductDraft is a pending edit of a product's mutable fields. It is
// validated on its own and merged into the canonical record only at save time.
type ProductDraft struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"omitempty,max=2000"`
	PriceCents  int64  `json:"price_cents" validate:"gte=0,lte=100000000"`
	ImageURL    string `json:"image_url" validate:"omitempty,max=500"`
	Inventory   int64  `json:"inventory" validate:"gte=0"`
	Active      bool   `json:"active"`
	// Version, when set, must match the product's current version.
	Version     int64  `json:"version,omitempty" validate:"gte=0"`
}

// DraftOf starts an edit from the current state of p.
func DraftOf(p *Product) ProductDraft {
	return ProductDraft{
		Name:        p.Name,
		Description: p.Description,
		PriceCents:  p.PriceCents,
		ImageURL:    p.ImageURL,
		Inventory:   p.Inventory,
		Active:      p.Active,
		Version:     p.Version,
	}
}

// ApplyTo replaces every mutable field of p with the draft's values.
// Identity, version and timestamps are left alone.
func (d ProductDraft) ApplyTo(p *Product) {
	p.Name = d.Name
	p.Description = d.Description
	p.PriceCents = d.PriceCents
	p.ImageURL = d.ImageURL
	p.Inventory = d.Inventory
	p.Active = d.Active
}
