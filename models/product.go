package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the canonical record for a book. ISBN is the natural key and the
// protected field: once set it is never overwritten by inbound sync.
type Product struct {
	ID          int    `gorm:"primary_key" json:"id"`
	ISBN        string `gorm:"uniqueIndex;size:32" json:"isbn"`
	Name        string `gorm:"size:255;not null" json:"name"`
	Slug        string `gorm:"size:255" json:"slug"`
	Description string `gorm:"type:text" json:"description"`
	Author      string `gorm:"size:255" json:"author"`
	Publisher   string `gorm:"size:255" json:"publisher"`
	Language    string `gorm:"size:8" json:"language"`
	Pages       int    `json:"pages"`

	Published *bool      `gorm:"default:false" json:"published"`
	Channels  StringList `gorm:"type:json" json:"channels"`

	Prices []ProductPrice `gorm:"foreignKey:ProductId" json:"prices"`

	ExternalIds     ExternalIdMap `gorm:"type:json" json:"external_ids"`
	RawExternalJSON []byte        `gorm:"type:json" json:"raw_external"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// ProductPrice is one row of a product's price list. findActivePrice in the
// mapper picks the row that applies "now".
type ProductPrice struct {
	ID        int             `gorm:"primary_key" json:"id"`
	ProductId int             `gorm:"index;not null" json:"product_id"`
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Active    *bool           `gorm:"default:true" json:"active"`
	StartDate *time.Time      `json:"start_date"`
	EndDate   *time.Time      `json:"end_date"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (p *Product) Kind() EntityKind { return KindProduct }
func (p *Product) EntityID() int    { return p.ID }
func (p *Product) NaturalKey() string {
	return p.ISBN
}

func (p *Product) ExternalIdFor(platform string) string {
	return externalIdFrom(p.ExternalIds, platform)
}

func (p *Product) SetExternalId(platform, externalId string) {
	setExternalId(&p.ExternalIds, platform, externalId)
}

func (p *Product) Channeled(platform string) bool {
	return channeled(p.Channels, platform)
}

// Publishable is the publish predicate: only published products are pushed.
func (p *Product) Publishable() bool {
	return p.Published != nil && *p.Published
}
