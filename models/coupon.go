package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Coupon is the canonical discount coupon. Code is the natural key and the
// protected field.
type Coupon struct {
	ID           int             `gorm:"primary_key" json:"id"`
	Code         string          `gorm:"uniqueIndex;size:64" json:"code"`
	Description  string          `gorm:"type:text" json:"description"`
	DiscountType string          `gorm:"size:32" json:"discount_type"`
	Amount       decimal.Decimal `gorm:"type:decimal(12,2)" json:"amount"`
	ExpiresAt    *time.Time      `json:"expires_at"`
	UsageLimit   *int            `json:"usage_limit"`

	Channels        StringList    `gorm:"type:json" json:"channels"`
	ExternalIds     ExternalIdMap `gorm:"type:json" json:"external_ids"`
	RawExternalJSON []byte        `gorm:"type:json" json:"raw_external"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c *Coupon) Kind() EntityKind   { return KindCoupon }
func (c *Coupon) EntityID() int      { return c.ID }
func (c *Coupon) NaturalKey() string { return c.Code }

func (c *Coupon) ExternalIdFor(platform string) string {
	return externalIdFrom(c.ExternalIds, platform)
}

func (c *Coupon) SetExternalId(platform, externalId string) {
	setExternalId(&c.ExternalIds, platform, externalId)
}

func (c *Coupon) Channeled(platform string) bool {
	return channeled(c.Channels, platform)
}
