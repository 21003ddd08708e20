package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order statuses in the canonical store. The mapper normalizes these to the
// platform vocabulary on the way out.
const (
	OrderStatusDraft     = "draft"
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
	OrderStatusCanceled  = "canceled"
	OrderStatusRefund    = "refund"
	OrderStatusError     = "error"
)

// Order is the canonical sales order. OrderNumber is the natural key and the
// protected field.
type Order struct {
	ID          int    `gorm:"primary_key" json:"id"`
	OrderNumber string `gorm:"uniqueIndex;size:64" json:"order_number"`
	Status      string `gorm:"size:32" json:"status"`
	Currency    string `gorm:"size:8" json:"currency"`

	CustomerId    int    `gorm:"index" json:"customer_id"`
	CustomerEmail string `gorm:"size:255" json:"customer_email"`

	Billing  Address `gorm:"type:json" json:"billing"`
	Shipping Address `gorm:"type:json" json:"shipping"`

	Items []OrderItem `gorm:"foreignKey:OrderId" json:"items"`

	ShippingTotal decimal.Decimal `gorm:"type:decimal(12,2)" json:"shipping_total"`
	DiscountTotal decimal.Decimal `gorm:"type:decimal(12,2)" json:"discount_total"`
	Total         decimal.Decimal `gorm:"type:decimal(12,2)" json:"total"`

	Channels        StringList    `gorm:"type:json" json:"channels"`
	ExternalIds     ExternalIdMap `gorm:"type:json" json:"external_ids"`
	RawExternalJSON []byte        `gorm:"type:json" json:"raw_external"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// OrderItem is one order line. The target external product id is resolved at
// sync time: ExternalProductId first, then the related product's external id
// map, then a SKU lookup in the canonical store.
type OrderItem struct {
	ID                int             `gorm:"primary_key" json:"id"`
	OrderId           int             `gorm:"index;not null" json:"order_id"`
	ProductId         int             `gorm:"index" json:"product_id"`
	ExternalProductId string          `gorm:"size:64" json:"external_product_id"`
	Sku               string          `gorm:"size:64" json:"sku"`
	Name              string          `gorm:"size:255" json:"name"`
	Quantity          int             `gorm:"not null" json:"quantity"`
	UnitPrice         decimal.Decimal `gorm:"type:decimal(12,2)" json:"unit_price"`
	Total             decimal.Decimal `gorm:"type:decimal(12,2)" json:"total"`
}

func (o *Order) Kind() EntityKind   { return KindOrder }
func (o *Order) EntityID() int      { return o.ID }
func (o *Order) NaturalKey() string { return o.OrderNumber }

func (o *Order) ExternalIdFor(platform string) string {
	return externalIdFrom(o.ExternalIds, platform)
}

func (o *Order) SetExternalId(platform, externalId string) {
	setExternalId(&o.ExternalIds, platform, externalId)
}

func (o *Order) Channeled(platform string) bool {
	return channeled(o.Channels, platform)
}
