package models

import "time"

// Customer is the canonical customer record. Email is the natural key and the
// protected field.
type Customer struct {
	ID        int    `gorm:"primary_key" json:"id"`
	Email     string `gorm:"uniqueIndex;size:255" json:"email"`
	FirstName string `gorm:"size:128" json:"first_name"`
	LastName  string `gorm:"size:128" json:"last_name"`
	Phone     string `gorm:"size:32" json:"phone"`

	Billing  Address `gorm:"type:json" json:"billing"`
	Shipping Address `gorm:"type:json" json:"shipping"`

	Channels        StringList    `gorm:"type:json" json:"channels"`
	ExternalIds     ExternalIdMap `gorm:"type:json" json:"external_ids"`
	RawExternalJSON []byte        `gorm:"type:json" json:"raw_external"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c *Customer) Kind() EntityKind   { return KindCustomer }
func (c *Customer) EntityID() int      { return c.ID }
func (c *Customer) NaturalKey() string { return c.Email }

func (c *Customer) ExternalIdFor(platform string) string {
	return externalIdFrom(c.ExternalIds, platform)
}

func (c *Customer) SetExternalId(platform, externalId string) {
	setExternalId(&c.ExternalIds, platform, externalId)
}

func (c *Customer) Channeled(platform string) bool {
	return channeled(c.Channels, platform)
}
