package models

import "time"

// Taxonomy kinds pushed to platforms as product attributes.
const (
	TermKindAuthor    = "author"
	TermKindPublisher = "publisher"
	TermKindGenre     = "genre"
)

// Term is a canonical taxonomy entry (author, publisher, genre). Terms map to
// attribute terms on each platform; the periodic sweep re-pushes recently
// modified ones to cover missed webhook deliveries.
type Term struct {
	ID   int    `gorm:"primary_key" json:"id"`
	Kind string `gorm:"uniqueIndex:idx_term_kind_slug,priority:1;size:32;not null" json:"kind"`
	Slug string `gorm:"uniqueIndex:idx_term_kind_slug,priority:2;size:128;not null" json:"slug"`
	Name string `gorm:"size:255;not null" json:"name"`

	ExternalIds ExternalIdMap `gorm:"type:json" json:"external_ids"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (t *Term) ExternalIdFor(platform string) string {
	return externalIdFrom(t.ExternalIds, platform)
}

func (t *Term) SetExternalId(platform, externalId string) {
	setExternalId(&t.ExternalIds, platform, externalId)
}
