package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

type EntityKind string

const (
	KindProduct  = EntityKind("product")
	KindOrder    = EntityKind("order")
	KindCustomer = EntityKind("customer")
	KindCoupon   = EntityKind("coupon")
	KindTerm     = EntityKind("term")
)

// Syncable is implemented by every canonical entity the sync core pushes to
// or receives from an external platform.
type Syncable interface {
	Kind() EntityKind
	EntityID() int
	// NaturalKey is the business identifier used to match records before an
	// external id is known (ISBN, order number, email, coupon code). It is
	// also the protected field of the entity.
	NaturalKey() string
	ExternalIdFor(platform string) string
	SetExternalId(platform string, externalId string)
	// Channeled reports whether the entity should be pushed to the given
	// platform. An empty channel list means "every enabled platform".
	Channeled(platform string) bool
}

// ExternalIdMap stores per-platform external identifiers as a JSON column.
// Writes are additive: a sync for one platform must never drop another
// platform's key, so callers merge through Syncable.SetExternalId.
type ExternalIdMap map[string]string

func (m ExternalIdMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *ExternalIdMap) Scan(value interface{}) error {
	if value == nil {
		*m = ExternalIdMap{}
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		s, sok := value.(string)
		if !sok {
			return fmt.Errorf("cannot scan %T into ExternalIdMap", value)
		}
		b = []byte(s)
	}
	if len(b) == 0 {
		*m = ExternalIdMap{}
		return nil
	}
	return json.Unmarshal(b, m)
}

// StringList is a JSON-encoded list column (platform channels, term kinds).
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		s, sok := value.(string)
		if !sok {
			return errors.New("cannot scan value into StringList")
		}
		b = []byte(s)
	}
	if len(b) == 0 {
		*l = nil
		return nil
	}
	return json.Unmarshal(b, l)
}

func (l StringList) Contains(v string) bool {
	for _, item := range l {
		if item == v {
			return true
		}
	}
	return false
}

func externalIdFrom(m ExternalIdMap, platform string) string {
	if m == nil {
		return ""
	}
	return m[platform]
}

func setExternalId(m *ExternalIdMap, platform, externalId string) {
	if *m == nil {
		*m = ExternalIdMap{}
	}
	(*m)[platform] = externalId
}

func channeled(channels StringList, platform string) bool {
	if len(channels) == 0 {
		return true
	}
	return channels.Contains(platform)
}
