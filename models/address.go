package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// Address is the canonical postal shape, stored as a JSON column on orders
// and customers. Inbound localized field names are normalized to this shape
// by the address mapper before it reaches the store.
type Address struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company"`
	Address1  string `json:"address_1"`
	Address2  string `json:"address_2"`
	City      string `json:"city"`
	State     string `json:"state"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

func (a Address) Value() (driver.Value, error) {
	return json.Marshal(a)
}

func (a *Address) Scan(value interface{}) error {
	if value == nil {
		*a = Address{}
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		s, sok := value.(string)
		if !sok {
			return errors.New("cannot scan value into Address")
		}
		b = []byte(s)
	}
	if len(b) == 0 {
		*a = Address{}
		return nil
	}
	return json.Unmarshal(b, a)
}

func (a Address) IsZero() bool {
	return a == Address{}
}
