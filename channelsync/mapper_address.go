package channelsync

import (
	"bitbucket.org/mmdatafocus/storefront_sync/models"
	"bitbucket.org/mmdatafocus/storefront_sync/utils"
)

// Localized field aliases accepted on inbound addresses, tried after the
// canonical names. Documented here; extend with care since aliases apply to
// every inbound address on every platform.
var addressAliases = map[string][]string{
	"first_name": {"first_name", "firstname", "nombre"},
	"last_name":  {"last_name", "lastname", "apellidos", "apellido"},
	"company":    {"company", "empresa"},
	"address_1":  {"address_1", "address1", "address", "direccion"},
	"address_2":  {"address_2", "address2", "direccion_2"},
	"city":       {"city", "ciudad"},
	"state":      {"state", "provincia"},
	"postcode":   {"postcode", "postal_code", "codigo_postal", "zip"},
	"country":    {"country", "pais"},
	"email":      {"email", "correo"},
	"phone":      {"phone", "telefono"},
}

// NormalizeAddress maps a raw inbound address object, canonical-native or
// localized, onto the canonical shape. The country code defaults when absent.
func NormalizeAddress(obj map[string]interface{}) models.Address {
	if obj == nil {
		return models.Address{}
	}
	addr := models.Address{
		FirstName: getString(obj, addressAliases["first_name"]...),
		LastName:  getString(obj, addressAliases["last_name"]...),
		Company:   getString(obj, addressAliases["company"]...),
		Address1:  getString(obj, addressAliases["address_1"]...),
		Address2:  getString(obj, addressAliases["address_2"]...),
		City:      getString(obj, addressAliases["city"]...),
		State:     getString(obj, addressAliases["state"]...),
		Postcode:  getString(obj, addressAliases["postcode"]...),
		Country:   getString(obj, addressAliases["country"]...),
		Email:     getString(obj, addressAliases["email"]...),
		Phone:     getString(obj, addressAliases["phone"]...),
	}
	if addr.Country == "" && !addr.IsZero() {
		addr.Country = utils.DefaultCountryCode
	}
	if addr.Phone != "" {
		addr.Phone = utils.NormalizePhone(addr.Phone, addr.Country)
	}
	return addr
}

func addressToExternal(a models.Address) *wcAddress {
	if a.IsZero() {
		return nil
	}
	return &wcAddress{
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Company:   a.Company,
		Address1:  a.Address1,
		Address2:  a.Address2,
		City:      a.City,
		State:     a.State,
		Postcode:  a.Postcode,
		Country:   a.Country,
		Email:     a.Email,
		Phone:     a.Phone,
	}
}
