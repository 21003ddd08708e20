package channelsync

import (
	"strconv"

	"bitbucket.org/mmdatafocus/storefront_sync/models"
	"bitbucket.org/mmdatafocus/storefront_sync/utils"
)

func customerToExternal(c *models.Customer) wcCustomer {
	payload := wcCustomer{
		Email:     c.Email,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Billing:   addressToExternal(c.Billing),
		Shipping:  addressToExternal(c.Shipping),
	}
	if phone := utils.NormalizePhone(c.Phone, c.Billing.Country); phone != "" {
		if payload.Billing == nil {
			payload.Billing = &wcAddress{}
		}
		if payload.Billing.Phone == "" {
			payload.Billing.Phone = phone
		}
	}
	return payload
}

// customerFromExternal applies an inbound platform customer. Email is the
// protected natural key.
func customerFromExternal(obj map[string]interface{}, platform string, existing *models.Customer) *models.Customer {
	out := existing
	if out == nil {
		out = &models.Customer{}
	}

	incomingEmail := getString(obj, "email", "correo")
	if incomingEmail != "" && !utils.IsValidEmail(incomingEmail) {
		incomingEmail = ""
	}
	out.Email = mergeProtected(models.KindCustomer, "email", out.Email, incomingEmail)
	out.FirstName = mergeString(out.FirstName, getString(obj, "first_name", "nombre"))
	out.LastName = mergeString(out.LastName, getString(obj, "last_name", "apellidos"))

	if billing := getMap(obj, "billing", "facturacion"); billing != nil {
		out.Billing = NormalizeAddress(billing)
	}
	if shipping := getMap(obj, "shipping", "envio"); shipping != nil {
		out.Shipping = NormalizeAddress(shipping)
	}
	if phone := getString(obj, "phone", "telefono"); phone != "" {
		out.Phone = utils.NormalizePhone(phone, out.Billing.Country)
	} else if out.Phone == "" && out.Billing.Phone != "" {
		out.Phone = out.Billing.Phone
	}

	if extId := asString(obj["id"]); extId != "" {
		out.SetExternalId(platform, extId)
	}
	return out
}

func externalCustomerId(c *wcCustomer) string {
	if c == nil || c.ID == 0 {
		return ""
	}
	return strconv.FormatInt(c.ID, 10)
}
