package channelsync

import (
	"strconv"
	"strings"

	"bitbucket.org/mmdatafocus/storefront_sync/models"
)

// orderToExternal translates a canonical order to the platform payload. Line
// items are resolved by the orchestrator beforehand (external product ids are
// a sync-time concern, not a mapping one).
func orderToExternal(o *models.Order, lineItems []wcLineItem) wcOrder {
	payload := wcOrder{
		Status:        NormalizeOrderStatus(o.Status),
		Currency:      o.Currency,
		Billing:       addressToExternal(o.Billing),
		Shipping:      addressToExternal(o.Shipping),
		LineItems:     lineItems,
		ShippingTotal: o.ShippingTotal.String(),
		DiscountTotal: o.DiscountTotal.String(),
	}

	// The platform assigns its own order number; the canonical one travels
	// as metadata so support staff can cross-reference.
	if o.OrderNumber != "" {
		payload.MetaData = append(payload.MetaData, wcMetaData{Key: "order_number", Value: o.OrderNumber})
	}
	if payload.Billing == nil && o.CustomerEmail != "" {
		payload.Billing = &wcAddress{Email: o.CustomerEmail}
	}
	return payload
}

// orderFromExternal applies an inbound platform order to the canonical one.
// The order number is protected; an empty inbound item list never wipes the
// canonical items.
func orderFromExternal(obj map[string]interface{}, platform string, existing *models.Order) *models.Order {
	out := existing
	if out == nil {
		out = &models.Order{}
	}

	incomingNumber := getString(obj, "number", "order_number")
	if incomingNumber == "" {
		// Metadata round-trip: outbound sync packs the canonical number there.
		incomingNumber = metaValue(obj, "order_number")
	}
	out.OrderNumber = mergeProtected(models.KindOrder, "order_number", out.OrderNumber, incomingNumber)

	if status := getString(obj, "status"); status != "" {
		out.Status = strings.ToLower(status)
	}
	out.Currency = mergeString(out.Currency, getString(obj, "currency"))

	if billing := getMap(obj, "billing", "facturacion"); billing != nil {
		out.Billing = NormalizeAddress(billing)
	}
	if shipping := getMap(obj, "shipping", "envio"); shipping != nil {
		out.Shipping = NormalizeAddress(shipping)
	}
	out.CustomerEmail = mergeString(out.CustomerEmail, out.Billing.Email)

	if d := getDecimal(obj, "total"); !d.IsZero() {
		out.Total = d
	}
	if d := getDecimal(obj, "shipping_total"); !d.IsZero() {
		out.ShippingTotal = d
	}
	if d := getDecimal(obj, "discount_total"); !d.IsZero() {
		out.DiscountTotal = d
	}

	if rawItems := getSlice(obj, "line_items", "items"); len(rawItems) > 0 {
		var items []models.OrderItem
		for _, raw := range rawItems {
			itemObj, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			item := models.OrderItem{
				ExternalProductId: getString(itemObj, "product_id"),
				Sku:               getString(itemObj, "sku"),
				Name:              getString(itemObj, "name"),
				Quantity:          getInt(itemObj, "quantity"),
				UnitPrice:         getDecimal(itemObj, "price", "unit_price"),
				Total:             getDecimal(itemObj, "total"),
			}
			if item.Quantity == 0 {
				item.Quantity = 1
			}
			items = append(items, item)
		}
		if len(items) > 0 {
			out.Items = items
		}
	}

	if extId := asString(obj["id"]); extId != "" {
		out.SetExternalId(platform, extId)
	}
	return out
}

func metaValue(obj map[string]interface{}, key string) string {
	for _, raw := range getSlice(obj, "meta_data") {
		entry, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		if getString(entry, "key") == key {
			return asString(entry["value"])
		}
	}
	return ""
}

func externalOrderId(o *wcOrder) string {
	if o == nil || o.ID == 0 {
		return ""
	}
	return strconv.FormatInt(o.ID, 10)
}
