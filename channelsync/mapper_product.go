package channelsync

import (
	"strconv"
	"time"

	"bitbucket.org/mmdatafocus/storefront_sync/models"
	"bitbucket.org/mmdatafocus/storefront_sync/utils"
)

// productToExternal translates a canonical product to the platform payload.
// Pure: no network calls. Attributes are sent by name; the taxonomy sweep
// keeps the attribute registry itself in shape.
func productToExternal(p *models.Product) wcProduct {
	status := "draft"
	if p.Publishable() {
		status = "publish"
	}

	payload := wcProduct{
		Name:        p.Name,
		Slug:        p.Slug,
		Type:        "simple",
		Status:      status,
		Description: p.Description,
		Sku:         p.ISBN,
	}

	if price := findActivePrice(p.Prices); price != nil {
		payload.RegularPrice = price.Amount.String()
	}

	if p.Author != "" {
		payload.Attributes = append(payload.Attributes, wcAttributeValue{
			Name: "Author", Options: []string{p.Author}, Visible: true,
		})
	}
	if p.Publisher != "" {
		payload.Attributes = append(payload.Attributes, wcAttributeValue{
			Name: "Publisher", Options: []string{p.Publisher}, Visible: true,
		})
	}

	// Fields with no native equivalent travel as generic metadata.
	if p.Pages > 0 {
		payload.MetaData = append(payload.MetaData, wcMetaData{Key: "pages", Value: p.Pages})
	}
	if p.Language != "" {
		payload.MetaData = append(payload.MetaData, wcMetaData{Key: "language", Value: p.Language})
	}

	return payload
}

// productFromExternal applies an inbound platform object to the canonical
// product, honoring the protected-field policy for the ISBN.
func productFromExternal(obj map[string]interface{}, platform string, existing *models.Product) *models.Product {
	out := existing
	if out == nil {
		out = &models.Product{}
	}

	out.ISBN = mergeProtected(models.KindProduct, "isbn", out.ISBN, getString(obj, "sku", "isbn"))
	out.Name = mergeString(out.Name, getString(obj, "name", "title"))
	out.Slug = mergeString(out.Slug, getString(obj, "slug"))
	out.Description = mergeString(out.Description, getString(obj, "description"))

	if status := getString(obj, "status"); status != "" {
		if status == "publish" {
			out.Published = utils.NewTrue()
		} else {
			out.Published = utils.NewFalse()
		}
	}

	for _, raw := range getSlice(obj, "attributes") {
		attr, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		options := getSlice(attr, "options")
		if len(options) == 0 {
			continue
		}
		switch getString(attr, "name") {
		case "Author", "author", "autor":
			out.Author = mergeString(out.Author, asString(options[0]))
		case "Publisher", "publisher", "editorial":
			out.Publisher = mergeString(out.Publisher, asString(options[0]))
		}
	}

	// Only a brand-new canonical product takes its price from the platform;
	// updates keep the canonical price list authoritative.
	if existing == nil {
		if d, ok := decimalFrom(obj["regular_price"]); ok && !d.IsZero() {
			now := time.Now()
			out.Prices = append(out.Prices, models.ProductPrice{
				Amount:    d,
				Active:    utils.NewTrue(),
				StartDate: &now,
			})
		}
	}

	if extId := asString(obj["id"]); extId != "" {
		out.SetExternalId(platform, extId)
	}
	return out
}

func externalProductId(p *wcProduct) string {
	if p == nil || p.ID == 0 {
		return ""
	}
	return strconv.FormatInt(p.ID, 10)
}
