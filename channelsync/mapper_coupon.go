package channelsync

import (
	"strconv"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/storefront_sync/models"
)

func couponToExternal(c *models.Coupon) wcCoupon {
	payload := wcCoupon{
		Code:         strings.ToLower(c.Code),
		Amount:       c.Amount.String(),
		DiscountType: NormalizeDiscountType(c.DiscountType),
		Description:  c.Description,
		UsageLimit:   c.UsageLimit,
	}
	if c.ExpiresAt != nil {
		payload.DateExpires = c.ExpiresAt.UTC().Format("2006-01-02T15:04:05")
	}
	return payload
}

// couponFromExternal applies an inbound platform coupon. Code is the
// protected natural key.
func couponFromExternal(obj map[string]interface{}, platform string, existing *models.Coupon) *models.Coupon {
	out := existing
	if out == nil {
		out = &models.Coupon{}
	}

	out.Code = mergeProtected(models.KindCoupon, "code", out.Code, getString(obj, "code", "codigo"))
	out.Description = mergeString(out.Description, getString(obj, "description", "descripcion"))

	if dt := getString(obj, "discount_type", "tipo_descuento"); dt != "" {
		out.DiscountType = NormalizeDiscountType(dt)
	}
	if d := getDecimal(obj, "amount", "importe"); !d.IsZero() {
		out.Amount = d
	}
	if raw := getString(obj, "date_expires", "expires_at"); raw != "" {
		if t := parseDate(raw); t != nil {
			out.ExpiresAt = t
		}
	}
	if limit := getInt(obj, "usage_limit"); limit > 0 {
		out.UsageLimit = &limit
	}

	if extId := asString(obj["id"]); extId != "" {
		out.SetExternalId(platform, extId)
	}
	return out
}

func parseDate(value string) *time.Time {
	value = strings.TrimSpace(value)
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	return nil
}

func externalCouponId(c *wcCoupon) string {
	if c == nil || c.ID == 0 {
		return ""
	}
	return strconv.FormatInt(c.ID, 10)
}
