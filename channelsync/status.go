package channelsync

import "strings"

// Platform order statuses that pass through untouched.
var knownOrderStatuses = map[string]bool{
	"pending":    true,
	"processing": true,
	"on-hold":    true,
	"completed":  true,
	"cancelled":  true,
	"refunded":   true,
	"failed":     true,
	"auto-draft": true,
	"trash":      true,
}

// NormalizeOrderStatus maps canonical status vocabulary to the platform's.
// Unrecognized or empty input falls back to "pending". Case-insensitive.
func NormalizeOrderStatus(status string) string {
	s := strings.ToLower(strings.TrimSpace(status))
	switch s {
	case "draft":
		return "auto-draft"
	case "canceled", "cancel":
		return "cancelled"
	case "refund":
		return "refunded"
	case "error":
		return "failed"
	}
	if knownOrderStatuses[s] {
		return s
	}
	return "pending"
}

// NormalizeDiscountType maps canonical/localized coupon discount types to the
// platform's enum. Anything unrecognized, including empty, is "fixed_cart".
func NormalizeDiscountType(discountType string) string {
	switch strings.ToLower(strings.TrimSpace(discountType)) {
	case "percent", "porcentaje", "percentage":
		return "percent"
	case "fixed_product", "producto_fijo", "producto":
		return "fixed_product"
	default:
		return "fixed_cart"
	}
}
