package channelsync

import (
	"bitbucket.org/mmdatafocus/storefront_sync/config"
	"bitbucket.org/mmdatafocus/storefront_sync/models"
)

// mergeProtected applies the protected-field policy shared by all reverse
// mappers: a field that is already set canonically is never overwritten by
// inbound data. A differing inbound value is discarded with a warning, never
// merged and never an error.
func mergeProtected(kind models.EntityKind, field, existing, incoming string) string {
	if existing == "" {
		return incoming
	}
	if incoming != "" && incoming != existing {
		config.LogWarn(config.GetLogger(), "channelsync", "mergeProtected", "protected field conflict",
			map[string]string{
				"kind":     string(kind),
				"field":    field,
				"existing": existing,
				"incoming": incoming,
			},
			"inbound value discarded, canonical value kept")
	}
	return existing
}

// mergeString is the non-protected counterpart: incoming wins when present.
func mergeString(existing, incoming string) string {
	if incoming != "" {
		return incoming
	}
	return existing
}
