package channelsync

import (
	"time"

	"bitbucket.org/mmdatafocus/storefront_sync/models"
)

func priceActive(p models.ProductPrice) bool {
	return p.Active == nil || *p.Active
}

// findActivePrice picks the price row that applies right now: active rows
// whose date window covers the current time, latest start date winning. When
// no row survives the date filter, the most recently created active row is
// used. Returns nil when there is no active row at all.
func findActivePrice(prices []models.ProductPrice) *models.ProductPrice {
	now := time.Now()

	var candidates []models.ProductPrice
	for _, p := range prices {
		if priceActive(p) {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	var best *models.ProductPrice
	for i := range candidates {
		p := &candidates[i]
		if p.StartDate != nil && p.StartDate.After(now) {
			continue
		}
		if p.EndDate != nil && p.EndDate.Before(now) {
			continue
		}
		if best == nil {
			best = p
			continue
		}
		if startOf(p).After(startOf(best)) {
			best = p
		}
	}
	if best != nil {
		return best
	}

	// Nothing covers "now"; fall back to the newest active row.
	latest := &candidates[0]
	for i := range candidates {
		if candidates[i].CreatedAt.After(latest.CreatedAt) {
			latest = &candidates[i]
		}
	}
	return latest
}

func startOf(p *models.ProductPrice) time.Time {
	if p.StartDate == nil {
		return time.Time{}
	}
	return *p.StartDate
}
