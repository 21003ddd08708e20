package channelsync

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"bitbucket.org/mmdatafocus/storefront_sync/config"
	"bitbucket.org/mmdatafocus/storefront_sync/models"
)

// attributeFor maps a taxonomy kind to the platform attribute it lives under.
func attributeFor(kind string) (name, slug string, err error) {
	switch kind {
	case models.TermKindAuthor:
		return "Author", "author", nil
	case models.TermKindPublisher:
		return "Publisher", "publisher", nil
	case models.TermKindGenre:
		return "Genre", "genre", nil
	default:
		return "", "", fmt.Errorf("unknown term kind %q", kind)
	}
}

// SyncTerm ensures the term exists as an attribute term on one platform and
// records the resulting id.
func (s *Syncer) SyncTerm(ctx context.Context, platform string, term *models.Term) error {
	cfg := config.GetPlatformConfig(platform)
	if cfg == nil {
		return &ConfigurationError{Platform: platform}
	}

	attrName, attrSlug, err := attributeFor(term.Kind)
	if err != nil {
		return err
	}

	// Cross-replica cache: a term another replica already pushed does not
	// need a remote round trip. Best-effort; a cold or absent Redis just
	// means extra lookups.
	cacheKey := fmt.Sprintf("term:%s:%s:%s", platform, term.Kind, term.Slug)
	var cachedId string
	if ok, _ := config.GetRedisObject(cacheKey, &cachedId); ok && cachedId != "" {
		if cachedId == term.ExternalIdFor(platform) {
			return nil
		}
		// Stale mapping, drop it and re-resolve against the platform.
		_ = config.RemoveRedisKey(cacheKey)
	}

	attributeId, err := s.client.GetOrCreateAttribute(ctx, cfg, attrName, attrSlug)
	if err != nil {
		return err
	}
	termId, err := s.client.GetOrCreateAttributeTerm(ctx, cfg, attributeId, term.Name)
	if err != nil {
		return err
	}

	newId := strconv.FormatInt(termId, 10)
	if term.ExternalIdFor(platform) == newId {
		_ = config.SetRedisObject(cacheKey, newId, 24*time.Hour)
		return nil
	}
	term.SetExternalId(platform, newId)
	if err := s.repo.SaveTermExternalIds(ctx, term); err != nil {
		return err
	}
	_ = config.SetRedisObject(cacheKey, newId, 24*time.Hour)
	return nil
}

// SweepReport summarizes one taxonomy sweep pass.
type SweepReport struct {
	Scanned int `json:"scanned"`
	Synced  int `json:"synced"`
	Errors  int `json:"errors"`
}

// SyncAllTerms pushes terms modified in the last recentHours to every enabled
// platform. kinds narrows the sweep; empty means all kinds. Failures are
// counted and logged, never fatal, so one bad term cannot stall the sweep.
func (s *Syncer) SyncAllTerms(ctx context.Context, recentHours int, kinds []string) (*SweepReport, error) {
	if recentHours <= 0 {
		recentHours = 24
	}
	since := time.Now().Add(-time.Duration(recentHours) * time.Hour)

	terms, err := s.repo.RecentTerms(ctx, since, kinds)
	if err != nil {
		return nil, err
	}

	report := &SweepReport{Scanned: len(terms)}
	for i := range terms {
		term := &terms[i]
		for _, platform := range config.Platforms() {
			if err := s.SyncTerm(ctx, platform, term); err != nil {
				report.Errors++
				config.LogError(s.logger, moduleName, "SyncAllTerms", platform, map[string]interface{}{
					"kind": term.Kind, "slug": term.Slug,
				}, err)
				continue
			}
			report.Synced++
		}
	}
	return report, nil
}
