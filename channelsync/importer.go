package channelsync

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"bitbucket.org/mmdatafocus/storefront_sync/config"
	"bitbucket.org/mmdatafocus/storefront_sync/models"
)

const importPageSize = 50

// ImportReport summarizes one bulk import. Errors carries one message per
// failed row; a failed row never aborts the rest of the page.
type ImportReport struct {
	Scanned  int      `json:"scanned"`
	Imported int      `json:"imported"`
	Updated  int      `json:"updated"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

func resourceFor(kind models.EntityKind) string {
	switch kind {
	case models.KindProduct:
		return "products"
	case models.KindOrder:
		return "orders"
	case models.KindCustomer:
		return "customers"
	case models.KindCoupon:
		return "coupons"
	default:
		return ""
	}
}

// ImportEntities pulls entities of the kind from the platform, page by page,
// and upserts each into the canonical store. limit caps how many records are
// processed (0 means the whole collection). dryRun walks the pages and
// reports what would happen without writing.
func (s *Syncer) ImportEntities(ctx context.Context, platform string, kind models.EntityKind, limit int, dryRun bool) (*ImportReport, error) {
	cfg := config.GetPlatformConfig(platform)
	if cfg == nil {
		return nil, &ConfigurationError{Platform: platform}
	}
	resource := resourceFor(kind)
	if resource == "" {
		return nil, fmt.Errorf("unknown entity kind %q", kind)
	}

	report := &ImportReport{}
	for page := 1; ; page++ {
		objs, err := s.client.List(ctx, cfg, resource, page, importPageSize)
		if err != nil {
			return report, err
		}
		if len(objs) == 0 {
			break
		}
		if limit > 0 && report.Scanned+len(objs) > limit {
			objs = objs[:limit-report.Scanned]
		}
		report.Scanned += len(objs)

		for _, obj := range objs {
			externalId := asString(obj["id"])
			if externalId == "" {
				report.Skipped++
				continue
			}

			if dryRun {
				existing, err := s.repo.FindByExternalId(ctx, kind, platform, externalId)
				if err != nil {
					report.Errors = append(report.Errors, fmt.Sprintf("%s %s: %v", kind, externalId, err))
					continue
				}
				if existing == nil {
					report.Imported++
				} else {
					report.Updated++
				}
				continue
			}

			created, err := s.ApplyInbound(ctx, platform, kind, obj)
			if err != nil {
				report.Errors = append(report.Errors, fmt.Sprintf("%s %s: %v", kind, externalId, err))
				config.LogError(s.logger, moduleName, "ImportEntities", platform, map[string]interface{}{
					"kind": kind, "externalId": externalId,
				}, err)
				continue
			}
			if created {
				report.Imported++
			} else {
				report.Updated++
			}
		}

		if limit > 0 && report.Scanned >= limit {
			break
		}
		if len(objs) < importPageSize {
			break
		}
	}
	return report, nil
}

// ImportHandler runs a bulk import on POST /import/:platform.
// Query params: entity (required), limit, dry_run.
func ImportHandler(s *Syncer) gin.HandlerFunc {
	return func(c *gin.Context) {
		platform := strings.ToLower(strings.TrimSpace(c.Param("platform")))
		kind, ok := kindFromResource(c.Query("entity"))
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "unknown entity type"})
			return
		}
		dryRun := strings.EqualFold(c.Query("dry_run"), "true")
		limit := 0
		if v := strings.TrimSpace(c.Query("limit")); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				limit = n
			}
		}

		report, err := s.ImportEntities(c.Request.Context(), platform, kind, limit, dryRun)
		if err != nil {
			var cfgErr *ConfigurationError
			if errors.As(err, &cfgErr) {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": cfgErr.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error(), "data": report})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": fmt.Sprintf("%s import finished", kind),
			"data":    report,
		})
	}
}
