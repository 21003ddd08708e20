package channelsync

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/storefront_sync/config"
	"bitbucket.org/mmdatafocus/storefront_sync/models"
	"bitbucket.org/mmdatafocus/storefront_sync/utils"
)

type triggerSyncRequest struct {
	Kinds []string `json:"kinds"`
}

// TriggerSyncHandler queues a manual sync run on POST /api/sync/:platform.
func TriggerSyncHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		platform := strings.ToLower(strings.TrimSpace(c.Param("platform")))

		var req triggerSyncRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{
					"success": false,
					"message": "invalid request body",
					"errors":  utils.ProcessValidationErrors(err),
				})
				return
			}
		}

		run, err := QueueSyncRun(c.Request.Context(), platform, req.Kinds, models.SyncTriggeredManual, nil)
		if err != nil {
			var cfgErr *ConfigurationError
			if errors.As(err, &cfgErr) {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": cfgErr.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"success": true,
			"message": "sync run queued",
			"data":    run,
		})
	}
}

// SyncHistoryHandler lists recent runs on GET /api/sync/runs.
// Query params: platform, status, limit (default 50).
func SyncHistoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 50
		if v := strings.TrimSpace(c.Query("limit")); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
				limit = n
			}
		}

		q := config.GetDB().WithContext(c.Request.Context()).
			Model(&models.SyncRun{}).
			Order("created_at desc").
			Limit(limit)
		if platform := strings.ToLower(strings.TrimSpace(c.Query("platform"))); platform != "" {
			q = q.Where("platform = ?", platform)
		}
		if status := strings.ToUpper(strings.TrimSpace(c.Query("status"))); status != "" {
			q = q.Where("status = ?", status)
		}

		var runs []models.SyncRun
		if err := q.Find(&runs).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": runs})
	}
}

// SyncRunDetailHandler returns one run plus its errors on GET /api/sync/runs/:id.
func SyncRunDetailHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		runId, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid run id"})
			return
		}

		db := config.GetDB().WithContext(c.Request.Context())
		var run models.SyncRun
		if err := db.Take(&run, runId).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "run not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
			return
		}

		var syncErrors []models.SyncError
		if err := db.Where("sync_run_id = ?", run.ID).
			Order("created_at asc").Find(&syncErrors).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    gin.H{"run": run, "errors": syncErrors},
		})
	}
}

// RetrySyncRunHandler queues a fresh run for a finished one on
// POST /api/sync/runs/:id/retry. The new run points back via parent_run_id.
func RetrySyncRunHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		runId, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid run id"})
			return
		}

		db := config.GetDB().WithContext(c.Request.Context())
		var parent models.SyncRun
		if err := db.Take(&parent, runId).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "run not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
			return
		}
		if parent.Status == models.SyncRunStatusQueued || parent.Status == models.SyncRunStatusRunning {
			c.JSON(http.StatusConflict, gin.H{"success": false, "message": "run is still in progress"})
			return
		}

		var kinds []string
		if len(parent.KindsJSON) > 0 {
			_ = json.Unmarshal(parent.KindsJSON, &kinds)
		}

		parentId := parent.ID
		run, err := QueueSyncRun(c.Request.Context(), parent.Platform, kinds, models.SyncTriggeredRetry, &parentId)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"success": true,
			"message": "retry run queued",
			"data":    run,
		})
	}
}

// SweepHandler runs the taxonomy sweep on demand on POST /api/sync/terms.
// Query params: hours (default 24), kinds (comma-separated).
func SweepHandler(s *Syncer) gin.HandlerFunc {
	return func(c *gin.Context) {
		hours := 24
		if v := strings.TrimSpace(c.Query("hours")); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				hours = n
			}
		}
		var kinds []string
		if raw := strings.TrimSpace(c.Query("kinds")); raw != "" {
			for _, part := range strings.Split(raw, ",") {
				if kind := strings.ToLower(strings.TrimSpace(part)); kind != "" {
					kinds = append(kinds, kind)
				}
			}
		}

		report, err := s.SyncAllTerms(c.Request.Context(), hours, kinds)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": report})
	}
}
