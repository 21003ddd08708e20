package channelsync

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/gin-gonic/gin"

	"bitbucket.org/mmdatafocus/storefront_sync/config"
	"bitbucket.org/mmdatafocus/storefront_sync/models"
)

const defaultSyncRunTopic = "storefront-sync-runs"

func syncRunTopic() string {
	if v := strings.TrimSpace(os.Getenv("SYNC_RUN_TOPIC")); v != "" {
		return v
	}
	return defaultSyncRunTopic
}

type syncRunMessage struct {
	RunId uint `json:"run_id"`
}

// QueueSyncRun records a sync run and hands it to Pub/Sub. The run executes
// when the push subscription delivers it back; the caller only waits for the
// enqueue.
func QueueSyncRun(ctx context.Context, platform string, kinds []string, triggeredBy string, parentRunId *uint) (*models.SyncRun, error) {
	if config.GetPlatformConfig(platform) == nil {
		return nil, &ConfigurationError{Platform: platform}
	}

	kindsJSON, _ := json.Marshal(kinds)
	run := &models.SyncRun{
		Platform:    platform,
		Status:      models.SyncRunStatusQueued,
		TriggeredBy: triggeredBy,
		KindsJSON:   kindsJSON,
		ParentRunId: parentRunId,
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(run).Error; err != nil {
		return nil, err
	}

	client, err := config.GetClient(ctx)
	if err != nil {
		markRunFailed(ctx, run.ID, err)
		return nil, err
	}
	topic, err := config.CreateTopicIfNotExists(client, syncRunTopic())
	if err != nil {
		markRunFailed(ctx, run.ID, err)
		return nil, err
	}

	payload, _ := json.Marshal(syncRunMessage{RunId: run.ID})
	if _, err := topic.Publish(ctx, &pubsub.Message{Data: payload}).Get(ctx); err != nil {
		markRunFailed(ctx, run.ID, err)
		return nil, err
	}
	return run, nil
}

func markRunFailed(ctx context.Context, runId uint, cause error) {
	now := time.Now()
	db := config.GetDB()
	_ = db.WithContext(ctx).Model(&models.SyncRun{}).Where("id = ?", runId).
		Updates(map[string]interface{}{
			"status":      models.SyncRunStatusFailed,
			"finished_at": &now,
		}).Error
	config.LogError(config.GetLogger(), moduleName, "QueueSyncRun", "enqueue", map[string]interface{}{
		"runId": runId,
	}, cause)
}

// pubsubPushEnvelope is the Cloud Pub/Sub push delivery wrapper. Data is
// base64 in the wire JSON, which encoding/json decodes into the byte slice.
type pubsubPushEnvelope struct {
	Message struct {
		Data      []byte `json:"data"`
		MessageId string `json:"messageId"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// PubSubPushHandler executes queued sync runs delivered on
// POST /pubsub/sync-run. Non-2xx responses make Pub/Sub redeliver, so only
// infrastructure failures return 500; a finished or unknown run acks.
func PubSubPushHandler(s *Syncer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var envelope pubsubPushEnvelope
		if err := c.ShouldBindJSON(&envelope); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid push envelope"})
			return
		}
		var msg syncRunMessage
		if err := json.Unmarshal(envelope.Message.Data, &msg); err != nil || msg.RunId == 0 {
			// Undecodable messages would redeliver forever; ack and move on.
			c.JSON(http.StatusOK, gin.H{"success": false, "message": "invalid run message"})
			return
		}

		if err := s.ProcessSyncRun(c.Request.Context(), msg.RunId); err != nil {
			config.LogError(s.logger, moduleName, "PubSubPushHandler", "process", map[string]interface{}{
				"runId": msg.RunId,
			}, err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// RunPullWorker consumes queued sync runs from a pull subscription, for
// deployments without a push endpoint (local, VM). Blocks until ctx is done.
func (s *Syncer) RunPullWorker(ctx context.Context, subscriptionName string) error {
	client, err := config.GetClient(ctx)
	if err != nil {
		return err
	}
	topic, err := config.CreateTopicIfNotExists(client, syncRunTopic())
	if err != nil {
		return err
	}
	sub, err := config.CreateSubscriptionIfNotExists(client, subscriptionName, topic)
	if err != nil {
		return err
	}

	return sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		var m syncRunMessage
		if err := json.Unmarshal(msg.Data, &m); err != nil || m.RunId == 0 {
			// Poisoned message; redelivery cannot fix it.
			msg.Ack()
			return
		}
		if err := s.ProcessSyncRun(ctx, m.RunId); err != nil {
			config.LogError(s.logger, moduleName, "RunPullWorker", "process", map[string]interface{}{
				"runId": m.RunId,
			}, err)
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

func runLookback() time.Duration {
	hours := 24
	if v := strings.TrimSpace(os.Getenv("SYNC_RUN_LOOKBACK_HOURS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			hours = n
		}
	}
	return time.Duration(hours) * time.Hour
}

func runBatchLimit() int {
	limit := 500
	if v := strings.TrimSpace(os.Getenv("SYNC_RUN_BATCH_LIMIT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	return limit
}

var allSyncKinds = []models.EntityKind{
	models.KindProduct, models.KindCustomer, models.KindCoupon, models.KindOrder,
}

// ProcessSyncRun executes one queued run: it pushes every canonical entity of
// the requested kinds touched inside the lookback window to the run's
// platform. A redelivered message for a run that already left QUEUED is a
// no-op.
func (s *Syncer) ProcessSyncRun(ctx context.Context, runId uint) error {
	db := config.GetDB()

	var run models.SyncRun
	if err := db.WithContext(ctx).Take(&run, runId).Error; err != nil {
		// An unknown run id cannot become processable by redelivery.
		config.LogWarn(s.logger, moduleName, "ProcessSyncRun", "load", map[string]interface{}{
			"runId": runId,
		}, "run not found, acked")
		return nil
	}
	if run.Status != models.SyncRunStatusQueued {
		return nil
	}

	started := time.Now()
	if err := db.WithContext(ctx).Model(&run).Updates(map[string]interface{}{
		"status":     models.SyncRunStatusRunning,
		"started_at": &started,
	}).Error; err != nil {
		return err
	}

	kinds := allSyncKinds
	if len(run.KindsJSON) > 0 {
		var names []string
		if err := json.Unmarshal(run.KindsJSON, &names); err == nil && len(names) > 0 {
			kinds = kinds[:0]
			for _, name := range names {
				if kind, ok := kindFromResource(name); ok {
					kinds = append(kinds, kind)
				}
			}
		}
	}

	since := started.Add(-runLookback())
	limit := runBatchLimit()

	synced, errCount := 0, 0
	stats := map[string]map[string]int{}
	for _, kind := range kinds {
		kindStats := map[string]int{"synced": 0, "errors": 0}
		stats[string(kind)] = kindStats

		entities, err := s.repo.UpdatedSince(ctx, kind, since, limit)
		if err != nil {
			return err
		}
		for _, entity := range entities {
			if err := s.SyncEntity(ctx, entity, run.Platform); err != nil {
				errCount++
				kindStats["errors"]++
				s.recordSyncError(ctx, &run, entity, err)
				continue
			}
			synced++
			kindStats["synced"]++
		}
	}

	finished := time.Now()
	statsJSON, _ := json.Marshal(stats)
	status := models.SyncRunStatusSuccess
	if errCount > 0 {
		status = models.SyncRunStatusPartial
		if synced == 0 {
			status = models.SyncRunStatusFailed
		}
	}
	return db.WithContext(ctx).Model(&run).Updates(map[string]interface{}{
		"status":         status,
		"stats_json":     statsJSON,
		"records_synced": synced,
		"error_count":    errCount,
		"finished_at":    &finished,
		"duration_ms":    finished.Sub(started).Milliseconds(),
	}).Error
}

func (s *Syncer) recordSyncError(ctx context.Context, run *models.SyncRun, entity models.Syncable, cause error) {
	errorCode := "SYNC_FAILED"
	retryable := true
	var (
		apiErr        *RemoteApiError
		validationErr *ValidationError
		cfgErr        *ConfigurationError
	)
	switch {
	case errors.As(cause, &apiErr):
		errorCode = "REMOTE_API_ERROR"
		retryable = apiErr.Status >= 500 || apiErr.Status == 429
	case errors.As(cause, &validationErr):
		errorCode = "VALIDATION_ERROR"
		retryable = false
	case errors.As(cause, &cfgErr):
		errorCode = "NOT_CONFIGURED"
		retryable = false
	}

	payload, _ := json.Marshal(entity)
	record := &models.SyncError{
		SyncRunId:   run.ID,
		Platform:    run.Platform,
		EntityType:  string(entity.Kind()),
		ExternalId:  entity.ExternalIdFor(run.Platform),
		ErrorCode:   errorCode,
		Message:     cause.Error(),
		PayloadJSON: payload,
		Retryable:   retryable,
	}
	if err := config.GetDB().WithContext(ctx).Create(record).Error; err != nil {
		config.LogError(s.logger, moduleName, "recordSyncError", run.Platform, nil, err)
	}
}
