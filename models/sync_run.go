package models

import "time"

const (
	SyncRunStatusQueued  = "QUEUED"
	SyncRunStatusRunning = "RUNNING"
	SyncRunStatusSuccess = "SUCCESS"
	SyncRunStatusPartial = "PARTIAL"
	SyncRunStatusFailed  = "FAILED"

	SyncTriggeredManual = "MANUAL"
	SyncTriggeredSweep  = "SWEEP"
	SyncTriggeredRetry  = "RETRY"
)

// SyncRun records one queued or triggered outbound sync pass against a
// platform, for history and retry.
type SyncRun struct {
	ID            uint       `gorm:"primary_key" json:"id"`
	Platform      string     `gorm:"index;size:50;not null" json:"platform"`
	Status        string     `gorm:"size:20;not null" json:"status"`
	TriggeredBy   string     `gorm:"size:20" json:"triggered_by"`
	KindsJSON     []byte     `gorm:"type:json" json:"kinds"`
	StatsJSON     []byte     `gorm:"type:json" json:"stats"`
	RecordsSynced int        `json:"records_synced"`
	ErrorCount    int        `json:"error_count"`
	ParentRunId   *uint      `gorm:"index" json:"parent_run_id"`
	StartedAt     *time.Time `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at"`
	DurationMs    int64      `json:"duration_ms"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// SyncError is one per-entity failure inside a run. The raw payload is kept
// for manual replay.
type SyncError struct {
	ID          uint      `gorm:"primary_key" json:"id"`
	SyncRunId   uint      `gorm:"index;not null" json:"sync_run_id"`
	Platform    string    `gorm:"size:50" json:"platform"`
	EntityType  string    `gorm:"size:50" json:"entity_type"`
	ExternalId  string    `gorm:"size:128" json:"external_id"`
	ErrorCode   string    `gorm:"size:64" json:"error_code"`
	Message     string    `gorm:"type:text" json:"message"`
	PayloadJSON []byte    `gorm:"type:json" json:"payload"`
	Retryable   bool      `gorm:"default:false" json:"retryable"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}
