package synclog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"broker-office/core/syncengine"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Recorder persists sync cycle outcomes. It implements
// syncengine.CycleRecorder.
type Recorder struct {
	db *gorm.DB
}

// NewRecorder creates a recorder backed by the given database.
func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{db: db}
}

// Start writes a running log entry and returns its ID.
func (r *Recorder) Start(ctx context.Context, target, trigger string) (string, error) {
	entry := SyncLog{
		ID:        uuid.NewString(),
		Target:    target,
		Trigger:   trigger,
		Status:    string(syncengine.StatusRunning),
		StartedAt: time.Now(),
	}
	if err := r.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return "", fmt.Errorf("failed to create sync log: %w", err)
	}
	return entry.ID, nil
}

// Complete finalizes a log entry with the cycle's result.
func (r *Recorder) Complete(ctx context.Context, logID string, result *syncengine.CycleResult) error {
	var errorsJSON string
	if len(result.Errors) > 0 {
		raw, err := json.Marshal(result.Errors)
		if err != nil {
			return fmt.Errorf("failed to marshal record errors: %w", err)
		}
		errorsJSON = string(raw)
	}

	now := time.Now()
	updates := map[string]any{
		"status":          string(result.Status),
		"completed_at":    &now,
		"records_added":   result.RecordsAdded,
		"records_updated": result.RecordsUpdated,
		"records_deleted": result.RecordsDeleted,
		"errors":          errorsJSON,
		"duration_ms":     result.Duration.Milliseconds(),
	}
	if err := r.db.WithContext(ctx).Model(&SyncLog{}).Where("id = ?", logID).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to complete sync log %s: %w", logID, err)
	}
	return nil
}

// Recent returns the latest log entries for a target, newest first.
func (r *Recorder) Recent(ctx context.Context, target string, limit int) ([]SyncLog, error) {
	var logs []SyncLog
	err := r.db.WithContext(ctx).
		Where("target = ?", target).
		Order("started_at DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load sync logs for %s: %w", target, err)
	}
	return logs, nil
}
