package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"broker-office/core/storage"
	"broker-office/core/syncengine"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a snapshot ID does not exist.
var ErrNotFound = errors.New("snapshot not found")

const payloadVersion = 1

// payload is the JSON document written to object storage.
type payload struct {
	Version   int                 `json:"version"`
	Target    string              `json:"target"`
	CreatedAt time.Time           `json:"created_at"`
	Records   []syncengine.Record `json:"records"`
}

// RollbackResult reports the outcome of a restore. A failed restore is
// visible from the result alone: Success is false, Error carries the cause,
// and SnapshotRecordCount says what the table should have held.
type RollbackResult struct {
	SnapshotID          string    `json:"snapshot_id"`
	Target              string    `json:"target"`
	Success             bool      `json:"success"`
	RestoredCount       int       `json:"restored_count"`
	SnapshotRecordCount int       `json:"snapshot_record_count"`
	Error               string    `json:"error,omitempty"`
	CreatedAt           time.Time `json:"snapshot_created_at"`
}

// Manager creates, restores, and prunes snapshots of a canonical store.
// Metadata rows live in the database; payloads live in object storage so
// large snapshots never bloat the database.
type Manager struct {
	db        *gorm.DB
	objects   storage.Client
	bucket    string
	canonical syncengine.Store
	cfg       Config
	logger    *zap.Logger
}

// NewManager wires a snapshot manager for one canonical store.
func NewManager(db *gorm.DB, objects storage.Client, bucket string, canonical syncengine.Store, cfg Config, logger *zap.Logger) *Manager {
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = 30
	}
	return &Manager{
		db:        db,
		objects:   objects,
		bucket:    bucket,
		canonical: canonical,
		cfg:       cfg,
		logger:    logger,
	}
}

// Create captures the canonical store's current records into a new snapshot.
func (m *Manager) Create(ctx context.Context, target, description string) (*Snapshot, error) {
	records, err := m.canonical.SelectAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read records for snapshot: %w", err)
	}

	meta := Snapshot{
		ID:          uuid.NewString(),
		Target:      target,
		CreatedAt:   time.Now(),
		RecordCount: len(records),
		Description: description,
	}
	meta.ObjectKey = fmt.Sprintf("snapshots/%s/%s.json", target, meta.ID)

	doc, err := json.Marshal(payload{
		Version:   payloadVersion,
		Target:    target,
		CreatedAt: meta.CreatedAt,
		Records:   records,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot payload: %w", err)
	}

	_, err = m.objects.PutObject(ctx, m.bucket, meta.ObjectKey,
		bytes.NewReader(doc), int64(len(doc)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return nil, fmt.Errorf("failed to upload snapshot payload: %w", err)
	}

	if err := m.db.WithContext(ctx).Create(&meta).Error; err != nil {
		// The payload is already uploaded; remove it so no orphan object
		// lingers without a metadata row.
		if rmErr := m.objects.RemoveObject(ctx, m.bucket, meta.ObjectKey, minio.RemoveObjectOptions{}); rmErr != nil {
			m.logger.Warn("failed to remove orphaned snapshot payload",
				zap.String("object_key", meta.ObjectKey), zap.Error(rmErr))
		}
		return nil, fmt.Errorf("failed to save snapshot metadata: %w", err)
	}

	m.logger.Info("snapshot created",
		zap.String("snapshot_id", meta.ID),
		zap.String("target", target),
		zap.Int("records", meta.RecordCount))
	return &meta, nil
}

// Get loads one snapshot's metadata.
func (m *Manager) Get(ctx context.Context, id string) (*Snapshot, error) {
	var meta Snapshot
	err := m.db.WithContext(ctx).Where("id = ?", id).First(&meta).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot %s: %w", id, err)
	}
	return &meta, nil
}

// List returns snapshots for a target, newest first.
func (m *Manager) List(ctx context.Context, target string, limit int) ([]Snapshot, error) {
	var metas []Snapshot
	err := m.db.WithContext(ctx).
		Where("target = ?", target).
		Order("created_at DESC").
		Limit(limit).
		Find(&metas).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots for %s: %w", target, err)
	}
	return metas, nil
}

// Delete removes a snapshot's payload and metadata.
func (m *Manager) Delete(ctx context.Context, id string) error {
	meta, err := m.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := m.objects.RemoveObject(ctx, m.bucket, meta.ObjectKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove snapshot payload %s: %w", meta.ObjectKey, err)
	}
	if err := m.db.WithContext(ctx).Delete(&Snapshot{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete snapshot metadata %s: %w", id, err)
	}
	return nil
}

// CleanupOld deletes snapshots older than the retention period and returns
// how many were removed. The newest snapshot of the target survives even
// when it is past retention, so a rollback point always exists.
func (m *Manager) CleanupOld(ctx context.Context, target string) (int, error) {
	cutoff := time.Now().AddDate(0, 0, -m.cfg.RetentionDays)

	var expired []Snapshot
	err := m.db.WithContext(ctx).
		Where("target = ? AND created_at < ?", target, cutoff).
		Order("created_at DESC").
		Find(&expired).Error
	if err != nil {
		return 0, fmt.Errorf("failed to find expired snapshots for %s: %w", target, err)
	}
	if len(expired) == 0 {
		return 0, nil
	}

	// When every snapshot is expired, the newest expired one is also the
	// newest overall and must be spared.
	var newerCount int64
	err = m.db.WithContext(ctx).Model(&Snapshot{}).
		Where("target = ? AND created_at >= ?", target, cutoff).
		Count(&newerCount).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count recent snapshots for %s: %w", target, err)
	}
	if newerCount == 0 {
		expired = expired[1:]
	}

	removed := 0
	for _, meta := range expired {
		if err := m.Delete(ctx, meta.ID); err != nil {
			m.logger.Warn("failed to prune snapshot",
				zap.String("snapshot_id", meta.ID), zap.Error(err))
			continue
		}
		removed++
	}
	return removed, nil
}

// Rollback restores the canonical store to a snapshot's contents. The
// replacement is atomic at the store level: either every record from the
// snapshot is restored or the store keeps its current contents. A restore
// that fails after the payload loaded still returns a result, so callers
// can see what was attempted without digging through logs.
func (m *Manager) Rollback(ctx context.Context, target, id string) (*RollbackResult, error) {
	meta, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if meta.Target != target {
		// Restoring another target's records into this store would be a
		// silent cross-wiring. Treat the id as unknown for this target.
		return nil, fmt.Errorf("%w: snapshot %s belongs to target %s", ErrNotFound, id, meta.Target)
	}

	reader, err := m.objects.GetObject(ctx, m.bucket, meta.ObjectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch snapshot payload %s: %w", meta.ObjectKey, err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot payload %s: %w", meta.ObjectKey, err)
	}

	var doc payload
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot payload %s: %w", meta.ObjectKey, err)
	}
	if doc.Version != payloadVersion {
		return nil, fmt.Errorf("unsupported snapshot payload version %d in %s", doc.Version, meta.ObjectKey)
	}

	if err := m.canonical.ReplaceAll(ctx, doc.Records); err != nil {
		restoreErr := fmt.Errorf("failed to restore snapshot %s: %w", id, err)
		return &RollbackResult{
			SnapshotID:          id,
			Target:              meta.Target,
			SnapshotRecordCount: meta.RecordCount,
			Error:               restoreErr.Error(),
			CreatedAt:           meta.CreatedAt,
		}, restoreErr
	}

	m.logger.Info("snapshot restored",
		zap.String("snapshot_id", id),
		zap.String("target", meta.Target),
		zap.Int("records", len(doc.Records)))
	return &RollbackResult{
		SnapshotID:          id,
		Target:              meta.Target,
		Success:             true,
		RestoredCount:       len(doc.Records),
		SnapshotRecordCount: meta.RecordCount,
		CreatedAt:           meta.CreatedAt,
	}, nil
}
