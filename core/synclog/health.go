package synclog

import (
	"context"
	"fmt"
	"time"

	"broker-office/core/syncengine"

	"gorm.io/gorm"
)

// HealthStatus is the aggregated condition of a sync target.
type HealthStatus string

const (
	HealthHealthy  HealthStatus = "healthy"
	HealthDegraded HealthStatus = "degraded"
	HealthFailing  HealthStatus = "failing"
)

// HealthReport summarizes the recent cycle history of one target.
type HealthReport struct {
	Target              string       `json:"target"`
	Status              HealthStatus `json:"status"`
	WindowSize          int          `json:"window_size"`
	Failures            int          `json:"failures"`
	Partials            int          `json:"partials"`
	ConsecutiveFailures int          `json:"consecutive_failures"`
	SuccessRate         float64      `json:"success_rate"`
	AvgDurationMs       int64        `json:"avg_duration_ms"`
	LastSuccessAt       *time.Time   `json:"last_success_at,omitempty"`
	LastError           string       `json:"last_error,omitempty"`
}

// HealthAggregator evaluates target health from persisted sync logs.
type HealthAggregator struct {
	db  *gorm.DB
	cfg Config
}

// NewHealthAggregator creates an aggregator with the given thresholds.
func NewHealthAggregator(db *gorm.DB, cfg Config) *HealthAggregator {
	if cfg.HealthWindow <= 0 {
		cfg.HealthWindow = 10
	}
	if cfg.FailingStreak <= 0 {
		cfg.FailingStreak = 3
	}
	return &HealthAggregator{db: db, cfg: cfg}
}

// Health inspects the last HealthWindow completed cycles of a target.
//
// A target with no history is healthy. It is failing once FailingStreak
// consecutive cycles failed, degraded when the window contains any failure
// or partial success, healthy otherwise.
func (h *HealthAggregator) Health(ctx context.Context, target string) (*HealthReport, error) {
	var logs []SyncLog
	err := h.db.WithContext(ctx).
		Where("target = ? AND status <> ?", target, string(syncengine.StatusRunning)).
		Order("started_at DESC").
		Limit(h.cfg.HealthWindow).
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load sync history for %s: %w", target, err)
	}

	report := &HealthReport{
		Target:     target,
		Status:     HealthHealthy,
		WindowSize: len(logs),
	}

	streakBroken := false
	var totalDuration int64
	for _, entry := range logs {
		totalDuration += entry.DurationMs
		switch syncengine.Status(entry.Status) {
		case syncengine.StatusFailed:
			report.Failures++
			if !streakBroken {
				report.ConsecutiveFailures++
			}
		case syncengine.StatusPartial:
			report.Partials++
			streakBroken = true
		default:
			streakBroken = true
			if report.LastSuccessAt == nil {
				at := entry.StartedAt
				report.LastSuccessAt = &at
			}
		}
		if report.LastError == "" && entry.Errors != "" {
			report.LastError = entry.Errors
		}
	}

	if len(logs) > 0 {
		report.SuccessRate = float64(len(logs)-report.Failures-report.Partials) / float64(len(logs))
		report.AvgDurationMs = totalDuration / int64(len(logs))
	}

	switch {
	case report.ConsecutiveFailures >= h.cfg.FailingStreak:
		report.Status = HealthFailing
	case report.Failures > 0 || report.Partials > 0:
		report.Status = HealthDegraded
	}
	return report, nil
}
