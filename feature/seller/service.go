package seller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"broker-office/core/ratelimit"
	"broker-office/core/snapshot"
	"broker-office/core/syncengine"
	"broker-office/core/synclog"

	"go.uber.org/zap"
)

// Trigger values recorded with each cycle.
const (
	TriggerManual    = "manual"
	TriggerScheduled = "scheduled"
)

// ErrSyncSuspended is returned when an automated cycle is skipped because
// the target's recent history is failing. Manual cycles bypass the gate so
// an operator can force a run after fixing the cause.
var ErrSyncSuspended = errors.New("automatic sync suspended: target is failing")

type cycleRunner interface {
	RunCycle(ctx context.Context, target, trigger string, opts syncengine.CycleOptions) (*syncengine.CycleResult, error)
	RunExport(ctx context.Context, target, trigger string) (*syncengine.CycleResult, error)
	TargetState(target string) syncengine.State
	WithTargetLock(target string, fn func() error) error
	InvalidateBaseline(target string)
}

type snapshotter interface {
	Create(ctx context.Context, target, description string) (*snapshot.Snapshot, error)
	List(ctx context.Context, target string, limit int) ([]snapshot.Snapshot, error)
	Delete(ctx context.Context, id string) error
	Rollback(ctx context.Context, target, id string) (*snapshot.RollbackResult, error)
	CleanupOld(ctx context.Context, target string) (int, error)
}

type healthChecker interface {
	Health(ctx context.Context, target string) (*synclog.HealthReport, error)
}

type historyReader interface {
	Recent(ctx context.Context, target string, limit int) ([]synclog.SyncLog, error)
}

// StatusReport is the aggregate view returned by the status endpoint.
type StatusReport struct {
	Target string                `json:"target"`
	State  syncengine.State      `json:"state"`
	Usage  ratelimit.Usage       `json:"quota_usage"`
	Health *synclog.HealthReport `json:"health"`
}

// Service wires the sync engine, snapshots, and health reporting for the
// seller target.
type Service struct {
	engine    cycleRunner
	snapshots snapshotter
	health    healthChecker
	history   historyReader
	limiter   *ratelimit.Limiter
	cfg       syncengine.Config
	logger    *zap.Logger
}

// NewService creates the seller sync service.
func NewService(
	engine cycleRunner,
	snapshots snapshotter,
	health healthChecker,
	history historyReader,
	limiter *ratelimit.Limiter,
	cfg syncengine.Config,
	logger *zap.Logger,
) *Service {
	return &Service{
		engine:    engine,
		snapshots: snapshots,
		health:    health,
		history:   history,
		limiter:   limiter,
		cfg:       cfg,
		logger:    logger,
	}
}

// Sync runs one sheet-to-store cycle. Scheduled triggers are gated on
// target health; a pre-sync snapshot is captured when configured so
// deletions can be rolled back.
func (s *Service) Sync(ctx context.Context, trigger string, forceRefresh bool) (*syncengine.CycleResult, error) {
	if trigger == TriggerScheduled {
		if err := s.checkNotFailing(ctx); err != nil {
			return nil, err
		}
	}

	if s.cfg.SnapshotBeforeSync {
		desc := fmt.Sprintf("pre-sync (%s)", trigger)
		if _, err := s.snapshots.Create(ctx, s.cfg.Target, desc); err != nil {
			return nil, fmt.Errorf("pre-sync snapshot failed: %w", err)
		}
	}

	result, err := s.engine.RunCycle(ctx, s.cfg.Target, trigger, syncengine.CycleOptions{ForceRefresh: forceRefresh})
	if err != nil {
		return result, err
	}

	if removed, cleanupErr := s.snapshots.CleanupOld(ctx, s.cfg.Target); cleanupErr != nil {
		s.logger.Warn("snapshot cleanup failed", zap.Error(cleanupErr))
	} else if removed > 0 {
		s.logger.Info("pruned expired snapshots", zap.Int("removed", removed))
	}
	return result, nil
}

// Export runs one store-to-sheet cycle.
func (s *Service) Export(ctx context.Context, trigger string) (*syncengine.CycleResult, error) {
	if trigger == TriggerScheduled {
		if err := s.checkNotFailing(ctx); err != nil {
			return nil, err
		}
	}
	return s.engine.RunExport(ctx, s.cfg.Target, trigger)
}

// Rollback restores the canonical store from a snapshot. It holds the
// target's operation slot so no cycle interleaves with the restore, and
// drops the cached baseline afterwards.
func (s *Service) Rollback(ctx context.Context, snapshotID string) (*snapshot.RollbackResult, error) {
	var result *snapshot.RollbackResult
	err := s.engine.WithTargetLock(s.cfg.Target, func() error {
		var rollbackErr error
		result, rollbackErr = s.snapshots.Rollback(ctx, s.cfg.Target, snapshotID)
		return rollbackErr
	})
	if err != nil {
		return nil, err
	}
	s.engine.InvalidateBaseline(s.cfg.Target)
	return result, nil
}

// CreateSnapshot captures a snapshot on demand.
func (s *Service) CreateSnapshot(ctx context.Context, description string) (*snapshot.Snapshot, error) {
	return s.snapshots.Create(ctx, s.cfg.Target, description)
}

// ListSnapshots returns the target's snapshots, newest first.
func (s *Service) ListSnapshots(ctx context.Context, limit int) ([]snapshot.Snapshot, error) {
	return s.snapshots.List(ctx, s.cfg.Target, limit)
}

// DeleteSnapshot removes a snapshot.
func (s *Service) DeleteSnapshot(ctx context.Context, id string) error {
	return s.snapshots.Delete(ctx, id)
}

// CleanupSnapshots removes snapshots past the retention period and reports
// how many were deleted. The newest snapshot is always kept.
func (s *Service) CleanupSnapshots(ctx context.Context) (int, error) {
	return s.snapshots.CleanupOld(ctx, s.cfg.Target)
}

// Status aggregates the target's current state, quota usage, and health.
func (s *Service) Status(ctx context.Context) (*StatusReport, error) {
	health, err := s.health.Health(ctx, s.cfg.Target)
	if err != nil {
		return nil, err
	}
	return &StatusReport{
		Target: s.cfg.Target,
		State:  s.engine.TargetState(s.cfg.Target),
		Usage:  s.limiter.Usage(),
		Health: health,
	}, nil
}

// History returns recent cycle outcomes, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]synclog.SyncLog, error) {
	return s.history.Recent(ctx, s.cfg.Target, limit)
}

// StartScheduler launches the automated cycle loop when auto sync is
// enabled. It returns immediately; the loop stops when ctx is cancelled.
func (s *Service) StartScheduler(ctx context.Context) {
	if !s.cfg.AutoSync {
		return
	}
	interval := time.Duration(s.cfg.IntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		s.logger.Info("sync scheduler started",
			zap.String("target", s.cfg.Target),
			zap.Duration("interval", interval))

		for {
			select {
			case <-ctx.Done():
				s.logger.Info("sync scheduler stopped")
				return
			case <-ticker.C:
				if _, err := s.Sync(ctx, TriggerScheduled, false); err != nil {
					if errors.Is(err, ErrSyncSuspended) || errors.Is(err, syncengine.ErrAlreadyRunning) {
						s.logger.Warn("scheduled sync skipped", zap.Error(err))
						continue
					}
					s.logger.Error("scheduled sync failed", zap.Error(err))
				}
			}
		}
	}()
}

func (s *Service) checkNotFailing(ctx context.Context) error {
	report, err := s.health.Health(ctx, s.cfg.Target)
	if err != nil {
		// Health being unreadable is no reason to skip a cycle.
		s.logger.Warn("health check failed, proceeding with sync", zap.Error(err))
		return nil
	}
	if report.Status == synclog.HealthFailing {
		return fmt.Errorf("%w: %d consecutive failures", ErrSyncSuspended, report.ConsecutiveFailures)
	}
	return nil
}
