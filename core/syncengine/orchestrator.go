package syncengine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"broker-office/core/retry"
	"broker-office/core/sheet"

	"go.uber.org/zap"
)

// State is a cycle's position in its lifecycle. Failed and Completed are
// momentary: the target slot is released as soon as a cycle ends, so observed
// states are the active ones.
type State string

const (
	StateIdle        State = "idle"
	StateFetching    State = "fetching"
	StateDiffing     State = "diffing"
	StateApplying    State = "applying"
	StateMaintenance State = "maintenance"
)

// CycleOptions tunes a single cycle invocation.
type CycleOptions struct {
	// ForceRefresh discards the cached baseline and rebuilds it from the
	// canonical store before diffing.
	ForceRefresh bool
}

// Orchestrator coordinates sync cycles between the tabular source and the
// canonical store. It enforces at most one active operation per sync target;
// horizontally scaled deployments need an external mutex on top, which is a
// deployment concern, not handled here.
type Orchestrator struct {
	client   sheet.Client
	store    Store
	mapper   Mapper
	exec     *retry.Executor
	policy   retry.Policy
	cache    *baselineCache
	recorder CycleRecorder
	logger   *zap.Logger

	mu     sync.Mutex
	active map[string]State
}

// NewOrchestrator wires an orchestrator for one mapper/store pair. recorder
// may be nil, disabling sync logging.
func NewOrchestrator(
	client sheet.Client,
	store Store,
	mapper Mapper,
	exec *retry.Executor,
	policy retry.Policy,
	cacheTTL time.Duration,
	recorder CycleRecorder,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		client:   client,
		store:    store,
		mapper:   mapper,
		exec:     exec,
		policy:   policy,
		cache:    newBaselineCache(cacheTTL),
		recorder: recorder,
		logger:   logger,
		active:   make(map[string]State),
	}
}

// TargetState reports the current lifecycle state for a target.
func (o *Orchestrator) TargetState(target string) State {
	o.mu.Lock()
	defer o.mu.Unlock()
	if s, ok := o.active[target]; ok {
		return s
	}
	return StateIdle
}

// InvalidateBaseline drops the cached baseline for a target. Called after a
// rollback so the next cycle diffs against the restored store contents.
func (o *Orchestrator) InvalidateBaseline(target string) {
	o.cache.Invalidate(target)
}

// WithTargetLock runs fn while holding the target's operation slot. Rollback
// uses this so a restore never interleaves with an applying cycle on the same
// table.
func (o *Orchestrator) WithTargetLock(target string, fn func() error) error {
	if err := o.acquire(target, StateMaintenance); err != nil {
		return err
	}
	defer o.release(target)
	return fn()
}

// RunCycle executes one sheet-to-store sync cycle for the target.
//
// The fetch stage runs through the retry executor; if it ultimately fails the
// cycle is Failed, the baseline cache is left untouched, and the error is
// returned alongside the result. Per-record failures during apply never abort
// the cycle: they accumulate in the result and the cycle completes with
// partial_success.
func (o *Orchestrator) RunCycle(ctx context.Context, target, trigger string, opts CycleOptions) (*CycleResult, error) {
	start := time.Now()

	if err := o.acquire(target, StateFetching); err != nil {
		return nil, err
	}
	defer o.release(target)

	logID := o.recordStart(ctx, target, trigger)
	l := o.logger.With(zap.String("target", target), zap.String("trigger", trigger))
	l.Info("sync cycle started")

	// Fetching
	rows, err := retry.Do(ctx, o.exec, o.policy, func() ([]sheet.Row, error) {
		return o.client.ReadAll(ctx)
	}, zap.String("target", target), zap.String("stage", "fetch"))
	if err != nil {
		result := &CycleResult{
			Status:   StatusFailed,
			Errors:   []RecordError{{Message: err.Error()}},
			Duration: time.Since(start),
		}
		o.recordComplete(ctx, logID, result)
		l.Error("sync cycle failed during fetch", zap.Error(err))
		return result, fmt.Errorf("fetch failed for target %s: %w", target, err)
	}

	current, keyErrs := SnapshotFromRows(rows, o.mapper.KeyColumn())

	// Diffing: pure, cannot fail past this point
	o.setState(target, StateDiffing)
	baseline := o.baseline(ctx, target, opts.ForceRefresh, l)
	diff := Compare(baseline, current)
	l.Info("diff computed",
		zap.Int("added", len(diff.Added)),
		zap.Int("updated", len(diff.Updated)),
		zap.Int("deleted", len(diff.Deleted)),
	)

	// Applying
	o.setState(target, StateApplying)
	result := o.apply(ctx, diff)
	result.Errors = append(result.Errors, keyErrs...)

	if len(result.Errors) > 0 {
		result.Status = StatusPartial
	} else {
		result.Status = StatusSuccess
	}
	result.Duration = time.Since(start)

	// The fetched snapshot becomes the next cycle's baseline, even on
	// partial success: a record that failed to apply will not re-sync
	// until its row changes again, which is the documented trade-off.
	o.cache.Commit(target, current)

	o.recordComplete(ctx, logID, result)
	l.Info("sync cycle completed",
		zap.String("status", string(result.Status)),
		zap.Int("added", result.RecordsAdded),
		zap.Int("updated", result.RecordsUpdated),
		zap.Int("deleted", result.RecordsDeleted),
		zap.Int("errors", len(result.Errors)),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

// RunExport executes one store-to-sheet cycle: the canonical store's records
// become the desired sheet state. New records are appended, changed rows are
// written in a single batch call, and rows whose keys vanished from the store
// are deleted bottom-up so pending indices stay valid.
func (o *Orchestrator) RunExport(ctx context.Context, target, trigger string) (*CycleResult, error) {
	start := time.Now()

	if err := o.acquire(target, StateFetching); err != nil {
		return nil, err
	}
	defer o.release(target)

	logID := o.recordStart(ctx, target, trigger)
	l := o.logger.With(zap.String("target", target), zap.String("trigger", trigger))
	l.Info("export cycle started")

	fail := func(err error, stage string) (*CycleResult, error) {
		result := &CycleResult{
			Status:   StatusFailed,
			Errors:   []RecordError{{Message: err.Error()}},
			Duration: time.Since(start),
		}
		o.recordComplete(ctx, logID, result)
		l.Error("export cycle failed", zap.String("stage", stage), zap.Error(err))
		return result, fmt.Errorf("%s failed for target %s: %w", stage, target, err)
	}

	records, err := o.store.SelectAll(ctx)
	if err != nil {
		return fail(err, "store read")
	}

	rows, err := retry.Do(ctx, o.exec, o.policy, func() ([]sheet.Row, error) {
		return o.client.ReadAll(ctx)
	}, zap.String("target", target), zap.String("stage", "fetch"))
	if err != nil {
		return fail(err, "fetch")
	}

	keyCol := o.mapper.KeyColumn()
	sheetSnap, keyErrs := SnapshotFromRows(rows, keyCol)
	rowIndex := indexRowsByKey(rows, keyCol)

	o.setState(target, StateDiffing)
	desired := SnapshotFromRecords(records, o.mapper)
	diff := Compare(sheetSnap, desired)

	o.setState(target, StateApplying)
	result := &CycleResult{Errors: keyErrs}
	o.applyExport(ctx, diff, rowIndex, result, l)

	if len(result.Errors) > 0 {
		result.Status = StatusPartial
		o.cache.Invalidate(target)
	} else {
		result.Status = StatusSuccess
		o.cache.Commit(target, desired)
	}
	result.Duration = time.Since(start)

	o.recordComplete(ctx, logID, result)
	l.Info("export cycle completed",
		zap.String("status", string(result.Status)),
		zap.Int("added", result.RecordsAdded),
		zap.Int("updated", result.RecordsUpdated),
		zap.Int("deleted", result.RecordsDeleted),
		zap.Int("errors", len(result.Errors)),
	)
	return result, nil
}

// baseline picks and builds the diff baseline per DecideSource.
func (o *Orchestrator) baseline(ctx context.Context, target string, forceRefresh bool, l *zap.Logger) Snapshot {
	snap, age, ok := o.cache.Get(target)
	if DecideSource(ok, age, o.cache.ttl, forceRefresh) == SourceCache {
		return snap
	}

	rebuilt, err := o.cache.Rebuild(target, func() (Snapshot, error) {
		records, err := o.store.SelectAll(ctx)
		if err != nil {
			return nil, err
		}
		return SnapshotFromRecords(records, o.mapper), nil
	})
	if err != nil {
		// A missing baseline only suppresses delete detection for this
		// cycle; adds and updates still apply as upserts.
		l.Warn("baseline rebuild failed, diffing against empty snapshot", zap.Error(err))
		return Snapshot{}
	}
	return rebuilt
}

// apply runs the diff against the canonical store, accumulating per-record
// failures. A context cancellation stops between records, never mid-write.
func (o *Orchestrator) apply(ctx context.Context, diff DiffResult) *CycleResult {
	result := &CycleResult{}

	cancelled := func(key string) bool {
		if ctx.Err() != nil {
			result.Errors = append(result.Errors, RecordError{Key: key, Message: "cycle cancelled: " + ctx.Err().Error()})
			return true
		}
		return false
	}

	for _, entry := range diff.Added {
		if cancelled(entry.Key) {
			return result
		}
		rec, recErr := o.toRecord(entry)
		if recErr != nil {
			result.Errors = append(result.Errors, *recErr)
			continue
		}
		if err := o.store.Insert(ctx, rec); err != nil {
			result.Errors = append(result.Errors, RecordError{Key: entry.Key, Message: err.Error()})
			continue
		}
		result.RecordsAdded++
	}

	for _, entry := range diff.Updated {
		if cancelled(entry.Key) {
			return result
		}
		rec, recErr := o.toRecord(entry)
		if recErr != nil {
			result.Errors = append(result.Errors, *recErr)
			continue
		}
		if err := o.store.Update(ctx, entry.Key, rec); err != nil {
			result.Errors = append(result.Errors, RecordError{Key: entry.Key, Message: err.Error()})
			continue
		}
		result.RecordsUpdated++
	}

	for _, key := range diff.Deleted {
		if cancelled(key) {
			return result
		}
		if err := o.store.Delete(ctx, key); err != nil {
			result.Errors = append(result.Errors, RecordError{Key: key, Message: err.Error()})
			continue
		}
		result.RecordsDeleted++
	}

	return result
}

// applyExport pushes the diff to the sheet. Updates are folded into a single
// batch write; deletes run in descending row order because each deletion
// shifts the rows below it.
func (o *Orchestrator) applyExport(ctx context.Context, diff DiffResult, rowIndex map[string]int64, result *CycleResult, l *zap.Logger) {
	for _, entry := range diff.Added {
		if ctx.Err() != nil {
			result.Errors = append(result.Errors, RecordError{Key: entry.Key, Message: "cycle cancelled: " + ctx.Err().Error()})
			return
		}
		_, err := retry.Do(ctx, o.exec, o.policy, func() (struct{}, error) {
			return struct{}{}, o.client.AppendRow(ctx, entry.Row)
		}, zap.String("key", entry.Key), zap.String("stage", "append"))
		if err != nil {
			result.Errors = append(result.Errors, RecordError{Key: entry.Key, Message: err.Error()})
			continue
		}
		result.RecordsAdded++
	}

	if len(diff.Updated) > 0 {
		updates := make([]sheet.RowUpdate, 0, len(diff.Updated))
		for _, entry := range diff.Updated {
			idx, ok := rowIndex[entry.Key]
			if !ok {
				result.Errors = append(result.Errors, RecordError{Key: entry.Key, Message: "row index not found for update"})
				continue
			}
			updates = append(updates, sheet.RowUpdate{Index: idx, Row: entry.Row})
		}
		if len(updates) > 0 {
			_, err := retry.Do(ctx, o.exec, o.policy, func() (struct{}, error) {
				return struct{}{}, o.client.BatchUpdate(ctx, updates)
			}, zap.Int("rows", len(updates)), zap.String("stage", "batch_update"))
			if err != nil {
				for _, entry := range diff.Updated {
					result.Errors = append(result.Errors, RecordError{Key: entry.Key, Message: err.Error()})
				}
			} else {
				result.RecordsUpdated += len(updates)
			}
		}
	}

	// Descending order keeps the remaining indices stable while rows vanish.
	deleteIdx := make([]int64, 0, len(diff.Deleted))
	idxKey := make(map[int64]string, len(diff.Deleted))
	for _, key := range diff.Deleted {
		if idx, ok := rowIndex[key]; ok {
			deleteIdx = append(deleteIdx, idx)
			idxKey[idx] = key
		}
	}
	sort.Slice(deleteIdx, func(i, j int) bool { return deleteIdx[i] > deleteIdx[j] })

	for _, idx := range deleteIdx {
		if ctx.Err() != nil {
			result.Errors = append(result.Errors, RecordError{Key: idxKey[idx], Message: "cycle cancelled: " + ctx.Err().Error()})
			return
		}
		_, err := retry.Do(ctx, o.exec, o.policy, func() (struct{}, error) {
			return struct{}{}, o.client.DeleteRow(ctx, idx)
		}, zap.String("key", idxKey[idx]), zap.String("stage", "delete"))
		if err != nil {
			result.Errors = append(result.Errors, RecordError{Key: idxKey[idx], Message: err.Error()})
			continue
		}
		result.RecordsDeleted++
	}
}

// toRecord validates and maps one source row, reporting failures as
// per-record errors instead of propagating them.
func (o *Orchestrator) toRecord(entry DiffEntry) (Record, *RecordError) {
	if v := o.mapper.Validate(entry.Row); !v.IsValid {
		return Record{}, &RecordError{Key: entry.Key, Message: "validation failed: " + strings.Join(v.Errors, "; ")}
	}
	rec, err := o.mapper.ToCanonical(entry.Row)
	if err != nil {
		return Record{}, &RecordError{Key: entry.Key, Message: err.Error()}
	}
	return rec, nil
}

func (o *Orchestrator) acquire(target string, initial State) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if state, busy := o.active[target]; busy {
		return fmt.Errorf("%w: %s is %s", ErrAlreadyRunning, target, state)
	}
	o.active[target] = initial
	return nil
}

func (o *Orchestrator) setState(target string, s State) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.active[target] = s
}

func (o *Orchestrator) release(target string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.active, target)
}

func (o *Orchestrator) recordStart(ctx context.Context, target, trigger string) string {
	if o.recorder == nil {
		return ""
	}
	id, err := o.recorder.Start(ctx, target, trigger)
	if err != nil {
		o.logger.Warn("failed to record sync start", zap.Error(err))
		return ""
	}
	return id
}

func (o *Orchestrator) recordComplete(ctx context.Context, logID string, result *CycleResult) {
	if o.recorder == nil || logID == "" {
		return
	}
	if err := o.recorder.Complete(ctx, logID, result); err != nil {
		o.logger.Warn("failed to record sync completion", zap.Error(err))
	}
}

// indexRowsByKey maps business keys to their 1-based sheet row indices.
// Data rows start at row 2 because row 1 holds the header.
func indexRowsByKey(rows []sheet.Row, keyColumn string) map[string]int64 {
	idx := make(map[string]int64, len(rows))
	for i, row := range rows {
		if key := keyFromRow(row, keyColumn); key != "" {
			idx[key] = int64(i + 2)
		}
	}
	return idx
}
