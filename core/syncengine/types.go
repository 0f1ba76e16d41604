package syncengine

import (
	"context"
	"time"

	"broker-office/core/sheet"
)

// Record is a logical business entity identified by an immutable business key
// (e.g. seller number "AA00001"). Fields is a flat mapping from field name to
// scalar value; no nested structures cross the sync boundary.
type Record struct {
	Key    string         `json:"key"`
	Fields map[string]any `json:"fields"`
}

// Snapshot is the comparison unit of one reconciliation pass: every known row
// indexed by business key. Within a pass, keys are unique on both sides.
type Snapshot map[string]sheet.Row

// DiffEntry pairs a business key with its current row content.
type DiffEntry struct {
	Key string
	Row sheet.Row
}

// DiffResult partitions the union of two snapshots' keys into added, updated
// and deleted sets. The sets are mutually exclusive; keys present in both
// snapshots with equal content appear in none of them.
type DiffResult struct {
	Added   []DiffEntry
	Updated []DiffEntry
	Deleted []string
}

// Empty reports whether the diff contains no changes.
func (d DiffResult) Empty() bool {
	return len(d.Added) == 0 && len(d.Updated) == 0 && len(d.Deleted) == 0
}

// Status is the terminal outcome of a sync cycle.
type Status string

const (
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusPartial Status = "partial_success"
	StatusFailed  Status = "failed"
)

// RecordError identifies a single record that could not be applied, without
// aborting the rest of the batch.
type RecordError struct {
	Key     string `json:"key"`
	Message string `json:"message"`
}

// CycleResult is the outcome contract of one sync cycle. Per-record failures
// are listed in Errors; the caller decides whether partial success is
// acceptable.
type CycleResult struct {
	Status         Status        `json:"status"`
	RecordsAdded   int           `json:"records_added"`
	RecordsUpdated int           `json:"records_updated"`
	RecordsDeleted int           `json:"records_deleted"`
	Errors         []RecordError `json:"errors"`
	Duration       time.Duration `json:"duration"`
}

// ValidationResult reports whether a source row can be mapped to a canonical
// record, with human-readable reasons when it cannot.
type ValidationResult struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors"`
}

// Mapper translates between spreadsheet rows and canonical records. It is an
// injected pure collaborator: the engine never knows spreadsheet column
// names, only the business key column it needs for indexing.
type Mapper interface {
	// KeyColumn returns the header name of the business key column.
	KeyColumn() string

	// ToCanonical converts a source row into a canonical record.
	ToCanonical(row sheet.Row) (Record, error)

	// ToTabular converts a canonical record into a source row.
	ToTabular(record Record) sheet.Row

	// Validate checks a source row before it is applied to the store.
	Validate(row sheet.Row) ValidationResult
}

// Store is the canonical system of record. The engine is agnostic to the
// backing technology; the seller feature implements it over MySQL.
type Store interface {
	Insert(ctx context.Context, record Record) error
	Update(ctx context.Context, key string, record Record) error
	Delete(ctx context.Context, key string) error
	SelectAll(ctx context.Context) ([]Record, error)

	// ReplaceAll swaps the entire table content for the given records,
	// atomically where the backing store supports transactions. Used by
	// snapshot rollback.
	ReplaceAll(ctx context.Context, records []Record) error
}

// CycleRecorder receives cycle lifecycle events. Implemented by the sync log;
// a nil recorder disables logging without branching at every call site.
type CycleRecorder interface {
	Start(ctx context.Context, target, trigger string) (string, error)
	Complete(ctx context.Context, logID string, result *CycleResult) error
}
