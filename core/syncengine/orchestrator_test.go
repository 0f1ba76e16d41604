package syncengine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"broker-office/core/retry"
	"broker-office/core/sheet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testRetryPolicy = retry.Policy{
	MaxRetries:   2,
	InitialDelay: time.Millisecond,
	MaxDelay:     5 * time.Millisecond,
	Multiplier:   2,
}

// fakeClient is an in-memory sheet.Client.
type fakeClient struct {
	mu      sync.Mutex
	rows    []sheet.Row
	readErr error
	// blockRead, when non-nil, stalls ReadAll until closed.
	blockRead chan struct{}

	appended     []sheet.Row
	batchCalls   int
	batchUpdates []sheet.RowUpdate
	deletedRows  []int64
}

func (f *fakeClient) Headers(ctx context.Context) ([]string, error) {
	return []string{"seller_number", "name", "price"}, nil
}

func (f *fakeClient) InvalidateHeaders() {}

func (f *fakeClient) ReadAll(ctx context.Context) ([]sheet.Row, error) {
	if f.blockRead != nil {
		<-f.blockRead
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}
	out := make([]sheet.Row, len(f.rows))
	copy(out, f.rows)
	return out, nil
}

func (f *fakeClient) ReadRange(ctx context.Context, a1Range string) ([]sheet.Row, error) {
	return f.ReadAll(ctx)
}

func (f *fakeClient) AppendRow(ctx context.Context, row sheet.Row) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appended = append(f.appended, row)
	return nil
}

func (f *fakeClient) UpdateRow(ctx context.Context, rowIndex int64, row sheet.Row) error {
	return nil
}

func (f *fakeClient) DeleteRow(ctx context.Context, rowIndex int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedRows = append(f.deletedRows, rowIndex)
	return nil
}

func (f *fakeClient) FindRowByColumn(ctx context.Context, column string, value any) (int64, bool, error) {
	return 0, false, nil
}

func (f *fakeClient) BatchUpdate(ctx context.Context, updates []sheet.RowUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchCalls++
	f.batchUpdates = append(f.batchUpdates, updates...)
	return nil
}

// fakeStore is an in-memory canonical store with per-key error injection.
// Insert overwrites by key, matching the canonical store's upsert.
type fakeStore struct {
	mu        sync.Mutex
	records   map[string]Record
	failKeys  map[string]error
	selectErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]Record), failKeys: make(map[string]error)}
}

func (s *fakeStore) Insert(ctx context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failKeys[record.Key]; err != nil {
		return err
	}
	s.records[record.Key] = record
	return nil
}

func (s *fakeStore) Update(ctx context.Context, key string, record Record) error {
	return s.Insert(ctx, record)
}

func (s *fakeStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failKeys[key]; err != nil {
		return err
	}
	delete(s.records, key)
	return nil
}

func (s *fakeStore) SelectAll(ctx context.Context) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selectErr != nil {
		return nil, s.selectErr
	}
	out := make([]Record, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	return out, nil
}

func (s *fakeStore) ReplaceAll(ctx context.Context, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]Record, len(records))
	for _, r := range records {
		s.records[r.Key] = r
	}
	return nil
}

// testMapper keys on seller_number and copies row fields verbatim.
type testMapper struct{}

func (testMapper) KeyColumn() string { return "seller_number" }

func (testMapper) ToCanonical(row sheet.Row) (Record, error) {
	fields := make(map[string]any, len(row))
	for k, v := range row {
		fields[k] = v
	}
	key, _ := fields["seller_number"].(string)
	return Record{Key: key, Fields: fields}, nil
}

func (testMapper) ToTabular(record Record) sheet.Row {
	row := make(sheet.Row, len(record.Fields))
	for k, v := range record.Fields {
		row[k] = v
	}
	return row
}

func (testMapper) Validate(row sheet.Row) ValidationResult {
	if name, _ := row["name"].(string); name == "INVALID" {
		return ValidationResult{IsValid: false, Errors: []string{"name is not acceptable"}}
	}
	return ValidationResult{IsValid: true}
}

func newTestOrchestrator(client *fakeClient, store *fakeStore) *Orchestrator {
	exec := retry.NewExecutor(zap.NewNop(), IsRetryable)
	return NewOrchestrator(client, store, testMapper{}, exec, testRetryPolicy, 5*time.Minute, nil, zap.NewNop())
}

func TestRunCycle_AddsNewRecord(t *testing.T) {
	client := &fakeClient{rows: []sheet.Row{
		{"seller_number": "AA1", "name": "Taro"},
	}}
	store := newFakeStore()
	o := newTestOrchestrator(client, store)

	result, err := o.RunCycle(context.Background(), "sellers", "manual", CycleOptions{})
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, 1, result.RecordsAdded)
	assert.Equal(t, 0, result.RecordsUpdated)
	assert.Equal(t, 0, result.RecordsDeleted)
	assert.Empty(t, result.Errors)

	require.Contains(t, store.records, "AA1")
	assert.Equal(t, "Taro", store.records["AA1"].Fields["name"])
}

func TestRunCycle_DetectsUpdateBetweenCycles(t *testing.T) {
	client := &fakeClient{rows: []sheet.Row{
		{"seller_number": "AA1", "name": "Taro"},
	}}
	store := newFakeStore()
	o := newTestOrchestrator(client, store)

	_, err := o.RunCycle(context.Background(), "sellers", "manual", CycleOptions{})
	require.NoError(t, err)

	client.mu.Lock()
	client.rows = []sheet.Row{{"seller_number": "AA1", "name": "Jiro"}}
	client.mu.Unlock()

	result, err := o.RunCycle(context.Background(), "sellers", "manual", CycleOptions{})
	require.NoError(t, err)

	assert.Equal(t, 0, result.RecordsAdded)
	assert.Equal(t, 1, result.RecordsUpdated)
	assert.Equal(t, 0, result.RecordsDeleted)
	assert.Equal(t, "Jiro", store.records["AA1"].Fields["name"])
}

func TestRunCycle_DetectsDeletion(t *testing.T) {
	client := &fakeClient{rows: []sheet.Row{
		{"seller_number": "AA1", "name": "Taro"},
		{"seller_number": "AA2", "name": "Hanako"},
	}}
	store := newFakeStore()
	o := newTestOrchestrator(client, store)

	_, err := o.RunCycle(context.Background(), "sellers", "manual", CycleOptions{})
	require.NoError(t, err)
	require.Len(t, store.records, 2)

	client.mu.Lock()
	client.rows = client.rows[:1]
	client.mu.Unlock()

	result, err := o.RunCycle(context.Background(), "sellers", "manual", CycleOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, result.RecordsDeleted)
	assert.NotContains(t, store.records, "AA2")
}

func TestRunCycle_RejectsConcurrentCycle(t *testing.T) {
	block := make(chan struct{})
	client := &fakeClient{
		rows:      []sheet.Row{{"seller_number": "AA1", "name": "Taro"}},
		blockRead: block,
	}
	store := newFakeStore()
	o := newTestOrchestrator(client, store)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = o.RunCycle(context.Background(), "sellers", "manual", CycleOptions{})
	}()

	// Wait until the first cycle holds the target slot.
	require.Eventually(t, func() bool {
		return o.TargetState("sellers") != StateIdle
	}, time.Second, time.Millisecond)

	_, err := o.RunCycle(context.Background(), "sellers", "manual", CycleOptions{})
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	// A different target is not blocked by the sellers cycle.
	assert.Equal(t, StateIdle, o.TargetState("buyers"))

	close(block)
	<-done
}

func TestRunCycle_FetchFailurePreservesBaseline(t *testing.T) {
	client := &fakeClient{rows: []sheet.Row{
		{"seller_number": "AA1", "name": "Taro"},
	}}
	store := newFakeStore()
	o := newTestOrchestrator(client, store)

	_, err := o.RunCycle(context.Background(), "sellers", "manual", CycleOptions{})
	require.NoError(t, err)

	client.mu.Lock()
	client.readErr = errors.New("network down")
	client.mu.Unlock()

	result, err := o.RunCycle(context.Background(), "sellers", "manual", CycleOptions{})
	require.Error(t, err)
	assert.Equal(t, StatusFailed, result.Status)

	// After the source recovers with identical data, nothing re-applies:
	// the baseline from the first successful cycle survived the failure.
	client.mu.Lock()
	client.readErr = nil
	client.mu.Unlock()

	result, err = o.RunCycle(context.Background(), "sellers", "manual", CycleOptions{})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, result.Status)
	assert.Zero(t, result.RecordsAdded)
	assert.Zero(t, result.RecordsUpdated)
	assert.Zero(t, result.RecordsDeleted)
}

func TestRunCycle_PerRecordFailuresAccumulate(t *testing.T) {
	client := &fakeClient{rows: []sheet.Row{
		{"seller_number": "AA1", "name": "Taro"},
		{"seller_number": "AA2", "name": "Hanako"},
		{"seller_number": "AA3", "name": "INVALID"},
	}}
	store := newFakeStore()
	store.failKeys["AA2"] = fmt.Errorf("constraint violation")
	o := newTestOrchestrator(client, store)

	result, err := o.RunCycle(context.Background(), "sellers", "manual", CycleOptions{})
	require.NoError(t, err)

	assert.Equal(t, StatusPartial, result.Status)
	assert.Equal(t, 1, result.RecordsAdded)
	require.Len(t, result.Errors, 2)

	keys := []string{result.Errors[0].Key, result.Errors[1].Key}
	assert.Contains(t, keys, "AA2")
	assert.Contains(t, keys, "AA3")
	assert.Contains(t, store.records, "AA1")
	assert.NotContains(t, store.records, "AA3")
}

func TestRunCycle_ColdStartRebuildsBaselineFromStore(t *testing.T) {
	client := &fakeClient{rows: []sheet.Row{
		{"seller_number": "AA1", "name": "Taro"},
	}}
	store := newFakeStore()
	// AA2 exists only in the store: the sheet row was removed while the
	// process was down. With the baseline rebuilt from the store, the
	// deletion is still detected.
	store.records["AA2"] = Record{Key: "AA2", Fields: map[string]any{"seller_number": "AA2", "name": "Hanako"}}
	o := newTestOrchestrator(client, store)

	result, err := o.RunCycle(context.Background(), "sellers", "manual", CycleOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, result.RecordsAdded)
	assert.Equal(t, 1, result.RecordsDeleted)
	assert.NotContains(t, store.records, "AA2")
}

func TestRunCycle_BaselineRebuildFailureKeepsSheetEdits(t *testing.T) {
	client := &fakeClient{rows: []sheet.Row{
		{"seller_number": "AA1", "name": "Jiro"},
	}}
	store := newFakeStore()
	store.records["AA1"] = Record{Key: "AA1", Fields: map[string]any{"seller_number": "AA1", "name": "Taro"}}
	store.selectErr = errors.New("connection reset")
	o := newTestOrchestrator(client, store)

	// The rebuild fails, so the changed row diffs as added against the
	// empty fallback baseline. Insert upserts, so the edit overwrites the
	// stale row instead of bouncing off the unique key and getting lost.
	result, err := o.RunCycle(context.Background(), "sellers", "manual", CycleOptions{})
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, 1, result.RecordsAdded)
	assert.Equal(t, "Jiro", store.records["AA1"].Fields["name"])
}

func TestRunCycle_CancellationStopsBetweenRecords(t *testing.T) {
	rows := make([]sheet.Row, 50)
	for i := range rows {
		rows[i] = sheet.Row{"seller_number": fmt.Sprintf("AA%03d", i), "name": "x"}
	}
	client := &fakeClient{rows: rows}
	store := newFakeStore()
	o := newTestOrchestrator(client, store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := o.RunCycle(ctx, "sellers", "manual", CycleOptions{})
	// A cancelled fetch fails the cycle before Applying even starts.
	if err != nil {
		assert.Equal(t, StatusFailed, result.Status)
		return
	}
	assert.Equal(t, StatusPartial, result.Status)
	assert.Less(t, result.RecordsAdded, len(rows))
}

func TestRunExport_PushesStoreStateToSheet(t *testing.T) {
	client := &fakeClient{rows: []sheet.Row{
		{"seller_number": "AA1", "name": "Old Name", "price": "100"},
		{"seller_number": "AA9", "name": "Orphan", "price": "1"},
	}}
	store := newFakeStore()
	store.records["AA1"] = Record{Key: "AA1", Fields: map[string]any{"seller_number": "AA1", "name": "New Name", "price": "100"}}
	store.records["AA2"] = Record{Key: "AA2", Fields: map[string]any{"seller_number": "AA2", "name": "Fresh", "price": "200"}}
	o := newTestOrchestrator(client, store)

	result, err := o.RunExport(context.Background(), "sellers", "manual")
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, 1, result.RecordsAdded)   // AA2 appended
	assert.Equal(t, 1, result.RecordsUpdated) // AA1 rewritten
	assert.Equal(t, 1, result.RecordsDeleted) // AA9 removed

	require.Len(t, client.appended, 1)
	assert.Equal(t, "AA2", client.appended[0]["seller_number"])

	// All updates travel in one underlying call.
	assert.Equal(t, 1, client.batchCalls)
	require.Len(t, client.batchUpdates, 1)
	assert.Equal(t, int64(2), client.batchUpdates[0].Index)

	require.Len(t, client.deletedRows, 1)
	assert.Equal(t, int64(3), client.deletedRows[0])
}

func TestRunExport_DeletesBottomUp(t *testing.T) {
	client := &fakeClient{rows: []sheet.Row{
		{"seller_number": "AA1"},
		{"seller_number": "AA2"},
		{"seller_number": "AA3"},
	}}
	store := newFakeStore() // empty: everything on the sheet goes
	o := newTestOrchestrator(client, store)

	result, err := o.RunExport(context.Background(), "sellers", "manual")
	require.NoError(t, err)

	assert.Equal(t, 3, result.RecordsDeleted)
	assert.Equal(t, []int64{4, 3, 2}, client.deletedRows)
}
