// Package syncengine keeps the staff-edited spreadsheet and the canonical
// database reconciled, in both directions, under the source's rate limit.
//
// # Architecture
//
// The engine consists of three parts:
//
//  1. Diff: Compare partitions the union of two snapshots' business keys into
//     added, updated and deleted sets. Matching is strictly by key; content
//     equality goes through normalized scalar comparison because values are
//     freshly deserialized on every fetch.
//
//  2. Orchestrator: one cycle runs Fetching -> Diffing -> Applying. Fetch
//     failures (after retries) fail the cycle and leave the cached baseline
//     untouched, so the next cycle diffs from the same point. Per-record
//     apply failures accumulate instead of aborting; the cycle completes
//     with partial_success and accurate counts.
//
//  3. Baseline cache: the snapshot committed at the end of a successful
//     cycle becomes the next cycle's diff baseline, with a bounded TTL.
//     When no baseline survives (cold start, expiry, forced refresh) it is
//     rebuilt from the canonical store so deletions stay detectable across
//     restarts.
//
// # Concurrency
//
// At most one operation (cycle, export, or rollback via WithTargetLock) runs
// per sync target; overlapping requests fail fast with ErrAlreadyRunning.
// Concurrent manual edits between cycles resolve naively: the latest fetched
// state wins at cycle granularity, with no merging of intervening edits.
//
// # Collaborators
//
// Column mapping (Mapper), the canonical store (Store) and the sync log
// (CycleRecorder) are injected interfaces. The engine knows business keys
// and rows; it never knows spreadsheet column names or table schemas.
package syncengine
