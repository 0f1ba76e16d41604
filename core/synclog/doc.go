// Package synclog persists sync cycle outcomes and derives target health
// from them.
//
// Recorder writes one sync_logs row per cycle: Start inserts a running
// entry before the fetch begins, Complete fills in the final status,
// counters, and any per-record errors as JSON. The two-step shape means a
// crashed process leaves a visible running row instead of losing the cycle.
//
// HealthAggregator folds the recent completed cycles of a target into a
// healthy, degraded, or failing verdict. The scheduler consults it before
// automated cycles so a persistently failing target stops burning API quota
// until an operator intervenes.
package synclog
