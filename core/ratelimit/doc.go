// Package ratelimit provides the shared quota gate for spreadsheet API calls.
//
// The external tabular source enforces a hard per-minute request quota. Every
// call the application makes against it, regardless of which sync target
// initiated it, must pass through a single Limiter so the process-wide budget
// is never overspent.
//
// # Window Model
//
// The limiter counts requests inside wall-clock windows (not sliding, not
// request-count based). When a window expires the counter resets. An internal
// token-bucket smoother additionally spaces requests inside the window, since
// the provider also rejects bursts that are technically under quota.
//
// # Rejection Policy
//
// When the window is exhausted, Execute rejects with *LimitError instead of
// queueing. The error implements RetryAfterHint, so the retry executor sleeps
// until the window resets and tries again. Callers that cannot wait observe
// the failure immediately.
//
// # Construction
//
// The Limiter is constructed once in the command wiring and passed to every
// sheet client. There is deliberately no package-level instance.
package ratelimit
