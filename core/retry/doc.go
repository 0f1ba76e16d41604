// Package retry provides the bounded exponential-backoff executor used for
// every call against the external tabular source.
//
// Transient failures (network errors, HTTP 5xx, quota rejections) are retried
// up to the policy limit. Non-retryable failures (authentication, malformed
// data) abort immediately; the classification predicate is injected at
// construction. Errors implementing Hinted override the computed delay with
// the server-supplied wait, which is how quota rejections from the rate
// limiter and HTTP 429 Retry-After headers both steer the next attempt.
//
// Backoff waits use timer-based suspension via cenkalti/backoff, so a
// sleeping retry never blocks other sync targets or unrelated requests in the
// process.
package retry
