// Package sheet provides the client for the external tabular source: the
// staff-edited Google Sheets spreadsheet that mirrors the seller ledger.
//
// # Addressing
//
// The provider's own layout is preserved exactly: row 1 holds column headers,
// data starts at row 2, and every row index crossing the package boundary is
// 1-based. Values inside a row are addressed by header name, never by
// position, so staff reordering columns does not corrupt a sync.
//
// # Session Model
//
// Authentication happens once, when NewClient builds the API service from
// service-account credentials. The header row is read once per session and
// cached; InvalidateHeaders forces a re-read after a known layout change.
//
// # Quota
//
// Every call passes through the injected ratelimit.Limiter and carries a
// bounded timeout. Quota rejections (HTTP 429) surface as *QuotaError with
// the server's Retry-After hint attached; authentication failures surface as
// ErrAuthentication and are never retried by this package. BatchUpdate
// exists specifically to fold many row writes into one quota slot.
package sheet
