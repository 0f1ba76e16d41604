// Package snapshot captures point-in-time copies of a canonical store and
// restores them on demand.
//
// A snapshot splits into two pieces: a small metadata row in the database
// and a JSON payload of the full record set in object storage. Rollback
// swaps the store's contents for a payload in a single ReplaceAll, so a bad
// sync cycle can be undone atomically.
//
// CleanupOld enforces the retention window but always spares the newest
// snapshot of each target.
package snapshot
