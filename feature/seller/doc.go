// Package seller implements the seller sync target: the back-office
// spreadsheet of property sellers reconciled against the canonical sellers
// table.
//
// The seller_number column (format AA00000) is the business key on both
// sides. The Mapper normalizes sheet cells into canonical records and back;
// the Store persists them through GORM; the Service ties the sync engine,
// snapshots, and health reporting together and gates automated cycles on
// target health.
//
// # Components
//
//   - Mapper: sheet row <-> canonical record conversion and row validation.
//   - Store: the canonical sellers table, including the transactional
//     ReplaceAll that rollback depends on.
//   - Service: cycle orchestration, snapshots, status aggregation, and the
//     background scheduler.
//   - Handler: HTTP endpoints for cycles, status, history, and snapshots.
//
// # HTTP Endpoints
//
//   - POST /sync/run : run one sheet-to-store cycle
//   - POST /sync/export : run one store-to-sheet cycle
//   - GET  /sync/status : state, quota usage, and health
//   - GET  /sync/history : recent cycle outcomes
//   - POST /snapshots : capture a snapshot
//   - GET  /snapshots : list snapshots
//   - POST /snapshots/:id/rollback : restore the canonical table
//   - DELETE /snapshots/:id : delete a snapshot
package seller
