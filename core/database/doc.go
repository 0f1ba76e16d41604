// Package database handles database connections and schema inspection.
//
// It wraps GORM to configure MySQL connections from the application's
// configuration, with connection, read, and write timeouts baked into the
// DSN so writes against a stalled server fail instead of hanging a cycle.
//
// # Schema Inspection
//
// GetTableColumns and VerifyColumns inspect a table's columns. Each sync
// target verifies its canonical table at startup so a schema drift is
// reported before any row is written.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	err = database.VerifyColumns(db, "sellers", mapper.Columns())
package database
