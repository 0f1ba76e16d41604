// Package utils provides scalar conversion helpers shared across the application.
//
// Values crossing the spreadsheet/database boundary arrive with unstable types:
// the Sheets API returns everything as strings or interface{} scalars, JSON
// decoding produces float64 for every number, and database scans return typed
// columns. These helpers coerce between representations without panicking on
// unexpected input.
//
// NormalizeCell is the comparison primitive used by the diff engine: two cell
// values are considered equal when their normalized string forms match.
package utils
