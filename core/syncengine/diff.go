package syncengine

import (
	"fmt"
	"sort"

	"broker-office/core/sheet"
	"broker-office/core/utils"
)

// Compare computes the row-level diff between the previously cached snapshot
// and the freshly fetched one. Matching is by business key, never by row
// position, so a row that moved or was deleted and re-entered with different
// content classifies as updated rather than delete+add.
//
// Output is sorted by key, making the result identical for a fixed pair of
// snapshots regardless of map iteration order.
func Compare(cached, current Snapshot) DiffResult {
	var diff DiffResult

	for key, row := range current {
		prev, seen := cached[key]
		switch {
		case !seen:
			diff.Added = append(diff.Added, DiffEntry{Key: key, Row: row})
		case !rowsEqual(prev, row):
			diff.Updated = append(diff.Updated, DiffEntry{Key: key, Row: row})
		}
	}

	for key := range cached {
		if _, still := current[key]; !still {
			diff.Deleted = append(diff.Deleted, key)
		}
	}

	sort.Slice(diff.Added, func(i, j int) bool { return diff.Added[i].Key < diff.Added[j].Key })
	sort.Slice(diff.Updated, func(i, j int) bool { return diff.Updated[i].Key < diff.Updated[j].Key })
	sort.Strings(diff.Deleted)

	return diff
}

// rowsEqual compares two rows field by field over the union of their columns.
// Values arrive freshly deserialized on every fetch, so comparison goes
// through the canonical normalized form rather than type-sensitive equality:
// the string "5000" and the number 5000 are the same cell.
func rowsEqual(a, b sheet.Row) bool {
	for col, av := range a {
		if utils.NormalizeCell(av) != utils.NormalizeCell(b[col]) {
			return false
		}
	}
	for col, bv := range b {
		if _, ok := a[col]; !ok {
			if utils.NormalizeCell(bv) != "" {
				return false
			}
		}
	}
	return true
}

// keyFromRow extracts the normalized business key from a source row.
func keyFromRow(row sheet.Row, keyColumn string) string {
	return utils.NormalizeCell(row[keyColumn])
}

// SnapshotFromRows indexes fetched rows by the business key column. Rows with
// an empty key are unsyncable and reported back; on duplicate keys the last
// row wins, matching the last-write-wins policy applied across the engine.
func SnapshotFromRows(rows []sheet.Row, keyColumn string) (Snapshot, []RecordError) {
	snap := make(Snapshot, len(rows))
	var errs []RecordError

	for i, row := range rows {
		key := keyFromRow(row, keyColumn)
		if key == "" {
			errs = append(errs, RecordError{
				Key:     "",
				Message: fmt.Sprintf("row %d has no business key", i+2),
			})
			continue
		}
		if _, dup := snap[key]; dup {
			errs = append(errs, RecordError{
				Key:     key,
				Message: "duplicate business key, keeping last occurrence",
			})
		}
		snap[key] = row
	}

	return snap, errs
}

// SnapshotFromRecords rebuilds a comparison snapshot from canonical records,
// used as the diff baseline when no cached snapshot survives (cold start or
// expired cache). Deletes are undetectable against an empty baseline, so
// reconstructing from the store keeps them working across restarts.
func SnapshotFromRecords(records []Record, mapper Mapper) Snapshot {
	snap := make(Snapshot, len(records))
	for _, rec := range records {
		snap[rec.Key] = mapper.ToTabular(rec)
	}
	return snap
}
