package sheet

// Row is the source-side representation of one spreadsheet row: a mapping
// from column header to cell value. Columns present in the header but absent
// from the row map to nil.
type Row map[string]any

// RowUpdate pairs a 1-indexed sheet row (row 1 is the header) with its new
// content, for batched writes.
type RowUpdate struct {
	Index int64
	Row   Row
}

// rowFromValues converts a raw value slice into a Row using the header order.
// Short rows (the API truncates trailing empty cells) map missing columns to
// nil.
func rowFromValues(headers []string, values []any) Row {
	row := make(Row, len(headers))
	for i, h := range headers {
		if h == "" {
			continue
		}
		if i < len(values) {
			row[h] = values[i]
		} else {
			row[h] = nil
		}
	}
	return row
}

// rowToValues converts a Row back into a value slice in header order.
// Missing and nil cells become empty strings so the write clears them.
func rowToValues(headers []string, row Row) []any {
	values := make([]any, len(headers))
	for i, h := range headers {
		if v, ok := row[h]; ok && v != nil {
			values[i] = v
		} else {
			values[i] = ""
		}
	}
	return values
}

// columnLetter converts a 1-based column number to its A1-notation letter
// ("A", "Z", "AA", ...).
func columnLetter(n int) string {
	letters := ""
	for n > 0 {
		n--
		letters = string(rune('A'+n%26)) + letters
		n /= 26
	}
	return letters
}
