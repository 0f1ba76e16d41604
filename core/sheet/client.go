package sheet

import "context"

// Client defines the operations the sync engine needs against the external
// tabular source. Row indices are 1-based with row 1 reserved for the header,
// matching the provider's own addressing, so indices obtained from reads can
// be passed straight back to UpdateRow and DeleteRow.
type Client interface {
	// Headers returns the header row, reading it once per session and
	// caching it until InvalidateHeaders is called.
	Headers(ctx context.Context) ([]string, error)

	// InvalidateHeaders drops the cached header row. The next call that
	// needs headers re-reads row 1.
	InvalidateHeaders()

	// ReadAll reads every non-header row. One underlying API call.
	ReadAll(ctx context.Context) ([]Row, error)

	// ReadRange reads the rows covered by an A1-notation range.
	ReadRange(ctx context.Context, a1Range string) ([]Row, error)

	// AppendRow appends one row after the last data row.
	AppendRow(ctx context.Context, row Row) error

	// UpdateRow overwrites the row at the given 1-based index.
	UpdateRow(ctx context.Context, rowIndex int64, row Row) error

	// DeleteRow removes the row at the given 1-based index, shifting
	// subsequent rows up.
	DeleteRow(ctx context.Context, rowIndex int64) error

	// FindRowByColumn scans one column for a value and returns the 1-based
	// row index. A missing value is (0, false, nil), not an error; a column
	// name absent from the header fails with ErrColumnNotFound.
	FindRowByColumn(ctx context.Context, column string, value any) (int64, bool, error)

	// BatchUpdate writes several rows in a single underlying API call to
	// conserve rate budget.
	BatchUpdate(ctx context.Context, updates []RowUpdate) error
}
