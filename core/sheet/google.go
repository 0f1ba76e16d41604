package sheet

import (
	"context"
	"fmt"
	"sync"
	"time"

	"broker-office/core/ratelimit"
	"broker-office/core/utils"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// valueInputOption makes the API parse written values the way a typing user
// would (numbers become numbers, not quoted strings). Required for round-trip
// stability with rows staff edit by hand.
const valueInputOption = "USER_ENTERED"

// googleClient implements Client against the Google Sheets v4 API.
// All calls pass through the shared rate limiter and carry a bounded timeout.
type googleClient struct {
	svc     *sheets.Service
	cfg     Config
	limiter *ratelimit.Limiter
	logger  *zap.Logger

	mu      sync.Mutex
	headers []string
}

// NewClient authenticates with the configured service-account credentials and
// returns a Client. Authentication happens once per session; a credential
// rejection here is fatal and must not be retried by callers.
func NewClient(ctx context.Context, cfg Config, limiter *ratelimit.Limiter, logger *zap.Logger) (Client, error) {
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsFile(cfg.CredentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthentication, err)
	}

	return &googleClient{
		svc:     svc,
		cfg:     cfg,
		limiter: limiter,
		logger:  logger,
	}, nil
}

// call runs one API operation through the rate limiter with a bounded
// timeout, translating provider errors into the package taxonomy.
func (c *googleClient) call(ctx context.Context, op func(ctx context.Context) error) error {
	timeout := time.Duration(c.cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return c.limiter.Execute(ctx, func() error {
		return wrapAPIError(op(ctx))
	})
}

func (c *googleClient) Headers(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	if c.headers != nil {
		headers := c.headers
		c.mu.Unlock()
		return headers, nil
	}
	c.mu.Unlock()

	var resp *sheets.ValueRange
	err := c.call(ctx, func(ctx context.Context) error {
		var err error
		resp, err = c.svc.Spreadsheets.Values.
			Get(c.cfg.SpreadsheetID, fmt.Sprintf("%s!1:1", c.cfg.SheetName)).
			Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Values) == 0 {
		return nil, fmt.Errorf("sheet %q has no header row", c.cfg.SheetName)
	}

	headers := make([]string, len(resp.Values[0]))
	for i, v := range resp.Values[0] {
		headers[i] = utils.ToString(v)
	}

	c.mu.Lock()
	c.headers = headers
	c.mu.Unlock()
	return headers, nil
}

func (c *googleClient) InvalidateHeaders() {
	c.mu.Lock()
	c.headers = nil
	c.mu.Unlock()
}

// ReadAll fetches the whole sheet in one call and refreshes the header cache
// from row 1 as a side effect, since the data is already paid for.
func (c *googleClient) ReadAll(ctx context.Context) ([]Row, error) {
	var resp *sheets.ValueRange
	err := c.call(ctx, func(ctx context.Context) error {
		var err error
		resp, err = c.svc.Spreadsheets.Values.
			Get(c.cfg.SpreadsheetID, c.cfg.SheetName).
			Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Values) == 0 {
		return nil, fmt.Errorf("sheet %q has no header row", c.cfg.SheetName)
	}

	headers := make([]string, len(resp.Values[0]))
	for i, v := range resp.Values[0] {
		headers[i] = utils.ToString(v)
	}
	c.mu.Lock()
	c.headers = headers
	c.mu.Unlock()

	rows := make([]Row, 0, len(resp.Values)-1)
	for _, values := range resp.Values[1:] {
		rows = append(rows, rowFromValues(headers, values))
	}
	return rows, nil
}

func (c *googleClient) ReadRange(ctx context.Context, a1Range string) ([]Row, error) {
	headers, err := c.Headers(ctx)
	if err != nil {
		return nil, err
	}

	var resp *sheets.ValueRange
	err = c.call(ctx, func(ctx context.Context) error {
		var err error
		resp, err = c.svc.Spreadsheets.Values.
			Get(c.cfg.SpreadsheetID, fmt.Sprintf("%s!%s", c.cfg.SheetName, a1Range)).
			Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(resp.Values))
	for _, values := range resp.Values {
		rows = append(rows, rowFromValues(headers, values))
	}
	return rows, nil
}

func (c *googleClient) AppendRow(ctx context.Context, row Row) error {
	headers, err := c.Headers(ctx)
	if err != nil {
		return err
	}

	vr := &sheets.ValueRange{Values: [][]any{rowToValues(headers, row)}}
	return c.call(ctx, func(ctx context.Context) error {
		_, err := c.svc.Spreadsheets.Values.
			Append(c.cfg.SpreadsheetID, c.cfg.SheetName, vr).
			ValueInputOption(valueInputOption).
			InsertDataOption("INSERT_ROWS").
			Context(ctx).Do()
		return err
	})
}

func (c *googleClient) UpdateRow(ctx context.Context, rowIndex int64, row Row) error {
	headers, err := c.Headers(ctx)
	if err != nil {
		return err
	}

	rangeStr := fmt.Sprintf("%s!A%d:%s%d", c.cfg.SheetName, rowIndex, columnLetter(len(headers)), rowIndex)
	vr := &sheets.ValueRange{Values: [][]any{rowToValues(headers, row)}}
	return c.call(ctx, func(ctx context.Context) error {
		_, err := c.svc.Spreadsheets.Values.
			Update(c.cfg.SpreadsheetID, rangeStr, vr).
			ValueInputOption(valueInputOption).
			Context(ctx).Do()
		return err
	})
}

func (c *googleClient) DeleteRow(ctx context.Context, rowIndex int64) error {
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			DeleteDimension: &sheets.DeleteDimensionRequest{
				Range: &sheets.DimensionRange{
					SheetId:    c.cfg.SheetGID,
					Dimension:  "ROWS",
					StartIndex: rowIndex - 1, // grid indices are 0-based
					EndIndex:   rowIndex,
				},
			},
		}},
	}
	return c.call(ctx, func(ctx context.Context) error {
		_, err := c.svc.Spreadsheets.
			BatchUpdate(c.cfg.SpreadsheetID, req).
			Context(ctx).Do()
		return err
	})
}

func (c *googleClient) FindRowByColumn(ctx context.Context, column string, value any) (int64, bool, error) {
	headers, err := c.Headers(ctx)
	if err != nil {
		return 0, false, err
	}

	colIdx := -1
	for i, h := range headers {
		if h == column {
			colIdx = i
			break
		}
	}
	if colIdx < 0 {
		return 0, false, fmt.Errorf("%w: %q", ErrColumnNotFound, column)
	}

	letter := columnLetter(colIdx + 1)
	var resp *sheets.ValueRange
	err = c.call(ctx, func(ctx context.Context) error {
		var err error
		resp, err = c.svc.Spreadsheets.Values.
			Get(c.cfg.SpreadsheetID, fmt.Sprintf("%s!%s2:%s", c.cfg.SheetName, letter, letter)).
			Context(ctx).Do()
		return err
	})
	if err != nil {
		return 0, false, err
	}

	want := utils.NormalizeCell(value)
	for i, values := range resp.Values {
		if len(values) > 0 && utils.NormalizeCell(values[0]) == want {
			return int64(i + 2), true, nil // +2: skip header, 1-based
		}
	}
	return 0, false, nil
}

// BatchUpdate writes every update in a single Values.BatchUpdate call.
func (c *googleClient) BatchUpdate(ctx context.Context, updates []RowUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	headers, err := c.Headers(ctx)
	if err != nil {
		return err
	}

	data := make([]*sheets.ValueRange, 0, len(updates))
	for _, u := range updates {
		data = append(data, &sheets.ValueRange{
			Range:  fmt.Sprintf("%s!A%d:%s%d", c.cfg.SheetName, u.Index, columnLetter(len(headers)), u.Index),
			Values: [][]any{rowToValues(headers, u.Row)},
		})
	}

	req := &sheets.BatchUpdateValuesRequest{
		ValueInputOption: valueInputOption,
		Data:             data,
	}
	return c.call(ctx, func(ctx context.Context) error {
		_, err := c.svc.Spreadsheets.Values.
			BatchUpdate(c.cfg.SpreadsheetID, req).
			Context(ctx).Do()
		return err
	})
}
