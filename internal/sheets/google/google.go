package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"budget/internal/cache"
	"budget/internal/core"
	"budget/internal/ports"
)

// Header is the first row of the export sheet. Column A holds the
// installment ID and is the lookup key for upserts.
var Header = []any{"ID", "Description", "Total", "Installments", "Start", "Monthly", "Elapsed", "Percent", "Remaining", "As Of"}

const rowCacheTTL = 5 * time.Minute

// Config selects the spreadsheet and the service account used to reach it.
type Config struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string
}

// Client mirrors installment progress into one sheet, one row per installment.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string

	// mu serialises row allocation and the write that claims the row.
	mu sync.Mutex
	// rows maps installment IDs to their 1-based sheet row.
	rows *cache.LRUCache[int]
}

var _ ports.ProgressExporter = (*Client)(nil)

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config) (*Client, error) {
	creds, err := credentialsJSON(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewWithOptions(ctx, cfg.SpreadsheetID, cfg.SheetName,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
}

// NewWithOptions creates a client with explicit API options, e.g. a custom
// endpoint and HTTP client.
func NewWithOptions(ctx context.Context, spreadsheetID, sheetName string, opts ...goption.ClientOption) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheetName = strings.TrimSpace(sheetName)
	if sheetName == "" {
		sheetName = "Installments"
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created", "sheet", sheetName)
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		rows:          cache.NewLRUCache[int](1024, rowCacheTTL),
	}, nil
}

// credentialsJSON resolves service account credentials from inline JSON,
// a file, or GOOGLE_APPLICATION_CREDENTIALS, in that order.
func credentialsJSON(ctx context.Context, cfg Config) ([]byte, error) {
	inline := strings.TrimSpace(cfg.ServiceAccountJSON)
	file := strings.TrimSpace(cfg.ServiceAccountFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		slog.DebugContext(ctx, "Using inline JSON credentials")
		return []byte(inline), nil
	case file != "":
		slog.DebugContext(ctx, "Reading credentials from file", "path", file)
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// Export writes the progress of p at month at, updating the existing row
// for p.ID or appending a new one.
func (c *Client) Export(ctx context.Context, p core.InstallmentPayment, progress core.ProgressResult, at core.YearMonth) error {
	if p.ID == "" {
		return errors.New("installment ID is required")
	}
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	row, err := c.rowFor(ctx, p.ID, true)
	if err != nil {
		return err
	}

	values := &gsheet.ValueRange{Values: [][]any{progressRow(p, progress, at)}}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, c.rowRange(row), values).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		c.rows.Delete(ctx, p.ID)
		return fmt.Errorf("update %s: %w", c.rowRange(row), err)
	}

	c.rows.Set(ctx, p.ID, row)
	slog.DebugContext(ctx, "Exported installment progress", "id", p.ID, "row", row, "month", at.String())
	return nil
}

// Remove clears the row of id. A missing row is not an error.
func (c *Client) Remove(ctx context.Context, id string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	row, err := c.rowFor(ctx, id, false)
	if err != nil {
		return err
	}
	if row == 0 {
		slog.DebugContext(ctx, "Installment row not found, nothing to remove", "id", id)
		return nil
	}

	_, err = c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, c.rowRange(row), &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	c.rows.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("clear %s: %w", c.rowRange(row), err)
	}
	return nil
}

// rowFor returns the row holding id. With allocate set, a missing id gets
// the next free row and an empty sheet gets its header first; otherwise a
// missing id yields 0.
func (c *Client) rowFor(ctx context.Context, id string, allocate bool) (int, error) {
	if row, ok := c.rows.Get(ctx, id); ok {
		return row, nil
	}

	rng := fmt.Sprintf("%s!A:A", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", rng, err)
	}

	if row := findRow(resp.Values, id); row > 0 {
		c.rows.Set(ctx, id, row)
		return row, nil
	}
	if !allocate {
		return 0, nil
	}

	if len(resp.Values) == 0 {
		header := &gsheet.ValueRange{Values: [][]any{Header}}
		if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, c.rowRange(1), header).
			ValueInputOption("RAW").Context(ctx).Do(); err != nil {
			return 0, fmt.Errorf("write header: %w", err)
		}
		return 2, nil
	}
	return len(resp.Values) + 1, nil
}

func (c *Client) rowRange(row int) string {
	return fmt.Sprintf("%s!A%d:J%d", c.sheetName, row, row)
}

// findRow returns the 1-based row whose first cell equals id, skipping the
// header. It returns 0 when id is absent.
func findRow(values [][]any, id string) int {
	for i, row := range values {
		if i == 0 || len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == id {
			return i + 1
		}
	}
	return 0
}

// progressRow renders one sheet row. Missing fields stay blank.
func progressRow(p core.InstallmentPayment, progress core.ProgressResult, at core.YearMonth) []any {
	total, count, start := "", "", ""
	if p.TotalAmount.Valid {
		total = p.TotalAmount.Decimal.StringFixed(2)
	}
	if p.InstallmentCount > 0 {
		count = fmt.Sprint(p.InstallmentCount)
	}
	if p.StartMonth.Valid() {
		start = p.StartMonth.String()
	}
	return []any{
		p.ID,
		p.Description,
		total,
		count,
		start,
		progress.MonthlyInstallment.StringFixed(2),
		progress.MonthsElapsed,
		fmt.Sprintf("%.1f", progress.PercentComplete),
		progress.RemainingAmount.StringFixed(2),
		at.String(),
	}
}
