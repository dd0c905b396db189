package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Veraticus/fraudwatch/internal/common"
	"github.com/Veraticus/fraudwatch/internal/history"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// HistoryWriter exports a user's history table.
type HistoryWriter interface {
	Write(ctx context.Context, username string, table history.Table) (*Result, error)
}

// Result describes where an export was written.
type Result struct {
	SpreadsheetID string
	URL           string
	SheetTitle    string
	Rows          int
}

// spreadsheetAPI is the part of the Sheets API the writer needs.
type spreadsheetAPI interface {
	Get(ctx context.Context, id string) (*sheets.Spreadsheet, error)
	Create(ctx context.Context, s *sheets.Spreadsheet) (*sheets.Spreadsheet, error)
	Clear(ctx context.Context, id, rng string) error
	Update(ctx context.Context, id, rng string, values [][]any) error
	BatchUpdate(ctx context.Context, id string, reqs []*sheets.Request) (*sheets.BatchUpdateSpreadsheetResponse, error)
}

// Writer writes history tables to Google Sheets, one tab per user.
type Writer struct {
	api    spreadsheetAPI
	logger *slog.Logger
	config Config
}

// NewWriter creates a new Google Sheets history writer.
func NewWriter(ctx context.Context, config Config, logger *slog.Logger) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	srv, err := createSheetsService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return newWriter(&googleAPI{srv: srv}, config, logger), nil
}

func newWriter(api spreadsheetAPI, config Config, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{api: api, config: config, logger: logger}
}

// SheetTitle returns the tab name used for a user's history.
func SheetTitle(username string) string {
	return "History - " + username
}

// Write replaces the user's tab with the table.
func (w *Writer) Write(ctx context.Context, username string, table history.Table) (*Result, error) {
	title := SheetTitle(username)
	w.logger.Info("starting history export", "username", username, "rows", table.Len())

	retryOpts := common.RetryOptions{
		MaxAttempts:  w.config.RetryAttempts,
		InitialDelay: w.config.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}

	spreadsheet, err := w.getOrCreateSpreadsheet(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("failed to get spreadsheet: %w", err)
	}
	id := spreadsheet.SpreadsheetId

	sheetID, err := w.ensureSheet(ctx, spreadsheet, title)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare sheet: %w", err)
	}

	if err := w.api.Clear(ctx, id, a1(title, "A:Z")); err != nil {
		return nil, fmt.Errorf("failed to clear sheet: %w", classify(err))
	}

	values := toValues(table)
	err = common.WithRetry(ctx, func() error {
		return w.writeData(ctx, id, title, values)
	}, retryOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to write data: %w", err)
	}

	if w.config.EnableFormatting {
		err = common.WithRetry(ctx, func() error {
			_, err := w.api.BatchUpdate(ctx, id, formatRequests(sheetID, len(table.Header)))
			return classify(err)
		}, retryOpts)
		if err != nil {
			w.logger.Warn("failed to apply formatting", "error", err)
		}
	}

	w.logger.Info("history export completed",
		"spreadsheet_id", id,
		"sheet", title,
		"rows_written", table.Len())

	return &Result{
		SpreadsheetID: id,
		URL:           spreadsheet.SpreadsheetUrl,
		SheetTitle:    title,
		Rows:          table.Len(),
	}, nil
}

// createSheetsService creates a Google Sheets API service.
func createSheetsService(ctx context.Context, config Config) (*sheets.Service, error) {
	var tokenSource oauth2.TokenSource

	if config.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}

		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		client := oauthConfig(config.ClientID, config.ClientSecret, "")
		token := &oauth2.Token{
			RefreshToken: config.RefreshToken,
			TokenType:    "Bearer",
		}
		tokenSource = client.TokenSource(ctx, token)
	}

	httpClient := oauth2.NewClient(ctx, tokenSource)
	srv, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}

	return srv, nil
}

// getOrCreateSpreadsheet opens the configured spreadsheet or creates a new
// one whose first tab is already named title.
func (w *Writer) getOrCreateSpreadsheet(ctx context.Context, title string) (*sheets.Spreadsheet, error) {
	if w.config.SpreadsheetID != "" {
		spreadsheet, err := w.api.Get(ctx, w.config.SpreadsheetID)
		if err != nil {
			return nil, fmt.Errorf("unable to access spreadsheet %s: %w", w.config.SpreadsheetID, classify(err))
		}
		return spreadsheet, nil
	}

	name := w.config.SpreadsheetName
	if name == "" {
		name = DefaultSpreadsheetName
	}
	created, err := w.api.Create(ctx, &sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{
			Title:    name,
			TimeZone: w.config.TimeZone,
		},
		Sheets: []*sheets.Sheet{
			{Properties: &sheets.SheetProperties{Title: title}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("unable to create spreadsheet: %w", classify(err))
	}

	w.logger.Info("created new spreadsheet",
		"id", created.SpreadsheetId,
		"url", created.SpreadsheetUrl)

	return created, nil
}

// ensureSheet returns the id of the tab named title, adding it if needed.
func (w *Writer) ensureSheet(ctx context.Context, spreadsheet *sheets.Spreadsheet, title string) (int64, error) {
	for _, s := range spreadsheet.Sheets {
		if s.Properties != nil && s.Properties.Title == title {
			return s.Properties.SheetId, nil
		}
	}

	resp, err := w.api.BatchUpdate(ctx, spreadsheet.SpreadsheetId, []*sheets.Request{
		{AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: title}}},
	})
	if err != nil {
		return 0, fmt.Errorf("unable to add sheet %q: %w", title, classify(err))
	}
	if resp == nil || len(resp.Replies) == 0 || resp.Replies[0].AddSheet == nil {
		return 0, fmt.Errorf("unable to add sheet %q: empty reply", title)
	}
	return resp.Replies[0].AddSheet.Properties.SheetId, nil
}

// writeData writes the values in batches to avoid API limits.
func (w *Writer) writeData(ctx context.Context, spreadsheetID, title string, values [][]any) error {
	for i := 0; i < len(values); i += w.config.BatchSize {
		end := min(i+w.config.BatchSize, len(values))
		batch := values[i:end]

		if err := w.api.Update(ctx, spreadsheetID, a1(title, fmt.Sprintf("A%d", i+1)), batch); err != nil {
			return fmt.Errorf("failed to write batch starting at row %d: %w", i+1, classify(err))
		}

		w.logger.Debug("wrote batch", "start_row", i+1, "rows", len(batch))
	}
	return nil
}

func toValues(table history.Table) [][]any {
	values := make([][]any, 0, table.Len()+1)
	values = append(values, cells(table.Header))
	for _, row := range table.Rows {
		values = append(values, cells(row))
	}
	return values
}

func cells(row []string) []any {
	out := make([]any, len(row))
	for i, v := range row {
		out[i] = v
	}
	return out
}

// formatRequests bolds and freezes the header row, shows probabilities with
// four decimals and fits the columns.
func formatRequests(sheetID int64, columns int) []*sheets.Request {
	return []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    0,
					EndRowIndex:      1,
					StartColumnIndex: 0,
					EndColumnIndex:   int64(columns),
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{Bold: true},
					},
				},
				Fields: "userEnteredFormat.textFormat",
			},
		},
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    1,
					StartColumnIndex: 2,
					EndColumnIndex:   3,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						NumberFormat: &sheets.NumberFormat{
							Type:    "NUMBER",
							Pattern: "0.0000",
						},
					},
				},
				Fields: "userEnteredFormat.numberFormat",
			},
		},
		{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "COLUMNS",
					StartIndex: 0,
					EndIndex:   int64(columns),
				},
			},
		},
		{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId: sheetID,
					GridProperties: &sheets.GridProperties{
						FrozenRowCount: 1,
					},
				},
				Fields: "gridProperties.frozenRowCount",
			},
		},
	}
}

// a1 builds an A1 range on the named sheet.
func a1(title, cells string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'!" + cells
}

// classify marks API errors for the retry loop: rate limits back off, other
// client errors fail at once.
func classify(err error) error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", common.ErrRateLimit, err)
	case apiErr.Code >= 400 && apiErr.Code < 500:
		return &common.RetryableError{Err: err, Retryable: false}
	default:
		return err
	}
}

// googleAPI adapts *sheets.Service to spreadsheetAPI.
type googleAPI struct {
	srv *sheets.Service
}

func (g *googleAPI) Get(ctx context.Context, id string) (*sheets.Spreadsheet, error) {
	return g.srv.Spreadsheets.Get(id).Context(ctx).Do()
}

func (g *googleAPI) Create(ctx context.Context, s *sheets.Spreadsheet) (*sheets.Spreadsheet, error) {
	return g.srv.Spreadsheets.Create(s).Context(ctx).Do()
}

func (g *googleAPI) Clear(ctx context.Context, id, rng string) error {
	_, err := g.srv.Spreadsheets.Values.Clear(id, rng, &sheets.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

func (g *googleAPI) Update(ctx context.Context, id, rng string, values [][]any) error {
	_, err := g.srv.Spreadsheets.Values.Update(id, rng, &sheets.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	return err
}

func (g *googleAPI) BatchUpdate(ctx context.Context, id string, reqs []*sheets.Request) (*sheets.BatchUpdateSpreadsheetResponse, error) {
	return g.srv.Spreadsheets.BatchUpdate(id, &sheets.BatchUpdateSpreadsheetRequest{Requests: reqs}).Context(ctx).Do()
}
