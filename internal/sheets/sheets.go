package sheets

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

// Sheet titles used by the bot.
const (
	SheetShifts  = "Смены"
	SheetReports = "Отчёты"
	SheetMeals   = "Питание"
)

type Cell struct {
	Header string
	Value  string
}

// Row keeps column order; headers are only used when a sheet is created.
type Row []Cell

// Writer appends rows. It is fire-and-forget: failures are logged, never returned.
type Writer interface {
	Write(ctx context.Context, sheet string, row Row)
}

type Sheets struct {
	Logger        *zap.Logger
	SpreadsheetID string
	svc           *gsheets.Service

	mu     sync.Mutex
	titles map[string]bool
}

// New builds a Sheets writer from service account JSON.
func New(ctx context.Context, logger *zap.Logger, spreadsheetID string, serviceKeyJSON []byte) (*Sheets, error) {
	return NewWithOptions(ctx, logger, spreadsheetID, option.WithCredentialsJSON(serviceKeyJSON))
}

func NewWithOptions(ctx context.Context, logger *zap.Logger, spreadsheetID string, opts ...option.ClientOption) (*Sheets, error) {
	svc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Sheets{
		Logger:        logger,
		SpreadsheetID: spreadsheetID,
		svc:           svc,
		titles:        make(map[string]bool),
	}, nil
}

func (s *Sheets) Write(ctx context.Context, sheet string, row Row) {
	if err := s.write(ctx, sheet, row); err != nil {
		s.Logger.Error("sheet_write_failed", zap.String("sheet", sheet), zap.Error(err))
		return
	}
	s.Logger.Info("sheet_row_added", zap.String("sheet", sheet), zap.Int("cells", len(row)))
}

func (s *Sheets) write(ctx context.Context, sheet string, row Row) error {
	created, err := s.ensureSheet(ctx, sheet)
	if err != nil {
		return err
	}
	values := make([][]interface{}, 0, 2)
	if created {
		values = append(values, row.headers())
	}
	values = append(values, row.values())

	_, err = s.svc.Spreadsheets.Values.
		Append(s.SpreadsheetID, a1(sheet), &gsheets.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append row: %w", err)
	}
	return nil
}

// ensureSheet reports whether it had to create the sheet.
func (s *Sheets) ensureSheet(ctx context.Context, title string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.titles[title] {
		return false, nil
	}

	doc, err := s.svc.Spreadsheets.Get(s.SpreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return false, fmt.Errorf("load spreadsheet: %w", err)
	}
	for _, sh := range doc.Sheets {
		if sh.Properties != nil {
			s.titles[sh.Properties.Title] = true
		}
	}
	if s.titles[title] {
		return false, nil
	}

	req := &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheets.Request{{
			AddSheet: &gsheets.AddSheetRequest{
				Properties: &gsheets.SheetProperties{Title: title},
			},
		}},
	}
	if _, err := s.svc.Spreadsheets.BatchUpdate(s.SpreadsheetID, req).Context(ctx).Do(); err != nil {
		return false, fmt.Errorf("add sheet %q: %w", title, err)
	}
	s.titles[title] = true
	return true, nil
}

func (r Row) headers() []interface{} {
	out := make([]interface{}, len(r))
	for i, c := range r {
		out[i] = c.Header
	}
	return out
}

func (r Row) values() []interface{} {
	out := make([]interface{}, len(r))
	for i, c := range r {
		out[i] = c.Value
	}
	return out
}

func a1(sheet string) string {
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'!A1"
}

// LogOnly stands in when no spreadsheet is configured.
type LogOnly struct {
	Logger *zap.Logger
}

func (l LogOnly) Write(_ context.Context, sheet string, row Row) {
	fields := make([]zap.Field, 0, len(row)+1)
	fields = append(fields, zap.String("sheet", sheet))
	for _, c := range row {
		fields = append(fields, zap.String(c.Header, c.Value))
	}
	l.Logger.Debug("sheet_write_skipped", fields...)
}
