package ledger

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/dvloznov/expense-bot/internal/domain"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// DefaultSpreadsheetID is the spreadsheet the bot has always written to.
const DefaultSpreadsheetID = "1l0RayNrG0ogeIq3_1iOMxyMx-1ArjXu6mip6GRXG1Q4"

// SheetsConfig configures a SheetsLedger. Credentials are taken from
// CredentialsJSON, then CredentialsFile; HTTPClient overrides both.
type SheetsConfig struct {
	SpreadsheetID   string
	Worksheet       string // empty means the first worksheet
	CredentialsFile string
	CredentialsJSON string
	Endpoint        string
	HTTPClient      *http.Client
}

// SheetsLedger appends rows to a Google Sheets worksheet.
type SheetsLedger struct {
	svc           *sheets.Service
	spreadsheetID string

	mu        sync.Mutex
	worksheet string
}

// NewSheetsLedger creates the Sheets service. No request is made until the
// first Append.
func NewSheetsLedger(ctx context.Context, cfg SheetsConfig) (*SheetsLedger, error) {
	if cfg.SpreadsheetID == "" {
		return nil, errors.New("NewSheetsLedger: spreadsheet ID is required")
	}

	opts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}
	switch {
	case cfg.HTTPClient != nil:
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	case cfg.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("NewSheetsLedger: create sheets service: %w", err)
	}

	return &SheetsLedger{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		worksheet:     cfg.Worksheet,
	}, nil
}

// Append implements pipeline.Ledger. Values are written RAW so user text is
// never evaluated as a formula.
func (l *SheetsLedger) Append(ctx context.Context, record domain.ExpenseRecord, requester string) error {
	title, err := l.worksheetTitle(ctx)
	if err != nil {
		return err
	}

	vr := &sheets.ValueRange{
		Values: [][]interface{}{Row(record, requester)},
	}

	_, err = l.svc.Spreadsheets.Values.Append(l.spreadsheetID, quoteSheetName(title), vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("SheetsLedger.Append: append row to %q: %w", title, err)
	}

	return nil
}

// Name implements pipeline.Ledger.
func (l *SheetsLedger) Name() string {
	return BackendSheets
}

// worksheetTitle returns the configured worksheet, or looks up the title of
// the first worksheet once and caches it.
func (l *SheetsLedger) worksheetTitle(ctx context.Context) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.worksheet != "" {
		return l.worksheet, nil
	}

	ss, err := l.svc.Spreadsheets.Get(l.spreadsheetID).
		Fields("sheets.properties(title,index)").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("SheetsLedger: get spreadsheet %s: %w", l.spreadsheetID, err)
	}

	var first *sheets.SheetProperties
	for _, sh := range ss.Sheets {
		if sh.Properties == nil {
			continue
		}
		if first == nil || sh.Properties.Index < first.Index {
			first = sh.Properties
		}
	}
	if first == nil {
		return "", fmt.Errorf("SheetsLedger: spreadsheet %s has no worksheets", l.spreadsheetID)
	}

	l.worksheet = first.Title
	return l.worksheet, nil
}

// quoteSheetName turns a worksheet title into an A1 range covering the sheet.
func quoteSheetName(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}
