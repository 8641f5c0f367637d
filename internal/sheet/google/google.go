// Package google reads the balance sheet from a Google spreadsheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"github.com/cleared-dev/savings/internal/log"
	"github.com/cleared-dev/savings/internal/sheet"
)

// DefaultRange reads the whole first worksheet.
const DefaultRange = "A:ZZ"

// ValuesGetter fetches a range of formatted cell values.
type ValuesGetter interface {
	Get(ctx context.Context, spreadsheetID, rng string) ([][]any, error)
}

// Source loads a Sheet from a spreadsheet range.
type Source struct {
	values        ValuesGetter
	spreadsheetID string
	rng           string
	log           *log.Logger
}

// Config selects the spreadsheet and credentials.
type Config struct {
	SpreadsheetID string
	Range         string
	// CredentialsFile is a service account key. When empty,
	// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE and
	// GOOGLE_APPLICATION_CREDENTIALS are consulted in that order.
	CredentialsFile string
}

// New creates a Source backed by the Sheets API.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Source, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	creds, err := credentials(cfg.CredentialsFile)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithGetter(&apiValues{svc: svc}, cfg, logger), nil
}

// NewWithGetter creates a Source over any ValuesGetter.
func NewWithGetter(values ValuesGetter, cfg Config, logger *log.Logger) *Source {
	if logger == nil {
		logger = log.Discard()
	}
	rng := cfg.Range
	if rng == "" {
		rng = DefaultRange
	}
	return &Source{values: values, spreadsheetID: cfg.SpreadsheetID, rng: rng, log: logger}
}

// Load fetches the range and parses it as a balance sheet.
func (s *Source) Load(ctx context.Context) (*sheet.Sheet, error) {
	raw, err := s.values.Get(ctx, s.spreadsheetID, s.rng)
	if err != nil {
		return nil, fmt.Errorf("read spreadsheet range %s: %w", s.rng, err)
	}
	s.log.Debug("spreadsheet loaded", "range", s.rng, "rows", len(raw))

	rows := make([][]string, len(raw))
	for i, r := range raw {
		rows[i] = make([]string, len(r))
		for j, v := range r {
			if v != nil {
				rows[i][j] = fmt.Sprint(v)
			}
		}
	}
	return sheet.ParseRows(rows)
}

type apiValues struct {
	svc *gsheet.Service
}

func (a *apiValues) Get(ctx context.Context, spreadsheetID, rng string) ([][]any, error) {
	resp, err := a.svc.Spreadsheets.Values.Get(spreadsheetID, rng).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func credentials(file string) ([]byte, error) {
	if inline := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")); file == "" && inline != "" {
		return []byte(inline), nil
	}
	if file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	}
	if file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if file == "" {
		return nil, errors.New("missing service account credentials (set google.credentials_file, GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return b, nil
}
