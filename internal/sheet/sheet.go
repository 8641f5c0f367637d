// Package sheet reads periodic balance sheets: one row per period, one
// column per account, plus a "Currency Symbol" row and a "Notes" column.
package sheet

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cleared-dev/savings/internal/model"
)

// Labels used in the sheet layout.
const (
	CurrencyRow = "Currency Symbol"
	NotesColumn = "Notes"
	DateColumn  = "Date"
	TotalColumn = "Total Savings"
	IncrColumn  = "Incremental Savings"
)

var (
	// ErrNoCurrencyRow means the sheet has no "Currency Symbol" row.
	ErrNoCurrencyRow = errors.New("sheet has no " + CurrencyRow + " row")
	// ErrEmptySheet means the sheet has no header.
	ErrEmptySheet = errors.New("sheet is empty")
)

// Sheet is a parsed balance sheet.
type Sheet struct {
	Balances   *model.BalanceMatrix
	Currencies map[string]string // account -> raw currency spec
	Notes      []string          // per period, "" when none
}

// Columns returns the sheet's columns with their inferred category. A
// currency that does not parse is left empty; Accounts reports it.
func (s *Sheet) Columns() []model.Account {
	names := s.Balances.Accounts()
	out := make([]model.Account, 0, len(names))
	for _, name := range names {
		spec, _ := model.ParseCurrencySpec(s.Currencies[name])
		out = append(out, model.Account{Name: name, Currency: spec, Category: model.CategoryOf(name)})
	}
	return out
}

// WithCurrencies returns a sheet sharing s's balances and notes with the
// given raw currency specs.
func (s *Sheet) WithCurrencies(currencies map[string]string) *Sheet {
	return &Sheet{Balances: s.Balances, Currencies: currencies, Notes: s.Notes}
}

// Accounts returns the sheet's columns with their parsed currency and
// category. Any column whose currency does not parse is an error.
func (s *Sheet) Accounts() ([]model.Account, error) {
	names := s.Balances.Accounts()
	out := make([]model.Account, 0, len(names))
	for _, name := range names {
		spec, err := model.ParseCurrencySpec(s.Currencies[name])
		if err != nil {
			return nil, fmt.Errorf("account %q: %w", name, err)
		}
		out = append(out, model.Account{Name: name, Currency: spec, Category: model.CategoryOf(name)})
	}
	return out, nil
}

// Select returns a sheet restricted to the given accounts.
func (s *Sheet) Select(accounts []string) (*Sheet, error) {
	m, err := s.Balances.Select(accounts)
	if err != nil {
		return nil, err
	}
	cur := make(map[string]string, len(accounts))
	for _, a := range accounts {
		cur[a] = s.Currencies[a]
	}
	return &Sheet{Balances: m, Currencies: cur, Notes: append([]string(nil), s.Notes...)}, nil
}

// Reader converts a balance sheet file into a Sheet.
type Reader interface {
	Read(r io.Reader) (*Sheet, error)
	Format() string
}

// Registry holds readers keyed by format.
type Registry struct {
	readers map[string]Reader
}

// FileInfo describes a sheet file found in a data directory.
type FileInfo struct {
	Name   string
	Path   string
	Format string
	Size   int64
}

// NewRegistry creates an empty reader registry.
func NewRegistry() *Registry {
	return &Registry{readers: make(map[string]Reader)}
}

// Register adds a reader. Panics on duplicate format.
func (r *Registry) Register(rd Reader) {
	key := strings.ToLower(rd.Format())
	if _, ok := r.readers[key]; ok {
		panic("duplicate sheet format: " + key)
	}
	r.readers[key] = rd
}

// Get returns the reader for format, or nil.
func (r *Registry) Get(format string) Reader {
	return r.readers[strings.ToLower(format)]
}

// Formats returns the registered formats, sorted.
func (r *Registry) Formats() []string {
	out := make([]string, 0, len(r.readers))
	for f := range r.readers {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// DefaultRegistry returns a registry with the csv and xlsx readers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&CSVReader{})
	r.Register(&XLSXReader{})
	return r
}

// FormatOf returns the format implied by a file extension.
func FormatOf(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

// ReadFile reads a sheet file with the reader matching its extension.
func (r *Registry) ReadFile(path string) (*Sheet, error) {
	rd := r.Get(FormatOf(path))
	if rd == nil {
		return nil, fmt.Errorf("%s: unsupported sheet format %q (want one of %s)",
			path, FormatOf(path), strings.Join(r.Formats(), ", "))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening sheet: %w", err)
	}
	defer f.Close()

	s, err := rd.Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Scan returns the sheet files in dir that some registered reader handles.
// A missing directory yields no files.
func (r *Registry) Scan(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading data dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), "~$") {
			continue
		}
		format := FormatOf(e.Name())
		if r.Get(format) == nil {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name:   e.Name(),
			Path:   filepath.Join(dir, e.Name()),
			Format: format,
			Size:   info.Size(),
		})
	}
	return files, nil
}
