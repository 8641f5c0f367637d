// Package ratelog keeps a CSV audit trail of how each exchange rate of a run
// was obtained.
package ratelog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/savings/internal/rates"
)

// Entry is one row in the rate log.
type Entry struct {
	Timestamp time.Time
	From      string
	To        string
	AsOf      time.Time // zero for undated lookups
	Probe     time.Time // date the source answered for; zero for manual rates
	Rate      decimal.Decimal
	Source    string
}

// Header is the CSV header for rate-log.csv.
const Header = "timestamp,from,to,as_of,probe,rate,source"

const (
	numFields    = 7
	logFile      = "rate-log.csv"
	colTimestamp = 0
	colFrom      = 1
	colTo        = 2
	colAsOf      = 3
	colProbe     = 4
	colRate      = 5
	colSource    = 6
)

// FromResolutions converts resolver records to log entries.
func FromResolutions(res []rates.Resolution) []Entry {
	entries := make([]Entry, len(res))
	for i, r := range res {
		entries[i] = Entry{
			Timestamp: r.At,
			From:      r.Key.From,
			To:        r.Key.To,
			AsOf:      r.Key.AsOf,
			Probe:     r.Probe,
			Rate:      r.Rate,
			Source:    r.Source,
		}
	}
	return entries
}

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.UTC().Format(time.RFC3339)
	row[colFrom] = e.From
	row[colTo] = e.To
	row[colAsOf] = formatDate(e.AsOf)
	row[colProbe] = formatDate(e.Probe)
	row[colRate] = e.Rate.String()
	row[colSource] = e.Source
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}
	asOf, err := parseDate(record[colAsOf])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing as_of %q: %w", record[colAsOf], err)
	}
	probe, err := parseDate(record[colProbe])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing probe %q: %w", record[colProbe], err)
	}
	rate, err := decimal.NewFromString(record[colRate])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing rate %q: %w", record[colRate], err)
	}

	return Entry{
		Timestamp: ts,
		From:      record[colFrom],
		To:        record[colTo],
		AsOf:      asOf,
		Probe:     probe,
		Rate:      rate,
		Source:    record[colSource],
	}, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}

// Append writes entries to <dir>/rate-log.csv, creating the file and header
// if needed.
func Append(dir string, entries []Entry) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := filepath.Join(dir, logFile)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening rate log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read returns all entries from <dir>/rate-log.csv.
// Returns an empty slice if the file does not exist.
func Read(dir string) ([]Entry, error) {
	f, err := os.Open(filepath.Join(dir, logFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening rate log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading rate log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
