// Package export writes the results of a savings run: the normalized table as
// CSV and a markdown report for the terminal.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/savings/internal/model"
)

// Column headings of the derived series, shared with the balance sheet.
const (
	DateColumn  = "date"
	TotalColumn = "Total Savings"
	IncrColumn  = "Incremental Savings"
	NotesColumn = "Notes"
)

const dateFormat = "2006-01-02"

// Header returns the CSV header for a normalized table with the given
// accounts.
func Header(accounts []string) []string {
	h := make([]string, 0, len(accounts)+4)
	h = append(h, DateColumn)
	h = append(h, accounts...)
	return append(h, TotalColumn, IncrColumn, NotesColumn)
}

// WriteTable writes the normalized balances with the Total and Incremental
// columns appended. notes may be nil or one entry per period.
func WriteTable(w io.Writer, normalized *model.BalanceMatrix, series model.SavingsSeries, notes []string) error {
	if len(series.Periods) != normalized.NumPeriods() {
		return fmt.Errorf("series has %d periods, table has %d", len(series.Periods), normalized.NumPeriods())
	}

	cw := csv.NewWriter(w)

	if err := cw.Write(Header(normalized.Accounts())); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for p := range normalized.NumPeriods() {
		var note string
		if p < len(notes) {
			note = notes[p]
		}
		if err := cw.Write(MarshalRow(normalized, series, p, note)); err != nil {
			return fmt.Errorf("writing row %d: %w", p+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalRow converts period p to a CSV row. Undefined values are left empty.
func MarshalRow(normalized *model.BalanceMatrix, series model.SavingsSeries, p int, note string) []string {
	n := normalized.NumAccounts()
	row := make([]string, 0, n+4)
	row = append(row, normalized.Period(p).Format(dateFormat))
	for a := range n {
		row = append(row, formatCell(normalized.At(p, a)))
	}
	return append(row, formatCell(series.Total[p]), formatCell(series.Incremental[p]), note)
}

// ReadTable reads a table written by WriteTable back into a matrix and
// series. Notes are returned per period.
func ReadTable(r io.Reader) (*model.BalanceMatrix, model.SavingsSeries, []string, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, model.SavingsSeries{}, nil, fmt.Errorf("reading table CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, model.SavingsSeries{}, nil, errors.New("reading table CSV: no header")
	}

	header := records[0]
	if len(header) < 4 || header[0] != DateColumn {
		return nil, model.SavingsSeries{}, nil, fmt.Errorf("unexpected header %q", header)
	}
	accounts := header[1 : len(header)-3]
	rows := records[1:]

	periods := make([]time.Time, len(rows))
	for i, rec := range rows {
		d, err := time.Parse(dateFormat, rec[0])
		if err != nil {
			return nil, model.SavingsSeries{}, nil, fmt.Errorf("row %d: parsing date %q: %w", i+2, rec[0], err)
		}
		periods[i] = d
	}

	m, err := model.NewBalanceMatrix(periods, accounts)
	if err != nil {
		return nil, model.SavingsSeries{}, nil, err
	}
	series := model.SavingsSeries{
		Periods:     periods,
		Total:       make([]decimal.NullDecimal, len(rows)),
		Incremental: make([]decimal.NullDecimal, len(rows)),
	}
	notes := make([]string, len(rows))

	for p, rec := range rows {
		for a := range accounts {
			v, err := parseCell(rec[a+1])
			if err != nil {
				return nil, model.SavingsSeries{}, nil, fmt.Errorf("row %d: %s: %w", p+2, accounts[a], err)
			}
			if v.Valid {
				m.SetAt(p, a, v.Decimal)
			}
		}
		n := len(accounts) + 1
		if series.Total[p], err = parseCell(rec[n]); err != nil {
			return nil, model.SavingsSeries{}, nil, fmt.Errorf("row %d: %s: %w", p+2, TotalColumn, err)
		}
		if series.Incremental[p], err = parseCell(rec[n+1]); err != nil {
			return nil, model.SavingsSeries{}, nil, fmt.Errorf("row %d: %s: %w", p+2, IncrColumn, err)
		}
		notes[p] = rec[n+2]
	}
	return m, series, notes, nil
}

func formatCell(v decimal.NullDecimal) string {
	if !v.Valid {
		return ""
	}
	return v.Decimal.StringFixed(2)
}

func parseCell(s string) (decimal.NullDecimal, error) {
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	return decimal.NewNullDecimal(d), nil
}
