package sheet

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/cleared-dev/savings/internal/model"
)

// dateLayouts are tried in order. Slash dates are month first, as
// spreadsheet exports write them.
var dateLayouts = []string{
	time.DateOnly,
	time.DateTime,
	"2006-01-02T15:04:05Z07:00",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01-02-06",
	"1/2/06",
	"02.01.2006",
	"Jan 2006",
	"January 2006",
	"2006-01",
}

// ParseDate parses a period label. Bare numbers are read as spreadsheet
// date serials.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		return excelize.ExcelDateToTime(serial, false)
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// ParseAmount parses a balance cell. Thousands separators and surrounding
// spaces are ignored.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	return decimal.NewFromString(s)
}

// ParseRows builds a Sheet from raw cells. The first row is the header: the
// first column holds period dates and a column named Notes holds free text;
// every other named column is an account. The row labelled Currency Symbol
// carries each account's currency spec. Blank rows are skipped and blank
// cells are absent balances.
func ParseRows(rows [][]string) (*Sheet, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrEmptySheet
	}

	header := rows[0]
	notesCol := -1
	var accounts []string
	var cols []int
	for i := 1; i < len(header); i++ {
		name := strings.TrimSpace(header[i])
		switch {
		case name == "":
			continue
		case strings.EqualFold(name, NotesColumn):
			notesCol = i
		case strings.EqualFold(name, TotalColumn), strings.EqualFold(name, IncrColumn):
			// derived columns from an earlier export
			continue
		default:
			accounts = append(accounts, name)
			cols = append(cols, i)
		}
	}

	var currencyRow []string
	var periods []time.Time
	var dataRows [][]string
	for r, row := range rows[1:] {
		label := strings.TrimSpace(cell(row, 0))
		switch {
		case blank(row):
			continue
		case strings.EqualFold(label, CurrencyRow):
			if currencyRow != nil {
				return nil, fmt.Errorf("row %d: duplicate %s row", r+2, CurrencyRow)
			}
			currencyRow = row
		default:
			t, err := ParseDate(label)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", r+2, err)
			}
			periods = append(periods, t)
			dataRows = append(dataRows, row)
		}
	}
	if currencyRow == nil {
		return nil, ErrNoCurrencyRow
	}

	m, err := model.NewBalanceMatrix(periods, accounts)
	if err != nil {
		return nil, err
	}
	s := &Sheet{
		Balances:   m,
		Currencies: make(map[string]string, len(accounts)),
		Notes:      make([]string, len(periods)),
	}
	for a, name := range accounts {
		s.Currencies[name] = strings.TrimSpace(cell(currencyRow, cols[a]))
	}
	for p, row := range dataRows {
		for a, col := range cols {
			raw := strings.TrimSpace(cell(row, col))
			if raw == "" {
				continue
			}
			v, err := ParseAmount(raw)
			if err != nil {
				return nil, fmt.Errorf("%s, %s: invalid balance %q", periods[p].Format(time.DateOnly), accounts[a], raw)
			}
			m.SetAt(p, a, v)
		}
		if notesCol >= 0 {
			s.Notes[p] = strings.TrimSpace(cell(row, notesCol))
		}
	}
	return s, nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
