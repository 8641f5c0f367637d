package sheet

import (
	"encoding/csv"
	"fmt"
	"io"
)

// CSVReader reads balance sheets exported as CSV.
type CSVReader struct {
	// Comma is the field delimiter; zero means ','.
	Comma rune
}

// Format returns the reader name.
func (c *CSVReader) Format() string { return "csv" }

// Read parses a CSV balance sheet.
func (c *CSVReader) Read(r io.Reader) (*Sheet, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	if c.Comma != 0 {
		cr.Comma = c.Comma
	}

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading balance CSV: %w", err)
	}
	return ParseRows(records)
}
