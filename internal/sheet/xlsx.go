package sheet

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// XLSXReader reads balance sheets from Excel workbooks.
type XLSXReader struct {
	// Sheet is the worksheet to read; empty means the first one.
	Sheet string
}

// Format returns the reader name.
func (x *XLSXReader) Format() string { return "xlsx" }

// Read parses the worksheet's formatted cell values.
func (x *XLSXReader) Read(r io.Reader) (*Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	name := x.Sheet
	if name == "" {
		name = f.GetSheetName(0)
	}
	if name == "" {
		return nil, ErrEmptySheet
	}
	rows, err := f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("reading worksheet %q: %w", name, err)
	}
	return ParseRows(rows)
}
