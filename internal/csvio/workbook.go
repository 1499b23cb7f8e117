package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// IsWorkbook reports whether a filename looks like an Excel workbook.
func IsWorkbook(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".xlsx")
}

// ConvertWorkbook writes the first sheet of an .xlsx workbook to w as UTF-8
// delimited text.
func ConvertWorkbook(src io.Reader, w io.Writer, delim rune) error {
	f, err := excelize.OpenReader(src)
	if err != nil {
		return &ParseError{Err: fmt.Errorf("open workbook: %w", err)}
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return &EmptyDatasetError{}
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return &ParseError{Err: fmt.Errorf("read sheet %q: %w", sheet, err)}
	}
	if len(rows) == 0 {
		return &EmptyDatasetError{}
	}

	cw := csv.NewWriter(w)
	cw.Comma = delim
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write converted sheet: %w", err)
	}
	return nil
}
