package repository

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// XLSXSource reads the first sheet of an Excel workbook. The first row is
// the header.
type XLSXSource struct {
	path string
}

func NewXLSXSource(path string) *XLSXSource {
	return &XLSXSource{path: path}
}

func (s *XLSXSource) Name() string { return s.path }

func (s *XLSXSource) ReadRecords(ctx context.Context) ([]string, [][]string, error) {
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("no sheets found in workbook")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("sheet %q is empty", sheets[0])
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	header := normalizeHeader(rows[0])
	records := make([][]string, 0, len(rows)-1)
	for i, row := range rows[1:] {
		// GetRows drops trailing empty cells
		rec, err := padRecord(row, len(header))
		if err != nil {
			return nil, nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		records = append(records, rec)
	}
	return header, records, nil
}
