package ingest

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/payments-engine/internal/types"
)

// XLSXSource streams rows from the first sheet of an XLSX workbook laid out
// like the CSV wire format: a type,client,tx,amount header row followed by
// one transaction per row. Rows are pulled through excelize's streaming
// iterator, never materialised as a whole sheet.
type XLSXSource struct {
	file *excelize.File
	rows *excelize.Rows
	line int
}

// OpenXLSX opens path and positions the iterator past the header row.
func OpenXLSX(path string) (*XLSXSource, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}

	sheet := file.GetSheetName(0)
	if sheet == "" {
		file.Close()
		return nil, errors.New("workbook has no sheets")
	}

	rows, err := file.Rows(sheet)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to iterate sheet %q: %w", sheet, err)
	}

	if !rows.Next() {
		rows.Close()
		file.Close()
		return nil, errors.New("input is empty")
	}
	header, err := rows.Columns()
	if err != nil {
		rows.Close()
		file.Close()
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if err := checkHeader(header); err != nil {
		rows.Close()
		file.Close()
		return nil, err
	}

	return &XLSXSource{file: file, rows: rows, line: 1}, nil
}

// Next returns the next decoded row, a *RowError for a malformed one, or
// io.EOF at the end of the sheet.
func (s *XLSXSource) Next() (types.Row, error) {
	if !s.rows.Next() {
		if err := s.rows.Error(); err != nil {
			return types.Row{}, fmt.Errorf("read failed: %w", err)
		}
		return types.Row{}, io.EOF
	}
	s.line++

	fields, err := s.rows.Columns()
	if err != nil {
		return types.Row{}, &RowError{Line: s.line, Err: err}
	}
	return decodeRow(fields, s.line)
}

// Close releases the iterator and the workbook.
func (s *XLSXSource) Close() error {
	s.rows.Close()
	return s.file.Close()
}
