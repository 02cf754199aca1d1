package ingest

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ginjaninja78/payments-engine/internal/types"
)

// CSVSource streams rows from a header-first CSV file with columns
// type,client,tx,amount.
type CSVSource struct {
	file   *os.File
	reader *csv.Reader
	line   int
}

// OpenCSV opens path and consumes the header row. A missing or malformed
// header is fatal: without it the column contract is unknown.
func OpenCSV(path string) (*CSVSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}

	reader := csv.NewReader(bufio.NewReader(file))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		file.Close()
		if err == io.EOF {
			return nil, errors.New("input is empty")
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if err := checkHeader(header); err != nil {
		file.Close()
		return nil, err
	}

	return &CSVSource{file: file, reader: reader, line: 1}, nil
}

// Next returns the next decoded row, a *RowError for a malformed one, or
// io.EOF at the end of the file.
func (s *CSVSource) Next() (types.Row, error) {
	record, err := s.reader.Read()
	if err != nil {
		if err == io.EOF {
			return types.Row{}, io.EOF
		}
		s.line++
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			return types.Row{}, &RowError{Line: int(parseErr.Line), Err: err}
		}
		return types.Row{}, fmt.Errorf("read failed: %w", err)
	}
	s.line++
	return decodeRow(record, s.line)
}

// Close releases the underlying file.
func (s *CSVSource) Close() error {
	return s.file.Close()
}
