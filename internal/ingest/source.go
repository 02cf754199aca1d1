// =============================================================================
// Payments Engine - Input Sources
// =============================================================================
//
// Streaming row sources for the executor. A RowSource yields one decoded
// Row at a time; the stream is bounded only by disk, so sources never load
// the whole input into memory.
//
// Decode failures are per-row: Next returns a *RowError that the executor
// logs and skips. Only genuine I/O failures end the stream early.
//
// =============================================================================

package ingest

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ginjaninja78/payments-engine/internal/money"
	"github.com/ginjaninja78/payments-engine/internal/types"
)

// RowSource is a lazy stream of decoded input rows. Next returns io.EOF at
// the end of the stream and *RowError for rows that fail to decode; any
// other error is fatal to the run.
type RowSource interface {
	Next() (types.Row, error)
	Close() error
}

// RowError reports one undecodable row. The stream continues past it.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// column order of the wire format.
const (
	colType = iota
	colClient
	colTx
	colAmount
	columnCount
)

// decodeRow turns one tokenised record into a Row. fields holds at least
// the type, client and tx columns; the amount column may be missing
// entirely for dispute-family rows.
func decodeRow(fields []string, line int) (types.Row, error) {
	if len(fields) < colAmount {
		return types.Row{}, &RowError{Line: line, Err: fmt.Errorf("expected %d columns, got %d", columnCount, len(fields))}
	}

	kind, err := types.ParseTxKind(fields[colType])
	if err != nil {
		return types.Row{}, &RowError{Line: line, Err: err}
	}

	client, err := strconv.ParseUint(strings.TrimSpace(fields[colClient]), 10, 16)
	if err != nil {
		return types.Row{}, &RowError{Line: line, Err: fmt.Errorf("invalid client id %q", fields[colClient])}
	}

	tx, err := strconv.ParseUint(strings.TrimSpace(fields[colTx]), 10, 32)
	if err != nil {
		return types.Row{}, &RowError{Line: line, Err: fmt.Errorf("invalid transaction id %q", fields[colTx])}
	}

	row := types.Row{
		Kind:   kind,
		Client: uint16(client),
		Tx:     uint32(tx),
	}

	// Dispute-family rows reference a prior transaction; their amount
	// column, present or not, is ignored.
	if !kind.HasAmount() {
		return row, nil
	}

	if len(fields) < columnCount || strings.TrimSpace(fields[colAmount]) == "" {
		return types.Row{}, &RowError{Line: line, Err: fmt.Errorf("%s requires an amount", kind)}
	}
	amount, err := money.Parse(fields[colAmount])
	if err != nil {
		return types.Row{}, &RowError{Line: line, Err: err}
	}
	row.Amount = &amount
	return row, nil
}

// checkHeader verifies the first record names the expected columns.
func checkHeader(fields []string) error {
	want := []string{"type", "client", "tx", "amount"}
	if len(fields) < len(want) {
		return fmt.Errorf("malformed header: expected columns %v", want)
	}
	for i, name := range want {
		if !strings.EqualFold(strings.TrimSpace(fields[i]), name) {
			return fmt.Errorf("malformed header: column %d is %q, want %q", i, fields[i], name)
		}
	}
	return nil
}
