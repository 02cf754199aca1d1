// =============================================================================
// Payments Engine - Snapshot Writer
// =============================================================================
//
// Serialises final account snapshots as CSV with the header
// client,available,held,total,locked. Balances carry exactly four
// fractional digits; row order is unspecified by the contract, but the
// writer emits clients in ascending order so output is stable for diffing.
//
// =============================================================================

package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/ginjaninja78/payments-engine/internal/types"
)

var header = []string{"client", "available", "held", "total", "locked"}

// WriteSnapshots emits one CSV row per account.
func WriteSnapshots(w io.Writer, snaps []types.Snapshot) error {
	sorted := make([]types.Snapshot, len(snaps))
	copy(sorted, snaps)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Client < sorted[j].Client })

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, snap := range sorted {
		record := []string{
			strconv.FormatUint(uint64(snap.Client), 10),
			snap.Available.String(),
			snap.Held.String(),
			snap.Total.String(),
			strconv.FormatBool(snap.Locked),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write snapshot for client %d: %w", snap.Client, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}
	return nil
}
