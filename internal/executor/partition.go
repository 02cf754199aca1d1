package executor

import "github.com/ginjaninja78/payments-engine/internal/types"

// partitionByClient groups a batch into per-client slices, preserving the
// relative order of rows belonging to the same client. Order between
// distinct clients is not preserved; the batch barrier makes that safe.
func partitionByClient(batch []types.Row) map[uint16][]types.Row {
	partitions := make(map[uint16][]types.Row)
	for _, row := range batch {
		partitions[row.Client] = append(partitions[row.Client], row)
	}
	return partitions
}
