// =============================================================================
// Payments Engine - Main Entry Point
// =============================================================================
//
// USAGE:
//   payments process INPUT   - Replay a transaction log into account snapshots
//   payments version         - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : Core business logic (money, engine, stores, executor)
//   - pkg/       : Shared utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/payments-engine/cmd"
)

func main() {
	cmd.Execute()
}
