// =============================================================================
// Payments Engine - Root Command
// =============================================================================
//
// The root command for the Cobra CLI. All subcommands ('process',
// 'version') attach here.
//
// COBRA CLI STRUCTURE:
//   rootCmd (payments)
//   ├── processCmd (payments process)
//   └── versionCmd (payments version)
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// cfgFile holds the path to an optional run configuration file.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "payments",
	Short: "Streaming payments engine - replay a transaction log into account snapshots",
	Long: `Payments Engine consumes a tabular log of per-client money movements
(deposits, withdrawals, disputes, resolves, chargebacks), reconstructs the
resulting per-client account state in a single streaming pass, and emits the
final snapshot as CSV on stdout.

Malformed rows and invalid semantic references are logged to stderr and
skipped; they never abort a run.

Example Usage:
  payments process transactions.csv > accounts.csv
  payments process --strategy sync transactions.csv
  payments process --strategy async --batch-size 2000 --workers 8 transactions.csv`,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags are available to this command and all subcommands.
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"Path to an optional run configuration file (YAML)",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging on stderr",
	)
}
