// =============================================================================
// Payments Engine - Process Command
// =============================================================================
//
// The 'process' command: replay one transaction log through the engine and
// emit final account snapshots.
//
// COMMAND USAGE:
//   payments process INPUT [flags]
//
// FLAGS:
//   --strategy    : Execution strategy, 'sync' or 'async' (default async)
//   --batch-size  : Rows per batch in async mode (default 1000)
//   --workers     : Concurrent client partitions per batch (default CPU cores)
//   --output      : Write snapshots to a file instead of stdout
//   --format      : Input format, 'csv' or 'xlsx' (default by file extension)
//
// PIPELINE:
//   1. Resolve configuration (defaults <- config file <- flags)
//   2. Open the input stream (CSV or XLSX)
//   3. Drive rows through the engine with the selected strategy
//   4. Write the snapshot CSV
//   5. Log the run summary
//
// Exit code is 0 on normal completion even when rows were rejected;
// non-zero only on fatal I/O (unreadable input, unwritable output) or
// invalid settings (unknown strategy or format, a bad config file).
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/payments-engine/internal/config"
	"github.com/ginjaninja78/payments-engine/internal/engine"
	"github.com/ginjaninja78/payments-engine/internal/executor"
	"github.com/ginjaninja78/payments-engine/internal/ingest"
	"github.com/ginjaninja78/payments-engine/internal/logging"
	"github.com/ginjaninja78/payments-engine/internal/report"
	"github.com/ginjaninja78/payments-engine/pkg/utils"
)

// Command flags. Cobra tracks which were set so file values survive unless
// explicitly overridden.
var (
	strategyFlag  string
	batchSizeFlag int
	workersFlag   int
	outputFlag    string
	formatFlag    string
)

// processCmd represents the 'process' command.
var processCmd = &cobra.Command{
	Use:   "process INPUT",
	Short: "Replay a transaction log and emit account snapshots",
	Long: `The process command streams the input transaction log in a single pass,
applies every row through the dispute state machine, and writes the final
per-client account snapshot as CSV.

The async strategy (default) reads rows in batches, partitions each batch by
client, and applies distinct clients in parallel. Rows belonging to one
client are always applied in source order, so both strategies produce
identical snapshots.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringVar(
		&strategyFlag,
		"strategy",
		"",
		"Execution strategy: 'sync' or 'async' (default async)",
	)

	processCmd.Flags().IntVar(
		&batchSizeFlag,
		"batch-size",
		0,
		"Rows per batch in async mode (default 1000)",
	)

	processCmd.Flags().IntVar(
		&workersFlag,
		"workers",
		0,
		"Concurrent client partitions per batch (default: CPU cores)",
	)

	processCmd.Flags().StringVar(
		&outputFlag,
		"output",
		"",
		"Write the snapshot CSV to a file instead of stdout",
	)

	processCmd.Flags().StringVar(
		&formatFlag,
		"format",
		"",
		"Input format: 'csv' or 'xlsx' (default: by file extension)",
	)
}

// runProcess orchestrates one run end to end.
func runProcess(cmd *cobra.Command, inputPath string) error {
	startTime := time.Now()

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	log := logging.New(cfg.LogLevel)

	strategy, err := executor.ParseStrategy(cfg.Strategy)
	if err != nil {
		return err
	}

	// Interrupts cancel at the next batch boundary; state up through the
	// last completed batch stays well defined.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, err := openSource(inputPath)
	if err != nil {
		return err
	}
	defer src.Close()

	eng := engine.New(log)
	exec := executor.New(strategy, executor.Options{
		BatchSize: cfg.BatchSize,
		Workers:   cfg.Workers,
		Log:       log,
	})

	log.Info().
		Str("input", inputPath).
		Str("strategy", string(strategy)).
		Int("batch_size", cfg.BatchSize).
		Int("workers", cfg.Workers).
		Msg("processing started")

	if err := exec.Run(ctx, src, eng); err != nil {
		if ctx.Err() != nil {
			log.Warn().Msg("run cancelled; snapshot covers completed batches only")
		} else {
			return fmt.Errorf("processing failed: %w", err)
		}
	}

	out, err := utils.OpenOutput(outputFlag)
	if err != nil {
		return err
	}
	defer out.Close()

	if err := report.WriteSnapshots(out, eng.Snapshots()); err != nil {
		return fmt.Errorf("failed to write snapshots: %w", err)
	}

	stats := eng.Stats()
	summary := log.Info().
		Int64("applied", stats.Applied).
		Int64("rejected", stats.Rejected).
		Int64("skipped", exec.Skipped()).
		Dur("elapsed", time.Since(startTime))
	if len(stats.ByReason) > 0 {
		summary = summary.Interface("rejections", stats.ByReason)
	}
	summary.Msg("processing complete")

	return nil
}

// resolveConfig merges defaults, the optional config file, and flags.
func resolveConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if cfgFile != "" {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}

	if strategyFlag != "" {
		cfg.Strategy = strategyFlag
	}
	if cmd.Flags().Changed("batch-size") {
		cfg.BatchSize = batchSizeFlag
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = workersFlag
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	// Out-of-range tuning values fall back to defaults with a warning
	// rather than failing the run.
	def := config.Default()
	if cfg.BatchSize <= 0 {
		fmt.Fprintf(os.Stderr, "Warning: invalid batch size (%d), using default (%d)\n", cfg.BatchSize, def.BatchSize)
		cfg.BatchSize = def.BatchSize
	}
	if cfg.Workers <= 0 {
		fmt.Fprintf(os.Stderr, "Warning: invalid worker count (%d), using default (%d)\n", cfg.Workers, def.Workers)
		cfg.Workers = def.Workers
	}

	return cfg, nil
}

// openSource picks the input decoder from --format or the file extension.
func openSource(path string) (ingest.RowSource, error) {
	format := strings.ToLower(formatFlag)
	if format == "" {
		if strings.EqualFold(filepath.Ext(path), ".xlsx") {
			format = "xlsx"
		} else {
			format = "csv"
		}
	}

	switch format {
	case "csv":
		return ingest.OpenCSV(path)
	case "xlsx":
		return ingest.OpenXLSX(path)
	default:
		return nil, fmt.Errorf("unknown input format %q (want 'csv' or 'xlsx')", formatFlag)
	}
}
