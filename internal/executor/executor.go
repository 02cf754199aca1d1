// =============================================================================
// Payments Engine - Execution Strategies
// =============================================================================
//
// Two ways to drive rows from a source through the engine, with identical
// observable snapshots:
//
//   - Sync: lazy pull, one row at a time, single-threaded.
//   - Async: pull fixed-size batches, partition each batch by client, fan
//     one task per client partition onto a bounded worker pool, and join
//     before pulling the next batch.
//
// The batch barrier is what makes the async strategy deterministic: every
// row of batch N is fully applied before any row of batch N+1 is read, and
// a batch never splits one client's subsequence across workers.
//
// Cancellation is observed between rows (sync) and at batch boundaries
// (async). A cancelled run ends with a well-defined partial state: all rows
// up through the last completed batch applied.
//
// =============================================================================

package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ginjaninja78/payments-engine/internal/engine"
	"github.com/ginjaninja78/payments-engine/internal/ingest"
	"github.com/ginjaninja78/payments-engine/internal/types"
)

// Strategy selects the execution model. The pair is closed: there is no
// plugin surface here.
type Strategy string

const (
	// Sync processes the stream in a single pass on the calling goroutine.
	Sync Strategy = "sync"

	// Async processes the stream in concurrent per-client partitions,
	// batch by batch.
	Async Strategy = "async"
)

// ParseStrategy decodes a strategy name from the CLI or config file.
func ParseStrategy(name string) (Strategy, error) {
	switch Strategy(name) {
	case Sync, Async:
		return Strategy(name), nil
	default:
		return "", fmt.Errorf("unknown strategy %q (want %q or %q)", name, Sync, Async)
	}
}

// DefaultBatchSize is the number of rows pulled per batch in async mode.
const DefaultBatchSize = 1000

// Options tunes a run. Zero values fall back to defaults.
type Options struct {
	// BatchSize is the number of rows per async batch.
	BatchSize int

	// Workers bounds the number of client partitions applied concurrently.
	// Defaults to runtime.NumCPU via the config layer.
	Workers int

	Log zerolog.Logger
}

// Executor drives a row source through the engine using one strategy.
type Executor struct {
	strategy Strategy
	opts     Options

	// skipped counts rows dropped for decode errors, reported alongside
	// the engine's own counters.
	skipped int64
}

// New returns an executor for the given strategy.
func New(strategy Strategy, opts Options) *Executor {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Executor{strategy: strategy, opts: opts}
}

// Skipped returns the number of rows dropped for decode errors.
func (x *Executor) Skipped() int64 {
	return x.skipped
}

// Run consumes the source to exhaustion (or cancellation) and applies every
// decodable row through the engine. The returned error is nil on normal
// completion, ctx.Err() on cancellation, and the underlying failure for
// fatal I/O.
func (x *Executor) Run(ctx context.Context, src ingest.RowSource, eng *engine.Engine) error {
	switch x.strategy {
	case Async:
		return x.runAsync(ctx, src, eng)
	default:
		return x.runSync(ctx, src, eng)
	}
}

// runSync is the single-pass strategy: no batching, no suspension points
// beyond the source reads.
func (x *Executor) runSync(ctx context.Context, src ingest.RowSource, eng *engine.Engine) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		row, err := x.next(src)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		// Rejections are already logged and counted by the engine.
		_ = eng.Apply(row)
	}
}

// runAsync is the batch / partition / fan-out / join strategy.
func (x *Executor) runAsync(ctx context.Context, src ingest.RowSource, eng *engine.Engine) error {
	batch := make([]types.Row, 0, x.opts.BatchSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		batch = batch[:0]
		eof, err := x.fillBatch(src, &batch)
		if err != nil {
			return err
		}
		if len(batch) > 0 {
			x.applyBatch(batch, eng)
		}
		if eof {
			return nil
		}
	}
}

// fillBatch pulls up to BatchSize decodable rows. It reports eof=true once
// the source is exhausted.
func (x *Executor) fillBatch(src ingest.RowSource, batch *[]types.Row) (bool, error) {
	for len(*batch) < x.opts.BatchSize {
		row, err := x.next(src)
		if err != nil {
			if err == io.EOF {
				return true, nil
			}
			return false, err
		}
		*batch = append(*batch, row)
	}
	return false, nil
}

// applyBatch partitions one batch by client and applies each partition on
// its own task. The WaitGroup join is the batch barrier.
func (x *Executor) applyBatch(batch []types.Row, eng *engine.Engine) {
	partitions := partitionByClient(batch)

	var wg sync.WaitGroup
	// Bounded fan-out: at most Workers partitions in flight.
	slots := make(chan struct{}, x.opts.Workers)

	for _, rows := range partitions {
		wg.Add(1)
		slots <- struct{}{}
		go func(rows []types.Row) {
			defer wg.Done()
			defer func() { <-slots }()
			for _, row := range rows {
				_ = eng.Apply(row)
			}
		}(rows)
	}

	wg.Wait()
}

// next pulls the next decodable row, logging and skipping malformed ones.
func (x *Executor) next(src ingest.RowSource) (types.Row, error) {
	for {
		row, err := src.Next()
		if err == nil {
			return row, nil
		}
		if err == io.EOF {
			return types.Row{}, io.EOF
		}
		var rowErr *ingest.RowError
		if errors.As(err, &rowErr) {
			x.skipped++
			x.opts.Log.Warn().Int("line", rowErr.Line).Err(rowErr.Err).Msg("skipping malformed row")
			continue
		}
		return types.Row{}, err
	}
}
