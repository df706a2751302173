package bench

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// DefaultWarmupBatches is the number of un-timed pulls discarded
// before measurement starts.
const DefaultWarmupBatches = 3

// RunConfig holds the parameters for a single measurement run.
type RunConfig struct {
	// Duration is the wall-clock measurement budget. The loop exits
	// at the first deadline check after the in-flight batch
	// completes, so the actual elapsed time may overshoot slightly.
	Duration time.Duration

	// WarmupBatches overrides DefaultWarmupBatches when positive.
	WarmupBatches int

	// BatchSize and Workers are recorded in the result; the source
	// fixes the actual batch geometry.
	BatchSize int
	Workers   int

	// DatasetPath is recorded in the result metadata.
	DatasetPath string
}

// Runner drives warmup, the duration-bounded epoch loop, and the final
// statistics reduction. A Runner performs no error recovery: any
// failure from the batch source aborts the run.
type Runner struct {
	cfg    RunConfig
	logger *slog.Logger

	now func() time.Time
}

// NewRunner creates a Runner. The logger must not be nil; callers hand
// each component a pre-scoped logger.
func NewRunner(cfg RunConfig, logger *slog.Logger) *Runner {
	if cfg.WarmupBatches <= 0 {
		cfg.WarmupBatches = DefaultWarmupBatches
	}
	return &Runner{
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Run measures src until the duration deadline and returns the reduced
// result. Latency samples are recorded in pull order; an exhausted
// pass restarts the source and counts as one epoch. The source is not
// closed; its owner releases it.
func (r *Runner) Run(ctx context.Context, src BatchSource) (*Result, error) {
	r.logger.Info("starting run",
		slog.String("loader", src.Name()),
		slog.Duration("duration", r.cfg.Duration),
		slog.Int("batch_size", r.cfg.BatchSize),
	)

	if err := r.warmup(src); err != nil {
		return nil, err
	}

	// Measurement starts at a pass boundary.
	if err := src.Reset(); err != nil {
		return nil, fmt.Errorf("reset %s after warmup: %w", src.Name(), err)
	}

	acc := NewAccumulator()

	var (
		totalSamples int
		totalBatches int
		epochs       int
	)

	start := r.now()
	deadline := start.Add(r.cfg.Duration)

running:
	for r.now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		epochs++
		batchesThisEpoch := 0

		for {
			pullStart := r.now()

			n, err := src.Next()
			if err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				return nil, fmt.Errorf("pull batch from %s: %w", src.Name(), err)
			}

			pullEnd := r.now()
			acc.Record(float64(pullEnd.Sub(pullStart)) / float64(time.Millisecond))

			totalSamples += n
			totalBatches++
			batchesThisEpoch++

			// The in-flight batch always completes; the deadline is
			// honored between batches only.
			if !pullEnd.Before(deadline) {
				break running
			}
		}

		if err := src.Reset(); err != nil {
			return nil, fmt.Errorf("restart %s for next epoch: %w", src.Name(), err)
		}

		r.logger.Debug("epoch complete",
			slog.Int("epoch", epochs),
			slog.Int("batches", batchesThisEpoch),
			slog.Int("total_samples", totalSamples),
		)
	}

	elapsed := r.now().Sub(start)

	result := r.finalize(acc, src.Name(), totalSamples, totalBatches, epochs, elapsed)

	r.logger.Info("run complete",
		slog.String("loader", result.Loader),
		slog.Int("epochs", result.Epochs),
		slog.Int("total_batches", result.TotalBatches),
		slog.Float64("throughput", result.Throughput),
	)

	return result, nil
}

// warmup discards the configured number of batches, or fewer if the
// source exhausts first. Nothing is timed or recorded.
func (r *Runner) warmup(src BatchSource) error {
	for i := 0; i < r.cfg.WarmupBatches; i++ {
		if _, err := src.Next(); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("warmup pull from %s: %w", src.Name(), err)
		}
	}
	return nil
}

func (r *Runner) finalize(
	acc *Accumulator,
	loader string,
	totalSamples, totalBatches, epochs int,
	elapsed time.Duration,
) *Result {
	sum := acc.Summarize()

	elapsedSec := elapsed.Seconds()

	var throughput float64
	if elapsedSec > 0 {
		throughput = float64(totalSamples) / elapsedSec
	}

	return &Result{
		Loader:          loader,
		Dataset:         r.cfg.DatasetPath,
		RunID:           uuid.NewString(),
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
		Throughput:      throughput,
		TotalSamples:    totalSamples,
		DurationSeconds: elapsedSec,
		LatencyMeanMs:   sum.Mean,
		LatencyStdMs:    sum.Std,
		LatencyMinMs:    sum.Min,
		LatencyMaxMs:    sum.Max,
		LatencyP50Ms:    sum.P50,
		LatencyP95Ms:    sum.P95,
		LatencyP99Ms:    sum.P99,
		NumBatches:      acc.Len(),
		TotalBatches:    totalBatches,
		Epochs:          epochs,
		BatchSize:       r.cfg.BatchSize,
		NumWorkers:      r.cfg.Workers,
	}
}
