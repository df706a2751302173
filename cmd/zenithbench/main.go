// Package main provides the CLI entry point for zenithbench, a
// dataloader benchmark harness for the zenith data-plane engine and
// comparable loading paths.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/wahyuard/zenithbench/bench"
	"github.com/wahyuard/zenithbench/config"
	"github.com/wahyuard/zenithbench/dataset"
	"github.com/wahyuard/zenithbench/engine"
	"github.com/wahyuard/zenithbench/report"
)

const dataDirEnv = "ZENITH_BENCH_DATA"

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	root := newRootCmd(logger)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "zenithbench:", err)
		os.Exit(1)
	}
}

func newRootCmd(logger *slog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:   "zenithbench",
		Short: "Dataloader benchmark harness for the zenith engine",
		Long: `Zenithbench measures data-loading throughput and per-batch latency
across the zenith engine and comparable loading paths (direct table
slicing, sequential batch iteration), producing reproducible
statistics for each loader.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newRunCmd(logger))

	return root
}

func newRunCmd(logger *slog.Logger) *cobra.Command {
	var (
		configPath string
		mode       string
		synthetic  bool
		rows       int
		jsonOut    bool
	)

	cfg := config.Default()

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run dataloader benchmarks",
		Long: `Open a dataset, drive it through one or more loader modes for a
fixed wall-clock duration, and report throughput and latency
percentiles per loader.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if configPath != "" {
				fileCfg, err := config.Load(configPath)
				if err != nil {
					return err
				}
				cfg = mergeFlags(cmd, cfg, fileCfg)
			}
			if mode != "" {
				cfg.Modes = []string{mode}
			}

			return runBenchmark(cmd.Context(), logger, cfg, runOptions{
				synthetic: synthetic,
				rows:      rows,
				jsonOut:   jsonOut,
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.Dataset, "dataset", "",
		"Path to dataset file (.parquet, .arrow, .csv)")
	flags.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir,
		"Directory to search for datasets when --dataset is not given")
	flags.Float64Var(&cfg.DurationSeconds, "duration", cfg.DurationSeconds,
		"Measurement duration per loader in seconds")
	flags.IntVar(&cfg.BatchSize, "batch-size", cfg.BatchSize,
		"Samples per batch")
	flags.IntVar(&cfg.Workers, "workers", cfg.Workers,
		"Prefetch queue depth (0 = pull batches inline)")
	flags.Uint32Var(&cfg.BufferCapacity, "buffer-capacity", cfg.BufferCapacity,
		"Engine ring-buffer capacity")
	flags.StringSliceVar(&cfg.Plugins, "plugin", nil,
		"Plugin file to load into the engine (repeatable)")
	flags.BoolVar(&cfg.Fallback, "fallback", false,
		"Fall back to the direct loader when the native engine is unavailable")
	flags.StringVar(&cfg.Output, "output", "",
		"Write results JSON to this file")
	flags.StringVar(&configPath, "config", "",
		"Path to TOML config file (flags override file values)")
	flags.StringVar(&mode, "mode", "",
		"Loader mode: engine, direct, iterator, all (default from config)")
	flags.BoolVar(&synthetic, "synthetic", false,
		"Benchmark a generated in-memory dataset instead of a file")
	flags.IntVar(&rows, "rows", 100000,
		"Row count for --synthetic")
	flags.BoolVar(&jsonOut, "json", false,
		"Output results as JSON instead of a table")

	return cmd
}

// mergeFlags overlays explicitly set flags on top of the values loaded
// from the config file.
func mergeFlags(cmd *cobra.Command, flagCfg, fileCfg config.Config) config.Config {
	merged := fileCfg

	set := func(name string) bool { return cmd.Flags().Changed(name) }

	if set("dataset") {
		merged.Dataset = flagCfg.Dataset
	}
	if set("data-dir") {
		merged.DataDir = flagCfg.DataDir
	}
	if set("duration") {
		merged.DurationSeconds = flagCfg.DurationSeconds
	}
	if set("batch-size") {
		merged.BatchSize = flagCfg.BatchSize
	}
	if set("workers") {
		merged.Workers = flagCfg.Workers
	}
	if set("buffer-capacity") {
		merged.BufferCapacity = flagCfg.BufferCapacity
	}
	if set("plugin") {
		merged.Plugins = flagCfg.Plugins
	}
	if set("fallback") {
		merged.Fallback = flagCfg.Fallback
	}
	if set("output") {
		merged.Output = flagCfg.Output
	}

	return merged
}

type runOptions struct {
	synthetic bool
	rows      int
	jsonOut   bool
}

func runBenchmark(
	ctx context.Context,
	logger *slog.Logger,
	cfg config.Config,
	opts runOptions,
) error {
	tbl, err := openTable(logger, cfg, opts)
	if err != nil {
		return err
	}
	defer tbl.Release()

	logger.InfoContext(ctx, "dataset open",
		slog.String("path", tbl.Path()),
		slog.Int("rows", tbl.NumRows()),
		slog.Int("features", tbl.Schema().NumFeatures()),
	)

	modes, err := expandModes(cfg.Modes)
	if err != nil {
		return err
	}

	runCfg := bench.RunConfig{
		Duration:    time.Duration(cfg.DurationSeconds * float64(time.Second)),
		BatchSize:   cfg.BatchSize,
		Workers:     cfg.Workers,
		DatasetPath: tbl.Path(),
	}

	results := make([]bench.Result, 0, len(modes))

	for _, m := range modes {
		result, err := runMode(ctx, logger, m, cfg, runCfg, tbl)
		if err != nil {
			return fmt.Errorf("run %s: %w", m, err)
		}
		results = append(results, *result)
	}

	if opts.jsonOut {
		if err := report.GenerateJSON(os.Stdout, results); err != nil {
			return fmt.Errorf("generate JSON report: %w", err)
		}
	} else {
		if err := report.Generate(os.Stdout, results); err != nil {
			return fmt.Errorf("generate report: %w", err)
		}
	}

	if cfg.Output != "" {
		if err := writeResults(cfg.Output, results); err != nil {
			return err
		}
		logger.InfoContext(ctx, "results saved", slog.String("path", cfg.Output))
	}

	return nil
}

func openTable(logger *slog.Logger, cfg config.Config, opts runOptions) (*dataset.Table, error) {
	if opts.synthetic {
		logger.Info("generating synthetic dataset", slog.Int("rows", opts.rows))

		return dataset.NewGenerator(dataset.SyntheticConfig{
			Rows: opts.rows,
			Seed: 1,
		}).Table(), nil
	}

	path := cfg.Dataset
	if path == "" {
		dir := cfg.DataDir
		if env := os.Getenv(dataDirEnv); env != "" {
			dir = env
		}

		found, err := dataset.Discover(dir)
		if err != nil {
			return nil, fmt.Errorf("%w (generate a dataset or pass --dataset)", err)
		}
		path = found
	}

	return dataset.Open(path)
}

func expandModes(modes []string) ([]string, error) {
	var out []string
	for _, m := range modes {
		switch m {
		case "all":
			out = append(out, "engine", "direct", "iterator")
		case "engine", "direct", "iterator":
			out = append(out, m)
		default:
			return nil, fmt.Errorf("unknown mode %q", m)
		}
	}
	if len(out) == 0 {
		return nil, errors.New("no loader modes selected")
	}

	return out, nil
}

func runMode(
	ctx context.Context,
	logger *slog.Logger,
	mode string,
	cfg config.Config,
	runCfg bench.RunConfig,
	tbl *dataset.Table,
) (*bench.Result, error) {
	src, cleanup, err := buildSource(logger, mode, cfg, tbl)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	runner := bench.NewRunner(runCfg, logger)

	return runner.Run(ctx, src)
}

// buildSource constructs the batch source for a loader mode. The
// returned cleanup releases whatever the source owns and is safe to
// call on every exit path.
func buildSource(
	logger *slog.Logger,
	mode string,
	cfg config.Config,
	tbl *dataset.Table,
) (bench.BatchSource, func(), error) {
	var src bench.BatchSource

	cleanup := func() {}

	switch mode {
	case "engine":
		es, err := buildEngineSource(logger, cfg, tbl)
		if err != nil {
			if cfg.Fallback && errors.Is(err, engine.ErrNativeUnavailable) {
				logger.Warn("native engine unavailable, falling back to direct loader",
					slog.String("error", err.Error()),
				)
				src = bench.NewTableSource(tbl, cfg.BatchSize)
				break
			}
			return nil, nil, err
		}
		src = es
		cleanup = func() {
			if err := es.Close(); err != nil {
				logger.Warn("close engine source", slog.String("error", err.Error()))
			}
		}

	case "direct":
		src = bench.NewTableSource(tbl, cfg.BatchSize)

	case "iterator":
		src = bench.NewStreamSource(tbl, cfg.BatchSize)

	default:
		return nil, nil, fmt.Errorf("unknown mode %q", mode)
	}

	if cfg.Workers > 0 {
		// PrefetchSource closes the wrapped source, so its cleanup
		// subsumes the engine cleanup above.
		ps := bench.NewPrefetchSource(src, cfg.Workers)
		cleanup = func() {
			if err := ps.Close(); err != nil {
				logger.Warn("close prefetch source", slog.String("error", err.Error()))
			}
		}
		src = ps
	}

	return src, cleanup, nil
}

func buildEngineSource(
	logger *slog.Logger,
	cfg config.Config,
	tbl *dataset.Table,
) (*bench.EngineSource, error) {
	abi, err := engine.NativeABI()
	if err != nil {
		return nil, err
	}

	client, err := engine.NewClient(abi, engine.Config{
		BufferCapacity: cfg.BufferCapacity,
	})
	if err != nil {
		return nil, err
	}

	for _, p := range cfg.Plugins {
		if err := client.LoadPlugin(p); err != nil {
			client.Close()
			return nil, err
		}
	}

	st, err := client.Stats()
	if err != nil {
		client.Close()
		return nil, err
	}

	logger.Info("engine ready",
		slog.Uint64("buffer_len", st.BufferLen),
		slog.Uint64("plugin_count", st.PluginCount),
		slog.Uint64("events_processed", st.EventsProcessed),
	)

	return bench.NewEngineSource(client, tbl, cfg.BatchSize), nil
}

func writeResults(path string, results []bench.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output %s: %w", path, err)
	}

	if err := report.GenerateJSON(f, results); err != nil {
		f.Close()
		return fmt.Errorf("write output %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close output %s: %w", path, err)
	}

	return nil
}
