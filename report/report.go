// Package report formats benchmark results into comparison tables.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/wahyuard/zenithbench/bench"
)

// Generate writes a markdown comparison table for the given results.
func Generate(w io.Writer, results []bench.Result) error {
	if len(results) == 0 {
		return fmt.Errorf("no results to report")
	}

	best := findBest(results)

	// Header.
	fmt.Fprintln(w, "## Benchmark Results")
	fmt.Fprintln(w)

	if ds := results[0].Dataset; ds != "" {
		fmt.Fprintf(w, "Dataset: `%s`\n", ds)
		fmt.Fprintln(w)
	}

	// Table header.
	fmt.Fprintln(w, "| Loader | Throughput | p50 | p95 | p99 "+
		"| Mean | Batches | Epochs | Relative |")
	fmt.Fprintln(w, "|--------|------------|-----|-----|-----"+
		"|------|---------|--------|----------|")

	for _, r := range results {
		relative := 1.0
		if r.Throughput > 0 && best.Throughput > 0 {
			relative = best.Throughput / r.Throughput
		}

		fmt.Fprintf(w, "| %s | %s | %s | %s | %s | %s | %d | %d | %.2fx |\n",
			r.Loader,
			formatThroughput(r.Throughput),
			formatMs(r.LatencyP50Ms),
			formatMs(r.LatencyP95Ms),
			formatMs(r.LatencyP99Ms),
			formatMs(r.LatencyMeanMs),
			r.TotalBatches,
			r.Epochs,
			relative,
		)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "BEST: %s @ %s\n", best.Loader, formatThroughput(best.Throughput))

	return nil
}

// GenerateJSON writes results as JSON to w.
func GenerateJSON(w io.Writer, results []bench.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(results)
}

func findBest(results []bench.Result) bench.Result {
	best := results[0]
	for _, r := range results[1:] {
		if r.Throughput > best.Throughput {
			best = r
		}
	}

	return best
}

func formatThroughput(v float64) string {
	return groupDigits(fmt.Sprintf("%.0f", v)) + " samples/sec"
}

func formatMs(ms float64) string {
	return fmt.Sprintf("%.3f ms", ms)
}

// groupDigits inserts thousands separators into a non-negative integer
// string.
func groupDigits(s string) string {
	if len(s) <= 3 {
		return s
	}

	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}

	return b.String()
}
