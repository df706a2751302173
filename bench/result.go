package bench

// Result is the immutable outcome of one measurement run. Field names
// follow the benchmark output convention so results from independent
// harnesses stay comparable.
type Result struct {
	Loader    string `json:"loader"`
	Dataset   string `json:"dataset,omitempty"`
	RunID     string `json:"run_id"`
	Timestamp string `json:"timestamp"`

	Throughput      float64 `json:"throughput"`
	TotalSamples    int     `json:"total_samples"`
	DurationSeconds float64 `json:"duration_seconds"`

	LatencyMeanMs float64 `json:"latency_mean_ms"`
	LatencyStdMs  float64 `json:"latency_std_ms"`
	LatencyMinMs  float64 `json:"latency_min_ms"`
	LatencyMaxMs  float64 `json:"latency_max_ms"`
	LatencyP50Ms  float64 `json:"latency_p50_ms"`
	LatencyP95Ms  float64 `json:"latency_p95_ms"`
	LatencyP99Ms  float64 `json:"latency_p99_ms"`

	NumBatches   int `json:"num_batches"`
	TotalBatches int `json:"total_batches"`
	Epochs       int `json:"epochs"`
	BatchSize    int `json:"batch_size"`
	NumWorkers   int `json:"num_workers"`
}
