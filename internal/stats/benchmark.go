package stats

import (
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	benchmarksDir        = "benchmarks"
	benchmarkSummaryFile = "benchmark_summary.json"
)

// BenchmarkRun is one seed of a repeated run.
type BenchmarkRun struct {
	RunID         string  `json:"run_id"`
	Seed          int64   `json:"seed"`
	FinalBest     float64 `json:"final_best"`
	BestConflicts int     `json:"best_conflicts"`
	// SolvedAt is the first generation whose best chromosome had no
	// conflicts, or 0.
	SolvedAt int `json:"solved_at,omitempty"`
}

type BenchmarkSummary struct {
	ID            string         `json:"id"`
	Problem       string         `json:"problem"`
	TotalRuns     int            `json:"total_runs"`
	SolvedRuns    int            `json:"solved_runs"`
	SolveRate     float64        `json:"solve_rate"`
	FinalBestMean float64        `json:"final_best_mean"`
	FinalBestStd  float64        `json:"final_best_std"`
	FinalBestMin  float64        `json:"final_best_min"`
	FinalBestMax  float64        `json:"final_best_max"`
	MeanSolvedAt  float64        `json:"mean_solved_at,omitempty"`
	AverageBest   []float64      `json:"average_best_by_generation"`
	Runs          []BenchmarkRun `json:"runs"`
	CreatedAtUTC  string         `json:"created_at_utc,omitempty"`
}

// SummarizeBenchmark aggregates repeated runs. histories holds each run's
// best-so-far series and may be ragged.
func SummarizeBenchmark(id, problem string, runs []BenchmarkRun, histories [][]float64) (BenchmarkSummary, error) {
	if len(runs) == 0 {
		return BenchmarkSummary{}, fmt.Errorf("benchmark %s has no runs", id)
	}

	finals := make([]float64, len(runs))
	solvedAt := make([]float64, 0, len(runs))
	for i, run := range runs {
		finals[i] = run.FinalBest
		if run.SolvedAt > 0 {
			solvedAt = append(solvedAt, float64(run.SolvedAt))
		}
	}

	summary := BenchmarkSummary{
		ID:           id,
		Problem:      problem,
		TotalRuns:    len(runs),
		SolvedRuns:   len(solvedAt),
		SolveRate:    float64(len(solvedAt)) / float64(len(runs)),
		FinalBestMin: floats.Min(finals),
		FinalBestMax: floats.Max(finals),
		AverageBest:  AverageSeries(histories),
		Runs:         append([]BenchmarkRun(nil), runs...),
	}
	if len(finals) > 1 {
		summary.FinalBestMean, summary.FinalBestStd = stat.MeanStdDev(finals, nil)
	} else {
		summary.FinalBestMean = finals[0]
	}
	if len(solvedAt) > 0 {
		summary.MeanSolvedAt = stat.Mean(solvedAt, nil)
	}
	return summary, nil
}

// AverageSeries averages the lists position by position. A position is
// averaged over the lists long enough to reach it.
func AverageSeries(lists [][]float64) []float64 {
	longest := 0
	for _, list := range lists {
		longest = max(longest, len(list))
	}
	out := make([]float64, 0, longest)
	values := make([]float64, 0, len(lists))
	for i := 0; i < longest; i++ {
		values = values[:0]
		for _, list := range lists {
			if i < len(list) {
				values = append(values, list[i])
			}
		}
		out = append(out, stat.Mean(values, nil))
	}
	return out
}

// BenchmarkDir is where a benchmark's summary and chart live.
func BenchmarkDir(baseDir, id string) string {
	return filepath.Join(baseDir, benchmarksDir, id)
}

func WriteBenchmarkSummary(baseDir string, summary BenchmarkSummary) (string, error) {
	if summary.ID == "" {
		return "", fmt.Errorf("benchmark id is required")
	}
	dir := BenchmarkDir(baseDir, summary.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(dir, benchmarkSummaryFile), summary); err != nil {
		return "", err
	}
	return dir, nil
}

func ReadBenchmarkSummary(baseDir, id string) (BenchmarkSummary, bool, error) {
	if id == "" {
		return BenchmarkSummary{}, false, fmt.Errorf("benchmark id is required")
	}
	var summary BenchmarkSummary
	ok, err := readJSON(filepath.Join(BenchmarkDir(baseDir, id), benchmarkSummaryFile), &summary)
	return summary, ok, err
}
