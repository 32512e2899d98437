package main

import (
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"genopt/internal/model"
	"genopt/internal/stats"
	"genopt/pkg/genopt"
)

type runSummaryOutput struct {
	RunID            string                 `json:"run_id"`
	ArtifactsDir     string                 `json:"artifacts_dir"`
	Generations      int                    `json:"generations"`
	BestByGeneration []float64              `json:"best_by_generation"`
	Best             model.ChromosomeRecord `json:"best"`
	DurationMS       int64                  `json:"duration_ms"`
}

func runSummaryJSON(s genopt.RunSummary) runSummaryOutput {
	return runSummaryOutput{
		RunID:            s.RunID,
		ArtifactsDir:     s.ArtifactsDir,
		Generations:      s.Generations,
		BestByGeneration: s.BestByGeneration,
		Best:             s.Best,
		DurationMS:       s.Duration.Milliseconds(),
	}
}

func printRunSummary(w io.Writer, s genopt.RunSummary, req genopt.RunRequest) {
	evaluated := int64(s.Generations) * int64(req.PopulationSize)
	fmt.Fprintf(w, "run_id=%s generations=%d evaluated=%s duration=%s\n",
		s.RunID, s.Generations, humanize.Comma(evaluated), s.Duration.Round(time.Microsecond))
	fmt.Fprintf(w, "best_fitness=%.6f best_conflicts=%d genes=%s\n",
		s.Best.Fitness, s.Best.Conflicts, formatGenes(s.Best.Genes))
	fmt.Fprintf(w, "artifacts=%s size=%s\n", s.ArtifactsDir, humanize.Bytes(dirSize(s.ArtifactsDir)))
}

func printBenchmarkSummary(w io.Writer, s stats.BenchmarkSummary, dir string) {
	fmt.Fprintf(w, "benchmark_id=%s problem=%s runs=%d solved=%d solve_rate=%s\n",
		s.ID, s.Problem, s.TotalRuns, s.SolvedRuns, humanize.FormatFloat("#.##", s.SolveRate*100)+"%")
	fmt.Fprintf(w, "final_best mean=%.6f std=%.6f min=%.6f max=%.6f\n",
		s.FinalBestMean, s.FinalBestStd, s.FinalBestMin, s.FinalBestMax)
	if s.SolvedRuns > 0 {
		fmt.Fprintf(w, "mean_solved_at=%.2f\n", s.MeanSolvedAt)
	}
	fmt.Fprintf(w, "summary=%s\n", dir)
}

func printRuns(w io.Writer, items []genopt.RunItem) {
	now := time.Now()
	for _, item := range items {
		created := item.CreatedAtUTC
		if t, err := time.Parse(time.RFC3339Nano, item.CreatedAtUTC); err == nil {
			created = humanize.RelTime(t, now, "ago", "from now")
		}
		fmt.Fprintf(w, "run_id=%s created=%q problem=%s length=%d pop=%d gens=%d crossover=%s seed=%d final_best_fitness=%.6f conflicts=%d\n",
			item.RunID,
			created,
			item.Problem,
			item.ChromosomeLength,
			item.Population,
			item.MaxGenerations,
			item.Crossover,
			item.Seed,
			item.FinalBestFitness,
			item.BestConflicts,
		)
	}
}

func printRunRecord(w io.Writer, r model.RunRecord) {
	fmt.Fprintf(w, "run_id=%s problem=%s crossover=%s", r.ID, r.Problem, r.Crossover)
	if r.TwoPointMode != "" {
		fmt.Fprintf(w, " two_point_mode=%s", r.TwoPointMode)
	}
	fmt.Fprintln(w)
	if r.Expression != "" {
		fmt.Fprintf(w, "expression=%q\n", r.Expression)
	}
	fmt.Fprintf(w, "length=%d pop=%d mutation_rate=%g gens=%d gene_domain=%d seed=%d\n",
		r.ChromosomeLength, r.PopulationSize, r.MutationRate, r.MaxGenerations, r.GeneDomain, r.Seed)
	fmt.Fprintf(w, "generations=%d best_fitness=%.6f best_conflicts=%d genes=%s\n",
		r.Generations, r.Best.Fitness, r.Best.Conflicts, formatGenes(r.Best.Genes))
	if !r.CreatedAt.IsZero() {
		fmt.Fprintf(w, "created=%s duration=%s\n", humanize.Time(r.CreatedAt), r.Duration)
	}
}

func formatGenes(genes []int) string {
	parts := make([]string, len(genes))
	for i, g := range genes {
		parts[i] = fmt.Sprint(g)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func dirSize(dir string) uint64 {
	var total uint64
	_ = filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			total += uint64(info.Size())
		}
		return nil
	})
	return total
}
