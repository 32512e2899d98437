package genopt

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"genopt/internal/dataextract"
	"genopt/internal/ga"
	"genopt/internal/model"
	"genopt/internal/stats"
)

func newTestClient(t *testing.T) (*Client, string) {
	t.Helper()

	base := t.TempDir()
	client, err := New(Options{
		StoreKind:  "memory",
		RunsDir:    filepath.Join(base, "runs"),
		ExportsDir: filepath.Join(base, "exports"),
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client, base
}

func TestClientRunRunsAndExport(t *testing.T) {
	client, base := newTestClient(t)
	ctx := context.Background()

	generations := 0
	summary, err := client.Run(ctx, RunRequest{
		Problem:          "nqueens",
		ChromosomeLength: 6,
		PopulationSize:   12,
		MutationRate:     0.2,
		MaxGenerations:   8,
		Crossover:        "one_point",
		Seed:             42,
		Chart:            true,
		Workbook:         true,
		Metrics:          true,
		Observer: func(model.GenerationDiagnostics) {
			generations++
		},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.RunID == "" {
		t.Fatal("expected run id")
	}
	if len(summary.BestByGeneration) != 8 || summary.Generations != 8 || generations != 8 {
		t.Fatalf("unexpected generation count: history=%d generations=%d observed=%d", len(summary.BestByGeneration), summary.Generations, generations)
	}
	if len(summary.Best.Genes) != 6 {
		t.Fatalf("unexpected best chromosome: %+v", summary.Best)
	}
	for _, file := range []string{"config.json", "best.json", stats.ChartFile, stats.WorkbookFile, stats.MetricsFile} {
		if _, err := os.Stat(filepath.Join(summary.ArtifactsDir, file)); err != nil {
			t.Fatalf("expected artifact %s: %v", file, err)
		}
	}

	runs, err := client.Runs(ctx, RunsRequest{Limit: 5})
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 1 || runs[0].RunID != summary.RunID || runs[0].Crossover != "one_point" {
		t.Fatalf("expected latest run %s in runs list: %+v", summary.RunID, runs)
	}

	history, err := client.FitnessHistory(ctx, FitnessHistoryRequest{Latest: true, Limit: 3})
	if err != nil {
		t.Fatalf("fitness history: %v", err)
	}
	if len(history) != 3 || history[0] != summary.BestByGeneration[0] {
		t.Fatalf("unexpected history: %v", history)
	}

	diagnostics, err := client.Diagnostics(ctx, DiagnosticsRequest{RunID: summary.RunID})
	if err != nil {
		t.Fatalf("diagnostics: %v", err)
	}
	if len(diagnostics) != 8 || diagnostics[7].Generation != 8 {
		t.Fatalf("unexpected diagnostics: %+v", diagnostics)
	}

	record, err := client.Show(ctx, ShowRequest{RunID: summary.RunID})
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if record.Best.Fitness != summary.Best.Fitness || record.Crossover != "one_point" || record.GeneDomain != 6 {
		t.Fatalf("unexpected run record: %+v", record)
	}

	exported, err := client.Export(ctx, ExportRequest{Latest: true})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if exported.RunID != summary.RunID {
		t.Fatalf("unexpected exported run: %+v", exported)
	}
	if !strings.HasPrefix(exported.Directory, filepath.Join(base, "exports")) {
		t.Fatalf("expected export under default exports dir, got %s", exported.Directory)
	}
	if _, err := os.Stat(filepath.Join(exported.Directory, stats.ChartFile)); err != nil {
		t.Fatalf("expected exported chart: %v", err)
	}
}

func TestClientRunIsDeterministicForSeed(t *testing.T) {
	client, _ := newTestClient(t)
	req := RunRequest{Problem: "distinct", ChromosomeLength: 7, PopulationSize: 10, MutationRate: 0.3, MaxGenerations: 6, Seed: 9}

	first, err := client.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := client.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if first.RunID == second.RunID {
		t.Fatal("expected distinct run ids")
	}
	for i := range first.BestByGeneration {
		if first.BestByGeneration[i] != second.BestByGeneration[i] {
			t.Fatalf("history diverged at %d: %v vs %v", i, first.BestByGeneration, second.BestByGeneration)
		}
	}
}

func TestClientRunSeedDataset(t *testing.T) {
	client, _ := newTestClient(t)
	summary, err := client.Run(context.Background(), RunRequest{
		Problem:          "distinct",
		ChromosomeLength: 8,
		PopulationSize:   2,
		MutationRate:     0.1,
		MaxGenerations:   10,
		Crossover:        "2",
		SeedDataset:      true,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(summary.BestByGeneration) != 10 {
		t.Fatalf("unexpected history length: %d", len(summary.BestByGeneration))
	}
	for _, g := range summary.Best.Genes {
		if g < 0 || g >= ga.ReferenceDatasetDomain {
			t.Fatalf("gene %d outside dataset domain: %v", g, summary.Best.Genes)
		}
	}

	_, err = client.Run(context.Background(), RunRequest{ChromosomeLength: 8, PopulationSize: 11, MaxGenerations: 1, SeedDataset: true})
	if err == nil {
		t.Fatal("expected error when population exceeds dataset rows")
	}
}

func TestClientRunSeedFileAndFinalPopulation(t *testing.T) {
	client, base := newTestClient(t)

	seedPath := filepath.Join(base, "seed.csv")
	seed := [][]int{
		{0, 1, 2, 3, 4, 5},
		{5, 4, 3, 2, 1, 0},
		{1, 3, 5, 0, 2, 4},
		{2, 5, 1, 4, 0, 3},
		{3, 0, 4, 1, 5, 2},
	}
	if err := dataextract.WritePopulationFile(seedPath, seed); err != nil {
		t.Fatalf("write seed file: %v", err)
	}

	summary, err := client.Run(context.Background(), RunRequest{
		RunID:            "seeded",
		ChromosomeLength: 5,
		PopulationSize:   4,
		MutationRate:     0.2,
		MaxGenerations:   3,
		GeneDomain:       6,
		SeedFile:         seedPath,
		SeedFileHeader:   true,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	final, err := dataextract.ReadPopulationFile(filepath.Join(summary.ArtifactsDir, stats.PopulationFile), dataextract.PopulationOptions{HasHeader: true})
	if err != nil {
		t.Fatalf("read final population: %v", err)
	}
	if len(final) != 4 {
		t.Fatalf("expected 4 final chromosomes, got %d", len(final))
	}
	for _, genes := range final {
		if len(genes) != 5 {
			t.Fatalf("expected truncated length 5, got %v", genes)
		}
	}

	cfg, ok, err := stats.ReadRunConfig(filepath.Join(base, "runs"), "seeded")
	if err != nil || !ok {
		t.Fatalf("read run config: ok=%t err=%v", ok, err)
	}
	if cfg.SeedRows != 4 || cfg.SeedFile != seedPath {
		t.Fatalf("seed provenance not recorded: %+v", cfg)
	}

	if _, err := client.Run(context.Background(), RunRequest{ChromosomeLength: 5, PopulationSize: 6, MaxGenerations: 1, GeneDomain: 6, SeedFile: seedPath, SeedFileHeader: true}); err == nil {
		t.Fatal("expected error when population exceeds seed file rows")
	}
	both := DefaultRunRequest()
	both.SeedFile, both.SeedDataset = seedPath, true
	if _, err := client.Run(context.Background(), both); err == nil || !strings.Contains(err.Error(), "not both") {
		t.Fatalf("expected error when both seed sources are set, got %v", err)
	}
	missing := DefaultRunRequest()
	missing.SeedFile = filepath.Join(base, "missing.csv")
	if _, err := client.Run(context.Background(), missing); err == nil {
		t.Fatal("expected error for missing seed file")
	}
}

func TestClientRunRejectsInvalidConfig(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	invalid := map[string]func(*RunRequest){
		"mutation rate above one": func(r *RunRequest) { r.MutationRate = 1.5 },
		"negative sizes": func(r *RunRequest) {
			r.ChromosomeLength, r.PopulationSize, r.MaxGenerations = -4, -1, -3
		},
		"zero length":            func(r *RunRequest) { r.ChromosomeLength = 0 },
		"zero population":        func(r *RunRequest) { r.PopulationSize = 0 },
		"zero generations":       func(r *RunRequest) { r.MaxGenerations = 0 },
		"negative length shaped": func(r *RunRequest) { r.ChromosomeLength, r.Expression = -2, "fitness * 2" },
	}
	for name, mutate := range invalid {
		req := DefaultRunRequest()
		mutate(&req)
		if _, err := client.Run(ctx, req); !errors.Is(err, ga.ErrInvalidConfig) {
			t.Fatalf("%s: expected invalid config error, got %v", name, err)
		}
	}

	for name, mutate := range map[string]func(*RunRequest){
		"unknown problem":   func(r *RunRequest) { r.Problem = "tsp" },
		"unknown crossover": func(r *RunRequest) { r.Crossover = "four_point" },
		"bad expression":    func(r *RunRequest) { r.Expression = "1 / (" },
	} {
		req := DefaultRunRequest()
		mutate(&req)
		if _, err := client.Run(ctx, req); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}

	runs, err := client.Runs(ctx, RunsRequest{})
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 0 {
		t.Fatalf("failed runs must not be indexed: %+v", runs)
	}
}

func TestClientRunFillsOnlyEmptyNames(t *testing.T) {
	client, _ := newTestClient(t)
	summary, err := client.Run(context.Background(), RunRequest{
		RunID:            "names",
		ChromosomeLength: 5,
		PopulationSize:   6,
		MaxGenerations:   2,
		Expression:       "fitness * 2",
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(summary.Best.Genes) != 5 || summary.Generations != 2 {
		t.Fatalf("sizes must be used as given: %+v", summary)
	}
	record, err := client.Show(context.Background(), ShowRequest{RunID: "names"})
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if record.Problem != "nqueens" || record.Crossover != "two_point" || record.Expression != "fitness * 2" {
		t.Fatalf("unexpected run record: %+v", record)
	}
}

func TestClientRunCanceled(t *testing.T) {
	client, _ := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := DefaultRunRequest()
	req.MaxGenerations = 5
	_, err := client.Run(ctx, req)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
}

func TestClientReadsArtifactsWithoutStoreRecords(t *testing.T) {
	base := t.TempDir()
	runsDir := filepath.Join(base, "runs")

	writer, err := New(Options{StoreKind: "memory", RunsDir: runsDir})
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	summary, err := writer.Run(context.Background(), RunRequest{ChromosomeLength: 5, PopulationSize: 6, MaxGenerations: 4, Seed: 3})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	reader, err := New(Options{StoreKind: "memory", RunsDir: runsDir})
	if err != nil {
		t.Fatalf("new reader: %v", err)
	}
	history, err := reader.FitnessHistory(context.Background(), FitnessHistoryRequest{RunID: summary.RunID})
	if err != nil {
		t.Fatalf("fitness history from artifacts: %v", err)
	}
	if len(history) != 4 {
		t.Fatalf("unexpected history: %v", history)
	}
	record, err := reader.Show(context.Background(), ShowRequest{Latest: true})
	if err != nil {
		t.Fatalf("show from artifacts: %v", err)
	}
	if record.ID != summary.RunID || record.Generations != 4 {
		t.Fatalf("unexpected record: %+v", record)
	}

	chartPath := filepath.Join(base, "chart.png")
	path, err := reader.Chart(context.Background(), ChartRequest{RunID: summary.RunID, OutPath: chartPath})
	if err != nil {
		t.Fatalf("chart: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected chart at %s: %v", path, err)
	}
}

func TestClientBadgerStorePersistsRecords(t *testing.T) {
	base := t.TempDir()
	opts := Options{StoreKind: "badger", StorePath: filepath.Join(base, "db"), RunsDir: filepath.Join(base, "runs")}

	client, err := New(opts)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	summary, err := client.Run(context.Background(), RunRequest{ChromosomeLength: 5, PopulationSize: 6, MaxGenerations: 3, Seed: 1})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := New(opts)
	if err != nil {
		t.Fatalf("reopen client: %v", err)
	}
	t.Cleanup(func() {
		_ = reopened.Close()
	})
	record, err := reopened.Show(context.Background(), ShowRequest{RunID: summary.RunID})
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if record.CreatedAt.IsZero() || record.Duration <= 0 {
		t.Fatalf("expected stored record with timing, got %+v", record)
	}
}

func TestClientRunsFallsBackToStore(t *testing.T) {
	base := t.TempDir()
	opts := Options{StoreKind: "badger", StorePath: filepath.Join(base, "db"), RunsDir: filepath.Join(base, "runs")}

	client, err := New(opts)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	var ids []string
	for seed := int64(1); seed <= 2; seed++ {
		req := DefaultRunRequest()
		req.MaxGenerations, req.Seed = 2, seed
		summary, err := client.Run(context.Background(), req)
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		ids = append(ids, summary.RunID)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := os.Remove(filepath.Join(base, "runs", "run_index.json")); err != nil {
		t.Fatalf("remove run index: %v", err)
	}

	reopened, err := New(opts)
	if err != nil {
		t.Fatalf("reopen client: %v", err)
	}
	t.Cleanup(func() {
		_ = reopened.Close()
	})
	runs, err := reopened.Runs(context.Background(), RunsRequest{Limit: 1})
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 1 || runs[0].RunID != ids[1] || runs[0].Seed != 2 || runs[0].CreatedAtUTC == "" {
		t.Fatalf("expected newest stored run %s, got %+v", ids[1], runs)
	}
}

func TestBestSoFar(t *testing.T) {
	got := bestSoFar([]float64{3, 5, 4, 4, 7, 6})
	want := []float64{3, 5, 5, 5, 7, 7}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected running maximum: %v", got)
		}
	}
	if len(bestSoFar(nil)) != 0 {
		t.Fatal("expected empty series")
	}
}

func TestClientBenchmark(t *testing.T) {
	client, _ := newTestClient(t)
	summary, dir, err := client.Benchmark(context.Background(), BenchmarkRequest{
		ID:   "bench-1",
		Runs: 3,
		Run:  RunRequest{Problem: "nqueens", ChromosomeLength: 4, PopulationSize: 10, MutationRate: 0.2, MaxGenerations: 20, Seed: 5, Chart: true},
	})
	if err != nil {
		t.Fatalf("benchmark: %v", err)
	}
	if summary.TotalRuns != 3 || len(summary.Runs) != 3 {
		t.Fatalf("unexpected benchmark summary: %+v", summary)
	}
	if summary.Runs[0].Seed != 5 || summary.Runs[2].Seed != 7 {
		t.Fatalf("expected consecutive seeds: %+v", summary.Runs)
	}
	if len(summary.AverageBest) != 20 {
		t.Fatalf("unexpected average series length: %d", len(summary.AverageBest))
	}
	for i := 1; i < len(summary.AverageBest); i++ {
		if summary.AverageBest[i] < summary.AverageBest[i-1] {
			t.Fatalf("average best-so-far must not decrease: %v", summary.AverageBest)
		}
	}
	for _, run := range summary.Runs {
		if run.SolvedAt > 0 && run.BestConflicts != 0 {
			t.Fatalf("a solved run must keep a conflict-free best: %+v", run)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, stats.ChartFile)); err != nil {
		t.Fatalf("expected benchmark chart: %v", err)
	}
	if _, _, err := client.Benchmark(context.Background(), BenchmarkRequest{}); err == nil {
		t.Fatal("expected error for zero runs")
	}
}

func TestClientRequiresRunSelection(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	if _, err := client.Export(ctx, ExportRequest{}); err == nil {
		t.Fatal("expected export selection error")
	}
	if _, err := client.Export(ctx, ExportRequest{RunID: "a", Latest: true}); err == nil {
		t.Fatal("expected conflicting selection error")
	}
	if _, err := client.FitnessHistory(ctx, FitnessHistoryRequest{Latest: true}); err == nil {
		t.Fatal("expected no runs error")
	}
	if _, err := client.FitnessHistory(ctx, FitnessHistoryRequest{RunID: "a", Limit: -1}); err == nil {
		t.Fatal("expected negative limit error")
	}
	if _, err := client.Show(ctx, ShowRequest{RunID: "missing"}); err == nil {
		t.Fatal("expected missing run error")
	}
}

func TestClientProblems(t *testing.T) {
	client, _ := newTestClient(t)
	problems := client.Problems()
	if len(problems) != 2 || problems[0].Name != "distinct" || problems[1].Name != "nqueens" {
		t.Fatalf("unexpected problems: %+v", problems)
	}
	for _, p := range problems {
		if p.Description == "" {
			t.Fatalf("expected description for %s", p.Name)
		}
	}
}
