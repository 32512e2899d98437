package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"genopt/internal/model"
	"genopt/internal/stats"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	origWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	workdir := t.TempDir()
	if err := os.Chdir(workdir); err != nil {
		t.Fatalf("chdir tempdir: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(origWD)
	})
	return workdir
}

func badgerArgs(workdir string) []string {
	return []string{"--store", "badger", "--store-path", filepath.Join(workdir, "genopt.badger")}
}

func TestRunCommandBadgerCreatesArtifacts(t *testing.T) {
	workdir := chdirTemp(t)

	args := append([]string{"run"}, badgerArgs(workdir)...)
	args = append(args,
		"--problem", "nqueens",
		"--length", "6",
		"--pop", "12",
		"--gens", "5",
		"--seed", "11",
		"--chart",
		"--metrics",
	)
	out, err := captureStdout(func() error {
		return run(context.Background(), args)
	})
	if err != nil {
		t.Fatalf("run command: %v", err)
	}
	if !strings.Contains(out, "generations=5") || !strings.Contains(out, "evaluated=60") {
		t.Fatalf("unexpected run output: %s", out)
	}

	entries, err := stats.ListRunIndex("runs")
	if err != nil {
		t.Fatalf("list run index: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one indexed run, got %d", len(entries))
	}

	runID := entries[0].RunID
	for _, file := range []string{"config.json", "fitness_history.json", "best.json", "generation_diagnostics.json", "fitness_series.csv", stats.ChartFile, stats.MetricsFile} {
		if _, err := os.Stat(filepath.Join("runs", runID, file)); err != nil {
			t.Fatalf("expected artifact %s: %v", file, err)
		}
	}
}

func TestRunCommandJSONOutput(t *testing.T) {
	workdir := chdirTemp(t)

	args := append([]string{"run"}, badgerArgs(workdir)...)
	args = append(args, "--run-id", "fixed-run", "--gens", "3", "--json")
	out, err := captureStdout(func() error {
		return run(context.Background(), args)
	})
	if err != nil {
		t.Fatalf("run command: %v", err)
	}

	var summary runSummaryOutput
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("decode run summary: %v\n%s", err, out)
	}
	if summary.RunID != "fixed-run" {
		t.Fatalf("unexpected run id: %s", summary.RunID)
	}
	if len(summary.BestByGeneration) != 3 || summary.Generations != 3 {
		t.Fatalf("expected 3 generations, got %+v", summary)
	}
	if len(summary.Best.Genes) != 8 {
		t.Fatalf("expected default chromosome length 8, got %d", len(summary.Best.Genes))
	}
}

func TestRunCommandConfigFileAllowsFlagOverrides(t *testing.T) {
	workdir := chdirTemp(t)

	configPath := filepath.Join(workdir, "run.toml")
	config := `
run_id = "from-config"
problem = "distinct"
chromosome_length = 5
population_size = 8
mutation_rate = 0.25
max_generations = 4
crossover = "uniform"
seed = 9
`
	if err := os.WriteFile(configPath, []byte(config), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	args := append([]string{"run"}, badgerArgs(workdir)...)
	args = append(args, "--config", configPath, "--gens", "2")
	if _, err := captureStdout(func() error {
		return run(context.Background(), args)
	}); err != nil {
		t.Fatalf("run command: %v", err)
	}

	cfg, ok, err := stats.ReadRunConfig("runs", "from-config")
	if err != nil {
		t.Fatalf("read run config: %v", err)
	}
	if !ok {
		t.Fatal("expected run config for from-config")
	}
	if cfg.Problem != "distinct" || cfg.ChromosomeLength != 5 || cfg.PopulationSize != 8 {
		t.Fatalf("config values not applied: %+v", cfg)
	}
	if cfg.Crossover != "uniform" || cfg.Seed != 9 || cfg.MutationRate != 0.25 {
		t.Fatalf("config values not applied: %+v", cfg)
	}
	if cfg.MaxGenerations != 2 {
		t.Fatalf("expected --gens to override config, got %d", cfg.MaxGenerations)
	}
}

func TestRunCommandRejectsInvalidParameters(t *testing.T) {
	workdir := chdirTemp(t)

	cases := [][]string{
		{"--pop", "1"},
		{"--pop", "-1"},
		{"--length", "-4"},
		{"--gens", "-3"},
		{"--gens", "0"},
		{"--mutation-rate", "1.5"},
		{"--crossover", "three_point"},
		{"--problem", "tsp"},
		{"--expr", "1 / ("},
	}
	for _, extra := range cases {
		args := append([]string{"run"}, badgerArgs(workdir)...)
		args = append(args, extra...)
		if err := run(context.Background(), args); err == nil {
			t.Fatalf("expected error for %v", extra)
		}
	}
}

func TestRunCommandConfigFileUsesFlagDefaults(t *testing.T) {
	workdir := chdirTemp(t)

	configPath := filepath.Join(workdir, "partial.json")
	if err := os.WriteFile(configPath, []byte(`{"run_id": "partial", "max_generations": 2}`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	args := append([]string{"run"}, badgerArgs(workdir)...)
	args = append(args, "--config", configPath)
	if _, err := captureStdout(func() error {
		return run(context.Background(), args)
	}); err != nil {
		t.Fatalf("run command: %v", err)
	}
	cfg, ok, err := stats.ReadRunConfig("runs", "partial")
	if err != nil || !ok {
		t.Fatalf("read run config: ok=%t err=%v", ok, err)
	}
	if cfg.MutationRate != 0.1 || cfg.PopulationSize != 20 || cfg.ChromosomeLength != 8 {
		t.Fatalf("missing config keys must fall back to flag defaults: %+v", cfg)
	}

	zeroPath := filepath.Join(workdir, "zero.json")
	if err := os.WriteFile(zeroPath, []byte(`{"max_generations": 0}`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	args = append([]string{"run"}, badgerArgs(workdir)...)
	args = append(args, "--config", zeroPath)
	if err := run(context.Background(), args); err == nil {
		t.Fatal("expected error for max_generations 0 in config")
	}
}

func TestRunsCommandListsPersistedRun(t *testing.T) {
	workdir := chdirTemp(t)

	for _, seed := range []string{"1", "2"} {
		args := append([]string{"run"}, badgerArgs(workdir)...)
		args = append(args, "--gens", "2", "--seed", seed)
		if _, err := captureStdout(func() error {
			return run(context.Background(), args)
		}); err != nil {
			t.Fatalf("run command: %v", err)
		}
	}

	out, err := captureStdout(func() error {
		return run(context.Background(), []string{"runs", "--json", "--limit", "1"})
	})
	if err != nil {
		t.Fatalf("runs command: %v", err)
	}
	var items []struct {
		RunID string `json:"run_id"`
		Seed  int64  `json:"seed"`
	}
	if err := json.Unmarshal([]byte(out), &items); err != nil {
		t.Fatalf("decode runs: %v\n%s", err, out)
	}
	if len(items) != 1 {
		t.Fatalf("expected limit to apply, got %d items", len(items))
	}
	if items[0].Seed != 2 {
		t.Fatalf("expected newest run first, got seed %d", items[0].Seed)
	}

	out, err = captureStdout(func() error {
		return run(context.Background(), []string{"runs"})
	})
	if err != nil {
		t.Fatalf("runs command: %v", err)
	}
	if strings.Count(out, "run_id=") != 2 || !strings.Contains(out, "created=") {
		t.Fatalf("unexpected runs output: %s", out)
	}
}

func TestRunsCommandEmpty(t *testing.T) {
	chdirTemp(t)

	out, err := captureStdout(func() error {
		return run(context.Background(), []string{"runs", "--store", "memory"})
	})
	if err != nil {
		t.Fatalf("runs command: %v", err)
	}
	if strings.TrimSpace(out) != "no runs found" {
		t.Fatalf("unexpected runs output: %q", out)
	}
}

func TestFitnessAndDiagnosticsCommandsReadPersistedRun(t *testing.T) {
	workdir := chdirTemp(t)

	args := append([]string{"run"}, badgerArgs(workdir)...)
	args = append(args, "--gens", "4", "--seed", "42")
	if _, err := captureStdout(func() error {
		return run(context.Background(), args)
	}); err != nil {
		t.Fatalf("run command: %v", err)
	}

	fitnessArgs := append([]string{"fitness"}, badgerArgs(workdir)...)
	fitnessArgs = append(fitnessArgs, "--latest", "--limit", "2")
	out, err := captureStdout(func() error {
		return run(context.Background(), fitnessArgs)
	})
	if err != nil {
		t.Fatalf("fitness command: %v", err)
	}
	if !strings.Contains(out, "generation=1") || !strings.Contains(out, "generation=2") || strings.Contains(out, "generation=3") {
		t.Fatalf("unexpected fitness output: %s", out)
	}

	diagArgs := append([]string{"diagnostics"}, badgerArgs(workdir)...)
	diagArgs = append(diagArgs, "--latest", "--json")
	out, err = captureStdout(func() error {
		return run(context.Background(), diagArgs)
	})
	if err != nil {
		t.Fatalf("diagnostics command: %v", err)
	}
	var diagnostics []model.GenerationDiagnostics
	if err := json.Unmarshal([]byte(out), &diagnostics); err != nil {
		t.Fatalf("decode diagnostics: %v\n%s", err, out)
	}
	if len(diagnostics) != 4 {
		t.Fatalf("expected 4 generations of diagnostics, got %d", len(diagnostics))
	}
	for i, d := range diagnostics {
		if d.Generation != i+1 {
			t.Fatalf("diagnostics[%d].Generation=%d", i, d.Generation)
		}
		if d.BestFitness < d.MeanFitness || d.MeanFitness < d.MinFitness {
			t.Fatalf("diagnostics ordering broken: %+v", d)
		}
	}
}

func TestShowCommandFallsBackToArtifacts(t *testing.T) {
	chdirTemp(t)

	if _, err := captureStdout(func() error {
		return run(context.Background(), []string{"run", "--store", "memory", "--run-id", "mem-run", "--gens", "2", "--expr", "1 / (1 + conflicts)"})
	}); err != nil {
		t.Fatalf("run command: %v", err)
	}

	out, err := captureStdout(func() error {
		return run(context.Background(), []string{"show", "--store", "memory", "--run-id", "mem-run"})
	})
	if err != nil {
		t.Fatalf("show command: %v", err)
	}
	if !strings.Contains(out, "run_id=mem-run") || !strings.Contains(out, "generations=2") {
		t.Fatalf("unexpected show output: %s", out)
	}
	if !strings.Contains(out, `expression="1 / (1 + conflicts)"`) {
		t.Fatalf("expected expression in show output: %s", out)
	}
}

func TestExportLatestCopiesArtifacts(t *testing.T) {
	workdir := chdirTemp(t)

	args := append([]string{"run"}, badgerArgs(workdir)...)
	args = append(args, "--gens", "2")
	if _, err := captureStdout(func() error {
		return run(context.Background(), args)
	}); err != nil {
		t.Fatalf("run command: %v", err)
	}

	exportArgs := append([]string{"export"}, badgerArgs(workdir)...)
	exportArgs = append(exportArgs, "--latest", "--workbook", "--out", "out")
	out, err := captureStdout(func() error {
		return run(context.Background(), exportArgs)
	})
	if err != nil {
		t.Fatalf("export command: %v", err)
	}
	if !strings.Contains(out, "exported run_id=") {
		t.Fatalf("unexpected export output: %s", out)
	}

	entries, err := stats.ListRunIndex("runs")
	if err != nil {
		t.Fatalf("list run index: %v", err)
	}
	for _, file := range []string{"config.json", "best.json", stats.WorkbookFile} {
		if _, err := os.Stat(filepath.Join("out", entries[0].RunID, file)); err != nil {
			t.Fatalf("expected exported %s: %v", file, err)
		}
	}
}

func TestChartCommandWritesPNG(t *testing.T) {
	workdir := chdirTemp(t)

	args := append([]string{"run"}, badgerArgs(workdir)...)
	args = append(args, "--run-id", "chart-run", "--gens", "6")
	if _, err := captureStdout(func() error {
		return run(context.Background(), args)
	}); err != nil {
		t.Fatalf("run command: %v", err)
	}

	chartArgs := append([]string{"chart"}, badgerArgs(workdir)...)
	chartArgs = append(chartArgs, "--run-id", "chart-run", "--out", "chart.png")
	if _, err := captureStdout(func() error {
		return run(context.Background(), chartArgs)
	}); err != nil {
		t.Fatalf("chart command: %v", err)
	}
	data, err := os.ReadFile("chart.png")
	if err != nil {
		t.Fatalf("read chart: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Fatal("chart is not a PNG")
	}
}

func TestBenchmarkCommandWritesSummary(t *testing.T) {
	workdir := chdirTemp(t)

	args := append([]string{"benchmark"}, badgerArgs(workdir)...)
	args = append(args, "--id", "bench-1", "--runs", "3", "--length", "5", "--pop", "10", "--gens", "8", "--json")
	out, err := captureStdout(func() error {
		return run(context.Background(), args)
	})
	if err != nil {
		t.Fatalf("benchmark command: %v", err)
	}

	var summary stats.BenchmarkSummary
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("decode benchmark summary: %v\n%s", err, out)
	}
	if summary.TotalRuns != 3 || len(summary.Runs) != 3 {
		t.Fatalf("expected 3 runs, got %+v", summary)
	}
	for i, r := range summary.Runs {
		if r.Seed != int64(1+i) {
			t.Fatalf("expected consecutive seeds from 1, run %d has seed %d", i, r.Seed)
		}
	}

	stored, ok, err := stats.ReadBenchmarkSummary("runs", "bench-1")
	if err != nil {
		t.Fatalf("read benchmark summary: %v", err)
	}
	if !ok || stored.ID != "bench-1" {
		t.Fatalf("expected persisted benchmark summary, got ok=%t %+v", ok, stored)
	}
}

func TestProblemsCommand(t *testing.T) {
	out, err := captureStdout(func() error {
		return run(context.Background(), []string{"problems"})
	})
	if err != nil {
		t.Fatalf("problems command: %v", err)
	}
	if !strings.Contains(out, "nqueens") || !strings.Contains(out, "distinct") {
		t.Fatalf("unexpected problems output: %s", out)
	}
}

func TestRunSelectionErrors(t *testing.T) {
	chdirTemp(t)

	for _, command := range []string{"show", "fitness", "diagnostics", "chart", "export"} {
		err := run(context.Background(), []string{command, "--store", "memory"})
		if err == nil || !strings.Contains(err.Error(), "requires --run-id or --latest") {
			t.Fatalf("%s: expected selection error, got %v", command, err)
		}
		err = run(context.Background(), []string{command, "--store", "memory", "--run-id", "x", "--latest"})
		if err == nil || !strings.Contains(err.Error(), "not both") {
			t.Fatalf("%s: expected exclusive selection error, got %v", command, err)
		}
	}
}

func TestUnknownCommand(t *testing.T) {
	err := run(context.Background(), []string{"evolve"})
	if err == nil || !strings.Contains(err.Error(), "usage: genoptctl") {
		t.Fatalf("expected usage error, got %v", err)
	}
	if err := run(context.Background(), nil); err == nil {
		t.Fatal("expected usage error for missing command")
	}
}

func captureStdout(fn func() error) (string, error) {
	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		return "", err
	}

	done := make(chan []byte)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		done <- buf.Bytes()
	}()

	os.Stdout = w
	runErr := fn()
	_ = w.Close()
	os.Stdout = origStdout

	out := <-done
	_ = r.Close()
	return string(out), runErr
}
