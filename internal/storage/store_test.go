package storage

import (
	"context"
	"testing"
	"time"

	"genopt/internal/model"
)

// exerciseStore runs the same round trips against every backend.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := store.GetRun(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected missing run, ok=%t err=%v", ok, err)
	}

	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	older := model.RunRecord{
		VersionedRecord:  CurrentVersion(),
		ID:               "run-older",
		Problem:          "nqueens",
		ChromosomeLength: 4,
		Best:             model.ChromosomeRecord{Genes: []int{1, 3, 0, 2}, Fitness: 6},
		CreatedAt:        base,
	}
	newer := older
	newer.ID = "run-newer"
	newer.Best = model.ChromosomeRecord{Genes: []int{0, 0, 0, 0}, Conflicts: 6}
	newer.CreatedAt = base.Add(time.Hour)

	for _, run := range []model.RunRecord{newer, older} {
		if err := store.SaveRun(ctx, run); err != nil {
			t.Fatalf("save run %s: %v", run.ID, err)
		}
	}

	loaded, ok, err := store.GetRun(ctx, "run-older")
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if !ok {
		t.Fatal("expected persisted run")
	}
	if loaded.Problem != "nqueens" || len(loaded.Best.Genes) != 4 || loaded.Best.Genes[1] != 3 {
		t.Fatalf("unexpected run loaded: %+v", loaded)
	}

	runs, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "run-older" || runs[1].ID != "run-newer" {
		t.Fatalf("unexpected run listing: %+v", runs)
	}

	updated := older
	updated.Generations = 42
	if err := store.SaveRun(ctx, updated); err != nil {
		t.Fatalf("overwrite run: %v", err)
	}
	loaded, _, err = store.GetRun(ctx, "run-older")
	if err != nil || loaded.Generations != 42 {
		t.Fatalf("expected overwritten run, got %+v err=%v", loaded, err)
	}

	history := []float64{1, 3, 3, 6}
	if err := store.SaveFitnessHistory(ctx, "run-older", history); err != nil {
		t.Fatalf("save history: %v", err)
	}
	gotHistory, ok, err := store.GetFitnessHistory(ctx, "run-older")
	if err != nil || !ok {
		t.Fatalf("get history ok=%t err=%v", ok, err)
	}
	if len(gotHistory) != len(history) || gotHistory[3] != 6 {
		t.Fatalf("unexpected history: %v", gotHistory)
	}
	if _, ok, err := store.GetFitnessHistory(ctx, "run-newer"); err != nil || ok {
		t.Fatalf("expected no history for run-newer, ok=%t err=%v", ok, err)
	}

	diagnostics := []model.GenerationDiagnostics{
		{Generation: 1, PopulationSize: 4, BestFitness: 3, Improved: true},
		{Generation: 2, PopulationSize: 4, BestFitness: 6, Improved: true},
	}
	if err := store.SaveGenerationDiagnostics(ctx, "run-older", diagnostics); err != nil {
		t.Fatalf("save diagnostics: %v", err)
	}
	gotDiagnostics, ok, err := store.GetGenerationDiagnostics(ctx, "run-older")
	if err != nil || !ok {
		t.Fatalf("get diagnostics ok=%t err=%v", ok, err)
	}
	if len(gotDiagnostics) != 2 || gotDiagnostics[1].BestFitness != 6 {
		t.Fatalf("unexpected diagnostics: %+v", gotDiagnostics)
	}
}
