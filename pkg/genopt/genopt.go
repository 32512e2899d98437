// Package genopt is the programmatic entry point for running generational
// genetic searches and reading back their recorded results.
package genopt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"genopt/internal/dataextract"
	"genopt/internal/ga"
	"genopt/internal/model"
	"genopt/internal/problem"
	"genopt/internal/stats"
	"genopt/internal/storage"
)

const (
	defaultRunsDir        = "runs"
	defaultExportsDir     = "exports"
	defaultProblem        = "nqueens"
	defaultLength         = 8
	defaultPopulation     = 20
	defaultMaxGenerations = 100
	defaultMutationRate   = 0.1
	defaultSeed           = 1
)

type Options struct {
	// StoreKind is memory, sqlite or badger. Empty picks
	// storage.DefaultStoreKind.
	StoreKind string
	// StorePath is the sqlite file or badger directory.
	StorePath  string
	RunsDir    string
	ExportsDir string
	Logger     *slog.Logger
}

type Client struct {
	store       storage.Store
	runsDir     string
	exportsDir  string
	logger      *slog.Logger
	initialized bool
}

type RunRequest struct {
	// RunID is generated when empty.
	RunID            string
	Problem          string
	Expression       string
	ChromosomeLength int
	PopulationSize   int
	// MutationRate is used as given; zero disables mutation.
	MutationRate   float64
	MaxGenerations int
	Crossover      string
	TwoPointMode   string
	GeneDomain     int
	Seed           int64
	// SeedDataset starts from the reference dataset instead of random
	// chromosomes. It holds ten rows of ten genes.
	SeedDataset bool
	// SeedFile is a CSV population to start from, one chromosome per
	// row. SeedFileHeader marks its first row as a header.
	SeedFile       string
	SeedFileHeader bool
	Chart          bool
	Workbook       bool
	Metrics        bool
	// Observer sees every generation as it completes.
	Observer func(model.GenerationDiagnostics)
}

type RunSummary struct {
	RunID            string
	ArtifactsDir     string
	BestByGeneration []float64
	Best             model.ChromosomeRecord
	Generations      int
	Duration         time.Duration
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID            string
	CreatedAtUTC     string
	Problem          string
	ChromosomeLength int
	Population       int
	MaxGenerations   int
	Crossover        string
	Seed             int64
	FinalBestFitness float64
	BestConflicts    int
}

type ShowRequest struct {
	RunID  string
	Latest bool
}

type ExportRequest struct {
	RunID    string
	Latest   bool
	OutDir   string
	Workbook bool
}

type ExportSummary struct {
	RunID     string
	Directory string
}

type FitnessHistoryRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type DiagnosticsRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type ChartRequest struct {
	RunID  string
	Latest bool
	// OutPath defaults to the run's convergence.png.
	OutPath string
}

type BenchmarkRequest struct {
	// ID is generated when empty.
	ID   string
	Runs int
	// Run is the template for every repetition; seeds count up from
	// Run.Seed.
	Run RunRequest
}

type ProblemItem struct {
	Name        string
	Description string
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	storePath := opts.StorePath
	if storePath == "" {
		storePath = storage.DefaultPath(storeKind)
	}
	runsDir := opts.RunsDir
	if runsDir == "" {
		runsDir = defaultRunsDir
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	store, err := storage.NewStore(storeKind, storePath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:      store,
		runsDir:    runsDir,
		exportsDir: exportsDir,
		logger:     logger.With("component", "genopt"),
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	if c.initialized {
		return nil
	}
	if err := c.store.Init(ctx); err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	c.initialized = true
	return nil
}

func (c *Client) Problems() []ProblemItem {
	return Problems()
}

// Problems lists the registered problems. It needs no store.
func Problems() []ProblemItem {
	names := problem.Names()
	out := make([]ProblemItem, 0, len(names))
	for _, name := range names {
		p, err := problem.Lookup(name)
		if err != nil {
			continue
		}
		out = append(out, ProblemItem{Name: name, Description: p.Description()})
	}
	return out
}

func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	req = withRunDefaults(req)
	cfg, err := engineConfig(req)
	if err != nil {
		return RunSummary{}, err
	}
	if err := c.Init(ctx); err != nil {
		return RunSummary{}, err
	}

	runID := req.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	logger := c.logger.With("run_id", runID, "problem", req.Problem)

	var metrics *stats.RunMetrics
	if req.Metrics {
		metrics = stats.NewRunMetrics(runID, req.Problem)
	}
	cfg.Observer = func(d ga.GenerationDiagnostics) {
		diag := model.GenerationDiagnostics(d)
		if metrics != nil {
			metrics.Observe(diag)
		}
		if diag.Improved {
			logger.Debug("best improved", "generation", diag.Generation, "fitness", diag.BestFitness, "conflicts", diag.BestConflicts)
		}
		if req.Observer != nil {
			req.Observer(diag)
		}
	}

	engine, err := ga.New(cfg)
	if err != nil {
		return RunSummary{}, err
	}

	logger.Info("run started",
		"length", req.ChromosomeLength,
		"population", req.PopulationSize,
		"generations", req.MaxGenerations,
		"crossover", req.Crossover,
		"seed", req.Seed,
	)
	started := time.Now().UTC()
	result, err := engine.Run(ctx)
	if err != nil {
		logger.Warn("run aborted", "error", err)
		return RunSummary{}, err
	}
	elapsed := time.Since(started)

	best := chromosomeRecord(result.Best)
	diagnostics := make([]model.GenerationDiagnostics, len(result.Diagnostics))
	for i, d := range result.Diagnostics {
		diagnostics[i] = model.GenerationDiagnostics(d)
	}

	runCfg := stats.RunConfig{
		RunID:            runID,
		Problem:          req.Problem,
		Expression:       evaluatorExpression(cfg.Evaluator),
		ChromosomeLength: req.ChromosomeLength,
		PopulationSize:   req.PopulationSize,
		MutationRate:     req.MutationRate,
		MaxGenerations:   req.MaxGenerations,
		Crossover:        cfg.Crossover.String(),
		GeneDomain:       engine.Config().GeneDomain,
		Seed:             req.Seed,
	}
	if cfg.Crossover == ga.TwoPoint {
		runCfg.TwoPointMode = cfg.TwoPointMode.String()
	}
	if len(cfg.InitialPopulation) > 0 {
		runCfg.SeedRows = len(cfg.InitialPopulation)
		runCfg.SeedFile = req.SeedFile
	}
	artifacts := stats.RunArtifacts{
		Config:                runCfg,
		BestByGeneration:      result.History,
		GenerationDiagnostics: diagnostics,
		Best:                  best,
	}
	runDir, err := stats.WriteRunArtifacts(c.runsDir, artifacts)
	if err != nil {
		return RunSummary{}, err
	}
	if err := dataextract.WritePopulationFile(filepath.Join(runDir, stats.PopulationFile), populationGenes(result.FinalPopulation)); err != nil {
		return RunSummary{}, err
	}
	if req.Chart {
		if err := writeRunChart(filepath.Join(runDir, stats.ChartFile), runCfg, result.History, diagnostics); err != nil {
			return RunSummary{}, err
		}
	}
	if req.Workbook {
		if err := stats.WriteWorkbook(filepath.Join(runDir, stats.WorkbookFile), artifacts); err != nil {
			return RunSummary{}, err
		}
	}
	if metrics != nil {
		if err := metrics.WriteTextfile(filepath.Join(runDir, stats.MetricsFile)); err != nil {
			return RunSummary{}, err
		}
	}

	record := model.RunRecord{
		VersionedRecord:  storage.CurrentVersion(),
		ID:               runID,
		Problem:          req.Problem,
		Expression:       runCfg.Expression,
		ChromosomeLength: req.ChromosomeLength,
		PopulationSize:   req.PopulationSize,
		MutationRate:     req.MutationRate,
		MaxGenerations:   req.MaxGenerations,
		Crossover:        runCfg.Crossover,
		TwoPointMode:     runCfg.TwoPointMode,
		GeneDomain:       runCfg.GeneDomain,
		Seed:             req.Seed,
		Generations:      len(result.History),
		Best:             best,
		CreatedAt:        started,
		Duration:         elapsed,
	}
	if err := c.store.SaveRun(ctx, record); err != nil {
		return RunSummary{}, fmt.Errorf("save run: %w", err)
	}
	if err := c.store.SaveFitnessHistory(ctx, runID, result.History); err != nil {
		return RunSummary{}, fmt.Errorf("save fitness history: %w", err)
	}
	if err := c.store.SaveGenerationDiagnostics(ctx, runID, diagnostics); err != nil {
		return RunSummary{}, fmt.Errorf("save generation diagnostics: %w", err)
	}

	if err := stats.AppendRunIndex(c.runsDir, stats.RunIndexEntry{
		RunID:            runID,
		Problem:          req.Problem,
		ChromosomeLength: req.ChromosomeLength,
		PopulationSize:   req.PopulationSize,
		MaxGenerations:   req.MaxGenerations,
		Crossover:        runCfg.Crossover,
		Seed:             req.Seed,
		FinalBestFitness: best.Fitness,
		BestConflicts:    best.Conflicts,
		CreatedAtUTC:     started.Format(time.RFC3339Nano),
	}); err != nil {
		return RunSummary{}, err
	}

	logger.Info("run completed",
		"best_fitness", best.Fitness,
		"best_conflicts", best.Conflicts,
		"duration", elapsed,
		"artifacts", runDir,
	)

	return RunSummary{
		RunID:            runID,
		ArtifactsDir:     filepath.Clean(runDir),
		BestByGeneration: append([]float64(nil), result.History...),
		Best:             best,
		Generations:      len(result.History),
		Duration:         elapsed,
	}, nil
}

// Runs lists recorded runs newest first. The run index under the runs
// directory is read first; when it has no entries the store is listed.
func (c *Client) Runs(ctx context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}

	entries, err := stats.ListRunIndex(c.runsDir)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return c.storedRuns(ctx, req.Limit)
	}
	if len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}

	out := make([]RunItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, RunItem{
			RunID:            e.RunID,
			CreatedAtUTC:     e.CreatedAtUTC,
			Problem:          e.Problem,
			ChromosomeLength: e.ChromosomeLength,
			Population:       e.PopulationSize,
			MaxGenerations:   e.MaxGenerations,
			Crossover:        e.Crossover,
			Seed:             e.Seed,
			FinalBestFitness: e.FinalBestFitness,
			BestConflicts:    e.BestConflicts,
		})
	}
	return out, nil
}

func (c *Client) storedRuns(ctx context.Context, limit int) ([]RunItem, error) {
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	records, err := c.store.ListRuns(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]RunItem, 0, min(limit, len(records)))
	for i := len(records) - 1; i >= 0 && len(out) < limit; i-- {
		r := records[i]
		out = append(out, RunItem{
			RunID:            r.ID,
			CreatedAtUTC:     r.CreatedAt.UTC().Format(time.RFC3339Nano),
			Problem:          r.Problem,
			ChromosomeLength: r.ChromosomeLength,
			Population:       r.PopulationSize,
			MaxGenerations:   r.MaxGenerations,
			Crossover:        r.Crossover,
			Seed:             r.Seed,
			FinalBestFitness: r.Best.Fitness,
			BestConflicts:    r.Best.Conflicts,
		})
	}
	return out, nil
}

// Show returns the stored record of a run. Runs recorded by another process
// with a memory store are rebuilt from their artifacts.
func (c *Client) Show(ctx context.Context, req ShowRequest) (model.RunRecord, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest, "show")
	if err != nil {
		return model.RunRecord{}, err
	}
	if err := c.Init(ctx); err != nil {
		return model.RunRecord{}, err
	}

	run, ok, err := c.store.GetRun(ctx, runID)
	if err != nil {
		return model.RunRecord{}, err
	}
	if ok {
		return run, nil
	}

	cfg, ok, err := stats.ReadRunConfig(c.runsDir, runID)
	if err != nil {
		return model.RunRecord{}, err
	}
	if !ok {
		return model.RunRecord{}, fmt.Errorf("run not found: %s", runID)
	}
	best, _, err := stats.ReadBest(c.runsDir, runID)
	if err != nil {
		return model.RunRecord{}, err
	}
	history, _, err := stats.ReadFitnessSeries(c.runsDir, runID)
	if err != nil {
		return model.RunRecord{}, err
	}
	return model.RunRecord{
		VersionedRecord:  storage.CurrentVersion(),
		ID:               runID,
		Problem:          cfg.Problem,
		Expression:       cfg.Expression,
		ChromosomeLength: cfg.ChromosomeLength,
		PopulationSize:   cfg.PopulationSize,
		MutationRate:     cfg.MutationRate,
		MaxGenerations:   cfg.MaxGenerations,
		Crossover:        cfg.Crossover,
		TwoPointMode:     cfg.TwoPointMode,
		GeneDomain:       cfg.GeneDomain,
		Seed:             cfg.Seed,
		Generations:      len(history),
		Best:             best,
	}, nil
}

func (c *Client) Export(ctx context.Context, req ExportRequest) (ExportSummary, error) {
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}

	runID, err := c.resolveRunID(req.RunID, req.Latest, "export")
	if err != nil {
		return ExportSummary{}, err
	}

	if req.Workbook {
		artifacts, err := c.readArtifacts(ctx, runID)
		if err != nil {
			return ExportSummary{}, err
		}
		path := filepath.Join(c.runsDir, runID, stats.WorkbookFile)
		if err := stats.WriteWorkbook(path, artifacts); err != nil {
			return ExportSummary{}, err
		}
	}

	exportedDir, err := stats.ExportRunArtifacts(c.runsDir, runID, req.OutDir)
	if err != nil {
		return ExportSummary{}, err
	}
	c.logger.Info("run exported", "run_id", runID, "directory", exportedDir)
	return ExportSummary{RunID: runID, Directory: filepath.Clean(exportedDir)}, nil
}

func (c *Client) FitnessHistory(ctx context.Context, req FitnessHistoryRequest) ([]float64, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	runID, err := c.resolveRunID(req.RunID, req.Latest, "fitness history")
	if err != nil {
		return nil, err
	}
	history, err := c.fitnessHistory(ctx, runID)
	if err != nil {
		return nil, err
	}
	if req.Limit > 0 && len(history) > req.Limit {
		history = history[:req.Limit]
	}
	return append([]float64(nil), history...), nil
}

func (c *Client) Diagnostics(ctx context.Context, req DiagnosticsRequest) ([]model.GenerationDiagnostics, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	runID, err := c.resolveRunID(req.RunID, req.Latest, "diagnostics")
	if err != nil {
		return nil, err
	}
	diagnostics, err := c.diagnostics(ctx, runID)
	if err != nil {
		return nil, err
	}
	if req.Limit > 0 && len(diagnostics) > req.Limit {
		diagnostics = diagnostics[:req.Limit]
	}
	out := make([]model.GenerationDiagnostics, len(diagnostics))
	copy(out, diagnostics)
	return out, nil
}

// Chart renders a recorded run's convergence chart and returns its path.
func (c *Client) Chart(ctx context.Context, req ChartRequest) (string, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest, "chart")
	if err != nil {
		return "", err
	}
	artifacts, err := c.readArtifacts(ctx, runID)
	if err != nil {
		return "", err
	}
	path := req.OutPath
	if path == "" {
		path = filepath.Join(c.runsDir, runID, stats.ChartFile)
	}
	if err := writeRunChart(path, artifacts.Config, artifacts.BestByGeneration, artifacts.GenerationDiagnostics); err != nil {
		return "", err
	}
	return filepath.Clean(path), nil
}

// Benchmark repeats a run over consecutive seeds and summarizes how often
// and how quickly a conflict-free chromosome was found.
func (c *Client) Benchmark(ctx context.Context, req BenchmarkRequest) (stats.BenchmarkSummary, string, error) {
	if req.Runs <= 0 {
		return stats.BenchmarkSummary{}, "", errors.New("benchmark runs must be > 0")
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	template := withRunDefaults(req.Run)
	template.RunID = ""

	runs := make([]stats.BenchmarkRun, 0, req.Runs)
	histories := make([][]float64, 0, req.Runs)
	for i := 0; i < req.Runs; i++ {
		runReq := template
		runReq.Seed = template.Seed + int64(i)

		solvedAt := 0
		observer := template.Observer
		runReq.Observer = func(d model.GenerationDiagnostics) {
			if solvedAt == 0 && d.BestConflicts == 0 {
				solvedAt = d.Generation
			}
			if observer != nil {
				observer(d)
			}
		}

		summary, err := c.Run(ctx, runReq)
		if err != nil {
			return stats.BenchmarkSummary{}, "", fmt.Errorf("benchmark run %d: %w", i+1, err)
		}
		runs = append(runs, stats.BenchmarkRun{
			RunID:         summary.RunID,
			Seed:          runReq.Seed,
			FinalBest:     summary.Best.Fitness,
			BestConflicts: summary.Best.Conflicts,
			SolvedAt:      solvedAt,
		})
		histories = append(histories, bestSoFar(summary.BestByGeneration))
	}

	summary, err := stats.SummarizeBenchmark(req.ID, template.Problem, runs, histories)
	if err != nil {
		return stats.BenchmarkSummary{}, "", err
	}
	summary.CreatedAtUTC = time.Now().UTC().Format(time.RFC3339Nano)
	dir, err := stats.WriteBenchmarkSummary(c.runsDir, summary)
	if err != nil {
		return stats.BenchmarkSummary{}, "", err
	}
	if template.Chart && len(summary.AverageBest) > 0 {
		if err := stats.WriteConvergenceChart(filepath.Join(dir, stats.ChartFile),
			fmt.Sprintf("%s benchmark (%d runs)", template.Problem, req.Runs),
			template.MaxGenerations,
			stats.ChartSeries{Name: "mean generation best", Values: summary.AverageBest},
		); err != nil {
			return stats.BenchmarkSummary{}, "", err
		}
	}
	c.logger.Info("benchmark completed", "benchmark_id", req.ID, "runs", req.Runs, "solve_rate", summary.SolveRate)
	return summary, filepath.Clean(dir), nil
}

func (c *Client) resolveRunID(runID string, latest bool, what string) (string, error) {
	if runID != "" && latest {
		return "", errors.New("use either run id or latest")
	}
	if runID != "" {
		return runID, nil
	}
	if !latest {
		return "", fmt.Errorf("%s requires run id or latest", what)
	}
	entries, err := stats.ListRunIndex(c.runsDir)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", errors.New("no runs available")
	}
	return entries[0].RunID, nil
}

func (c *Client) fitnessHistory(ctx context.Context, runID string) ([]float64, error) {
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	history, ok, err := c.store.GetFitnessHistory(ctx, runID)
	if err != nil {
		return nil, err
	}
	if ok {
		return history, nil
	}
	history, ok, err = stats.ReadFitnessSeries(c.runsDir, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("fitness history not found for run id: %s", runID)
	}
	return history, nil
}

func (c *Client) diagnostics(ctx context.Context, runID string) ([]model.GenerationDiagnostics, error) {
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	diagnostics, ok, err := c.store.GetGenerationDiagnostics(ctx, runID)
	if err != nil {
		return nil, err
	}
	if ok {
		return diagnostics, nil
	}
	diagnostics, ok, err = stats.ReadGenerationDiagnostics(c.runsDir, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("diagnostics not found for run id: %s", runID)
	}
	return diagnostics, nil
}

func (c *Client) readArtifacts(ctx context.Context, runID string) (stats.RunArtifacts, error) {
	cfg, ok, err := stats.ReadRunConfig(c.runsDir, runID)
	if err != nil {
		return stats.RunArtifacts{}, err
	}
	if !ok {
		return stats.RunArtifacts{}, fmt.Errorf("run not found: %s", runID)
	}
	best, _, err := stats.ReadBest(c.runsDir, runID)
	if err != nil {
		return stats.RunArtifacts{}, err
	}
	history, err := c.fitnessHistory(ctx, runID)
	if err != nil {
		return stats.RunArtifacts{}, err
	}
	diagnostics, err := c.diagnostics(ctx, runID)
	if err != nil {
		return stats.RunArtifacts{}, err
	}
	return stats.RunArtifacts{
		Config:                cfg,
		BestByGeneration:      history,
		GenerationDiagnostics: diagnostics,
		Best:                  best,
	}, nil
}

// DefaultRunRequest returns the parameters genoptctl starts from before
// applying a config file or flags.
func DefaultRunRequest() RunRequest {
	return RunRequest{
		Problem:          defaultProblem,
		ChromosomeLength: defaultLength,
		PopulationSize:   defaultPopulation,
		MutationRate:     defaultMutationRate,
		MaxGenerations:   defaultMaxGenerations,
		Crossover:        ga.TwoPoint.String(),
		TwoPointMode:     ga.TwoPointComplement.String(),
		Seed:             defaultSeed,
		SeedFileHeader:   true,
	}
}

// withRunDefaults fills only the empty problem and crossover names. Sizes
// and counts are passed to the engine as given, so zero or negative values
// fail with ga.ErrInvalidConfig.
func withRunDefaults(req RunRequest) RunRequest {
	if req.Problem == "" {
		req.Problem = defaultProblem
	}
	if req.Crossover == "" {
		req.Crossover = ga.TwoPoint.String()
	}
	return req
}

func evaluatorExpression(evaluator ga.Evaluator) string {
	if shaped, ok := evaluator.(*problem.Shaped); ok {
		return shaped.Expression()
	}
	return ""
}

func engineConfig(req RunRequest) (ga.Config, error) {
	// Sizes are checked before the problem and seed rows are built from them.
	switch {
	case req.ChromosomeLength <= 0:
		return ga.Config{}, &ga.ConfigError{Field: "chromosome_length", Reason: fmt.Sprintf("must be > 0, got %d", req.ChromosomeLength)}
	case req.PopulationSize <= 0:
		return ga.Config{}, &ga.ConfigError{Field: "population_size", Reason: fmt.Sprintf("must be > 0, got %d", req.PopulationSize)}
	case req.MaxGenerations <= 0:
		return ga.Config{}, &ga.ConfigError{Field: "max_generations", Reason: fmt.Sprintf("must be > 0, got %d", req.MaxGenerations)}
	}
	crossover, err := ga.ParseCrossover(req.Crossover)
	if err != nil {
		return ga.Config{}, err
	}
	mode, err := ga.ParseTwoPointMode(req.TwoPointMode)
	if err != nil {
		return ga.Config{}, err
	}
	evaluator, err := problem.Build(req.Problem, req.Expression, req.ChromosomeLength)
	if err != nil {
		return ga.Config{}, err
	}

	cfg := ga.Config{
		ChromosomeLength: req.ChromosomeLength,
		PopulationSize:   req.PopulationSize,
		MutationRate:     req.MutationRate,
		MaxGenerations:   req.MaxGenerations,
		Crossover:        crossover,
		TwoPointMode:     mode,
		GeneDomain:       req.GeneDomain,
		Evaluator:        evaluator,
		Seed:             req.Seed,
	}
	switch {
	case req.SeedDataset && req.SeedFile != "":
		return ga.Config{}, errors.New("use either seed dataset or seed file, not both")
	case req.SeedDataset:
		rows, err := seedRows(ga.ReferenceDataset(), "reference dataset", req)
		if err != nil {
			return ga.Config{}, err
		}
		cfg.InitialPopulation = rows
		if cfg.GeneDomain == 0 {
			cfg.GeneDomain = ga.ReferenceDatasetDomain
		}
	case req.SeedFile != "":
		dataset, err := dataextract.ReadPopulationFile(req.SeedFile, dataextract.PopulationOptions{HasHeader: req.SeedFileHeader})
		if err != nil {
			return ga.Config{}, fmt.Errorf("load seed file: %w", err)
		}
		rows, err := seedRows(dataset, req.SeedFile, req)
		if err != nil {
			return ga.Config{}, err
		}
		cfg.InitialPopulation = rows
	}
	return cfg, nil
}

// seedRows cuts dataset down to the requested population shape.
func seedRows(dataset [][]int, source string, req RunRequest) ([][]int, error) {
	rows := ga.TruncateDataset(dataset, req.PopulationSize, req.ChromosomeLength)
	if len(rows) < req.PopulationSize || len(rows[0]) < req.ChromosomeLength {
		width := 0
		if len(dataset) > 0 {
			width = len(dataset[0])
		}
		return nil, fmt.Errorf("%s holds %d rows of %d genes; population %d x length %d does not fit",
			source, len(dataset), width, req.PopulationSize, req.ChromosomeLength)
	}
	return rows, nil
}

// bestSoFar turns per-generation bests into a running maximum.
func bestSoFar(history []float64) []float64 {
	out := make([]float64, len(history))
	for i, v := range history {
		if i > 0 && out[i-1] > v {
			v = out[i-1]
		}
		out[i] = v
	}
	return out
}

func populationGenes(p ga.Population) [][]int {
	out := make([][]int, len(p))
	for i, c := range p {
		out[i] = c.Genes()
	}
	return out
}

func chromosomeRecord(c ga.Chromosome) model.ChromosomeRecord {
	return model.ChromosomeRecord{
		Genes:     c.Genes(),
		Fitness:   c.Fitness(),
		Conflicts: c.Conflicts(),
	}
}

func writeRunChart(path string, cfg stats.RunConfig, history []float64, diagnostics []model.GenerationDiagnostics) error {
	bestSoFar := make([]float64, len(history))
	for i, v := range history {
		bestSoFar[i] = v
		if i > 0 && bestSoFar[i-1] > v {
			bestSoFar[i] = bestSoFar[i-1]
		}
	}
	mean := make([]float64, len(diagnostics))
	for i, d := range diagnostics {
		mean[i] = d.MeanFitness
	}
	title := fmt.Sprintf("%s L=%d N=%d %s", cfg.Problem, cfg.ChromosomeLength, cfg.PopulationSize, cfg.Crossover)
	return stats.WriteConvergenceChart(path, title, cfg.MaxGenerations,
		stats.ChartSeries{Name: "best so far", Values: bestSoFar},
		stats.ChartSeries{Name: "generation best", Values: history},
		stats.ChartSeries{Name: "mean", Values: mean},
	)
}
