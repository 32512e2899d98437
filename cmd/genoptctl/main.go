package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"genopt/internal/storage"
	"genopt/pkg/genopt"
)

const (
	runsDir    = "runs"
	exportsDir = "exports"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "run":
		return runRun(ctx, args[1:])
	case "benchmark":
		return runBenchmark(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "show":
		return runShow(ctx, args[1:])
	case "fitness":
		return runFitness(ctx, args[1:])
	case "diagnostics":
		return runDiagnostics(ctx, args[1:])
	case "chart":
		return runChart(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	case "problems":
		return runProblems(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

// clientFlags are the store and logging flags every command that opens a
// client accepts.
type clientFlags struct {
	storeKind *string
	storePath *string
	runsDir   *string
	logLevel  *string
}

func registerClientFlags(fs *flag.FlagSet) clientFlags {
	return clientFlags{
		storeKind: fs.String("store", storage.DefaultStoreKind(), "store backend: "+strings.Join(storage.Kinds, "|")),
		storePath: fs.String("store-path", "", "sqlite database file or badger directory (default depends on --store)"),
		runsDir:   fs.String("runs-dir", runsDir, "run artifacts directory"),
		logLevel:  fs.String("log-level", "warn", "log level: debug|info|warn|error"),
	}
}

func (f clientFlags) open() (*genopt.Client, error) {
	logger, err := newLogger(os.Stderr, *f.logLevel)
	if err != nil {
		return nil, err
	}
	return genopt.New(genopt.Options{
		StoreKind:  *f.storeKind,
		StorePath:  *f.storePath,
		RunsDir:    *f.runsDir,
		ExportsDir: exportsDir,
		Logger:     logger,
	})
}

// runFlags holds the run parameters shared by run and benchmark.
type runFlags struct {
	configPath   *string
	problem      *string
	expr         *string
	length       *int
	population   *int
	mutationRate *float64
	generations  *int
	crossover    *string
	twoPointMode *string
	domain       *int
	seed         *int64
	seedDataset  *bool
	seedFile     *string
	seedHeader   *bool
	chart        *bool
	workbook     *bool
	metrics      *bool
}

func registerRunFlags(fs *flag.FlagSet) runFlags {
	def := genopt.DefaultRunRequest()
	return runFlags{
		configPath:   fs.String("config", "", "optional run config file (.json or .toml)"),
		problem:      fs.String("problem", def.Problem, "problem name (see problems command)"),
		expr:         fs.String("expr", "", "fitness shaping expression over conflicts, max_conflicts, length and fitness"),
		length:       fs.Int("length", def.ChromosomeLength, "chromosome length"),
		population:   fs.Int("pop", def.PopulationSize, "population size"),
		mutationRate: fs.Float64("mutation-rate", def.MutationRate, "per-chromosome swap mutation probability in [0,1]"),
		generations:  fs.Int("gens", def.MaxGenerations, "number of generations"),
		crossover:    fs.String("crossover", def.Crossover, "crossover: one_point|two_point|uniform"),
		twoPointMode: fs.String("two-point-mode", def.TwoPointMode, "two-point offspring outside the window: complement|zero_fill"),
		domain:       fs.Int("domain", 0, "gene values are drawn from [0,domain); 0 uses the chromosome length"),
		seed:         fs.Int64("seed", def.Seed, "random seed"),
		seedDataset:  fs.Bool("seed-dataset", false, "start from the built-in reference dataset instead of random chromosomes"),
		seedFile:     fs.String("seed-file", "", "start from a CSV population, one chromosome per row"),
		seedHeader:   fs.Bool("seed-file-header", def.SeedFileHeader, "the seed file's first row is a header"),
		chart:        fs.Bool("chart", false, "write a convergence chart PNG"),
		workbook:     fs.Bool("workbook", false, "write an xlsx workbook"),
		metrics:      fs.Bool("metrics", false, "write a prometheus textfile"),
	}
}

// request builds a run request from the flag values. A config file is
// applied on top of the flag defaults, and explicitly set flags win over it.
func (f runFlags) request(fs *flag.FlagSet) (genopt.RunRequest, error) {
	setFlags := make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) {
		setFlags[fl.Name] = true
	})

	base := genopt.RunRequest{
		Problem:          *f.problem,
		Expression:       *f.expr,
		ChromosomeLength: *f.length,
		PopulationSize:   *f.population,
		MutationRate:     *f.mutationRate,
		MaxGenerations:   *f.generations,
		Crossover:        *f.crossover,
		TwoPointMode:     *f.twoPointMode,
		GeneDomain:       *f.domain,
		Seed:             *f.seed,
		SeedDataset:      *f.seedDataset,
		SeedFile:         *f.seedFile,
		SeedFileHeader:   *f.seedHeader,
		Chart:            *f.chart,
		Workbook:         *f.workbook,
		Metrics:          *f.metrics,
	}
	if *f.configPath == "" {
		return base, nil
	}
	req, err := loadOrDefaultRunRequest(*f.configPath, base)
	if err != nil {
		return genopt.RunRequest{}, err
	}
	err = overrideFromFlags(&req, setFlags, map[string]any{
		"problem":          *f.problem,
		"expr":             *f.expr,
		"length":           *f.length,
		"pop":              *f.population,
		"mutation-rate":    *f.mutationRate,
		"gens":             *f.generations,
		"crossover":        *f.crossover,
		"two-point-mode":   *f.twoPointMode,
		"domain":           *f.domain,
		"seed":             *f.seed,
		"seed-dataset":     *f.seedDataset,
		"seed-file":        *f.seedFile,
		"seed-file-header": *f.seedHeader,
		"chart":            *f.chart,
		"workbook":         *f.workbook,
		"metrics":          *f.metrics,
	})
	if err != nil {
		return genopt.RunRequest{}, err
	}
	return req, nil
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	cf := registerClientFlags(fs)
	rf := registerRunFlags(fs)
	runID := fs.String("run-id", "", "run id (generated when empty)")
	interactive := fs.Bool("interactive", false, "prompt for mutation rate, generations and crossover")
	jsonOut := fs.Bool("json", false, "emit run summary as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	req, err := rf.request(fs)
	if err != nil {
		return err
	}
	if *runID != "" {
		req.RunID = *runID
	}
	if *interactive {
		if err := promptRunRequest(os.Stdin, os.Stdout, &req); err != nil {
			return err
		}
	}

	client, err := cf.open()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Run(ctx, req)
	if err != nil {
		return err
	}
	if *jsonOut {
		return writeJSON(runSummaryJSON(summary))
	}
	printRunSummary(os.Stdout, summary, req)
	return nil
}

func runBenchmark(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("benchmark", flag.ContinueOnError)
	cf := registerClientFlags(fs)
	rf := registerRunFlags(fs)
	benchmarkID := fs.String("id", "", "benchmark id (generated when empty)")
	runs := fs.Int("runs", 10, "number of repetitions over consecutive seeds")
	jsonOut := fs.Bool("json", false, "emit benchmark summary as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runs <= 0 {
		return errors.New("runs must be > 0")
	}

	req, err := rf.request(fs)
	if err != nil {
		return err
	}

	client, err := cf.open()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, dir, err := client.Benchmark(ctx, genopt.BenchmarkRequest{
		ID:   *benchmarkID,
		Runs: *runs,
		Run:  req,
	})
	if err != nil {
		return err
	}
	if *jsonOut {
		return writeJSON(summary)
	}
	printBenchmarkSummary(os.Stdout, summary, dir)
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	cf := registerClientFlags(fs)
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	client, err := cf.open()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	items, err := client.Runs(ctx, genopt.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if *jsonOut {
		type runsItem struct {
			RunID            string  `json:"run_id"`
			CreatedAtUTC     string  `json:"created_at_utc"`
			Problem          string  `json:"problem"`
			ChromosomeLength int     `json:"chromosome_length"`
			PopulationSize   int     `json:"population_size"`
			MaxGenerations   int     `json:"max_generations"`
			Crossover        string  `json:"crossover"`
			Seed             int64   `json:"seed"`
			FinalBestFitness float64 `json:"final_best_fitness"`
			BestConflicts    int     `json:"best_conflicts"`
		}
		out := make([]runsItem, 0, len(items))
		for _, item := range items {
			out = append(out, runsItem{
				RunID:            item.RunID,
				CreatedAtUTC:     item.CreatedAtUTC,
				Problem:          item.Problem,
				ChromosomeLength: item.ChromosomeLength,
				PopulationSize:   item.Population,
				MaxGenerations:   item.MaxGenerations,
				Crossover:        item.Crossover,
				Seed:             item.Seed,
				FinalBestFitness: item.FinalBestFitness,
				BestConflicts:    item.BestConflicts,
			})
		}
		return writeJSON(out)
	}
	if len(items) == 0 {
		fmt.Println("no runs found")
		return nil
	}
	printRuns(os.Stdout, items)
	return nil
}

func runShow(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	cf := registerClientFlags(fs)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "show the most recent run from run index")
	jsonOut := fs.Bool("json", false, "emit run record as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := checkRunSelection("show", *runID, *latest); err != nil {
		return err
	}

	client, err := cf.open()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	record, err := client.Show(ctx, genopt.ShowRequest{RunID: *runID, Latest: *latest})
	if err != nil {
		return err
	}
	if *jsonOut {
		return writeJSON(record)
	}
	printRunRecord(os.Stdout, record)
	return nil
}

func runFitness(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fitness", flag.ContinueOnError)
	cf := registerClientFlags(fs)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "show fitness history for the most recent run from run index")
	limit := fs.Int("limit", 50, "max generations to print (0 for all)")
	jsonOut := fs.Bool("json", false, "emit fitness history as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := checkRunSelection("fitness", *runID, *latest); err != nil {
		return err
	}

	client, err := cf.open()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	history, err := client.FitnessHistory(ctx, genopt.FitnessHistoryRequest{
		RunID:  *runID,
		Latest: *latest,
		Limit:  *limit,
	})
	if err != nil {
		return err
	}
	if len(history) == 0 {
		fmt.Println("no fitness history")
		return nil
	}
	if *jsonOut {
		return writeJSON(history)
	}

	for i, best := range history {
		fmt.Printf("generation=%d best_fitness=%.6f\n", i+1, best)
	}
	return nil
}

func runDiagnostics(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("diagnostics", flag.ContinueOnError)
	cf := registerClientFlags(fs)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "show diagnostics for the most recent run from run index")
	limit := fs.Int("limit", 50, "max generations to print (0 for all)")
	jsonOut := fs.Bool("json", false, "emit diagnostics as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := checkRunSelection("diagnostics", *runID, *latest); err != nil {
		return err
	}

	client, err := cf.open()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	diagnostics, err := client.Diagnostics(ctx, genopt.DiagnosticsRequest{
		RunID:  *runID,
		Latest: *latest,
		Limit:  *limit,
	})
	if err != nil {
		return err
	}
	if len(diagnostics) == 0 {
		fmt.Println("no diagnostics")
		return nil
	}
	if *jsonOut {
		return writeJSON(diagnostics)
	}

	for _, d := range diagnostics {
		fmt.Printf("generation=%d best_fitness=%.6f best_conflicts=%d mean_fitness=%.6f min_fitness=%.6f std_dev=%.6f improved=%t\n",
			d.Generation,
			d.BestFitness,
			d.BestConflicts,
			d.MeanFitness,
			d.MinFitness,
			d.FitnessStdDev,
			d.Improved,
		)
	}
	return nil
}

func runChart(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("chart", flag.ContinueOnError)
	cf := registerClientFlags(fs)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "chart the most recent run from run index")
	outPath := fs.String("out", "", "output PNG path (default: the run's convergence.png)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := checkRunSelection("chart", *runID, *latest); err != nil {
		return err
	}

	client, err := cf.open()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	path, err := client.Chart(ctx, genopt.ChartRequest{RunID: *runID, Latest: *latest, OutPath: *outPath})
	if err != nil {
		return err
	}
	fmt.Printf("chart written to=%s\n", path)
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	cf := registerClientFlags(fs)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "export the most recent run from run index")
	outDir := fs.String("out", exportsDir, "export output directory")
	workbook := fs.Bool("workbook", false, "write an xlsx workbook into the export")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := checkRunSelection("export", *runID, *latest); err != nil {
		return err
	}

	client, err := cf.open()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	exported, err := client.Export(ctx, genopt.ExportRequest{
		RunID:    *runID,
		Latest:   *latest,
		OutDir:   *outDir,
		Workbook: *workbook,
	})
	if err != nil {
		return err
	}
	fmt.Printf("exported run_id=%s to=%s\n", exported.RunID, exported.Directory)
	return nil
}

func runProblems(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("problems", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "emit problems as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	problems := genopt.Problems()
	if *jsonOut {
		type problemItem struct {
			Name        string `json:"name"`
			Description string `json:"description"`
		}
		out := make([]problemItem, 0, len(problems))
		for _, p := range problems {
			out = append(out, problemItem{Name: p.Name, Description: p.Description})
		}
		return writeJSON(out)
	}
	for _, p := range problems {
		fmt.Printf("%s\t%s\n", p.Name, p.Description)
	}
	return nil
}

func checkRunSelection(command, runID string, latest bool) error {
	if runID != "" && latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if runID == "" && !latest {
		return fmt.Errorf("%s requires --run-id or --latest", command)
	}
	return nil
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: genoptctl <run|benchmark|runs|show|fitness|diagnostics|chart|export|problems> [flags]", msg)
}
