package ga

import (
	"context"
	"fmt"
	"math/rand"
)

// Config is fixed for the lifetime of an engine.
type Config struct {
	ChromosomeLength int
	PopulationSize   int
	MutationRate     float64
	MaxGenerations   int
	Crossover        CrossoverStrategy
	TwoPointMode     TwoPointMode
	// GeneDomain bounds gene values to [0, GeneDomain). Zero means
	// ChromosomeLength, the positional encoding used by placement problems.
	GeneDomain int
	Evaluator  Evaluator
	// Rand overrides the source built from Seed.
	Rand *rand.Rand
	Seed int64
	// InitialPopulation seeds the first generation instead of random
	// chromosomes. It must hold exactly PopulationSize rows.
	InitialPopulation [][]int
	// Observer is called after every replacement.
	Observer func(GenerationDiagnostics)
}

type State int

const (
	StateInitialized State = iota
	StateRunning
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateInitialized:
		return "initialized"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Result is what a completed run hands to its consumers.
type Result struct {
	Best            Chromosome
	History         []float64
	Diagnostics     []GenerationDiagnostics
	FinalPopulation Population
}

// Engine runs one generational GA. It is not safe for concurrent use.
type Engine struct {
	cfg        Config
	rng        *rand.Rand
	selector   Selector
	crossover  Crossover
	mutator    SwapMutator
	population Population
	state      State
}

func New(cfg Config) (*Engine, error) {
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(cfg.Seed))
	}

	e := &Engine{
		cfg:       cfg,
		rng:       rng,
		selector:  RouletteSelector{},
		crossover: Crossover{Strategy: cfg.Crossover, TwoPointMode: cfg.TwoPointMode},
		mutator:   SwapMutator{Rate: cfg.MutationRate},
	}
	if err := e.initPopulation(); err != nil {
		return nil, err
	}
	return e, nil
}

func validateConfig(cfg *Config) error {
	if cfg.ChromosomeLength <= 0 {
		return configErrorf("chromosome_length", "must be > 0, got %d", cfg.ChromosomeLength)
	}
	if cfg.PopulationSize < 2 {
		return configErrorf("population_size", "must be >= 2 to form a parent pair, got %d", cfg.PopulationSize)
	}
	if !(cfg.MutationRate >= 0 && cfg.MutationRate <= 1) {
		return configErrorf("mutation_rate", "must be in [0, 1], got %v", cfg.MutationRate)
	}
	if cfg.MaxGenerations <= 0 {
		return configErrorf("max_generations", "must be > 0, got %d", cfg.MaxGenerations)
	}
	if !cfg.Crossover.Valid() {
		return configErrorf("crossover", "unsupported strategy %s", cfg.Crossover)
	}
	if cfg.TwoPointMode != TwoPointComplement && cfg.TwoPointMode != TwoPointZeroFill {
		return configErrorf("two_point_mode", "unsupported mode %d", int(cfg.TwoPointMode))
	}
	if cfg.GeneDomain == 0 {
		cfg.GeneDomain = cfg.ChromosomeLength
	}
	if cfg.GeneDomain < 0 {
		return configErrorf("gene_domain", "must be > 0, got %d", cfg.GeneDomain)
	}
	if cfg.Evaluator == nil {
		return configErrorf("evaluator", "is required")
	}
	if cfg.InitialPopulation != nil && len(cfg.InitialPopulation) != cfg.PopulationSize {
		return configErrorf("initial_population", "has %d rows, want %d", len(cfg.InitialPopulation), cfg.PopulationSize)
	}
	return nil
}

func (e *Engine) initPopulation() error {
	population := make(Population, 0, e.cfg.PopulationSize)
	if e.cfg.InitialPopulation != nil {
		for i, genes := range e.cfg.InitialPopulation {
			c, err := e.NewChromosome(genes)
			if err != nil {
				return &ConfigError{Field: "initial_population", Reason: fmt.Sprintf("row %d: %v", i, err)}
			}
			population = append(population, c)
		}
	} else {
		for i := 0; i < e.cfg.PopulationSize; i++ {
			population = append(population, e.RandomChromosome())
		}
	}
	e.population = population
	return nil
}

// NewChromosome builds a chromosome after checking it against the configured
// length and gene domain.
func (e *Engine) NewChromosome(genes []int) (Chromosome, error) {
	if len(genes) != e.cfg.ChromosomeLength {
		return Chromosome{}, fmt.Errorf("%w: got=%d want=%d", ErrChromosomeLength, len(genes), e.cfg.ChromosomeLength)
	}
	for i, g := range genes {
		if g < 0 || g >= e.cfg.GeneDomain {
			return Chromosome{}, fmt.Errorf("%w: gene[%d]=%d domain=[0,%d)", ErrGeneOutOfDomain, i, g, e.cfg.GeneDomain)
		}
	}
	return NewChromosome(genes, e.cfg.Evaluator), nil
}

// RandomChromosome draws every gene uniformly from the gene domain.
func (e *Engine) RandomChromosome() Chromosome {
	genes := make([]int, e.cfg.ChromosomeLength)
	for i := range genes {
		genes[i] = e.rng.Intn(e.cfg.GeneDomain)
	}
	return NewChromosome(genes, e.cfg.Evaluator)
}

func (e *Engine) Config() Config {
	return e.cfg
}

func (e *Engine) State() State {
	return e.state
}

// Population returns a snapshot of the current population.
func (e *Engine) Population() Population {
	return e.population.clone()
}

// Run evolves the population for MaxGenerations generations. The all-time
// best starts from one random chromosome drawn before the first generation.
func (e *Engine) Run(ctx context.Context) (Result, error) {
	if e.state != StateInitialized {
		return Result{}, ErrAlreadyRun
	}
	e.state = StateRunning
	defer func() { e.state = StateCompleted }()

	best := e.RandomChromosome()
	history := make([]float64, 0, e.cfg.MaxGenerations)
	diagnostics := make([]GenerationDiagnostics, 0, e.cfg.MaxGenerations)

	for gen := 1; gen <= e.cfg.MaxGenerations; gen++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		if err := e.step(); err != nil {
			return Result{}, fmt.Errorf("generation %d: %w", gen, err)
		}

		diag, err := summarizeGeneration(e.population, gen)
		if err != nil {
			return Result{}, fmt.Errorf("generation %d: %w", gen, err)
		}
		if best.Fitness() < diag.BestFitness {
			best = e.population[diag.BestIndex]
			diag.Improved = true
		}
		history = append(history, diag.BestFitness)
		diagnostics = append(diagnostics, diag)
		if e.cfg.Observer != nil {
			e.cfg.Observer(diag)
		}
	}

	return Result{
		Best:            best,
		History:         history,
		Diagnostics:     diagnostics,
		FinalPopulation: e.population.clone(),
	}, nil
}

// step runs selection, recombination and mutation, then replaces the
// population with the offspring.
func (e *Engine) step() error {
	parents, err := e.selector.Select(e.rng, e.population, e.cfg.PopulationSize)
	if err != nil {
		return err
	}
	offspring := e.recombine(parents)
	e.population = e.mutate(offspring)
	return nil
}

// recombine pairs parents (0,1), (2,3), ...; an odd trailing parent is
// dropped.
func (e *Engine) recombine(parents Population) Population {
	offspring := make(Population, 0, len(parents)/2*2)
	for i := 0; i+1 < len(parents); i += 2 {
		child1, child2 := e.crossover.Cross(e.rng, parents[i].genes, parents[i+1].genes)
		offspring = append(offspring,
			NewChromosome(child1, e.cfg.Evaluator),
			NewChromosome(child2, e.cfg.Evaluator),
		)
	}
	return offspring
}

func (e *Engine) mutate(offspring Population) Population {
	mutated := make(Population, len(offspring))
	for i, c := range offspring {
		mutated[i] = NewChromosome(e.mutator.Mutate(e.rng, c.genes), e.cfg.Evaluator)
	}
	return mutated
}
