package model

import "time"

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// ChromosomeRecord is the persisted form of a single evaluated chromosome.
type ChromosomeRecord struct {
	Genes     []int   `json:"genes"`
	Fitness   float64 `json:"fitness"`
	Conflicts int     `json:"conflicts"`
}

// RunRecord describes one finished evolution run: the parameters it was
// started with and the best chromosome it found.
type RunRecord struct {
	VersionedRecord
	ID               string           `json:"id"`
	Problem          string           `json:"problem"`
	Expression       string           `json:"expression,omitempty"`
	ChromosomeLength int              `json:"chromosome_length"`
	PopulationSize   int              `json:"population_size"`
	MutationRate     float64          `json:"mutation_rate"`
	MaxGenerations   int              `json:"max_generations"`
	Crossover        string           `json:"crossover"`
	TwoPointMode     string           `json:"two_point_mode,omitempty"`
	GeneDomain       int              `json:"gene_domain"`
	Seed             int64            `json:"seed"`
	Generations      int              `json:"generations"`
	Best             ChromosomeRecord `json:"best"`
	CreatedAt        time.Time        `json:"created_at"`
	Duration         time.Duration    `json:"duration_ns"`
}

type GenerationDiagnostics struct {
	Generation     int     `json:"generation"`
	PopulationSize int     `json:"population_size"`
	BestIndex      int     `json:"best_index"`
	BestFitness    float64 `json:"best_fitness"`
	BestConflicts  int     `json:"best_conflicts"`
	MeanFitness    float64 `json:"mean_fitness"`
	MinFitness     float64 `json:"min_fitness"`
	FitnessStdDev  float64 `json:"fitness_std_dev"`
	Improved       bool    `json:"improved"`
}
