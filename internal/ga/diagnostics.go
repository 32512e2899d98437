package ga

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// GenerationDiagnostics summarizes one replaced population.
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

func summarizeGeneration(population Population, generation int) (GenerationDiagnostics, error) {
	bestIdx, best, err := population.MaximumFitness()
	if err != nil {
		return GenerationDiagnostics{}, err
	}

	fitness := make([]float64, len(population))
	for i, c := range population {
		fitness[i] = c.Fitness()
	}
	mean, std := stat.PopMeanStdDev(fitness, nil)

	return GenerationDiagnostics{
		Generation:     generation,
		PopulationSize: len(population),
		BestIndex:      bestIdx,
		BestFitness:    best,
		BestConflicts:  population[bestIdx].Conflicts(),
		MeanFitness:    mean,
		MinFitness:     floats.Min(fitness),
		FitnessStdDev:  std,
	}, nil
}
