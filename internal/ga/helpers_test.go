package ga

import "slices"

// distinctEvaluator scores a sequence by how many distinct gene values it holds.
var distinctEvaluator = EvaluatorFunc(func(genes []int) Evaluation {
	seen := make(map[int]struct{}, len(genes))
	for _, g := range genes {
		seen[g] = struct{}{}
	}
	return Evaluation{Fitness: float64(len(seen)), Conflicts: len(genes) - len(seen)}
})

// firstGeneEvaluator uses the first gene as the fitness.
var firstGeneEvaluator = EvaluatorFunc(func(genes []int) Evaluation {
	return Evaluation{Fitness: float64(genes[0])}
})

func populationWithFitness(values ...int) Population {
	population := make(Population, 0, len(values))
	for _, v := range values {
		population = append(population, NewChromosome([]int{v, 0}, firstGeneEvaluator))
	}
	return population
}

func sortedCopy(genes []int) []int {
	out := slices.Clone(genes)
	slices.Sort(out)
	return out
}

func baseConfig() Config {
	return Config{
		ChromosomeLength: 8,
		PopulationSize:   10,
		MutationRate:     0.1,
		MaxGenerations:   10,
		Crossover:        TwoPoint,
		Evaluator:        distinctEvaluator,
		Seed:             42,
	}
}
