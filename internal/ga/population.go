package ga

// Population is an ordered set of chromosomes owned by one engine.
type Population []Chromosome

func (p Population) TotalFitness() float64 {
	total := 0.0
	for _, c := range p {
		total += c.Fitness()
	}
	return total
}

// MaximumFitness returns the index and fitness of the fittest chromosome.
// Ties resolve to the first occurrence.
func (p Population) MaximumFitness() (int, float64, error) {
	if len(p) == 0 {
		return 0, 0, ErrEmptyPopulation
	}
	bestIdx := 0
	best := p[0].Fitness()
	for i := 1; i < len(p); i++ {
		if p[i].Fitness() > best {
			best = p[i].Fitness()
			bestIdx = i
		}
	}
	return bestIdx, best, nil
}

func (p Population) clone() Population {
	return append(Population(nil), p...)
}
