package ga

import (
	"fmt"
	"math/rand"
)

// Wheel holds one generation's fitness-proportionate layout: each member's
// share of the total fitness and its slice of [0,1), indexed by population
// position.
type Wheel struct {
	total  float64
	ratios []float64
	ranges []ProbabilityRange
}

// NewWheel lays out the population on [0,1) in population order. Ranges are
// contiguous and each range is exactly as wide as the member's ratio.
func NewWheel(population Population) Wheel {
	w := Wheel{
		total:  population.TotalFitness(),
		ratios: make([]float64, len(population)),
		ranges: make([]ProbabilityRange, len(population)),
	}
	if w.Degenerate() {
		return w
	}
	acc := 0.0
	for i, c := range population {
		ratio := c.Ratio(w.total)
		w.ratios[i] = ratio
		w.ranges[i] = ProbabilityRange{Low: acc, High: acc + ratio}
		acc += ratio
	}
	return w
}

func (w Wheel) Total() float64 {
	return w.total
}

// Degenerate reports a wheel with no positive fitness mass to spin on.
func (w Wheel) Degenerate() bool {
	return !(w.total > 0)
}

func (w Wheel) Len() int {
	return len(w.ranges)
}

func (w Wheel) Ratio(i int) float64 {
	return w.ratios[i]
}

func (w Wheel) Range(i int) ProbabilityRange {
	return w.ranges[i]
}

func (w Wheel) IsChosen(i int, r float64) bool {
	return w.ranges[i].Contains(r)
}

// Spin returns the first member whose range contains r. Accumulated rounding
// can leave the top boundary slightly under 1.0; any r past it lands on the
// last member.
func (w Wheel) Spin(r float64) int {
	for i := range w.ranges {
		if w.IsChosen(i, r) {
			return i
		}
	}
	return len(w.ranges) - 1
}

// Selector chooses the mating pool for one generation.
type Selector interface {
	Name() string
	Select(rng *rand.Rand, population Population, size int) (Population, error)
}

// RouletteSelector implements fitness-proportionate selection with
// replacement. A population whose total fitness is zero falls back to
// uniform selection.
type RouletteSelector struct{}

func (RouletteSelector) Name() string {
	return "roulette"
}

func (RouletteSelector) Select(rng *rand.Rand, population Population, size int) (Population, error) {
	if rng == nil {
		return nil, ErrRandomSourceIsNil
	}
	if len(population) == 0 {
		return nil, ErrEmptyPopulation
	}
	if size < 0 {
		return nil, fmt.Errorf("invalid selection size: %d", size)
	}

	wheel := NewWheel(population)
	parents := make(Population, 0, size)
	for len(parents) < size {
		if wheel.Degenerate() {
			parents = append(parents, population[rng.Intn(len(population))])
			continue
		}
		parents = append(parents, population[wheel.Spin(rng.Float64())])
	}
	return parents, nil
}
