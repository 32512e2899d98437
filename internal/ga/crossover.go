package ga

import (
	"fmt"
	"math/rand"
	"strings"
)

// CrossoverStrategy selects the recombination operator for a whole run.
type CrossoverStrategy int

const (
	OnePoint CrossoverStrategy = iota + 1
	TwoPoint
	Uniform
)

func (s CrossoverStrategy) String() string {
	switch s {
	case OnePoint:
		return "one_point"
	case TwoPoint:
		return "two_point"
	case Uniform:
		return "uniform"
	default:
		return fmt.Sprintf("crossover(%d)", int(s))
	}
}

func (s CrossoverStrategy) Valid() bool {
	return s == OnePoint || s == TwoPoint || s == Uniform
}

func ParseCrossover(name string) (CrossoverStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "one_point", "one-point", "onepoint", "1":
		return OnePoint, nil
	case "two_point", "two-point", "twopoint", "2":
		return TwoPoint, nil
	case "uniform", "3":
		return Uniform, nil
	default:
		return 0, fmt.Errorf("unsupported crossover strategy: %s", name)
	}
}

// TwoPointMode controls what two-point offspring carry outside the window.
type TwoPointMode int

const (
	// TwoPointComplement fills the genes outside [i,j] from the other parent.
	TwoPointComplement TwoPointMode = iota
	// TwoPointZeroFill leaves zeros outside [i,j], so offspring carry
	// placeholder genes.
	TwoPointZeroFill
)

func (m TwoPointMode) String() string {
	if m == TwoPointZeroFill {
		return "zero_fill"
	}
	return "complement"
}

func ParseTwoPointMode(name string) (TwoPointMode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "complement":
		return TwoPointComplement, nil
	case "zero_fill", "zero-fill", "zerofill":
		return TwoPointZeroFill, nil
	default:
		return 0, fmt.Errorf("unsupported two-point mode: %s", name)
	}
}

// Crossover applies one strategy to parent gene sequences of equal length.
type Crossover struct {
	Strategy     CrossoverStrategy
	TwoPointMode TwoPointMode
}

func (c Crossover) Cross(rng *rand.Rand, parent1, parent2 []int) ([]int, []int) {
	length := len(parent1)
	switch c.Strategy {
	case OnePoint:
		return OnePointAt(parent1, parent2, rng.Intn(length))
	case TwoPoint:
		i, j := rng.Intn(length), rng.Intn(length)
		if j < i {
			i, j = j, i
		}
		return TwoPointAt(parent1, parent2, i, j, c.TwoPointMode)
	case Uniform:
		mask := make([]bool, length)
		for i := range mask {
			mask[i] = rng.Intn(2) == 1
		}
		return UniformWithMask(parent1, parent2, mask)
	default:
		panic(fmt.Sprintf("ga: unknown crossover strategy %d", int(c.Strategy)))
	}
}

// OnePointAt cuts both parents at k, 0 <= k <= len.
func OnePointAt(parent1, parent2 []int, k int) ([]int, []int) {
	child1 := make([]int, 0, len(parent1))
	child1 = append(child1, parent1[:k]...)
	child1 = append(child1, parent2[k:]...)

	child2 := make([]int, 0, len(parent2))
	child2 = append(child2, parent2[:k]...)
	child2 = append(child2, parent1[k:]...)
	return child1, child2
}

// TwoPointAt exchanges the inclusive window [i,j], i <= j.
func TwoPointAt(parent1, parent2 []int, i, j int, mode TwoPointMode) ([]int, []int) {
	child1 := make([]int, len(parent1))
	child2 := make([]int, len(parent2))
	if mode == TwoPointComplement {
		copy(child1, parent2)
		copy(child2, parent1)
	}
	for k := i; k <= j; k++ {
		child1[k] = parent1[k]
		child2[k] = parent2[k]
	}
	return child1, child2
}

// UniformWithMask takes parent1's gene into child1 where mask is true and
// parent2's where it is false; child2 gets the opposite.
func UniformWithMask(parent1, parent2 []int, mask []bool) ([]int, []int) {
	child1 := make([]int, len(parent1))
	child2 := make([]int, len(parent2))
	for i := range parent1 {
		if mask[i] {
			child1[i] = parent1[i]
			child2[i] = parent2[i]
		} else {
			child1[i] = parent2[i]
			child2[i] = parent1[i]
		}
	}
	return child1, child2
}
