package ga

import "math/rand"

// SwapMutator exchanges two gene positions with probability Rate.
type SwapMutator struct {
	Rate float64
}

func (SwapMutator) Name() string {
	return "swap"
}

// Mutate always returns a fresh gene slice; the input is left untouched.
func (m SwapMutator) Mutate(rng *rand.Rand, genes []int) []int {
	out := append([]int(nil), genes...)
	if len(out) == 0 {
		return out
	}
	if rng.Float64() <= m.Rate {
		i, j := rng.Intn(len(out)), rng.Intn(len(out))
		SwapAt(out, i, j)
	}
	return out
}

// SwapAt swaps genes i and j in place; i == j is a no-op.
func SwapAt(genes []int, i, j int) {
	genes[i], genes[j] = genes[j], genes[i]
}
