// Package problem holds fitness functions for positional integer encodings.
package problem

import (
	"fmt"
	"sort"

	"genopt/internal/ga"
)

// Problem is a fitness function that also knows the worst conflict count a
// sequence of a given length can reach.
type Problem interface {
	ga.Evaluator
	Description() string
	MaxConflicts(length int) int
}

var builtin = map[string]func() Problem{
	"nqueens":  func() Problem { return NQueens{} },
	"distinct": func() Problem { return Distinct{} },
}

func Lookup(name string) (Problem, error) {
	ctor, ok := builtin[name]
	if !ok {
		return nil, fmt.Errorf("unknown problem: %s", name)
	}
	return ctor(), nil
}

func Names() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build resolves a problem by name and, when expr is set, reshapes its
// fitness through the expression for sequences of the given length.
func Build(name, expr string, length int) (ga.Evaluator, error) {
	p, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	if expr == "" {
		return p, nil
	}
	return NewShaped(p, expr, length)
}

func pairCount(length int) int {
	if length < 2 {
		return 0
	}
	return length * (length - 1) / 2
}

// NQueens reads genes[i] as the row of the queen in column i. A conflict is
// a pair of queens sharing a row or a diagonal; fitness is the number of
// non-attacking pairs.
type NQueens struct{}

func (NQueens) Name() string {
	return "nqueens"
}

func (NQueens) Description() string {
	return "queens on an N x N board, one per column; gene = row"
}

func (NQueens) MaxConflicts(length int) int {
	return pairCount(length)
}

func (q NQueens) Evaluate(genes []int) ga.Evaluation {
	conflicts := q.Conflicts(genes)
	return ga.Evaluation{
		Fitness:   float64(pairCount(len(genes)) - conflicts),
		Conflicts: conflicts,
	}
}

func (NQueens) Conflicts(genes []int) int {
	conflicts := 0
	for i := 0; i < len(genes); i++ {
		for j := i + 1; j < len(genes); j++ {
			dRow := genes[i] - genes[j]
			if dRow < 0 {
				dRow = -dRow
			}
			if dRow == 0 || dRow == j-i {
				conflicts++
			}
		}
	}
	return conflicts
}

// Distinct counts pairs of equal genes. A conflict-free sequence places every
// item in its own slot.
type Distinct struct{}

func (Distinct) Name() string {
	return "distinct"
}

func (Distinct) Description() string {
	return "assign every position a different slot; gene = slot"
}

func (Distinct) MaxConflicts(length int) int {
	return pairCount(length)
}

func (d Distinct) Evaluate(genes []int) ga.Evaluation {
	conflicts := d.Conflicts(genes)
	return ga.Evaluation{
		Fitness:   float64(pairCount(len(genes)) - conflicts),
		Conflicts: conflicts,
	}
}

func (Distinct) Conflicts(genes []int) int {
	counts := make(map[int]int, len(genes))
	for _, g := range genes {
		counts[g]++
	}
	conflicts := 0
	for _, n := range counts {
		conflicts += pairCount(n)
	}
	return conflicts
}
