package problem

import (
	"context"
	"fmt"
	"math"

	"github.com/PaesslerAG/gval"

	"genopt/internal/ga"
)

// Shaped rescales a problem's fitness with an arithmetic expression over
// conflicts, max_conflicts, length and fitness. The expression is evaluated
// for every reachable conflict count up front, so Evaluate is a lookup.
type Shaped struct {
	base   Problem
	expr   string
	length int
	table  []float64
}

func NewShaped(base Problem, expr string, length int) (*Shaped, error) {
	if base == nil {
		return nil, fmt.Errorf("base problem is required")
	}
	if length <= 0 {
		return nil, fmt.Errorf("length must be > 0, got %d", length)
	}
	eval, err := gval.Full().NewEvaluable(expr)
	if err != nil {
		return nil, fmt.Errorf("parse fitness expression %q: %w", expr, err)
	}

	maxConflicts := base.MaxConflicts(length)
	table := make([]float64, maxConflicts+1)
	for conflicts := range table {
		params := map[string]any{
			"conflicts":     conflicts,
			"max_conflicts": maxConflicts,
			"length":        length,
			"fitness":       maxConflicts - conflicts,
		}
		v, err := eval.EvalFloat64(context.Background(), params)
		if err != nil {
			return nil, fmt.Errorf("evaluate fitness expression %q at conflicts=%d: %w", expr, conflicts, err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return nil, fmt.Errorf("fitness expression %q yields %v at conflicts=%d; want a finite value >= 0", expr, v, conflicts)
		}
		table[conflicts] = v
	}

	return &Shaped{base: base, expr: expr, length: length, table: table}, nil
}

func (s *Shaped) Name() string {
	return s.base.Name() + "+expr"
}

func (s *Shaped) Expression() string {
	return s.expr
}

func (s *Shaped) Evaluate(genes []int) ga.Evaluation {
	eval := s.base.Evaluate(genes)
	if len(genes) != s.length || eval.Conflicts < 0 || eval.Conflicts >= len(s.table) {
		panic(fmt.Sprintf("problem: shaped %s built for length %d got length %d with %d conflicts", s.base.Name(), s.length, len(genes), eval.Conflicts))
	}
	eval.Fitness = s.table[eval.Conflicts]
	return eval
}
