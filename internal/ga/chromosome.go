package ga

// Evaluation is the outcome of scoring one gene sequence.
type Evaluation struct {
	Fitness   float64
	Conflicts int
}

// Evaluator maps a gene sequence to a non-negative fitness (higher is better)
// and a conflict count used for reporting. Implementations must be
// deterministic for a fixed gene sequence.
type Evaluator interface {
	Name() string
	Evaluate(genes []int) Evaluation
}

// EvaluatorFunc adapts a plain function to Evaluator.
type EvaluatorFunc func(genes []int) Evaluation

func (EvaluatorFunc) Name() string {
	return "func"
}

func (f EvaluatorFunc) Evaluate(genes []int) Evaluation {
	return f(genes)
}

// Chromosome is an immutable candidate solution. Fitness and conflicts are
// computed once when the chromosome is built.
type Chromosome struct {
	genes     []int
	fitness   float64
	conflicts int
}

func NewChromosome(genes []int, evaluator Evaluator) Chromosome {
	owned := append([]int(nil), genes...)
	eval := evaluator.Evaluate(owned)
	return Chromosome{
		genes:     owned,
		fitness:   eval.Fitness,
		conflicts: eval.Conflicts,
	}
}

// Genes returns a copy of the gene sequence.
func (c Chromosome) Genes() []int {
	return append([]int(nil), c.genes...)
}

func (c Chromosome) Gene(i int) int {
	return c.genes[i]
}

func (c Chromosome) Len() int {
	return len(c.genes)
}

func (c Chromosome) Fitness() float64 {
	return c.fitness
}

func (c Chromosome) Conflicts() int {
	return c.conflicts
}

// Ratio is the chromosome's share of a population's total fitness.
func (c Chromosome) Ratio(total float64) float64 {
	return c.fitness / total
}

// ProbabilityRange is a half-open interval [Low, High) on the roulette wheel.
type ProbabilityRange struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

func (r ProbabilityRange) Contains(x float64) bool {
	return x >= r.Low && x < r.High
}

func (r ProbabilityRange) Width() float64 {
	return r.High - r.Low
}
