package stats

import (
	"github.com/prometheus/client_golang/prometheus"

	"genopt/internal/model"
)

// RunMetrics mirrors a run's progress as prometheus series on a private
// registry. Feed it from the engine observer and flush it with
// WriteTextfile for the node exporter textfile collector.
type RunMetrics struct {
	registry      *prometheus.Registry
	generations   prometheus.Counter
	improvements  prometheus.Counter
	evaluations   prometheus.Counter
	bestFitness   prometheus.Gauge
	meanFitness   prometheus.Gauge
	bestConflicts prometheus.Gauge
	fitnessStdDev prometheus.Gauge
}

func NewRunMetrics(runID, problem string) *RunMetrics {
	labels := prometheus.Labels{"run_id": runID, "problem": problem}
	m := &RunMetrics{
		registry: prometheus.NewRegistry(),
		generations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "genopt_generations_total", Help: "Generations replaced.", ConstLabels: labels,
		}),
		improvements: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "genopt_best_improvements_total", Help: "Generations that raised the best-ever fitness.", ConstLabels: labels,
		}),
		evaluations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "genopt_chromosomes_evaluated_total", Help: "Chromosomes created and evaluated by replacement.", ConstLabels: labels,
		}),
		bestFitness: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "genopt_generation_best_fitness", Help: "Best fitness of the latest generation.", ConstLabels: labels,
		}),
		meanFitness: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "genopt_generation_mean_fitness", Help: "Mean fitness of the latest generation.", ConstLabels: labels,
		}),
		bestConflicts: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "genopt_generation_best_conflicts", Help: "Conflicts of the latest generation's best chromosome.", ConstLabels: labels,
		}),
		fitnessStdDev: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "genopt_generation_fitness_stddev", Help: "Population fitness standard deviation of the latest generation.", ConstLabels: labels,
		}),
	}
	m.registry.MustRegister(m.generations, m.improvements, m.evaluations, m.bestFitness, m.meanFitness, m.bestConflicts, m.fitnessStdDev)
	return m
}

func (m *RunMetrics) Observe(d model.GenerationDiagnostics) {
	m.generations.Inc()
	m.evaluations.Add(float64(d.PopulationSize))
	if d.Improved {
		m.improvements.Inc()
	}
	m.bestFitness.Set(d.BestFitness)
	m.meanFitness.Set(d.MeanFitness)
	m.bestConflicts.Set(float64(d.BestConflicts))
	m.fitnessStdDev.Set(d.FitnessStdDev)
}

func (m *RunMetrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *RunMetrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
