package stats

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	summarySheet     = "Summary"
	generationsSheet = "Generations"
)

var generationHeader = []any{
	"generation", "population_size", "best_fitness", "best_conflicts",
	"mean_fitness", "min_fitness", "fitness_std_dev", "improved", "best_so_far",
}

// WriteWorkbook saves a run as a spreadsheet: a summary sheet with the run
// parameters and best chromosome, and one row per generation.
func WriteWorkbook(path string, artifacts RunArtifacts) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return err
	}
	cfg := artifacts.Config
	genes := make([]string, len(artifacts.Best.Genes))
	for i, g := range artifacts.Best.Genes {
		genes[i] = strconv.Itoa(g)
	}
	rows := [][]any{
		{"run_id", cfg.RunID},
		{"problem", cfg.Problem},
		{"expression", cfg.Expression},
		{"chromosome_length", cfg.ChromosomeLength},
		{"population_size", cfg.PopulationSize},
		{"mutation_rate", cfg.MutationRate},
		{"max_generations", cfg.MaxGenerations},
		{"crossover", cfg.Crossover},
		{"two_point_mode", cfg.TwoPointMode},
		{"gene_domain", cfg.GeneDomain},
		{"seed", cfg.Seed},
		{"best_fitness", artifacts.Best.Fitness},
		{"best_conflicts", artifacts.Best.Conflicts},
		{"best_genes", strings.Join(genes, " ")},
	}
	for i, row := range rows {
		if err := setRow(f, summarySheet, i+1, row); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(generationsSheet); err != nil {
		return err
	}
	if err := setRow(f, generationsSheet, 1, generationHeader); err != nil {
		return err
	}
	for i, d := range artifacts.GenerationDiagnostics {
		bestSoFar := 0.0
		if i < len(artifacts.BestByGeneration) {
			bestSoFar = artifacts.BestByGeneration[i]
		}
		row := []any{
			d.Generation, d.PopulationSize, d.BestFitness, d.BestConflicts,
			d.MeanFitness, d.MinFitness, d.FitnessStdDev, d.Improved, bestSoFar,
		}
		if err := setRow(f, generationsSheet, i+2, row); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}
