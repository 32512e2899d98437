// Package dataextract reads and writes populations of integer chromosomes as
// CSV tables, one chromosome per row.
package dataextract

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type PopulationOptions struct {
	HasHeader bool
	// GeneColumnNames selects gene columns by header name and requires
	// HasHeader. It takes precedence over GeneColumnIndexes.
	GeneColumnNames   []string
	GeneColumnIndexes []int
	// SkipColumns drops leading columns such as a row label when no
	// explicit gene columns are given.
	SkipColumns int
}

// ReadPopulationCSV parses every non-blank row into a chromosome. All rows
// must carry the same number of genes.
func ReadPopulationCSV(in io.Reader, opts PopulationOptions) ([][]int, error) {
	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	indexes := append([]int(nil), opts.GeneColumnIndexes...)
	row := 0
	if opts.HasHeader {
		header, err := reader.Read()
		if err == io.EOF {
			return [][]int{}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read population header: %w", err)
		}
		row++
		if len(opts.GeneColumnNames) > 0 {
			indexes = indexes[:0]
			for _, name := range opts.GeneColumnNames {
				idx, err := columnIndexByName(header, name)
				if err != nil {
					return nil, err
				}
				indexes = append(indexes, idx)
			}
		}
	} else if len(opts.GeneColumnNames) > 0 {
		return nil, fmt.Errorf("gene column names require a header row")
	}
	if opts.SkipColumns < 0 {
		return nil, fmt.Errorf("skip columns must be >= 0, got %d", opts.SkipColumns)
	}

	population := make([][]int, 0, 64)
	width := -1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read population row %d: %w", row+1, err)
		}
		row++
		if blankRecord(record) {
			continue
		}

		cols := indexes
		if len(cols) == 0 {
			cols = defaultGeneIndexes(lastNonEmptyColumn(record)+1, opts.SkipColumns)
		}
		genes := make([]int, 0, len(cols))
		for _, idx := range cols {
			if idx < 0 || idx >= len(record) {
				return nil, fmt.Errorf("population row %d missing gene column index %d", row, idx)
			}
			gene, err := strconv.Atoi(strings.TrimSpace(record[idx]))
			if err != nil {
				return nil, fmt.Errorf("parse gene row %d column %d: %w", row, idx, err)
			}
			genes = append(genes, gene)
		}
		if len(genes) == 0 {
			return nil, fmt.Errorf("population row %d has no genes", row)
		}
		if width >= 0 && len(genes) != width {
			return nil, fmt.Errorf("population row %d has %d genes, want %d", row, len(genes), width)
		}
		width = len(genes)
		population = append(population, genes)
	}
	return population, nil
}

// WritePopulationCSV writes a gene0..geneN header followed by one row per
// chromosome.
func WritePopulationCSV(out io.Writer, population [][]int) error {
	writer := csv.NewWriter(out)

	width := 0
	if len(population) > 0 {
		width = len(population[0])
	}
	header := make([]string, width)
	for i := range header {
		header[i] = "gene" + strconv.Itoa(i)
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write population header: %w", err)
	}
	for i, genes := range population {
		if len(genes) != width {
			return fmt.Errorf("population row %d has %d genes, want %d", i+1, len(genes), width)
		}
		record := make([]string, len(genes))
		for j, gene := range genes {
			record[j] = strconv.Itoa(gene)
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write population row %d: %w", i+1, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush population csv: %w", err)
	}
	return nil
}

func ReadPopulationFile(path string, opts PopulationOptions) ([][]int, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("population file path is required")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadPopulationCSV(f, opts)
}

func WritePopulationFile(path string, population [][]int) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("population file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WritePopulationCSV(f, population); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func defaultGeneIndexes(recordLen, skip int) []int {
	out := make([]int, 0, recordLen)
	for idx := skip; idx < recordLen; idx++ {
		out = append(out, idx)
	}
	return out
}

func columnIndexByName(header []string, name string) (int, error) {
	want := strings.TrimSpace(strings.ToLower(name))
	for i, field := range header {
		if strings.ToLower(strings.TrimSpace(field)) == want {
			return i, nil
		}
	}
	return -1, fmt.Errorf("csv column not found: %s", name)
}

func blankRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

func lastNonEmptyColumn(record []string) int {
	for i := len(record) - 1; i >= 0; i-- {
		if strings.TrimSpace(record[i]) != "" {
			return i
		}
	}
	return -1
}
