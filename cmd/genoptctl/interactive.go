package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"genopt/internal/ga"
	"genopt/pkg/genopt"
)

const (
	interactiveLength     = 10
	interactivePopulation = 10
)

// promptRunRequest asks for mutation rate, generation count and crossover
// on the terminal. The population is seeded from the reference dataset.
// An unrecognized crossover code picks two-point.
func promptRunRequest(in io.Reader, out io.Writer, req *genopt.RunRequest) error {
	scanner := bufio.NewScanner(in)

	fmt.Fprintln(out, "Enter mutation rate (between 0 and 1): ")
	line, err := readLine(scanner)
	if err != nil {
		return err
	}
	rate, err := strconv.ParseFloat(line, 64)
	if err != nil {
		return fmt.Errorf("invalid mutation rate %q: %w", line, err)
	}
	if !(rate > 0 && rate <= 1) {
		return fmt.Errorf("mutation rate must be in (0, 1], got %v", rate)
	}

	fmt.Fprintln(out, "Enter max generations: ")
	line, err = readLine(scanner)
	if err != nil {
		return err
	}
	gens, err := strconv.ParseUint(line, 10, 31)
	if err != nil {
		return fmt.Errorf("invalid max generations %q: %w", line, err)
	}
	if gens == 0 {
		return errors.New("max generations must be > 0")
	}

	fmt.Fprintln(out, "Enter crossover type: ")
	fmt.Fprintln(out, "notice: an invalid number selects two point crossover")
	fmt.Fprintln(out, "(1) => one point")
	fmt.Fprintln(out, "(2) => two point")
	fmt.Fprintln(out, "(3) => uniform")
	line, err = readLine(scanner)
	if err != nil {
		return err
	}
	code, err := strconv.ParseUint(line, 10, 32)
	if err != nil {
		return fmt.Errorf("invalid crossover type %q: %w", line, err)
	}

	req.MutationRate = rate
	req.MaxGenerations = int(gens)
	req.Crossover = crossoverFromCode(code).String()
	req.ChromosomeLength = interactiveLength
	req.PopulationSize = interactivePopulation
	req.SeedDataset = true
	return nil
}

func crossoverFromCode(code uint64) ga.CrossoverStrategy {
	switch code {
	case 1:
		return ga.OnePoint
	case 3:
		return ga.Uniform
	default:
		return ga.TwoPoint
	}
}

func readLine(scanner *bufio.Scanner) (string, error) {
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", err
		}
		return "", errors.New("unexpected end of input")
	}
	return strings.TrimSpace(scanner.Text()), nil
}
