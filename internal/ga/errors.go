package ga

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidConfig     = errors.New("invalid engine config")
	ErrEmptyPopulation   = errors.New("population is empty")
	ErrChromosomeLength  = errors.New("chromosome length mismatch")
	ErrGeneOutOfDomain   = errors.New("gene outside configured domain")
	ErrAlreadyRun        = errors.New("engine has already run")
	ErrRandomSourceIsNil = errors.New("random source is required")
)

// ConfigError reports which configuration field was rejected.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidConfig, e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

func configErrorf(field, format string, args ...any) error {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
