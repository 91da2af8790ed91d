package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	ErrNotFound         = errors.New("resource not found")
	ErrAnalysisNotFound = fmt.Errorf("%w: analysis", ErrNotFound)
	ErrProcessNotFound  = fmt.Errorf("%w: process", ErrNotFound)

	// Ingestion errors
	ErrMalformedInput = errors.New("malformed input")

	// Synthesis errors
	ErrNoEvidence            = errors.New("no evidence: failure mode has no causes")
	ErrUnsupportedCauseCount = errors.New("unsupported cause count")
	ErrInvalidDistribution   = errors.New("invalid probability distribution")

	// Estimation errors
	ErrNotEstimated        = errors.New("cause probability not estimated")
	ErrProbabilityAssigned = errors.New("cause probability already assigned")
)

// MalformedInputError reports the dataset row that broke ingestion.
// Row is 1-based within the dataset's data rows.
type MalformedInputError struct {
	Dataset string
	Row     int
	Reason  string
}

func (e *MalformedInputError) Error() string {
	if e.Dataset == "" {
		return fmt.Sprintf("%v: row %d: %s", ErrMalformedInput, e.Row, e.Reason)
	}
	return fmt.Sprintf("%v: dataset %q row %d: %s", ErrMalformedInput, e.Dataset, e.Row, e.Reason)
}

func (e *MalformedInputError) Unwrap() error {
	return ErrMalformedInput
}

// NewMalformedInputError creates a MalformedInputError
func NewMalformedInputError(dataset string, row int, reason string) error {
	return &MalformedInputError{Dataset: dataset, Row: row, Reason: reason}
}

// NewUnsupportedCauseCountError records the offending count
func NewUnsupportedCauseCountError(count, limit int) error {
	return fmt.Errorf("%w: %d causes (maximum %d)", ErrUnsupportedCauseCount, count, limit)
}

func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsSynthesisError(err error) bool {
	return errors.Is(err, ErrNoEvidence) ||
		errors.Is(err, ErrUnsupportedCauseCount) ||
		errors.Is(err, ErrInvalidDistribution)
}
