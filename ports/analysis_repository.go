package ports

import (
	"context"

	"fmeagraph/domain/analysis"
	"fmeagraph/domain/core"
)

// AnalysisRepository persists finished analyses
type AnalysisRepository interface {
	// Save stores a record, replacing any record with the same ID
	Save(ctx context.Context, rec *analysis.Record) error

	// Get returns the record with the given ID or a not-found error
	Get(ctx context.Context, id core.AnalysisID) (*analysis.Record, error)

	// List returns stored analyses, newest first, optionally limited
	List(ctx context.Context, limit int) ([]*analysis.Record, error)
}

