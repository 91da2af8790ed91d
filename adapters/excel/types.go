package excel

import (
	"fmeagraph/domain/core"
	"fmeagraph/internal/ingestion"
)

// Workbook is the result of reading one file: one dataset per sheet (or a
// single dataset for CSV) plus a fingerprint of the raw cells
type Workbook struct {
	Source      string              `json:"source"`
	Datasets    []ingestion.Dataset `json:"datasets"`
	Fingerprint core.Hash           `json:"fingerprint"`
}
