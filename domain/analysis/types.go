// Package analysis holds the stored form of a finished run: what the
// reports and the HTTP API read back after the live graphs are gone.
package analysis

import (
	"time"

	"fmeagraph/domain/core"
)

// Record is one persisted analysis of a workbook
type Record struct {
	ID          core.AnalysisID  `json:"id"`
	Source      string           `json:"source"`
	Fingerprint core.Hash        `json:"fingerprint"`
	CreatedAt   time.Time        `json:"created_at"`
	Processes   []Process        `json:"processes"`
	Failures    []DatasetFailure `json:"failures,omitempty"`
}

// Process summarizes one ingested dataset
type Process struct {
	Index        int           `json:"index"`
	Name         string        `json:"name"`
	FailureModes []FailureMode `json:"failure_modes"`
	Diagnostics  []Diagnostic  `json:"diagnostics,omitempty"`
	NodeCount    int           `json:"node_count"`
	EdgeCount    int           `json:"edge_count"`
	// DOT is the Graphviz rendering of the process network
	DOT string `json:"dot,omitempty"`
}

// FailureMode is the ranked view of one error
type FailureMode struct {
	Name         string        `json:"name"`
	RiskPriority float64       `json:"risk_priority"`
	Residual     float64       `json:"residual"`
	Causes       []RankedCause `json:"causes"`
	Effects      []string      `json:"effects,omitempty"`
	Actions      []string      `json:"actions,omitempty"`
}

// RankedCause is one cause with its rank, 1 being most likely
type RankedCause struct {
	Rank        int     `json:"rank"`
	Name        string  `json:"name"`
	RawWeight   float64 `json:"raw_weight"`
	Probability float64 `json:"probability"`
}

// Diagnostic is a non-fatal problem found while building a process
type Diagnostic struct {
	Node    string `json:"node,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// DatasetFailure is a dataset that produced no process
type DatasetFailure struct {
	Dataset string `json:"dataset"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Process returns the process with the given index
func (r *Record) Process(index int) (*Process, error) {
	for i := range r.Processes {
		if r.Processes[i].Index == index {
			return &r.Processes[i], nil
		}
	}
	return nil, core.ErrProcessNotFound
}

// CauseProbabilities returns every ranked probability in the record
func (r *Record) CauseProbabilities() []float64 {
	var out []float64
	for _, p := range r.Processes {
		for _, fm := range p.FailureModes {
			for _, c := range fm.Causes {
				out = append(out, c.Probability)
			}
		}
	}
	return out
}
