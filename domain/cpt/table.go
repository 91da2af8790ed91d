// Package cpt builds conditional probability tables for binary failure
// network nodes.
//
// Every node has two states: index 0 is "occurred", index 1 is "absent".
// Table rows are the node's own states; columns enumerate the joint states
// of the evidence variables with evidence 0 as the most significant bit.
package cpt

import (
	"fmt"
	"math"
	"math/bits"
	"strconv"
	"strings"

	"fmeagraph/domain/core"

	"gonum.org/v1/gonum/mat"
)

const (
	// StateOccurred and StateAbsent are the row indices of every table.
	StateOccurred = 0
	StateAbsent   = 1

	// Cardinality of every node variable.
	Cardinality = 2

	// MaxEvidence is the largest cause count with a closed-form table.
	MaxEvidence = 5

	// Tolerance used when checking that columns sum to one.
	Tolerance = 1e-9
)

// Table is a CPT attached to one network node
type Table struct {
	Variable core.NodeKey
	Evidence []core.NodeKey
	Values   *mat.Dense
}

// Columns returns the number of evidence combinations
func (t *Table) Columns() int {
	_, c := t.Values.Dims()
	return c
}

// At returns P(variable = state | evidence combination col)
func (t *Table) At(state, col int) float64 {
	return t.Values.At(state, col)
}

// Column returns the distribution for one evidence combination
func (t *Table) Column(col int) []float64 {
	return mat.Col(nil, col, t.Values)
}

// String renders the rows, e.g. "occurred: 1 0.5 0.5 0; absent: 0 0.5 0.5 1"
func (t *Table) String() string {
	states := [Cardinality]string{StateOccurred: "occurred", StateAbsent: "absent"}
	parts := make([]string, Cardinality)
	for s, name := range states {
		row := mat.Row(nil, s, t.Values)
		values := make([]string, len(row))
		for j, v := range row {
			values[j] = strconv.FormatFloat(v, 'g', 4, 64)
		}
		parts[s] = name + ": " + strings.Join(values, " ")
	}
	return strings.Join(parts, "; ")
}

// Validate checks the table shape and that every column is a distribution.
// Column errors wrap core.ErrInvalidDistribution.
func (t *Table) Validate(tol float64) error {
	r, c := t.Values.Dims()
	if r != Cardinality {
		return fmt.Errorf("cpt %s: %d rows, want %d", t.Variable, r, Cardinality)
	}
	if want := 1 << len(t.Evidence); c != want {
		return fmt.Errorf("cpt %s: %d columns for %d evidence variables, want %d", t.Variable, c, len(t.Evidence), want)
	}
	for j := 0; j < c; j++ {
		sum := 0.0
		for _, v := range t.Column(j) {
			switch {
			case math.IsNaN(v) || math.IsInf(v, 0):
				return fmt.Errorf("cpt %s: %w: non-finite probability in column %d", t.Variable, core.ErrInvalidDistribution, j)
			case v < 0:
				return fmt.Errorf("cpt %s: %w: negative probability in column %d", t.Variable, core.ErrInvalidDistribution, j)
			}
			sum += v
		}
		if !(math.Abs(sum-1) <= tol) {
			return fmt.Errorf("cpt %s: %w: column %d sums to %v", t.Variable, core.ErrInvalidDistribution, j, sum)
		}
	}
	return nil
}

// Marginal builds the evidence-free table [p, 1-p] for a root cause
func Marginal(variable core.NodeKey, p float64) *Table {
	return &Table{
		Variable: variable,
		Values:   mat.NewDense(Cardinality, 1, []float64{p, 1 - p}),
	}
}

// MaxEntropy builds the Maximum-Entropy conditional table of a node given
// k = len(evidence) binary causes, 1 <= k <= MaxEvidence.
//
// For evidence combination j, m is the number of causes in state index 1
// (absent). The node occurs with probability (k-m)/k, the fraction of active
// causes, and is absent with probability m/k. For k = 1 this is the identity
// [[1,0],[0,1]]: the node occurs exactly when its cause does.
//
// The evidence slice must be in cause insertion order; the table is only
// valid for that order.
func MaxEntropy(variable core.NodeKey, evidence []core.NodeKey) (*Table, error) {
	k := len(evidence)
	switch {
	case k == 0:
		return nil, fmt.Errorf("%w: %s", core.ErrNoEvidence, variable)
	case k > MaxEvidence:
		return nil, fmt.Errorf("%s: %w", variable, core.NewUnsupportedCauseCountError(k, MaxEvidence))
	}

	cols := 1 << k
	values := mat.NewDense(Cardinality, cols, nil)
	for j := 0; j < cols; j++ {
		m := bits.OnesCount(uint(j))
		values.Set(StateOccurred, j, float64(k-m)/float64(k))
		values.Set(StateAbsent, j, float64(m)/float64(k))
	}

	return &Table{
		Variable: variable,
		Evidence: append([]core.NodeKey(nil), evidence...),
		Values:   values,
	}, nil
}

// EvidenceStates decodes column j into the state index of each evidence
// variable, evidence 0 first.
func EvidenceStates(k, j int) []int {
	states := make([]int, k)
	for i := 0; i < k; i++ {
		states[i] = (j >> (k - 1 - i)) & 1
	}
	return states
}
