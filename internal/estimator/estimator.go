// Package estimator assigns each cause its share of the failure mode's
// occurrence mass.
package estimator

import (
	"fmt"

	"fmeagraph/domain/core"
	"fmeagraph/domain/fmea"

	"github.com/montanaflynn/stats"
)

// Result summarizes the probabilities assigned to one failure mode
type Result struct {
	// Denominator is max(5, total cause weight)
	Denominator float64 `json:"denominator"`
	// Total is the sum of the causes' normalized probabilities
	Total float64 `json:"total"`
	// Residual is 1 - Total, the mass no listed cause accounts for.
	// No node carries it.
	Residual float64 `json:"residual"`
	// Skipped is set for failure modes without causes
	Skipped bool `json:"skipped"`
}

// Estimate assigns raw_weight / denominator to every cause. A failure mode
// without causes is left alone and reported as Skipped. Either every cause
// gets its probability or, when one already holds a different value, none
// is touched.
func Estimate(fm *fmea.FailureMode) (Result, error) {
	causes := fm.Causes()
	if len(causes) == 0 {
		return Result{Skipped: true}, nil
	}

	denominator := fm.EffectiveCauseDenominator()
	probabilities := make(stats.Float64Data, len(causes))
	for i, c := range causes {
		probabilities[i] = c.RawWeight / denominator
		if prev, ok := c.Probability(); ok && prev != probabilities[i] {
			return Result{}, fmt.Errorf("%w: cause %q has %v, refusing %v",
				core.ErrProbabilityAssigned, c.Name, prev, probabilities[i])
		}
	}
	for i, c := range causes {
		if err := c.AssignProbability(probabilities[i]); err != nil {
			return Result{}, err
		}
	}

	total, err := stats.Sum(probabilities)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Denominator: denominator,
		Total:       total,
		Residual:    max(0, 1-total),
	}, nil
}
