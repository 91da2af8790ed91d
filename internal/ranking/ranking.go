// Package ranking orders causes by estimated likelihood.
package ranking

import (
	"fmt"
	"sort"

	"fmeagraph/domain/core"
	"fmeagraph/domain/fmea"
)

// RankedCause is one entry of a ranking. Rank starts at 1.
type RankedCause struct {
	Rank        int         `json:"rank"`
	Cause       *fmea.Cause `json:"cause"`
	Probability float64     `json:"probability"`
}

// ErrorRanking is the ranked report of one failure mode. Index is the
// failure mode's position in its process; Residual is the probability mass
// left to unlisted causes.
type ErrorRanking struct {
	Index        int           `json:"index"`
	FailureMode  string        `json:"failure_mode"`
	Causes       []RankedCause `json:"causes"`
	RiskPriority float64       `json:"risk_priority"`
	Residual     float64       `json:"residual"`
}

// Rank returns the causes of fm sorted by descending probability, ties in
// insertion order. The failure mode itself is not reordered.
func Rank(fm *fmea.FailureMode) ([]RankedCause, error) {
	causes := fm.Causes()
	ranked := make([]RankedCause, len(causes))
	for i, c := range causes {
		p, ok := c.Probability()
		if !ok {
			return nil, fmt.Errorf("rank %q: %w: %q", fm.Name, core.ErrNotEstimated, c.Name)
		}
		ranked[i] = RankedCause{Cause: c, Probability: p}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Probability > ranked[j].Probability
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked, nil
}

// RankProcess ranks every failure mode of p in commit order. A failure mode
// that cannot be ranked is reported in errs and left out of the result.
func RankProcess(p *fmea.Process) (rankings []ErrorRanking, errs []error) {
	for i, fm := range p.FailureModes() {
		ranked, err := Rank(fm)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		total := 0.0
		for _, rc := range ranked {
			total += rc.Probability
		}
		residual := 0.0
		if len(ranked) > 0 {
			residual = max(0, 1-total)
		}
		rankings = append(rankings, ErrorRanking{
			Index:        i,
			FailureMode:  fm.Name,
			Causes:       ranked,
			RiskPriority: fm.RiskPriority(),
			Residual:     residual,
		})
	}
	return rankings, errs
}
