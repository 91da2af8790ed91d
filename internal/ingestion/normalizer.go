// Package ingestion turns FMEA sheet rows into domain failure modes.
package ingestion

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"fmeagraph/domain/core"
	"fmeagraph/domain/fmea"
	"fmeagraph/internal"
)

// MissingRatingPolicy decides what happens when a named effect, cause or
// detection has no rating
type MissingRatingPolicy int

const (
	// MissingRatingDefault substitutes Options.MissingRating
	MissingRatingDefault MissingRatingPolicy = iota
	// MissingRatingReject fails the dataset as malformed
	MissingRatingReject
)

// ParseMissingRatingPolicy accepts "default" or "reject"
func ParseMissingRatingPolicy(s string) (MissingRatingPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return MissingRatingDefault, nil
	case "reject":
		return MissingRatingReject, nil
	}
	return MissingRatingDefault, fmt.Errorf("unknown missing rating policy %q", s)
}

// Options configure rating handling
type Options struct {
	Policy        MissingRatingPolicy
	MissingRating float64
}

// DefaultOptions treat a missing rating as the lowest rating, 1
func DefaultOptions() Options {
	return Options{Policy: MissingRatingDefault, MissingRating: 1}
}

type state int

const (
	stateAwaitingError state = iota
	stateAccumulatingError
)

// machine carries the continuation state across rows of one dataset.
// Committed failure modes are staged until the whole dataset succeeds.
type machine struct {
	state     state
	current   *fmea.FailureMode
	committed []*fmea.FailureMode
}

func (m *machine) start(fm *fmea.FailureMode) {
	m.commit()
	m.current = fm
	m.state = stateAccumulatingError
}

func (m *machine) commit() {
	if m.state == stateAccumulatingError {
		m.committed = append(m.committed, m.current)
	}
	m.current = nil
	m.state = stateAwaitingError
}

// Normalizer groups rows into failure modes
type Normalizer struct {
	opts   Options
	logger *internal.Logger
}

// NewNormalizer creates a normalizer; a nil logger discards output
func NewNormalizer(opts Options, logger *internal.Logger) *Normalizer {
	if logger == nil {
		logger = internal.Discard
	}
	return &Normalizer{opts: opts, logger: logger.With("Normalizer")}
}

// Normalize appends the failure modes described by rows to p. Fully blank
// rows are skipped. On error p is left exactly as it was.
func (n *Normalizer) Normalize(p *fmea.Process, rows []Row) error {
	m := &machine{state: stateAwaitingError}

	for i, row := range rows {
		rowNum := i + 1
		if row.IsBlank() {
			continue
		}

		if row.Error.Present {
			m.start(fmea.NewFailureMode(row.Error.Value))
		} else if m.state == stateAwaitingError {
			return core.NewMalformedInputError(p.Name, rowNum, "continuation row before any error row")
		}

		if err := n.attach(m.current, row); err != nil {
			return core.NewMalformedInputError(p.Name, rowNum, err.Error())
		}
	}
	m.commit()

	for _, fm := range m.committed {
		p.AddFailureMode(fm)
	}
	n.logger.Debug("process %q: committed %d failure modes from %d rows", p.Name, len(m.committed), len(rows))
	return nil
}

func (n *Normalizer) attach(fm *fmea.FailureMode, row Row) error {
	if row.Effect.Present {
		severity, err := n.rating("severity", row.Severity)
		if err != nil {
			return err
		}
		fm.AddEffect(fmea.NewEffect(row.Effect.Value, severity))
	}
	if row.Cause.Present {
		occurrence, err := n.rating("occurrence", row.Occurrence)
		if err != nil {
			return err
		}
		fm.AddCause(fmea.NewCause(row.Cause.Value, occurrence))
	}
	if row.Detection.Present {
		rating, err := n.rating("detection rating", row.DetectionRating)
		if err != nil {
			return err
		}
		fm.AddDetection(fmea.NewDetection(row.Detection.Value, rating))
	}
	if row.Action.Present {
		fm.AddAction(fmea.NewAction(row.Action.Value))
	}
	return nil
}

// rating parses a rating cell. Range is not checked: 0 or 7 pass through,
// but NaN and infinities are not ratings.
func (n *Normalizer) rating(field string, c Cell) (float64, error) {
	if !c.Present {
		if n.opts.Policy == MissingRatingReject {
			return 0, fmt.Errorf("%s is missing", field)
		}
		return n.opts.MissingRating, nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(c.Value, ",", "."), 64)
	if err != nil {
		return 0, fmt.Errorf("%s %q is not a number", field, c.Value)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s %q is not a finite number", field, c.Value)
	}
	return v, nil
}
