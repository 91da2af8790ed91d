package fmea

import (
	"fmt"
	"slices"

	"fmeagraph/domain/core"
)

// RatingScaleMax is the top of the ordinal 1-5 FMEA rating scale. It also
// floors the cause denominator of a failure mode.
const RatingScaleMax = 5.0

// Process is one analyzed FMEA worksheet. It owns its failure modes.
type Process struct {
	Index        int    `json:"index"`
	Name         string `json:"name"`
	failureModes []*FailureMode
}

// NewProcess creates an empty process
func NewProcess(index int, name string) *Process {
	return &Process{Index: index, Name: name}
}

// FailureModes returns the committed failure modes in commit order
func (p *Process) FailureModes() []*FailureMode {
	return slices.Clone(p.failureModes)
}

// AddFailureMode appends a committed failure mode
func (p *Process) AddFailureMode(fm *FailureMode) {
	p.failureModes = append(p.failureModes, fm)
}

// FailureMode is an FMEA error row group: one potential failure together with
// its causes, effects, detection methods and corrective actions.
type FailureMode struct {
	Name string `json:"name"`

	causes     []*Cause
	effects    []*Effect
	detections []*Detection
	actions    []*Action

	// totalCauseWeight is maintained by AddCause and never rescanned.
	totalCauseWeight float64
}

// NewFailureMode creates a failure mode with no attached records
func NewFailureMode(name string) *FailureMode {
	return &FailureMode{Name: name}
}

// AddCause appends a cause and adds its raw weight to the running total.
// Duplicate names are distinct causes.
func (fm *FailureMode) AddCause(c *Cause) {
	fm.causes = append(fm.causes, c)
	fm.totalCauseWeight += c.RawWeight
}

func (fm *FailureMode) AddEffect(e *Effect) {
	fm.effects = append(fm.effects, e)
}

func (fm *FailureMode) AddDetection(d *Detection) {
	fm.detections = append(fm.detections, d)
}

func (fm *FailureMode) AddAction(a *Action) {
	fm.actions = append(fm.actions, a)
}

// Causes returns the causes in insertion order. CPT evidence order depends on
// it, so callers must not reorder the model's causes.
func (fm *FailureMode) Causes() []*Cause {
	return slices.Clone(fm.causes)
}

func (fm *FailureMode) Effects() []*Effect {
	return slices.Clone(fm.effects)
}

func (fm *FailureMode) Detections() []*Detection {
	return slices.Clone(fm.detections)
}

func (fm *FailureMode) Actions() []*Action {
	return slices.Clone(fm.actions)
}

// TotalCauseWeight returns the sum of the attached causes' raw weights
func (fm *FailureMode) TotalCauseWeight() float64 {
	return fm.totalCauseWeight
}

// EffectiveCauseDenominator is max(5, total cause weight). Sparse evidence is
// measured against the full rating scale; dense evidence against itself.
func (fm *FailureMode) EffectiveCauseDenominator() float64 {
	return max(RatingScaleMax, fm.totalCauseWeight)
}

// RiskPriority returns the classic FMEA risk priority number using the worst
// rating of each kind: max severity * max occurrence * max detection rating.
// It is 0 when any of the three lists is empty.
func (fm *FailureMode) RiskPriority() float64 {
	if len(fm.effects) == 0 || len(fm.causes) == 0 || len(fm.detections) == 0 {
		return 0
	}
	severity, occurrence, detection := fm.effects[0].Severity, fm.causes[0].RawWeight, fm.detections[0].Rating
	for _, e := range fm.effects[1:] {
		severity = max(severity, e.Severity)
	}
	for _, c := range fm.causes[1:] {
		occurrence = max(occurrence, c.RawWeight)
	}
	for _, d := range fm.detections[1:] {
		detection = max(detection, d.Rating)
	}
	return severity * occurrence * detection
}

// Cause is a potential cause of a failure mode with its occurrence rating
type Cause struct {
	Name      string  `json:"name"`
	RawWeight float64 `json:"raw_weight"`

	probability float64
	estimated   bool
}

// NewCause creates a cause. The weight is the 1-5 occurrence rating; values
// outside that range are accepted as-is.
func NewCause(name string, rawWeight float64) *Cause {
	return &Cause{Name: name, RawWeight: rawWeight}
}

// Probability returns the normalized probability and whether it was assigned
func (c *Cause) Probability() (float64, bool) {
	return c.probability, c.estimated
}

// AssignProbability sets the normalized probability once. Assigning the same
// value again is a no-op; a different value is rejected.
func (c *Cause) AssignProbability(p float64) error {
	if c.estimated {
		if c.probability == p {
			return nil
		}
		return fmt.Errorf("%w: cause %q has %v, refusing %v", core.ErrProbabilityAssigned, c.Name, c.probability, p)
	}
	c.probability = p
	c.estimated = true
	return nil
}

// Effect is a consequence of a failure mode with its 1-5 severity rating
type Effect struct {
	Name     string  `json:"name"`
	Severity float64 `json:"severity"`
}

func NewEffect(name string, severity float64) *Effect {
	return &Effect{Name: name, Severity: severity}
}

// Detection is a control that detects a failure mode, with its 1-5 rating
type Detection struct {
	Name   string  `json:"name"`
	Rating float64 `json:"rating"`
}

func NewDetection(name string, rating float64) *Detection {
	return &Detection{Name: name, Rating: rating}
}

// Action is a recommended corrective action
type Action struct {
	Description string `json:"description"`
}

func NewAction(description string) *Action {
	return &Action{Description: description}
}
