package fmea

import (
	"errors"
	"testing"

	"fmeagraph/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFailureMode_TotalCauseWeightIsRunningSum(t *testing.T) {
	fm := NewFailureMode("dimension outside tolerance")
	assert.Equal(t, 0.0, fm.TotalCauseWeight())

	fm.AddCause(NewCause("wrong width set", 3))
	assert.Equal(t, 3.0, fm.TotalCauseWeight())

	fm.AddCause(NewCause("wrong feed", 1))
	fm.AddCause(NewCause("wrong feed", 1))
	assert.Equal(t, 5.0, fm.TotalCauseWeight())
	assert.Len(t, fm.Causes(), 3, "duplicate names are distinct causes")
}

func TestFailureMode_EffectiveCauseDenominator(t *testing.T) {
	tests := []struct {
		name     string
		weights  []float64
		expected float64
	}{
		{"no causes", nil, 5},
		{"sparse", []float64{2}, 5},
		{"exactly five", []float64{3, 1, 1}, 5},
		{"dense", []float64{4, 4}, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fm := NewFailureMode("e")
			for i, w := range tt.weights {
				fm.AddCause(NewCause(string(rune('A'+i)), w))
			}
			assert.Equal(t, tt.expected, fm.EffectiveCauseDenominator())
		})
	}
}

func TestFailureMode_PreservesInsertionOrder(t *testing.T) {
	fm := NewFailureMode("e")
	fm.AddEffect(NewEffect("aftertreatment", 4))
	fm.AddEffect(NewEffect("selection", 2))
	fm.AddDetection(NewDetection("visual check", 3))
	fm.AddAction(NewAction("recalibrate"))
	fm.AddAction(NewAction("train staff"))

	effects := fm.Effects()
	require.Len(t, effects, 2)
	assert.Equal(t, "aftertreatment", effects[0].Name)
	assert.Equal(t, "selection", effects[1].Name)
	assert.Equal(t, "recalibrate", fm.Actions()[0].Description)
	assert.Equal(t, "train staff", fm.Actions()[1].Description)
	assert.Len(t, fm.Detections(), 1)
}

func TestFailureMode_AccessorsReturnCopies(t *testing.T) {
	fm := NewFailureMode("e")
	fm.AddCause(NewCause("A", 1))
	fm.AddCause(NewCause("B", 2))

	causes := fm.Causes()
	causes[0], causes[1] = causes[1], causes[0]

	assert.Equal(t, "A", fm.Causes()[0].Name)
}

func TestFailureMode_RiskPriority(t *testing.T) {
	fm := NewFailureMode("e")
	assert.Equal(t, 0.0, fm.RiskPriority())

	fm.AddCause(NewCause("A", 2))
	fm.AddCause(NewCause("B", 4))
	fm.AddEffect(NewEffect("x", 3))
	fm.AddEffect(NewEffect("y", 5))
	assert.Equal(t, 0.0, fm.RiskPriority(), "no detections yet")

	fm.AddDetection(NewDetection("d", 2))
	assert.Equal(t, 5.0*4.0*2.0, fm.RiskPriority())
}

func TestCause_AssignProbabilityOnce(t *testing.T) {
	c := NewCause("A", 3)
	_, ok := c.Probability()
	assert.False(t, ok)

	require.NoError(t, c.AssignProbability(0.6))
	require.NoError(t, c.AssignProbability(0.6), "same value is a no-op")

	err := c.AssignProbability(0.5)
	assert.True(t, errors.Is(err, core.ErrProbabilityAssigned))

	p, ok := c.Probability()
	assert.True(t, ok)
	assert.Equal(t, 0.6, p)
}

func TestNewCause_AcceptsOutOfRangeRatings(t *testing.T) {
	fm := NewFailureMode("e")
	fm.AddCause(NewCause("A", 9))
	fm.AddCause(NewCause("B", -1))
	assert.Equal(t, 8.0, fm.TotalCauseWeight())
}

func TestProcess_FailureModes(t *testing.T) {
	p := NewProcess(2, "Turning")
	p.AddFailureMode(NewFailureMode("first"))
	p.AddFailureMode(NewFailureMode("second"))

	fms := p.FailureModes()
	require.Len(t, fms, 2)
	assert.Equal(t, "first", fms[0].Name)
	assert.Equal(t, 2, p.Index)
}
