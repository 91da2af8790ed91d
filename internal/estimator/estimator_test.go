package estimator

import (
	"errors"
	"fmt"
	"testing"

	"fmeagraph/domain/core"
	"fmeagraph/domain/fmea"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tolerance = 1e-9

func failureMode(weights ...float64) *fmea.FailureMode {
	fm := fmea.NewFailureMode("e")
	for i, w := range weights {
		fm.AddCause(fmea.NewCause(string(rune('A'+i)), w))
	}
	return fm
}

func probabilities(t *testing.T, fm *fmea.FailureMode) []float64 {
	t.Helper()
	var out []float64
	for _, c := range fm.Causes() {
		p, ok := c.Probability()
		require.True(t, ok, "cause %s not estimated", c.Name)
		out = append(out, p)
	}
	return out
}

func TestEstimate_ThreeCausesSumToFive(t *testing.T) {
	fm := failureMode(3, 1, 1)

	est, err := Estimate(fm)
	require.NoError(t, err)

	assert.Equal(t, 5.0, est.Denominator)
	assert.InDeltaSlice(t, []float64{0.6, 0.2, 0.2}, probabilities(t, fm), tolerance)
	assert.InDelta(t, 1.0, est.Total, tolerance)
	assert.InDelta(t, 0.0, est.Residual, tolerance)
}

func TestEstimate_SingleSparseCause(t *testing.T) {
	fm := failureMode(2)

	est, err := Estimate(fm)
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float64{0.4}, probabilities(t, fm), tolerance)
	assert.InDelta(t, 0.6, est.Residual, tolerance)
}

func TestEstimate_SumBoundedByOne(t *testing.T) {
	tests := [][]float64{
		{1},
		{2, 2},
		{1, 1, 1, 1},
		{3, 2},
		{5, 5, 5},
		{4, 1, 2, 3, 5},
	}

	for _, weights := range tests {
		t.Run(fmt.Sprint(weights), func(t *testing.T) {
			fm := failureMode(weights...)
			est, err := Estimate(fm)
			require.NoError(t, err)

			assert.LessOrEqual(t, est.Total, 1.0+tolerance)
			if fm.TotalCauseWeight() >= fmea.RatingScaleMax {
				assert.InDelta(t, 1.0, est.Total, tolerance)
			} else {
				assert.Less(t, est.Total, 1.0)
				assert.Greater(t, est.Residual, 0.0)
			}
		})
	}
}

func TestEstimate_NoCausesIsNoOp(t *testing.T) {
	est, err := Estimate(fmea.NewFailureMode("orphan"))
	require.NoError(t, err)
	assert.True(t, est.Skipped)
	assert.Zero(t, est.Total)
}

func TestEstimate_IsRepeatable(t *testing.T) {
	fm := failureMode(3, 1)
	first, err := Estimate(fm)
	require.NoError(t, err)
	second, err := Estimate(fm)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEstimate_ConflictLeavesCausesUntouched(t *testing.T) {
	fm := failureMode(1, 1)
	require.NoError(t, fm.Causes()[1].AssignProbability(0.9))

	_, err := Estimate(fm)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrProbabilityAssigned))

	_, ok := fm.Causes()[0].Probability()
	assert.False(t, ok, "first cause must not be half-estimated")
	p, _ := fm.Causes()[1].Probability()
	assert.Equal(t, 0.9, p)
}

func TestEstimate_OutOfRangeWeightsPassThrough(t *testing.T) {
	t.Run("zero", func(t *testing.T) {
		fm := failureMode(0, 2)
		est, err := Estimate(fm)
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float64{0, 0.4}, probabilities(t, fm), tolerance)
		assert.InDelta(t, 0.6, est.Residual, tolerance)
	})

	t.Run("above scale", func(t *testing.T) {
		fm := failureMode(7, 6)
		est, err := Estimate(fm)
		require.NoError(t, err)
		assert.Equal(t, 13.0, est.Denominator)
		assert.InDelta(t, 1, est.Total, tolerance)
		assert.Zero(t, est.Residual)
	})

	t.Run("negative", func(t *testing.T) {
		fm := failureMode(8, -2)
		est, err := Estimate(fm)
		require.NoError(t, err)
		assert.Equal(t, 6.0, est.Denominator)
		assert.InDeltaSlice(t, []float64{8.0 / 6, -2.0 / 6}, probabilities(t, fm), tolerance)
	})
}
