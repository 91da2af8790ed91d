package cpt

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"fmeagraph/domain/core"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func causes(n int) []core.NodeKey {
	keys := make([]core.NodeKey, n)
	for i := range keys {
		keys[i] = core.CauseKey(0, 0, i)
	}
	return keys
}

func rows(t *Table) [][]float64 {
	return [][]float64{
		mat.Row(nil, StateOccurred, t.Values),
		mat.Row(nil, StateAbsent, t.Values),
	}
}

func TestMaxEntropy_ColumnsSumToOne(t *testing.T) {
	for k := 1; k <= MaxEvidence; k++ {
		t.Run(fmt.Sprintf("k=%d", k), func(t *testing.T) {
			table, err := MaxEntropy(core.ErrorKey(0, 0), causes(k))
			require.NoError(t, err)
			assert.Equal(t, 1<<k, table.Columns())
			assert.NoError(t, table.Validate(Tolerance))
		})
	}
}

func TestMaxEntropy_SingleCauseIsIdentity(t *testing.T) {
	table, err := MaxEntropy(core.ErrorKey(0, 0), causes(1))
	require.NoError(t, err)

	want := [][]float64{{1, 0}, {0, 1}}
	if diff := cmp.Diff(want, rows(table)); diff != "" {
		t.Errorf("k=1 table mismatch (-want +got):\n%s", diff)
	}
}

func TestMaxEntropy_TwoCauses(t *testing.T) {
	table, err := MaxEntropy(core.ErrorKey(0, 0), causes(2))
	require.NoError(t, err)

	want := [][]float64{{1, 0.5, 0.5, 0}, {0, 0.5, 0.5, 1}}
	if diff := cmp.Diff(want, rows(table)); diff != "" {
		t.Errorf("k=2 table mismatch (-want +got):\n%s", diff)
	}
}

func TestMaxEntropy_ThreeCausesFractionOfActive(t *testing.T) {
	table, err := MaxEntropy(core.ErrorKey(0, 0), causes(3))
	require.NoError(t, err)

	for j := 0; j < table.Columns(); j++ {
		active := 0
		for _, s := range EvidenceStates(3, j) {
			if s == StateOccurred {
				active++
			}
		}
		assert.InDelta(t, float64(active)/3, table.At(StateOccurred, j), Tolerance, "column %d", j)
	}
}

func TestMaxEntropy_Failures(t *testing.T) {
	_, err := MaxEntropy(core.ErrorKey(0, 0), nil)
	assert.True(t, errors.Is(err, core.ErrNoEvidence))

	_, err = MaxEntropy(core.ErrorKey(0, 0), causes(6))
	assert.True(t, errors.Is(err, core.ErrUnsupportedCauseCount))
	assert.Contains(t, err.Error(), "6 causes")
}

func TestMaxEntropy_CopiesEvidence(t *testing.T) {
	ev := causes(2)
	table, err := MaxEntropy(core.ErrorKey(0, 0), ev)
	require.NoError(t, err)

	ev[0] = core.CauseKey(9, 9, 9)
	assert.Equal(t, core.CauseKey(0, 0, 0), table.Evidence[0])
}

func TestMarginal(t *testing.T) {
	table := Marginal(core.CauseKey(0, 0, 0), 0.4)

	assert.Equal(t, 1, table.Columns())
	assert.Equal(t, []float64{0.4, 0.6}, table.Column(0))
	assert.Empty(t, table.Evidence)
	assert.NoError(t, table.Validate(Tolerance))
}

func TestValidate_RejectsBrokenTables(t *testing.T) {
	bad := &Table{
		Variable: core.ErrorKey(0, 0),
		Evidence: causes(1),
		Values:   mat.NewDense(2, 2, []float64{0.5, 0, 0.4, 1}),
	}
	assert.True(t, errors.Is(bad.Validate(Tolerance), core.ErrInvalidDistribution))

	wrongShape := &Table{
		Variable: core.ErrorKey(0, 0),
		Evidence: causes(2),
		Values:   mat.NewDense(2, 2, []float64{1, 0, 0, 1}),
	}
	assert.Error(t, wrongShape.Validate(Tolerance))
}

func TestValidate_RejectsOutOfRangeMarginals(t *testing.T) {
	key := core.CauseKey(0, 0, 0)
	for _, p := range []float64{-0.4, 1.25, math.NaN(), math.Inf(1)} {
		t.Run(fmt.Sprint(p), func(t *testing.T) {
			err := Marginal(key, p).Validate(Tolerance)
			assert.True(t, errors.Is(err, core.ErrInvalidDistribution), "got %v", err)
		})
	}
	assert.NoError(t, Marginal(key, 0).Validate(Tolerance))
}

func TestTable_String(t *testing.T) {
	assert.Equal(t, "occurred: 0.6; absent: 0.4", Marginal(core.CauseKey(0, 0, 0), 0.6).String())

	table, err := MaxEntropy(core.ErrorKey(0, 0), causes(2))
	require.NoError(t, err)
	assert.Equal(t, "occurred: 1 0.5 0.5 0; absent: 0 0.5 0.5 1", table.String())
}

func TestEvidenceStates_MostSignificantFirst(t *testing.T) {
	assert.Equal(t, []int{0, 0}, EvidenceStates(2, 0))
	assert.Equal(t, []int{0, 1}, EvidenceStates(2, 1))
	assert.Equal(t, []int{1, 0}, EvidenceStates(2, 2))
	assert.Equal(t, []int{1, 1}, EvidenceStates(2, 3))
}
