package network

import (
	"errors"
	"fmt"
	"testing"

	"fmeagraph/domain/core"
	"fmeagraph/domain/cpt"
	"fmeagraph/domain/fmea"
	"fmeagraph/internal/estimator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type causeSpec struct {
	name   string
	weight float64
}

func buildProcess(t *testing.T, modes map[string][]causeSpec, order []string, effects ...string) *fmea.Process {
	t.Helper()
	p := fmea.NewProcess(0, "Turning")
	for _, name := range order {
		fm := fmea.NewFailureMode(name)
		for _, c := range modes[name] {
			fm.AddCause(fmea.NewCause(c.name, c.weight))
		}
		for _, e := range effects {
			fm.AddEffect(fmea.NewEffect(e, 3))
		}
		_, err := estimator.Estimate(fm)
		require.NoError(t, err)
		p.AddFailureMode(fm)
	}
	return p
}

func TestAssemble_EdgesAndTables(t *testing.T) {
	p := buildProcess(t, map[string][]causeSpec{
		"dimension outside tolerance": {{"incorrect width set", 2}, {"incorrect feed", 2}},
	}, []string{"dimension outside tolerance"}, "aftertreatment", "selection")

	net, err := NewAssembler(nil).Assemble(p)
	require.NoError(t, err)

	errKey := core.ErrorKey(0, 0)
	assert.True(t, net.HasEdge(core.CauseKey(0, 0, 0), errKey))
	assert.True(t, net.HasEdge(core.CauseKey(0, 0, 1), errKey))
	assert.True(t, net.HasEdge(errKey, core.EffectKey(0, 0, 0)))
	assert.True(t, net.HasEdge(errKey, core.EffectKey(0, 0, 1)))
	assert.Equal(t, 4, net.EdgeCount())
	assert.Len(t, net.Nodes(), 5)

	errNode, ok := net.Node(errKey)
	require.True(t, ok)
	require.NotNil(t, errNode.CPT)
	assert.Equal(t, []core.NodeKey{core.CauseKey(0, 0, 0), core.CauseKey(0, 0, 1)}, errNode.CPT.Evidence)
	assert.Equal(t, []float64{0.5, 0.5}, errNode.CPT.Column(1))

	cause, _ := net.Node(core.CauseKey(0, 0, 0))
	require.NotNil(t, cause.CPT)
	assert.InDelta(t, 0.4, cause.CPT.At(cpt.StateOccurred, 0), 1e-9)

	effect, _ := net.Node(core.EffectKey(0, 0, 0))
	assert.Nil(t, effect.CPT, "effects are structural only")
	assert.Empty(t, net.Diagnostics)
	assert.NoError(t, net.Check())
}

func TestAssemble_SingleCauseIsIdentity(t *testing.T) {
	p := buildProcess(t, map[string][]causeSpec{"e": {{"X", 2}}}, []string{"e"})

	net, err := NewAssembler(nil).Assemble(p)
	require.NoError(t, err)

	cause, _ := net.Node(core.CauseKey(0, 0, 0))
	assert.InDelta(t, 0.4, cause.CPT.At(cpt.StateOccurred, 0), 1e-9)

	errNode, _ := net.Node(core.ErrorKey(0, 0))
	assert.Equal(t, []float64{1, 0}, errNode.CPT.Column(0))
	assert.Equal(t, []float64{0, 1}, errNode.CPT.Column(1))
}

func TestAssemble_SixCausesKeepsStructureWithoutCPT(t *testing.T) {
	six := make([]causeSpec, 6)
	for i := range six {
		six[i] = causeSpec{fmt.Sprintf("c%d", i), 1}
	}
	p := buildProcess(t, map[string][]causeSpec{
		"overloaded": six,
		"healthy":    {{"A", 3}, {"B", 1}, {"C", 1}},
	}, []string{"overloaded", "healthy"}, "scrap")

	net, err := NewAssembler(nil).Assemble(p)
	require.NoError(t, err)

	overloaded, _ := net.Node(core.ErrorKey(0, 0))
	assert.Nil(t, overloaded.CPT, "no broken CPT for the six-cause node")
	assert.Len(t, net.Predecessors(core.ErrorKey(0, 0)), 6)
	assert.True(t, net.HasEdge(core.ErrorKey(0, 0), core.EffectKey(0, 0, 0)))

	require.Len(t, net.Diagnostics, 1)
	assert.Equal(t, core.ErrorKey(0, 0), net.Diagnostics[0].Key)
	assert.True(t, errors.Is(net.Diagnostics[0].Err, core.ErrUnsupportedCauseCount))

	healthy, _ := net.Node(core.ErrorKey(0, 1))
	require.NotNil(t, healthy.CPT, "sibling failure mode is unaffected")
	assert.Equal(t, 8, healthy.CPT.Columns())
}

func TestAssemble_NoCausesKeepsEffects(t *testing.T) {
	p := buildProcess(t, map[string][]causeSpec{"orphan": nil}, []string{"orphan"}, "downtime")

	net, err := NewAssembler(nil).Assemble(p)
	require.NoError(t, err)

	node, _ := net.Node(core.ErrorKey(0, 0))
	assert.Nil(t, node.CPT)
	assert.True(t, net.HasEdge(core.ErrorKey(0, 0), core.EffectKey(0, 0, 0)))
	require.Len(t, net.Diagnostics, 1)
	assert.True(t, errors.Is(net.Diagnostics[0].Err, core.ErrNoEvidence))
}

func TestAssemble_UnestimatedCauseIsDiagnosed(t *testing.T) {
	p := fmea.NewProcess(0, "p")
	fm := fmea.NewFailureMode("e")
	fm.AddCause(fmea.NewCause("A", 2))
	p.AddFailureMode(fm)

	net, err := NewAssembler(nil).Assemble(p)
	require.NoError(t, err)

	cause, _ := net.Node(core.CauseKey(0, 0, 0))
	assert.Nil(t, cause.CPT)
	require.Len(t, net.Diagnostics, 1)
	assert.True(t, errors.Is(net.Diagnostics[0].Err, core.ErrNotEstimated))
}

func TestAssemble_OutOfRangeWeightIsDiagnosed(t *testing.T) {
	p := buildProcess(t, map[string][]causeSpec{
		"good error": {{"A", 3}},
		"bad error":  {{"B", 8}, {"C", -2}},
	}, []string{"good error", "bad error"})

	net, err := NewAssembler(nil).Assemble(p)
	require.NoError(t, err)
	require.NoError(t, net.Check())

	// B = 8/6 and C = -2/6 are not probabilities
	require.Len(t, net.Diagnostics, 2)
	for i, d := range net.Diagnostics {
		assert.Equal(t, core.CauseKey(0, 1, i), d.Key)
		assert.True(t, errors.Is(d.Err, core.ErrInvalidDistribution))
		node, _ := net.Node(d.Key)
		assert.Nil(t, node.CPT)
		assert.True(t, net.HasEdge(d.Key, core.ErrorKey(0, 1)))
	}

	good, _ := net.Node(core.CauseKey(0, 0, 0))
	require.NotNil(t, good.CPT)
	assert.InDelta(t, 0.6, good.CPT.At(cpt.StateOccurred, 0), cpt.Tolerance)
	for _, key := range []core.NodeKey{core.ErrorKey(0, 0), core.ErrorKey(0, 1)} {
		node, _ := net.Node(key)
		assert.NotNil(t, node.CPT, "%s", key)
	}
}

func TestAssemble_ZeroWeightIsAProbability(t *testing.T) {
	p := buildProcess(t, map[string][]causeSpec{"e": {{"A", 0}, {"B", 2}}}, []string{"e"})

	net, err := NewAssembler(nil).Assemble(p)
	require.NoError(t, err)
	assert.Empty(t, net.Diagnostics)

	node, _ := net.Node(core.CauseKey(0, 0, 0))
	require.NotNil(t, node.CPT)
	assert.Equal(t, []float64{0, 1}, node.CPT.Column(0))
}

func TestAssemble_DuplicateNamesAreDistinctNodes(t *testing.T) {
	p := buildProcess(t, map[string][]causeSpec{
		"e1": {{"worn tool", 2}},
		"e2": {{"worn tool", 2}},
	}, []string{"e1", "e2"})

	net, err := NewAssembler(nil).Assemble(p)
	require.NoError(t, err)
	assert.Len(t, net.Nodes(), 4)
}

func TestNetwork_TopologicalOrder(t *testing.T) {
	p := buildProcess(t, map[string][]causeSpec{"e": {{"A", 1}, {"B", 1}}}, []string{"e"}, "x")

	net, err := NewAssembler(nil).Assemble(p)
	require.NoError(t, err)

	order, err := net.TopologicalOrder()
	require.NoError(t, err)
	pos := make(map[core.NodeKey]int)
	for i, k := range order {
		pos[k] = i
	}
	assert.Less(t, pos[core.CauseKey(0, 0, 0)], pos[core.ErrorKey(0, 0)])
	assert.Less(t, pos[core.ErrorKey(0, 0)], pos[core.EffectKey(0, 0, 0)])
}

func TestNetwork_CheckRejectsMismatchedEvidence(t *testing.T) {
	p := buildProcess(t, map[string][]causeSpec{"e": {{"A", 1}, {"B", 1}}}, []string{"e"})

	net, err := NewAssembler(nil).Assemble(p)
	require.NoError(t, err)

	errNode, _ := net.Node(core.ErrorKey(0, 0))
	table, err := cpt.MaxEntropy(core.ErrorKey(0, 0), []core.NodeKey{core.CauseKey(0, 0, 0)})
	require.NoError(t, err)
	errNode.CPT = table

	assert.Error(t, net.Check())
}

func TestNetwork_MarshalDOT(t *testing.T) {
	p := buildProcess(t, map[string][]causeSpec{"default of goods": {{"incorrect feed", 3}}}, []string{"default of goods"}, "aftertreatment")

	net, err := NewAssembler(nil).Assemble(p)
	require.NoError(t, err)

	out, err := net.MarshalDOT()
	require.NoError(t, err)

	dot := string(out)
	assert.Contains(t, dot, "digraph")
	assert.Contains(t, dot, "p0_e0_cause0")
	assert.Contains(t, dot, "p0_e0_cause0 -> p0_e0_error")
	assert.Contains(t, dot, `"incorrect feed"`)
	assert.Contains(t, dot, `tooltip="occurred: 0.6; absent: 0.4"`)
	assert.Contains(t, dot, `tooltip="occurred: 1 0; absent: 0 1"`)
}

func TestNetwork_FileName(t *testing.T) {
	net := newNetwork(2, "Turning / Milling")
	assert.Equal(t, "process_2_Turning_Milling.dot", net.FileName("dot"))
	assert.Equal(t, "process_0.dot", newNetwork(0, "").FileName("dot"))
}
