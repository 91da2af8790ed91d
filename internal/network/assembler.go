package network

import (
	"fmt"

	"fmeagraph/domain/core"
	"fmeagraph/domain/cpt"
	"fmeagraph/domain/fmea"
	"fmeagraph/internal"
)

// Assembler builds one Network per process
type Assembler struct {
	logger *internal.Logger
}

// NewAssembler creates an assembler; a nil logger discards output
func NewAssembler(logger *internal.Logger) *Assembler {
	if logger == nil {
		logger = internal.Discard
	}
	return &Assembler{logger: logger.With("Assembler")}
}

// Assemble adds cause -> error and error -> effect edges for every failure
// mode of p. Causes must already be estimated.
//
// A node whose CPT cannot be synthesized (no causes, too many causes, or a
// cause probability outside [0, 1] from an out-of-range rating) keeps its
// edges but gets no CPT; the reason is kept in Network.Diagnostics. Other
// nodes and failure modes are unaffected.
func (a *Assembler) Assemble(p *fmea.Process) (*Network, error) {
	net := newNetwork(p.Index, p.Name)

	for i, fm := range p.FailureModes() {
		a.assembleFailureMode(net, p.Index, i, fm)
	}

	if err := net.Check(); err != nil {
		return nil, fmt.Errorf("assemble process %q: %w", p.Name, err)
	}
	a.logger.Debug("process %q: %d nodes, %d edges, %d diagnostics",
		p.Name, len(net.order), net.EdgeCount(), len(net.Diagnostics))
	return net, nil
}

func (a *Assembler) assembleFailureMode(net *Network, process, idx int, fm *fmea.FailureMode) {
	errKey := core.ErrorKey(process, idx)
	errNode := net.addNode(errKey, fm.Name)

	causes := fm.Causes()
	evidence := make([]core.NodeKey, len(causes))
	for j, c := range causes {
		key := core.CauseKey(process, idx, j)
		evidence[j] = key

		causeNode := net.addNode(key, c.Name)
		net.addEdge(causeNode, errNode)

		p, ok := c.Probability()
		if !ok {
			a.diagnose(net, key, fmt.Errorf("%w: %q", core.ErrNotEstimated, c.Name))
			continue
		}
		marginal := cpt.Marginal(key, p)
		if err := marginal.Validate(cpt.Tolerance); err != nil {
			a.diagnose(net, key, err)
			continue
		}
		causeNode.CPT = marginal
	}

	table, err := cpt.MaxEntropy(errKey, evidence)
	if err == nil {
		err = table.Validate(cpt.Tolerance)
	}
	if err != nil {
		a.diagnose(net, errKey, err)
	} else {
		errNode.CPT = table
	}

	for j, e := range fm.Effects() {
		effectNode := net.addNode(core.EffectKey(process, idx, j), e.Name)
		net.addEdge(errNode, effectNode)
	}
}

func (a *Assembler) diagnose(net *Network, key core.NodeKey, err error) {
	a.logger.Warn("%s: CPT not attached: %v", key, err)
	net.Diagnostics = append(net.Diagnostics, Diagnostic{Key: key, Err: err})
}
