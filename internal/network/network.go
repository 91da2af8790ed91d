// Package network assembles the per-process failure network: a directed
// acyclic graph of causes, errors and effects whose cause and error nodes
// carry CPTs.
package network

import (
	"fmt"
	"regexp"
	"strings"

	"fmeagraph/domain/core"
	"fmeagraph/domain/cpt"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Node is a network vertex. The graph ID is allocated by the network; Key
// is the stable identity.
type Node struct {
	id    int64
	Key   core.NodeKey
	Label string
	CPT   *cpt.Table
}

// ID implements graph.Node
func (n *Node) ID() int64 { return n.id }

// DOTID implements dot.Node
func (n *Node) DOTID() string {
	return strings.ReplaceAll(n.Key.String(), "/", "_")
}

// Attributes implements encoding.Attributer
func (n *Node) Attributes() []encoding.Attribute {
	shape := "ellipse"
	switch n.Key.Kind {
	case core.NodeError:
		shape = "box"
	case core.NodeEffect:
		shape = "note"
	}
	attrs := []encoding.Attribute{
		{Key: "label", Value: n.Label},
		{Key: "shape", Value: shape},
	}
	if n.CPT != nil {
		attrs = append(attrs, encoding.Attribute{Key: "tooltip", Value: n.CPT.String()})
	}
	return attrs
}

// Diagnostic records a failure mode whose CPT could not be attached. The
// node and its edges stay in the graph.
type Diagnostic struct {
	Key core.NodeKey
	Err error
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s: %v", d.Key, d.Err)
}

// Network is the assembled graph of one process
type Network struct {
	ProcessIndex int
	ProcessName  string
	Diagnostics  []Diagnostic

	g     *simple.DirectedGraph
	nodes map[core.NodeKey]*Node
	order []*Node
}

func newNetwork(index int, name string) *Network {
	return &Network{
		ProcessIndex: index,
		ProcessName:  name,
		g:            simple.NewDirectedGraph(),
		nodes:        make(map[core.NodeKey]*Node),
	}
}

func (n *Network) addNode(key core.NodeKey, label string) *Node {
	if existing, ok := n.nodes[key]; ok {
		return existing
	}
	node := &Node{id: int64(len(n.order)), Key: key, Label: label}
	n.g.AddNode(node)
	n.nodes[key] = node
	n.order = append(n.order, node)
	return node
}

func (n *Network) addEdge(from, to *Node) {
	n.g.SetEdge(n.g.NewEdge(from, to))
}

// Nodes returns every node in insertion order
func (n *Network) Nodes() []*Node {
	return append([]*Node(nil), n.order...)
}

// Node looks a node up by key
func (n *Network) Node(key core.NodeKey) (*Node, bool) {
	node, ok := n.nodes[key]
	return node, ok
}

// Predecessors returns the keys of the direct predecessors of key
func (n *Network) Predecessors(key core.NodeKey) []core.NodeKey {
	node, ok := n.nodes[key]
	if !ok {
		return nil
	}
	var keys []core.NodeKey
	preds := n.g.To(node.ID())
	for preds.Next() {
		keys = append(keys, preds.Node().(*Node).Key)
	}
	return keys
}

// HasEdge reports whether from -> to exists
func (n *Network) HasEdge(from, to core.NodeKey) bool {
	u, ok := n.nodes[from]
	if !ok {
		return false
	}
	v, ok := n.nodes[to]
	if !ok {
		return false
	}
	return n.g.HasEdgeFromTo(u.ID(), v.ID())
}

// EdgeCount returns the number of directed edges
func (n *Network) EdgeCount() int {
	return n.g.Edges().Len()
}

// Check verifies the contract consumers rely on: the graph is acyclic and
// every CPT has evidence equal to its node's direct predecessors and columns
// that sum to one.
func (n *Network) Check() error {
	if _, err := topo.Sort(n.g); err != nil {
		return fmt.Errorf("process %d: network is not acyclic: %w", n.ProcessIndex, err)
	}

	for _, node := range n.order {
		if node.CPT == nil {
			continue
		}
		if node.CPT.Variable != node.Key {
			return fmt.Errorf("node %s carries the CPT of %s", node.Key, node.CPT.Variable)
		}
		if err := sameKeys(node.CPT.Evidence, n.Predecessors(node.Key)); err != nil {
			return fmt.Errorf("node %s: %w", node.Key, err)
		}
		if err := node.CPT.Validate(cpt.Tolerance); err != nil {
			return err
		}
	}
	return nil
}

func sameKeys(evidence, preds []core.NodeKey) error {
	if len(evidence) != len(preds) {
		return fmt.Errorf("%d evidence variables but %d predecessors", len(evidence), len(preds))
	}
	seen := make(map[core.NodeKey]bool, len(preds))
	for _, k := range preds {
		seen[k] = true
	}
	for _, k := range evidence {
		if !seen[k] {
			return fmt.Errorf("evidence %s is not a predecessor", k)
		}
		delete(seen, k)
	}
	return nil
}

// TopologicalOrder returns node keys with every node after its predecessors
func (n *Network) TopologicalOrder() ([]core.NodeKey, error) {
	sorted, err := topo.SortStabilized(n.g, nil)
	if err != nil {
		return nil, err
	}
	keys := make([]core.NodeKey, len(sorted))
	for i, node := range sorted {
		keys[i] = node.(*Node).Key
	}
	return keys, nil
}

// MarshalDOT renders the network as a Graphviz digraph. Nodes with a CPT
// carry it in their tooltip.
func (n *Network) MarshalDOT() ([]byte, error) {
	return dot.Marshal(n.g, n.ProcessName, "", "  ")
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// FileName is the rendered artifact name, keyed by process index and name
func (n *Network) FileName(ext string) string {
	slug := strings.Trim(unsafeFileChars.ReplaceAllString(n.ProcessName, "_"), "_")
	if slug == "" {
		return fmt.Sprintf("process_%d.%s", n.ProcessIndex, ext)
	}
	return fmt.Sprintf("process_%d_%s.%s", n.ProcessIndex, slug, ext)
}

var _ graph.Node = (*Node)(nil)
