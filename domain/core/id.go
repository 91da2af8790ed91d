package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// AnalysisID identifies one persisted analysis run
type AnalysisID ID

func (id AnalysisID) String() string { return ID(id).String() }

// ParseAnalysisID parses a string into AnalysisID
func ParseAnalysisID(s string) (AnalysisID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("analysis ID cannot be empty")
	}
	return AnalysisID(s), nil
}

// NodeKind distinguishes the three node roles of a failure network
type NodeKind string

const (
	NodeCause  NodeKind = "cause"
	NodeError  NodeKind = "error"
	NodeEffect NodeKind = "effect"
)

// NodeKey is the stable synthetic identity of a network node.
// Error nodes use Index 0; cause and effect nodes use their position in the
// owning failure mode.
type NodeKey struct {
	Process     int      `json:"process"`
	FailureMode int      `json:"failure_mode"`
	Kind        NodeKind `json:"kind"`
	Index       int      `json:"index"`
}

// CauseKey returns the key of the idx-th cause of a failure mode
func CauseKey(process, failureMode, idx int) NodeKey {
	return NodeKey{Process: process, FailureMode: failureMode, Kind: NodeCause, Index: idx}
}

// ErrorKey returns the key of a failure mode's error node
func ErrorKey(process, failureMode int) NodeKey {
	return NodeKey{Process: process, FailureMode: failureMode, Kind: NodeError}
}

// EffectKey returns the key of the idx-th effect of a failure mode
func EffectKey(process, failureMode, idx int) NodeKey {
	return NodeKey{Process: process, FailureMode: failureMode, Kind: NodeEffect, Index: idx}
}

// String renders keys as p0/e1/cause2, usable as a DOT node id
func (k NodeKey) String() string {
	if k.Kind == NodeError {
		return fmt.Sprintf("p%d/e%d/error", k.Process, k.FailureMode)
	}
	return fmt.Sprintf("p%d/e%d/%s%d", k.Process, k.FailureMode, k.Kind, k.Index)
}
