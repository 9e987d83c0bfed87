package domain

import (
	"crypto/sha256"
	"fmt"
)

// Edge represents a labeled relationship between two nodes.
//
// Source and Target are always plain node id strings in this form.
// Edges are directed (arrowhead from source to target) for rendering but
// symmetric for the spring force. The resolved endpoint-pointer form used
// on the render path lives in the scene package and never leaves it.
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label"`
}

// NewEdge creates a new edge with a deterministic ID
func NewEdge(source, target, label string) *Edge {
	edge := &Edge{
		Source: source,
		Target: target,
		Label:  label,
	}
	edge.ID = edge.GenerateID()
	return edge
}

// GenerateID creates a deterministic ID from the edge's endpoints and
// label. Direction matters: a->b and b->a are distinct relationships.
func (e *Edge) GenerateID() string {
	key := fmt.Sprintf("%s->%s:%s", e.Source, e.Target, e.Label)
	hash := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x", hash[:8])
}

// EnsureID fills in a generated ID if none was supplied
func (e *Edge) EnsureID() {
	if e.ID == "" {
		e.ID = e.GenerateID()
	}
}
