package service

import (
	"errors"
	"fmt"

	"ontolarium/internal/domain"
)

// Reconcile merges an incoming graph snapshot with the current working
// copy. The result is a fresh deep copy of next: nodes that survive by
// id carry the working copy's position and velocity so the layout does
// not restart from scratch, new nodes keep whatever placement the
// snapshot gave them (usually none), and edges are rebuilt wholesale
// from the snapshot. Neither input is mutated or retained.
//
// An invalid snapshot is rejected whole; the caller keeps its current
// graph.
func Reconcile(current, next *domain.Graph) (*domain.Graph, error) {
	if next == nil {
		return nil, errors.New("reconcile: nil graph")
	}
	if err := next.Validate(); err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}

	merged := next.Clone()
	if current == nil {
		return merged, nil
	}

	prev := make(map[string]*domain.Node, len(current.Nodes))
	for _, n := range current.Nodes {
		prev[n.ID] = n
	}
	for _, n := range merged.Nodes {
		old, ok := prev[n.ID]
		if !ok || !old.Placed() {
			continue
		}
		n.X, n.Y = old.X, old.Y
		n.VX, n.VY = old.VX, old.VY
	}
	return merged, nil
}
