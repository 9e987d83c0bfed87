package domain

import "fmt"

// Graph is a single snapshot of the ontology: an ordered node list and an
// ordered edge list. Snapshots handed to the layout core are treated as
// immutable; the core deep-copies them and mutates only the geometry
// fields of its working copy, never identity, label, or category.
type Graph struct {
	Nodes []*Node `json:"nodes"`
	Edges []*Edge `json:"edges"`
}

// NewGraph creates an empty graph
func NewGraph() *Graph {
	return &Graph{
		Nodes: []*Node{},
		Edges: []*Edge{},
	}
}

// Node returns the node with the given id, or nil
func (g *Graph) Node(id string) *Node {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// Edge returns the edge with the given id, or nil
func (g *Graph) Edge(id string) *Edge {
	for _, e := range g.Edges {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// AddNode appends a node to the graph
func (g *Graph) AddNode(n *Node) error {
	if n.ID == "" {
		return fmt.Errorf("add node: %w", ErrEmptyID)
	}
	if g.Node(n.ID) != nil {
		return fmt.Errorf("add node %s: %w", n.ID, ErrDuplicateID)
	}
	g.Nodes = append(g.Nodes, n)
	return nil
}

// AddEdge appends an edge to the graph. Both endpoints must already exist.
func (g *Graph) AddEdge(e *Edge) error {
	e.EnsureID()
	if g.Edge(e.ID) != nil {
		return fmt.Errorf("add edge %s: %w", e.ID, ErrDuplicateID)
	}
	if g.Node(e.Source) == nil {
		return fmt.Errorf("add edge %s: source %q: %w", e.ID, e.Source, ErrDanglingEdge)
	}
	if g.Node(e.Target) == nil {
		return fmt.Errorf("add edge %s: target %q: %w", e.ID, e.Target, ErrDanglingEdge)
	}
	g.Edges = append(g.Edges, e)
	return nil
}

// RemoveNode deletes a node and every edge incident to it, so the graph
// never holds a dangling endpoint
func (g *Graph) RemoveNode(id string) error {
	idx := -1
	for i, n := range g.Nodes {
		if n.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("remove node %s: %w", id, ErrNotFound)
	}
	g.Nodes = append(g.Nodes[:idx], g.Nodes[idx+1:]...)

	kept := g.Edges[:0]
	for _, e := range g.Edges {
		if e.Source != id && e.Target != id {
			kept = append(kept, e)
		}
	}
	g.Edges = kept
	return nil
}

// RemoveEdge deletes an edge by id
func (g *Graph) RemoveEdge(id string) error {
	for i, e := range g.Edges {
		if e.ID == id {
			g.Edges = append(g.Edges[:i], g.Edges[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("remove edge %s: %w", id, ErrNotFound)
}

// Validate checks the integrity rules every snapshot must satisfy before
// it reaches the simulation: non-empty unique node and edge ids, and edge
// endpoints that reference existing nodes. A violation rejects the whole
// graph; callers must not partially render an invalid snapshot.
func (g *Graph) Validate() error {
	nodeIDs := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.ID == "" {
			return fmt.Errorf("node %q: %w", n.Label, ErrEmptyID)
		}
		if nodeIDs[n.ID] {
			return fmt.Errorf("node %s: %w", n.ID, ErrDuplicateID)
		}
		nodeIDs[n.ID] = true
	}

	edgeIDs := make(map[string]bool, len(g.Edges))
	for _, e := range g.Edges {
		if e.ID == "" {
			return fmt.Errorf("edge %s->%s: %w", e.Source, e.Target, ErrEmptyID)
		}
		if edgeIDs[e.ID] {
			return fmt.Errorf("edge %s: %w", e.ID, ErrDuplicateID)
		}
		edgeIDs[e.ID] = true

		if !nodeIDs[e.Source] {
			return fmt.Errorf("edge %s: source %q: %w", e.ID, e.Source, ErrDanglingEdge)
		}
		if !nodeIDs[e.Target] {
			return fmt.Errorf("edge %s: target %q: %w", e.ID, e.Target, ErrDanglingEdge)
		}
	}
	return nil
}

// Clone returns a deep, independent copy of the graph. Mutating the copy,
// including its geometry fields, never touches the original.
func (g *Graph) Clone() *Graph {
	out := &Graph{
		Nodes: make([]*Node, len(g.Nodes)),
		Edges: make([]*Edge, len(g.Edges)),
	}
	for i, n := range g.Nodes {
		copied := *n
		out.Nodes[i] = &copied
	}
	for i, e := range g.Edges {
		copied := *e
		out.Edges[i] = &copied
	}
	return out
}
