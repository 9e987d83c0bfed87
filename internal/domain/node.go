package domain

import "math"

// Category classifies an ontology node
type Category string

const (
	CategoryClass    Category = "class"
	CategoryInstance Category = "instance"
	CategoryConcept  Category = "concept"
	CategoryLiteral  Category = "literal"
)

// Known reports whether the category belongs to the closed set.
// Unknown categories are preserved as data and rendered with a
// fallback color, never rejected.
func (c Category) Known() bool {
	switch c {
	case CategoryClass, CategoryInstance, CategoryConcept, CategoryLiteral:
		return true
	}
	return false
}

// Node represents an ontology entity in the graph.
//
// The geometry fields (X, Y, VX, VY) are owned by the simulation engine
// once a working copy is handed to it; the drag handler is the only other
// writer. X and Y are NaN until the engine first places the node.
type Node struct {
	ID          string   `json:"id"`
	Label       string   `json:"label"`
	Category    Category `json:"category"`
	Description string   `json:"description,omitempty"`

	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	VX float64 `json:"vx"`
	VY float64 `json:"vy"`

	// Pin state. While Pinned, integration snaps the node to (FX, FY)
	// and zeroes its velocity.
	Pinned bool    `json:"pinned,omitempty"`
	FX     float64 `json:"fx,omitempty"`
	FY     float64 `json:"fy,omitempty"`
}

// NewNode creates a new node with unplaced geometry
func NewNode(id, label string, category Category) *Node {
	n := &Node{
		ID:       id,
		Label:    label,
		Category: category,
	}
	n.ClearPlacement()
	return n
}

// Placed reports whether the node has simulated coordinates yet
func (n *Node) Placed() bool {
	return !math.IsNaN(n.X) && !math.IsNaN(n.Y)
}

// ClearPlacement resets the node to the unplaced state so the engine
// assigns it a fresh starting position
func (n *Node) ClearPlacement() {
	n.X, n.Y = math.NaN(), math.NaN()
	n.VX, n.VY = 0, 0
	n.Pinned = false
	n.FX, n.FY = 0, 0
}

// Pin fixes the node at (x, y) until Unpin is called
func (n *Node) Pin(x, y float64) {
	n.Pinned = true
	n.FX, n.FY = x, y
}

// Unpin releases a pinned node back to the simulation
func (n *Node) Unpin() {
	n.Pinned = false
}
