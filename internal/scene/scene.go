package scene

import (
	"math"

	"ontolarium/internal/domain"
)

// NodeRadius is the drawn radius of a node circle. The force model's
// collision radius is larger, so circles keep a visible margin.
const NodeRadius = 20.0

// NodeSprite is the drawable state of one node
type NodeSprite struct {
	ID       string          `json:"id"`
	Label    string          `json:"label"`
	Category domain.Category `json:"category"`
	Title    string          `json:"title,omitempty"`
	Color    string          `json:"color"`
	Radius   float64         `json:"radius"`
	X        float64         `json:"x"`
	Y        float64         `json:"y"`
	Pinned   bool            `json:"pinned,omitempty"`
	Selected bool            `json:"selected,omitempty"`
}

// EdgeSprite is the drawable state of one edge: endpoint coordinates,
// the label midpoint, and an arrowhead at the target end. Source and
// Target are plain node ids.
type EdgeSprite struct {
	ID       string  `json:"id"`
	Source   string  `json:"source"`
	Target   string  `json:"target"`
	Label    string  `json:"label"`
	X1       float64 `json:"x1"`
	Y1       float64 `json:"y1"`
	X2       float64 `json:"x2"`
	Y2       float64 `json:"y2"`
	LabelX   float64 `json:"label_x"`
	LabelY   float64 `json:"label_y"`
	Selected bool    `json:"selected,omitempty"`
}

// nodeBinding ties a sprite to its live geometry record
type nodeBinding struct {
	sprite *NodeSprite
	record *domain.Node
}

// edgeBinding resolves an edge sprite's endpoints to live node records
// so the per-tick update is O(1) per edge. The resolved pointers never
// leave this package; everything exported speaks node ids.
type edgeBinding struct {
	sprite *EdgeSprite
	source *domain.Node
	target *domain.Node
}

// Scene is the server-side drawable model of the diagram. Epoch changes
// only when Build replaces the whole sprite set; projectors rebuild
// their object graph on an epoch change and otherwise patch coordinates
// in place.
type Scene struct {
	Epoch int           `json:"epoch"`
	Nodes []*NodeSprite `json:"nodes"`
	Edges []*EdgeSprite `json:"edges"`

	nodes []nodeBinding
	edges []edgeBinding
}

// New creates an empty scene
func New() *Scene {
	// Empty slices, not nil: the scene serializes to projectors that
	// iterate nodes/edges, so the wire form is always an array.
	return &Scene{Nodes: []*NodeSprite{}, Edges: []*EdgeSprite{}}
}

// Build tears down and rebuilds every sprite from the working copy.
// Called only when the graph itself is replaced; tick updates go through
// Sync so pan/zoom and drag state survive data changes.
func (s *Scene) Build(g *domain.Graph) {
	s.Epoch++
	s.Nodes = make([]*NodeSprite, 0, len(g.Nodes))
	s.Edges = make([]*EdgeSprite, 0, len(g.Edges))
	s.nodes = make([]nodeBinding, 0, len(g.Nodes))
	s.edges = make([]edgeBinding, 0, len(g.Edges))

	byID := make(map[string]*domain.Node, len(g.Nodes))
	for _, n := range g.Nodes {
		byID[n.ID] = n
		sprite := &NodeSprite{
			ID:       n.ID,
			Label:    n.Label,
			Category: n.Category,
			Title:    n.Description,
			Color:    ColorFor(n.Category),
			Radius:   NodeRadius,
		}
		s.Nodes = append(s.Nodes, sprite)
		s.nodes = append(s.nodes, nodeBinding{sprite: sprite, record: n})
	}

	for _, e := range g.Edges {
		sprite := &EdgeSprite{
			ID:     e.ID,
			Source: e.Source,
			Target: e.Target,
			Label:  e.Label,
		}
		s.Edges = append(s.Edges, sprite)
		s.edges = append(s.edges, edgeBinding{
			sprite: sprite,
			source: byID[e.Source],
			target: byID[e.Target],
		})
	}

	s.Sync()
}

// Sync refreshes sprite coordinates from the live geometry without
// rebuilding anything: node circles move to their record's position,
// edge lines follow their resolved endpoints, edge labels sit on the
// segment midpoint.
func (s *Scene) Sync() {
	for _, b := range s.nodes {
		b.sprite.X = b.record.X
		b.sprite.Y = b.record.Y
		b.sprite.Pinned = b.record.Pinned
	}
	for _, b := range s.edges {
		b.sprite.X1, b.sprite.Y1 = b.source.X, b.source.Y
		b.sprite.X2, b.sprite.Y2 = b.target.X, b.target.Y
		b.sprite.LabelX = (b.source.X + b.target.X) / 2
		b.sprite.LabelY = (b.source.Y + b.target.Y) / 2
	}
}

// SetSelection marks the selected node and edge sprites, clearing all
// others. Empty ids clear.
func (s *Scene) SetSelection(nodeID, edgeID string) {
	for _, b := range s.nodes {
		b.sprite.Selected = b.sprite.ID == nodeID
	}
	for _, b := range s.edges {
		b.sprite.Selected = b.sprite.ID == edgeID
	}
}

// NodeAt returns the topmost node covering the world point, or empty.
// Later sprites draw above earlier ones, so the scan runs back to front.
func (s *Scene) NodeAt(x, y float64) string {
	for i := len(s.Nodes) - 1; i >= 0; i-- {
		sp := s.Nodes[i]
		if math.Hypot(x-sp.X, y-sp.Y) <= sp.Radius {
			return sp.ID
		}
	}
	return ""
}

// EdgeAt returns the edge nearest the world point within tol, or empty
func (s *Scene) EdgeAt(x, y, tol float64) string {
	best := ""
	bestDist := tol
	for _, sp := range s.Edges {
		d := pointSegmentDistance(x, y, sp.X1, sp.Y1, sp.X2, sp.Y2)
		if d <= bestDist {
			best, bestDist = sp.ID, d
		}
	}
	return best
}

func pointSegmentDistance(px, py, x1, y1, x2, y2 float64) float64 {
	dx, dy := x2-x1, y2-y1
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return math.Hypot(px-x1, py-y1)
	}
	t := ((px-x1)*dx + (py-y1)*dy) / l2
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(px-(x1+t*dx), py-(y1+t*dy))
}
