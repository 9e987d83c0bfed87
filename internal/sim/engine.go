package sim

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"ontolarium/internal/domain"
)

// Default force-model tuning. The layout was designed around these
// values; config can override each one.
const (
	DefaultLinkDistance  = 150.0
	DefaultCharge        = -400.0
	DefaultCollideRadius = 40.0
	DefaultAlphaMin      = 0.001
	DefaultVelocityDecay = 0.4

	// alphaDecayTicks is the number of ticks a fresh simulation takes to
	// settle from alpha 1 to alphaMin with no reheating.
	alphaDecayTicks = 300

	// initialRadius spaces the placement spiral for unplaced nodes.
	initialRadius = 10.0
)

// initialAngle is the golden angle; consecutive unplaced nodes land on a
// phyllotaxis spiral so no two start at the same point.
var initialAngle = math.Pi * (3 - math.Sqrt(5))

// Options tunes the force model. Zero values fall back to defaults.
type Options struct {
	LinkDistance  float64
	Charge        float64
	CollideRadius float64
	Center        r2.Vec
	AlphaMin      float64
	VelocityDecay float64
}

func (o *Options) applyDefaults() {
	if o.LinkDistance == 0 {
		o.LinkDistance = DefaultLinkDistance
	}
	if o.Charge == 0 {
		o.Charge = DefaultCharge
	}
	if o.CollideRadius == 0 {
		o.CollideRadius = DefaultCollideRadius
	}
	if o.AlphaMin == 0 {
		o.AlphaMin = DefaultAlphaMin
	}
	if o.VelocityDecay == 0 {
		o.VelocityDecay = DefaultVelocityDecay
	}
}

// link joins two live node records. Resolved pointers stay inside this
// package; everything exported speaks node ids.
type link struct {
	source *domain.Node
	target *domain.Node
}

// Engine owns the working copy's geometry and integrates the force model
// over discrete ticks. It is not safe for concurrent use; the stage
// serializes every caller.
type Engine struct {
	nodes []*domain.Node
	byID  map[string]*domain.Node

	forces []force

	alpha         float64
	alphaMin      float64
	alphaDecay    float64
	alphaTarget   float64
	velocityDecay float64

	stopped bool
	ticks   int
}

// New builds an engine over the working copy's nodes. Edges referencing
// node ids that do not exist fail fast here: a graph that slipped past
// boundary validation must never be simulated. Unplaced nodes receive a
// deterministic spiral position around the layout center.
func New(g *domain.Graph, opt Options) (*Engine, error) {
	opt.applyDefaults()

	e := &Engine{
		nodes:         g.Nodes,
		byID:          make(map[string]*domain.Node, len(g.Nodes)),
		alpha:         1,
		alphaMin:      opt.AlphaMin,
		alphaDecay:    1 - math.Pow(opt.AlphaMin, 1/float64(alphaDecayTicks)),
		velocityDecay: opt.VelocityDecay,
	}
	for _, n := range g.Nodes {
		e.byID[n.ID] = n
	}

	links := make([]*link, 0, len(g.Edges))
	for _, edge := range g.Edges {
		source, ok := e.byID[edge.Source]
		if !ok {
			return nil, fmt.Errorf("link %s: source %q: %w", edge.ID, edge.Source, domain.ErrDanglingEdge)
		}
		target, ok := e.byID[edge.Target]
		if !ok {
			return nil, fmt.Errorf("link %s: target %q: %w", edge.ID, edge.Target, domain.ErrDanglingEdge)
		}
		links = append(links, &link{source: source, target: target})
	}

	e.place(opt.Center)

	random := newLCG()
	e.forces = []force{
		newLinkForce(links, opt.LinkDistance, random),
		newManyBodyForce(e.nodes, opt.Charge, random),
		newCenterForce(e.nodes, opt.Center),
		newCollideForce(e.nodes, opt.CollideRadius, random),
	}

	return e, nil
}

// place assigns starting positions. Pinned nodes snap to their pin;
// unplaced nodes go on the phyllotaxis spiral. After this no geometry
// field is NaN.
func (e *Engine) place(center r2.Vec) {
	for i, n := range e.nodes {
		if n.Pinned {
			n.X, n.Y = n.FX, n.FY
			n.VX, n.VY = 0, 0
			continue
		}
		if n.Placed() {
			continue
		}
		radius := initialRadius * math.Sqrt(0.5+float64(i))
		angle := float64(i) * initialAngle
		n.X = center.X + radius*math.Cos(angle)
		n.Y = center.Y + radius*math.Sin(angle)
		n.VX, n.VY = 0, 0
	}
}

// Step advances the simulation by one tick: decay alpha toward its
// target, apply each force, then integrate velocity into position
// (semi-implicit Euler with velocity damping). Pinned nodes snap to
// their pin with zero velocity. Returns whether the engine is still hot;
// a stopped engine never moves anything again.
func (e *Engine) Step() bool {
	if e.stopped {
		return false
	}
	e.ticks++

	e.alpha += (e.alphaTarget - e.alpha) * e.alphaDecay
	for _, f := range e.forces {
		f.apply(e.alpha)
	}

	for _, n := range e.nodes {
		if n.Pinned {
			n.X, n.Y = n.FX, n.FY
			n.VX, n.VY = 0, 0
			continue
		}
		n.VX *= 1 - e.velocityDecay
		n.VY *= 1 - e.velocityDecay
		n.X += n.VX
		n.Y += n.VY
	}

	return e.alpha >= e.alphaMin
}

// Restart reheats the simulation: alpha is lifted to at least target and
// keeps converging toward it each tick until Cool. Drag-start uses this
// so neighbors react without the whole layout resetting. No-op on a
// stopped engine.
func (e *Engine) Restart(target float64) {
	if e.stopped {
		return
	}
	if target < 0 {
		target = 0
	}
	e.alphaTarget = target
	if e.alpha < target {
		e.alpha = target
	}
}

// Cool lets alpha decay back toward zero (drag end)
func (e *Engine) Cool() {
	e.alphaTarget = 0
}

// Stop halts the engine permanently. Mandatory before the engine is
// replaced or discarded so a stale tick can never mutate geometry that
// is no longer rendered.
func (e *Engine) Stop() {
	e.stopped = true
}

// Pin fixes a node at (x, y); its reported position is the pin value
// from this call on. Unknown ids are ignored.
func (e *Engine) Pin(id string, x, y float64) {
	n, ok := e.byID[id]
	if !ok {
		return
	}
	n.Pin(x, y)
	n.X, n.Y = x, y
	n.VX, n.VY = 0, 0
}

// Unpin releases a node back to the integrator. Unknown ids are ignored.
func (e *Engine) Unpin(id string) {
	if n, ok := e.byID[id]; ok {
		n.Unpin()
	}
}

// Nodes returns the live, authoritative geometry for every node. Callers
// must treat the result as read-only.
func (e *Engine) Nodes() []*domain.Node {
	return e.nodes
}

// Node returns the live record for id, or nil
func (e *Engine) Node(id string) *domain.Node {
	return e.byID[id]
}

// Alpha returns the current temperature
func (e *Engine) Alpha() float64 {
	return e.alpha
}

// Settled reports whether alpha has decayed below the minimum
func (e *Engine) Settled() bool {
	return e.alpha < e.alphaMin
}

// Stopped reports whether Stop was called
func (e *Engine) Stopped() bool {
	return e.stopped
}

// Ticks returns how many steps the engine has run
func (e *Engine) Ticks() int {
	return e.ticks
}
