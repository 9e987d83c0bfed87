package sim

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"ontolarium/internal/domain"
)

// force adjusts node velocities (or, for centering, positions) once per
// tick. Forces are additive: each contributes its own adjustment and the
// integrator applies the sum.
type force interface {
	apply(alpha float64)
}

// lcg is a small deterministic random source used only to break exact
// coincidences between nodes. Seeding it the same way every run keeps
// whole simulations reproducible.
type lcg struct {
	state uint64
}

func newLCG() *lcg {
	return &lcg{state: 1}
}

func (l *lcg) next() float64 {
	l.state = (1664525*l.state + 1013904223) % (1 << 32)
	return float64(l.state) / (1 << 32)
}

// jiggle returns a tiny nonzero-ish offset to separate coincident points
func (l *lcg) jiggle() float64 {
	return (l.next() - 0.5) * 1e-6
}

// linkForce pulls each edge's endpoints toward a rest distance, acting
// like a spring. The spring is symmetric: direction does not matter
// here. Strength and bias are degree-weighted so hub nodes are not
// yanked around by every leaf.
type linkForce struct {
	links    []*link
	distance float64
	strength []float64
	bias     []float64
	random   *lcg
}

func newLinkForce(links []*link, distance float64, random *lcg) *linkForce {
	f := &linkForce{
		links:    links,
		distance: distance,
		strength: make([]float64, len(links)),
		bias:     make([]float64, len(links)),
		random:   random,
	}

	degree := make(map[*domain.Node]int)
	for _, l := range links {
		degree[l.source]++
		degree[l.target]++
	}
	for i, l := range links {
		ds, dt := float64(degree[l.source]), float64(degree[l.target])
		f.bias[i] = ds / (ds + dt)
		f.strength[i] = 1 / math.Min(ds, dt)
	}
	return f
}

func (f *linkForce) apply(alpha float64) {
	for i, l := range f.links {
		delta := r2.Vec{
			X: l.target.X + l.target.VX - l.source.X - l.source.VX,
			Y: l.target.Y + l.target.VY - l.source.Y - l.source.VY,
		}
		if delta.X == 0 {
			delta.X = f.random.jiggle()
		}
		if delta.Y == 0 {
			delta.Y = f.random.jiggle()
		}

		dist := r2.Norm(delta)
		k := (dist - f.distance) / dist * alpha * f.strength[i]
		adj := r2.Scale(k, delta)

		b := f.bias[i]
		l.target.VX -= adj.X * b
		l.target.VY -= adj.Y * b
		l.source.VX += adj.X * (1 - b)
		l.source.VY += adj.Y * (1 - b)
	}
}

// manyBodyForce applies charge-like repulsion between every node pair.
// Negative strength pushes nodes apart, preventing cluster collapse.
// Ontology diagrams stay small enough that the direct O(n^2) pass beats
// the bookkeeping cost of a spatial index.
type manyBodyForce struct {
	nodes        []*domain.Node
	strength     float64
	distanceMin2 float64
	random       *lcg
}

func newManyBodyForce(nodes []*domain.Node, strength float64, random *lcg) *manyBodyForce {
	return &manyBodyForce{
		nodes:        nodes,
		strength:     strength,
		distanceMin2: 1,
		random:       random,
	}
}

func (f *manyBodyForce) apply(alpha float64) {
	for _, n := range f.nodes {
		for _, o := range f.nodes {
			if o == n {
				continue
			}
			delta := r2.Vec{X: o.X - n.X, Y: o.Y - n.Y}
			l := r2.Norm2(delta)
			if delta.X == 0 {
				delta.X = f.random.jiggle()
				l += delta.X * delta.X
			}
			if delta.Y == 0 {
				delta.Y = f.random.jiggle()
				l += delta.Y * delta.Y
			}
			// Soften at very short range so coincident nodes do not
			// explode off-screen.
			if l < f.distanceMin2 {
				l = math.Sqrt(f.distanceMin2 * l)
			}
			w := f.strength * alpha / l
			n.VX += delta.X * w
			n.VY += delta.Y * w
		}
	}
}

// centerForce translates the whole node set so its mean position sits on
// the layout center. It corrects positions directly rather than applying
// velocity, and ignores alpha: drift off-screen is corrected even when
// the simulation is nearly settled.
type centerForce struct {
	nodes    []*domain.Node
	center   r2.Vec
	strength float64
}

func newCenterForce(nodes []*domain.Node, center r2.Vec) *centerForce {
	return &centerForce{nodes: nodes, center: center, strength: 1}
}

func (f *centerForce) apply(_ float64) {
	if len(f.nodes) == 0 {
		return
	}
	var sum r2.Vec
	for _, n := range f.nodes {
		sum = r2.Add(sum, r2.Vec{X: n.X, Y: n.Y})
	}
	n := float64(len(f.nodes))
	shift := r2.Scale(f.strength, r2.Vec{X: sum.X/n - f.center.X, Y: sum.Y/n - f.center.Y})
	for _, node := range f.nodes {
		node.X -= shift.X
		node.Y -= shift.Y
	}
}

// collideForce enforces a minimum center-to-center distance between
// nodes so circles never fully overlap. Overlapping pairs are pushed
// apart along their separation axis, split evenly since every node
// carries the same radius.
type collideForce struct {
	nodes    []*domain.Node
	radius   float64
	strength float64
	random   *lcg
}

func newCollideForce(nodes []*domain.Node, radius float64, random *lcg) *collideForce {
	return &collideForce{nodes: nodes, radius: radius, strength: 1, random: random}
}

func (f *collideForce) apply(_ float64) {
	minDist := 2 * f.radius
	for i, n := range f.nodes {
		xi := n.X + n.VX
		yi := n.Y + n.VY
		for _, o := range f.nodes[i+1:] {
			delta := r2.Vec{X: xi - o.X - o.VX, Y: yi - o.Y - o.VY}
			l := r2.Norm2(delta)
			if l >= minDist*minDist {
				continue
			}
			if delta.X == 0 {
				delta.X = f.random.jiggle()
				l += delta.X * delta.X
			}
			if delta.Y == 0 {
				delta.Y = f.random.jiggle()
				l += delta.Y * delta.Y
			}
			dist := math.Sqrt(l)
			adj := r2.Scale((minDist-dist)/dist*f.strength, delta)
			n.VX += adj.X * 0.5
			n.VY += adj.Y * 0.5
			o.VX -= adj.X * 0.5
			o.VY -= adj.Y * 0.5
		}
	}
}
