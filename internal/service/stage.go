package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"ontolarium/internal/domain"
	"ontolarium/internal/scene"
	"ontolarium/internal/sim"
)

// ErrNoGraph is returned by operations that need a loaded graph
var ErrNoGraph = errors.New("no graph loaded")

const (
	// dragAlphaTarget keeps the layout warm while a node is held
	dragAlphaTarget = 0.3
	// clickSlop is how far (screen px) a press may wander and still count
	// as a click on release
	clickSlop = 4.0
	// edgeHitSlop is the edge pick distance in screen px, divided by the
	// zoom scale before hit testing in world space
	edgeHitSlop = 8.0
)

// TickHandler observes the stage after each simulation step. It runs
// with the stage locked, so it must not call back into the stage; a
// non-nil error stops the simulation for good.
type TickHandler func(s *scene.Scene, alpha float64) error

// pointerState tracks one press-move-release gesture
type pointerState struct {
	active         bool
	nodeID         string // dragged node, empty when panning
	grabDX, grabDY float64
	startX, startY float64
	lastX, lastY   float64
	moved          bool
}

// Stage owns the live diagram: the working copy of the graph, the
// running engine, the drawable scene, the viewport, and the current
// selection. Every method serializes on one mutex, so gestures arriving
// over HTTP interleave between ticks instead of racing them. The engine
// is never touched off-lock.
type Stage struct {
	mu sync.Mutex

	graph     *domain.Graph
	engine    *sim.Engine
	scene     *scene.Scene
	viewport  *scene.Viewport
	simOpts   sim.Options
	dragAlpha float64

	selectedNode string
	selectedEdge string

	onTick         TickHandler
	onNodeSelected func(*domain.Node)
	onEdgeSelected func(*domain.Edge)

	pointer pointerState
	settled bool

	eventBus *EventBus
}

// NewStage creates an empty stage. Zero Options fields fall back to the
// engine defaults.
func NewStage(opts sim.Options, eventBus *EventBus) *Stage {
	return &Stage{
		scene:     scene.New(),
		viewport:  scene.NewViewport(),
		simOpts:   opts,
		dragAlpha: dragAlphaTarget,
		eventBus:  eventBus,
	}
}

// SetDragAlpha overrides the reheat target used while a node is held
func (st *Stage) SetDragAlpha(a float64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if a > 0 {
		st.dragAlpha = a
	}
}

// Frame is the full drawable state pushed to a projector when it first
// attaches or when the scene is rebuilt.
type Frame struct {
	Scene    *scene.Scene   `json:"scene"`
	Viewport scene.Viewport `json:"viewport"`
	Alpha    float64        `json:"alpha"`
	Settled  bool           `json:"settled"`
}

// Replace swaps in a new graph snapshot. The snapshot is validated and
// reconciled against the working copy first; on any error the current
// graph, engine, and scene stay exactly as they were. On success the
// old engine is stopped before the new one takes over, the scene is
// rebuilt under a new epoch, and selection survives only for ids that
// still exist.
func (st *Stage) Replace(next *domain.Graph) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	merged, err := Reconcile(st.graph, next)
	if err != nil {
		return err
	}
	engine, err := sim.New(merged, st.simOpts)
	if err != nil {
		return fmt.Errorf("start simulation: %w", err)
	}

	if st.engine != nil {
		st.engine.Stop()
	}
	st.graph = merged
	st.engine = engine
	st.settled = false
	st.pointer = pointerState{}

	if st.selectedNode != "" && merged.Node(st.selectedNode) == nil {
		st.selectedNode = ""
	}
	if st.selectedEdge != "" && merged.Edge(st.selectedEdge) == nil {
		st.selectedEdge = ""
	}
	st.scene.Build(merged)
	st.scene.SetSelection(st.selectedNode, st.selectedEdge)

	st.eventBus.Publish(Event{
		Type: EventSceneReplaced,
		Payload: map[string]int{
			"epoch": st.scene.Epoch,
			"nodes": len(merged.Nodes),
			"edges": len(merged.Edges),
		},
	})
	return nil
}

// Run drives the simulation until the context is cancelled, stepping at
// the given interval. Steps are skipped while no engine is loaded or
// the layout has settled; a reheat picks the loop back up.
func (st *Stage) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("Stage loop running (interval %s)", interval)
	for {
		select {
		case <-ctx.Done():
			log.Printf("Stage loop stopped")
			return ctx.Err()
		case <-ticker.C:
			st.Tick()
		}
	}
}

// Tick advances the simulation one step and refreshes the scene. It is
// exported so tests and alternative drivers can step without the timer.
func (st *Stage) Tick() {
	st.mu.Lock()
	if st.engine == nil || st.engine.Stopped() || st.engine.Settled() {
		st.mu.Unlock()
		return
	}

	active := st.engine.Step()
	st.scene.Sync()

	justSettled := !active && !st.settled
	st.settled = !active

	if st.onTick != nil {
		if err := st.onTick(st.scene, st.engine.Alpha()); err != nil {
			log.Printf("Tick handler failed, stopping simulation: %v", err)
			st.engine.Stop()
			st.mu.Unlock()
			st.eventBus.Publish(Event{Type: EventSimStopped, Payload: map[string]string{"reason": err.Error()}})
			return
		}
	}
	st.mu.Unlock()

	if justSettled {
		st.eventBus.Publish(Event{Type: EventSimSettled})
	}
}

// OnTick registers the per-step observer
func (st *Stage) OnTick(h TickHandler) {
	st.mu.Lock()
	st.onTick = h
	st.mu.Unlock()
}

// OnNodeSelected registers the node selection callback. The callback
// receives a copy and runs off-lock, so it may call back into the stage.
func (st *Stage) OnNodeSelected(fn func(*domain.Node)) {
	st.mu.Lock()
	st.onNodeSelected = fn
	st.mu.Unlock()
}

// OnEdgeSelected registers the edge selection callback
func (st *Stage) OnEdgeSelected(fn func(*domain.Edge)) {
	st.mu.Lock()
	st.onEdgeSelected = fn
	st.mu.Unlock()
}

// PointerDown begins a gesture at screen coordinates. A press on a node
// pins it where it stands and reheats the layout; anything else arms a
// potential pan or click.
func (st *Stage) PointerDown(sx, sy float64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.graph == nil {
		return
	}

	st.pointer = pointerState{active: true, startX: sx, startY: sy, lastX: sx, lastY: sy}

	wx, wy := st.viewport.ToWorld(sx, sy)
	if id := st.scene.NodeAt(wx, wy); id != "" {
		n := st.graph.Node(id)
		st.pointer.nodeID = id
		st.pointer.grabDX = n.X - wx
		st.pointer.grabDY = n.Y - wy
		st.engine.Pin(id, n.X, n.Y)
		st.engine.Restart(st.dragAlpha)
	}
}

// PointerMove continues a gesture. Dragging a node re-pins it under the
// pointer, keeping the grab offset so the node does not jump; dragging
// empty space pans the view.
func (st *Stage) PointerMove(sx, sy float64) {
	st.mu.Lock()
	p := &st.pointer
	if !p.active {
		st.mu.Unlock()
		return
	}

	if !p.moved {
		dx, dy := sx-p.startX, sy-p.startY
		if dx*dx+dy*dy > clickSlop*clickSlop {
			p.moved = true
		}
	}
	dx, dy := sx-p.lastX, sy-p.lastY
	p.lastX, p.lastY = sx, sy

	var view *scene.Viewport
	if p.nodeID != "" {
		wx, wy := st.viewport.ToWorld(sx, sy)
		st.engine.Pin(p.nodeID, wx+p.grabDX, wy+p.grabDY)
	} else if p.moved {
		st.viewport.Pan(dx, dy)
		v := *st.viewport
		view = &v
	}
	st.mu.Unlock()

	if view != nil {
		st.eventBus.Publish(Event{Type: EventViewChanged, Payload: *view})
	}
}

// PointerUp ends a gesture. A dragged node is released back to the
// forces and the layout cools; an unmoved press is routed as a click,
// with nodes picked over edges and edges over the background.
func (st *Stage) PointerUp(sx, sy float64) {
	st.mu.Lock()
	p := st.pointer
	st.pointer = pointerState{}
	if !p.active || st.graph == nil {
		st.mu.Unlock()
		return
	}

	if p.nodeID != "" {
		st.engine.Unpin(p.nodeID)
		st.engine.Cool()
	}
	if p.moved {
		st.mu.Unlock()
		return
	}

	wx, wy := st.viewport.ToWorld(sx, sy)
	var after func()
	if id := st.scene.NodeAt(wx, wy); id != "" {
		after = st.selectNodeLocked(id)
	} else if id := st.scene.EdgeAt(wx, wy, edgeHitSlop/st.viewport.Scale); id != "" {
		after = st.selectEdgeLocked(id)
	} else {
		after = st.clearSelectionLocked()
	}
	st.mu.Unlock()
	after()
}

// Wheel zooms about the screen point
func (st *Stage) Wheel(factor, sx, sy float64) {
	st.mu.Lock()
	st.viewport.Zoom(factor, sx, sy)
	v := *st.viewport
	st.mu.Unlock()
	st.eventBus.Publish(Event{Type: EventViewChanged, Payload: v})
}

// ResetView restores the identity transform
func (st *Stage) ResetView() {
	st.mu.Lock()
	st.viewport.Reset()
	v := *st.viewport
	st.mu.Unlock()
	st.eventBus.Publish(Event{Type: EventViewChanged, Payload: v})
}

// SelectNode selects a node by id, clearing any edge selection
func (st *Stage) SelectNode(id string) error {
	st.mu.Lock()
	if st.graph == nil {
		st.mu.Unlock()
		return ErrNoGraph
	}
	if st.graph.Node(id) == nil {
		st.mu.Unlock()
		return fmt.Errorf("select node %s: %w", id, domain.ErrNotFound)
	}
	after := st.selectNodeLocked(id)
	st.mu.Unlock()
	after()
	return nil
}

// SelectEdge selects an edge by id, clearing any node selection
func (st *Stage) SelectEdge(id string) error {
	st.mu.Lock()
	if st.graph == nil {
		st.mu.Unlock()
		return ErrNoGraph
	}
	if st.graph.Edge(id) == nil {
		st.mu.Unlock()
		return fmt.Errorf("select edge %s: %w", id, domain.ErrNotFound)
	}
	after := st.selectEdgeLocked(id)
	st.mu.Unlock()
	after()
	return nil
}

// ClearSelection deselects whatever is selected
func (st *Stage) ClearSelection() {
	st.mu.Lock()
	after := st.clearSelectionLocked()
	st.mu.Unlock()
	after()
}

// selectNodeLocked updates selection state under the lock and returns
// the off-lock tail: callback plus event.
func (st *Stage) selectNodeLocked(id string) func() {
	st.selectedNode, st.selectedEdge = id, ""
	st.scene.SetSelection(id, "")

	cb := st.onNodeSelected
	var cp *domain.Node
	if n := st.graph.Node(id); n != nil {
		c := *n
		cp = &c
	}
	return func() {
		if cb != nil && cp != nil {
			cb(cp)
		}
		st.eventBus.Publish(Event{Type: EventNodeSelected, Payload: map[string]string{"node_id": id}})
	}
}

func (st *Stage) selectEdgeLocked(id string) func() {
	st.selectedNode, st.selectedEdge = "", id
	st.scene.SetSelection("", id)

	cb := st.onEdgeSelected
	var cp *domain.Edge
	if e := st.graph.Edge(id); e != nil {
		c := *e
		cp = &c
	}
	return func() {
		if cb != nil && cp != nil {
			cb(cp)
		}
		st.eventBus.Publish(Event{Type: EventEdgeSelected, Payload: map[string]string{"edge_id": id}})
	}
}

func (st *Stage) clearSelectionLocked() func() {
	changed := st.selectedNode != "" || st.selectedEdge != ""
	st.selectedNode, st.selectedEdge = "", ""
	st.scene.SetSelection("", "")
	if !changed {
		return func() {}
	}
	return func() {
		st.eventBus.Publish(Event{Type: EventSelectionCleared})
	}
}

// Selected reports the current selection; at most one id is non-empty
func (st *Stage) Selected() (nodeID, edgeID string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.selectedNode, st.selectedEdge
}

// Export returns a deep copy of the working graph with its live
// geometry, pins included. Mutating the copy never touches the stage.
func (st *Stage) Export() (*domain.Graph, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.graph == nil {
		return nil, ErrNoGraph
	}
	return st.graph.Clone(), nil
}

// FrameJSON marshals the current drawable state under the lock, so the
// bytes are a consistent snapshot even while the loop is running.
func (st *Stage) FrameJSON() ([]byte, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	f := Frame{Scene: st.scene, Viewport: *st.viewport}
	if st.engine != nil {
		f.Alpha = st.engine.Alpha()
		f.Settled = st.engine.Settled()
	}
	return json.Marshal(f)
}

// Reheat lifts alpha to target and lets it decay again, re-running the
// layout from where it stands. No-op without a running engine.
func (st *Stage) Reheat(target float64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.engine == nil {
		return
	}
	st.engine.Restart(target)
	st.engine.Cool()
	st.settled = false
}

// StopSim permanently stops the simulation; geometry freezes where it
// stands. No-op without an engine.
func (st *Stage) StopSim() {
	st.mu.Lock()
	if st.engine == nil || st.engine.Stopped() {
		st.mu.Unlock()
		return
	}
	st.engine.Stop()
	st.mu.Unlock()
	st.eventBus.Publish(Event{Type: EventSimStopped, Payload: map[string]string{"reason": "requested"}})
}

// Alpha reports the engine's current energy, zero when idle
func (st *Stage) Alpha() float64 {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.engine == nil {
		return 0
	}
	return st.engine.Alpha()
}

// SimStatus is a point-in-time report of the engine
type SimStatus struct {
	Alpha   float64 `json:"alpha"`
	Settled bool    `json:"settled"`
	Ticks   int     `json:"ticks"`
	Running bool    `json:"running"`
}

// SimStatus reports the engine state; the zero value means no graph is
// loaded yet
func (st *Stage) SimStatus() SimStatus {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.engine == nil {
		return SimStatus{}
	}
	return SimStatus{
		Alpha:   st.engine.Alpha(),
		Settled: st.engine.Settled(),
		Ticks:   st.engine.Ticks(),
		Running: !st.engine.Stopped(),
	}
}

// View returns the current viewport transform
func (st *Stage) View() scene.Viewport {
	st.mu.Lock()
	defer st.mu.Unlock()
	return *st.viewport
}
