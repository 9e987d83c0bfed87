package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"ontolarium/internal/domain"
	"ontolarium/internal/repository"
	"ontolarium/internal/scene"
	"ontolarium/internal/service"
	"ontolarium/internal/sim"
)

// memStore is an in-memory GraphStore for handler tests
type memStore struct {
	mu     sync.Mutex
	graphs map[string]*domain.Graph
}

func newMemStore() *memStore {
	return &memStore{graphs: make(map[string]*domain.Graph)}
}

func (s *memStore) Save(ctx context.Context, name string, g *domain.Graph) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.graphs[name] = g.Clone()
	return nil
}

func (s *memStore) Load(ctx context.Context, name string) (*domain.Graph, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.graphs[name]
	if !ok {
		return nil, fmt.Errorf("graph %q: %w", name, domain.ErrNotFound)
	}
	return g.Clone(), nil
}

func (s *memStore) List(ctx context.Context) ([]repository.GraphInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	infos := make([]repository.GraphInfo, 0, len(s.graphs))
	for name, g := range s.graphs {
		infos = append(infos, repository.GraphInfo{Name: name, Nodes: len(g.Nodes), Edges: len(g.Edges)})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

func (s *memStore) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.graphs[name]; !ok {
		return fmt.Errorf("graph %q: %w", name, domain.ErrNotFound)
	}
	delete(s.graphs, name)
	return nil
}

// stubGen returns a canned graph or error
type stubGen struct {
	graph *domain.Graph
	err   error
}

func (g *stubGen) Generate(ctx context.Context, prompt string) (*domain.Graph, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.graph.Clone(), nil
}

func (g *stubGen) Name() string { return "stub" }

type fixture struct {
	h     *StageHandler
	stage *service.Stage
	svc   *service.GraphService
	store *memStore
	gen   *stubGen
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	bus := service.NewEventBus()
	stage := service.NewStage(sim.Options{}, bus)
	store := newMemStore()
	gen := &stubGen{}
	svc := service.NewGraphService(stage, store, gen, bus)
	return &fixture{
		h:     NewStageHandler(stage, svc),
		stage: stage,
		svc:   svc,
		store: store,
		gen:   gen,
	}
}

// seedGraph stages a small placed graph: Animal at (50,60), Dog at
// (-40,10), one is_a edge between them.
func seedGraph(t *testing.T, fix *fixture) {
	t.Helper()
	g := domain.NewGraph()
	a := domain.NewNode("a", "Animal", domain.CategoryClass)
	a.X, a.Y = 50, 60
	b := domain.NewNode("b", "Dog", domain.CategoryClass)
	b.X, b.Y = -40, 10
	for _, n := range []*domain.Node{a, b} {
		if err := g.AddNode(n); err != nil {
			t.Fatalf("AddNode: %v", err)
		}
	}
	if err := g.AddEdge(domain.NewEdge("b", "a", "is_a")); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	if err := fix.stage.Replace(g); err != nil {
		t.Fatalf("Replace: %v", err)
	}
}

// call invokes a handler with an optional JSON body and path values
func call(h http.HandlerFunc, method, target, body string, pathValues map[string]string) *httptest.ResponseRecorder {
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	for k, v := range pathValues {
		r.SetPathValue(k, v)
	}
	w := httptest.NewRecorder()
	h(w, r)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

func TestGetGraphBeforeAnythingLoaded(t *testing.T) {
	fix := newFixture(t)

	w := call(fix.h.GetGraph, http.MethodGet, "/api/graph", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var doc struct {
		Nodes []json.RawMessage `json:"nodes"`
		Edges []json.RawMessage `json:"edges"`
	}
	decode(t, w, &doc)
	if len(doc.Nodes) != 0 || len(doc.Edges) != 0 {
		t.Errorf("empty stage served %d nodes, %d edges", len(doc.Nodes), len(doc.Edges))
	}
}

func TestReplaceGraphAndGetBack(t *testing.T) {
	fix := newFixture(t)

	body := `{"nodes":[{"id":"sun","label":"Sun","category":"instance"},{"id":"star","label":"Star","category":"class"}],"edges":[{"source":"sun","target":"star","label":"is_a"}]}`
	w := call(fix.h.ReplaceGraph, http.MethodPut, "/api/graph", body, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("replace status = %d: %s", w.Code, w.Body.String())
	}

	w = call(fix.h.GetGraph, http.MethodGet, "/api/graph", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var doc struct {
		Nodes []struct {
			ID string   `json:"id"`
			X  *float64 `json:"x"`
			Y  *float64 `json:"y"`
		} `json:"nodes"`
		Edges []struct {
			Source string `json:"source"`
		} `json:"edges"`
	}
	decode(t, w, &doc)
	if len(doc.Nodes) != 2 || len(doc.Edges) != 1 {
		t.Fatalf("got %d nodes, %d edges", len(doc.Nodes), len(doc.Edges))
	}
	for _, n := range doc.Nodes {
		if n.X == nil || n.Y == nil {
			t.Errorf("node %s served without coordinates", n.ID)
		} else if math.IsNaN(*n.X) || math.IsNaN(*n.Y) {
			t.Errorf("node %s served NaN coordinates", n.ID)
		}
	}
}

func TestReplaceGraphRejectsBrokenSnapshot(t *testing.T) {
	fix := newFixture(t)
	seedGraph(t, fix)

	body := `{"nodes":[{"id":"x","label":"X","category":"class"}],"edges":[{"source":"x","target":"ghost","label":"haunts"}]}`
	w := call(fix.h.ReplaceGraph, http.MethodPut, "/api/graph", body, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}

	// The seeded graph must survive the rejected replacement
	g, err := fix.stage.Export()
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if g.Node("a") == nil {
		t.Error("rejected replacement clobbered the current graph")
	}
}

func TestReplaceGraphAcceptsYAML(t *testing.T) {
	fix := newFixture(t)

	body := "nodes:\n  - id: cat\n    label: Cat\n    category: class\nedges: []\n"
	r := httptest.NewRequest(http.MethodPut, "/api/graph", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/x-yaml")
	w := httptest.NewRecorder()
	fix.h.ReplaceGraph(w, r)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	g, err := fix.stage.Export()
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if g.Node("cat") == nil {
		t.Error("YAML snapshot not staged")
	}
}

func TestGenerate(t *testing.T) {
	fix := newFixture(t)
	g := domain.NewGraph()
	if err := g.AddNode(domain.NewNode("cell", "Cell", domain.CategoryConcept)); err != nil {
		t.Fatal(err)
	}
	fix.gen.graph = g

	w := call(fix.h.Generate, http.MethodPost, "/api/graph/generate", `{"prompt":"biology"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"cell"`) {
		t.Errorf("generated graph missing from response: %s", w.Body.String())
	}
}

func TestGenerateFailures(t *testing.T) {
	t.Run("empty prompt", func(t *testing.T) {
		fix := newFixture(t)
		w := call(fix.h.Generate, http.MethodPost, "/api/graph/generate", `{"prompt":"  "}`, nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("backend down", func(t *testing.T) {
		fix := newFixture(t)
		fix.gen.err = fmt.Errorf("model unreachable")
		w := call(fix.h.Generate, http.MethodPost, "/api/graph/generate", `{"prompt":"animals"}`, nil)
		if w.Code != http.StatusBadGateway {
			t.Errorf("status = %d, want 502", w.Code)
		}
	})

	t.Run("unusable result", func(t *testing.T) {
		fix := newFixture(t)
		g := domain.NewGraph()
		if err := g.AddNode(domain.NewNode("x", "X", domain.CategoryClass)); err != nil {
			t.Fatal(err)
		}
		g.Edges = append(g.Edges, domain.NewEdge("x", "ghost", "haunts"))
		fix.gen.graph = g

		w := call(fix.h.Generate, http.MethodPost, "/api/graph/generate", `{"prompt":"animals"}`, nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400: %s", w.Code, w.Body.String())
		}
	})
}

func TestCreateNode(t *testing.T) {
	fix := newFixture(t)

	w := call(fix.h.CreateNode, http.MethodPost, "/api/nodes", `{"label":"Dog","category":"class","description":"best friend"}`, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var node domain.Node
	decode(t, w, &node)
	if node.ID == "" || node.Label != "Dog" {
		t.Errorf("node = %+v", node)
	}
	if math.IsNaN(node.X) || math.IsNaN(node.Y) {
		t.Error("created node served without placement")
	}

	w = call(fix.h.CreateNode, http.MethodPost, "/api/nodes", `{"label":"  "}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("blank label status = %d, want 400", w.Code)
	}
}

func TestUpdateNode(t *testing.T) {
	fix := newFixture(t)
	seedGraph(t, fix)

	w := call(fix.h.UpdateNode, http.MethodPatch, "/api/nodes/a", `{"label":"Beast"}`, map[string]string{"id": "a"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var node domain.Node
	decode(t, w, &node)
	if node.Label != "Beast" {
		t.Errorf("label = %q, want Beast", node.Label)
	}

	w = call(fix.h.UpdateNode, http.MethodPatch, "/api/nodes/nope", `{"label":"X"}`, map[string]string{"id": "nope"})
	if w.Code != http.StatusNotFound {
		t.Errorf("missing node status = %d, want 404", w.Code)
	}
}

func TestDeleteNode(t *testing.T) {
	fix := newFixture(t)
	seedGraph(t, fix)

	w := call(fix.h.DeleteNode, http.MethodDelete, "/api/nodes/a", "", map[string]string{"id": "a"})
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	g, err := fix.stage.Export()
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(g.Nodes) != 1 || len(g.Edges) != 0 {
		t.Errorf("after delete: %d nodes, %d edges", len(g.Nodes), len(g.Edges))
	}

	w = call(fix.h.DeleteNode, http.MethodDelete, "/api/nodes/a", "", map[string]string{"id": "a"})
	if w.Code != http.StatusNotFound {
		t.Errorf("double delete status = %d, want 404", w.Code)
	}
}

func TestCreateEdge(t *testing.T) {
	fix := newFixture(t)
	seedGraph(t, fix)

	w := call(fix.h.CreateEdge, http.MethodPost, "/api/edges", `{"source":"a","target":"b","label":"feeds"}`, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var edge domain.Edge
	decode(t, w, &edge)
	if edge.ID == "" || edge.Label != "feeds" {
		t.Errorf("edge = %+v", edge)
	}

	t.Run("duplicate", func(t *testing.T) {
		w := call(fix.h.CreateEdge, http.MethodPost, "/api/edges", `{"source":"b","target":"a","label":"is_a"}`, nil)
		if w.Code != http.StatusConflict {
			t.Errorf("status = %d, want 409: %s", w.Code, w.Body.String())
		}
	})

	t.Run("dangling", func(t *testing.T) {
		w := call(fix.h.CreateEdge, http.MethodPost, "/api/edges", `{"source":"a","target":"ghost","label":"haunts"}`, nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("self loop", func(t *testing.T) {
		w := call(fix.h.CreateEdge, http.MethodPost, "/api/edges", `{"source":"a","target":"a","label":"self"}`, nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})
}

func TestDeleteEdge(t *testing.T) {
	fix := newFixture(t)
	seedGraph(t, fix)

	g, err := fix.stage.Export()
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	id := g.Edges[0].ID

	w := call(fix.h.DeleteEdge, http.MethodDelete, "/api/edges/"+id, "", map[string]string{"id": id})
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	w = call(fix.h.DeleteEdge, http.MethodDelete, "/api/edges/"+id, "", map[string]string{"id": id})
	if w.Code != http.StatusNotFound {
		t.Errorf("double delete status = %d, want 404", w.Code)
	}
}

func TestPointerGestureFlow(t *testing.T) {
	fix := newFixture(t)
	seedGraph(t, fix)

	// Pan on empty canvas: press far from any node, then drag
	w := call(fix.h.PointerDown, http.MethodPost, "/api/pointer/down", `{"x":500,"y":500}`, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("down status = %d", w.Code)
	}
	w = call(fix.h.PointerMove, http.MethodPost, "/api/pointer/move", `{"x":560,"y":470}`, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("move status = %d", w.Code)
	}
	w = call(fix.h.PointerUp, http.MethodPost, "/api/pointer/up", `{"x":560,"y":470}`, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("up status = %d", w.Code)
	}

	view := fix.stage.View()
	if view.TX != 60 || view.TY != -30 {
		t.Errorf("pan transform = (%v, %v), want (60, -30)", view.TX, view.TY)
	}
}

func TestWheelAndView(t *testing.T) {
	fix := newFixture(t)
	seedGraph(t, fix)

	w := call(fix.h.Wheel, http.MethodPost, "/api/pointer/wheel", `{"factor":2,"x":0,"y":0}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("wheel status = %d: %s", w.Code, w.Body.String())
	}
	var view scene.Viewport
	decode(t, w, &view)
	if view.Scale != 2 {
		t.Errorf("scale = %v, want 2", view.Scale)
	}

	w = call(fix.h.Wheel, http.MethodPost, "/api/pointer/wheel", `{"factor":0,"x":0,"y":0}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("zero factor status = %d, want 400", w.Code)
	}

	w = call(fix.h.ResetView, http.MethodPost, "/api/view/reset", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("reset status = %d", w.Code)
	}
	decode(t, w, &view)
	if view.Scale != 1 || view.TX != 0 || view.TY != 0 {
		t.Errorf("after reset: %+v, want identity", view)
	}

	w = call(fix.h.GetView, http.MethodGet, "/api/view", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get view status = %d", w.Code)
	}
}

func TestSelectionEndpoints(t *testing.T) {
	fix := newFixture(t)
	seedGraph(t, fix)

	w := call(fix.h.SetSelection, http.MethodPut, "/api/selection", `{"node_id":"a"}`, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("select status = %d: %s", w.Code, w.Body.String())
	}

	w = call(fix.h.GetSelection, http.MethodGet, "/api/selection", "", nil)
	var sel SelectionResponse
	decode(t, w, &sel)
	if sel.NodeID != "a" || sel.EdgeID != "" {
		t.Errorf("selection = %+v, want node a", sel)
	}

	t.Run("both ids rejected", func(t *testing.T) {
		w := call(fix.h.SetSelection, http.MethodPut, "/api/selection", `{"node_id":"a","edge_id":"e"}`, nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("neither id rejected", func(t *testing.T) {
		w := call(fix.h.SetSelection, http.MethodPut, "/api/selection", `{}`, nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("unknown node", func(t *testing.T) {
		w := call(fix.h.SetSelection, http.MethodPut, "/api/selection", `{"node_id":"nope"}`, nil)
		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", w.Code)
		}
	})

	w = call(fix.h.ClearSelection, http.MethodDelete, "/api/selection", "", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("clear status = %d", w.Code)
	}
	w = call(fix.h.GetSelection, http.MethodGet, "/api/selection", "", nil)
	decode(t, w, &sel)
	if sel.NodeID != "" || sel.EdgeID != "" {
		t.Errorf("selection after clear = %+v", sel)
	}
}

func TestSimEndpoints(t *testing.T) {
	fix := newFixture(t)
	seedGraph(t, fix)

	w := call(fix.h.GetSim, http.MethodGet, "/api/sim", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var status service.SimStatus
	decode(t, w, &status)
	if !status.Running {
		t.Error("fresh engine reported as stopped")
	}

	w = call(fix.h.RestartSim, http.MethodPost, "/api/sim/restart", `{"alpha":0.5}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("restart status = %d: %s", w.Code, w.Body.String())
	}
	decode(t, w, &status)
	if status.Alpha < 0.5 {
		t.Errorf("alpha after restart = %v, want >= 0.5", status.Alpha)
	}

	t.Run("alpha out of range", func(t *testing.T) {
		w := call(fix.h.RestartSim, http.MethodPost, "/api/sim/restart", `{"alpha":1.5}`, nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("default alpha", func(t *testing.T) {
		w := call(fix.h.RestartSim, http.MethodPost, "/api/sim/restart", "", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", w.Code, w.Body.String())
		}
		var s service.SimStatus
		decode(t, w, &s)
		if s.Alpha < 1.0 {
			t.Errorf("alpha = %v, want full reheat", s.Alpha)
		}
	})

	w = call(fix.h.StopSim, http.MethodPost, "/api/sim/stop", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("stop status = %d", w.Code)
	}
	decode(t, w, &status)
	if status.Running {
		t.Error("engine still running after stop")
	}
}

func TestExportEndpoint(t *testing.T) {
	fix := newFixture(t)
	seedGraph(t, fix)

	cases := []struct {
		format      string
		contentType string
		want        string
	}{
		{"json", "application/json", `"nodes"`},
		{"yaml", "application/x-yaml", "nodes:"},
		{"markdown", "text/markdown", "--[is_a]-->"},
	}
	for _, tc := range cases {
		t.Run(tc.format, func(t *testing.T) {
			w := call(fix.h.ExportGraph, http.MethodGet, "/api/export?format="+tc.format, "", nil)
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d: %s", w.Code, w.Body.String())
			}
			if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, tc.contentType) {
				t.Errorf("content type = %q, want %q", ct, tc.contentType)
			}
			if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
				t.Errorf("content disposition = %q", cd)
			}
			if !strings.Contains(w.Body.String(), tc.want) {
				t.Errorf("body missing %q:\n%s", tc.want, w.Body.String())
			}
		})
	}

	t.Run("unknown format", func(t *testing.T) {
		w := call(fix.h.ExportGraph, http.MethodGet, "/api/export?format=docx", "", nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("no graph", func(t *testing.T) {
		empty := newFixture(t)
		w := call(empty.h.ExportGraph, http.MethodGet, "/api/export", "", nil)
		if w.Code != http.StatusConflict {
			t.Errorf("status = %d, want 409", w.Code)
		}
	})
}

func TestSnapshotLifecycle(t *testing.T) {
	fix := newFixture(t)
	seedGraph(t, fix)

	w := call(fix.h.SaveGraph, http.MethodPut, "/api/graphs/zoo", "", map[string]string{"name": "zoo"})
	if w.Code != http.StatusNoContent {
		t.Fatalf("save status = %d: %s", w.Code, w.Body.String())
	}

	w = call(fix.h.ListGraphs, http.MethodGet, "/api/graphs", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var infos []repository.GraphInfo
	decode(t, w, &infos)
	if len(infos) != 1 || infos[0].Name != "zoo" || infos[0].Nodes != 2 {
		t.Errorf("infos = %+v", infos)
	}

	// Replace the stage, then load the snapshot back
	solo := domain.NewGraph()
	if err := solo.AddNode(domain.NewNode("z", "Z", domain.CategoryClass)); err != nil {
		t.Fatal(err)
	}
	if err := fix.stage.Replace(solo); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	w = call(fix.h.LoadGraph, http.MethodPost, "/api/graphs/zoo/load", "", map[string]string{"name": "zoo"})
	if w.Code != http.StatusOK {
		t.Fatalf("load status = %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"a"`) {
		t.Errorf("loaded graph missing node a: %s", w.Body.String())
	}

	w = call(fix.h.DeleteGraph, http.MethodDelete, "/api/graphs/zoo", "", map[string]string{"name": "zoo"})
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", w.Code)
	}

	t.Run("load missing", func(t *testing.T) {
		w := call(fix.h.LoadGraph, http.MethodPost, "/api/graphs/zoo/load", "", map[string]string{"name": "zoo"})
		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", w.Code)
		}
	})

	t.Run("save with empty stage", func(t *testing.T) {
		empty := newFixture(t)
		w := call(empty.h.SaveGraph, http.MethodPut, "/api/graphs/void", "", map[string]string{"name": "void"})
		if w.Code != http.StatusConflict {
			t.Errorf("status = %d, want 409", w.Code)
		}
	})

	t.Run("empty list is a list", func(t *testing.T) {
		empty := newFixture(t)
		w := call(empty.h.ListGraphs, http.MethodGet, "/api/graphs", "", nil)
		if body := strings.TrimSpace(w.Body.String()); body != "[]" {
			t.Errorf("empty list body = %q, want []", body)
		}
	})
}

func TestChainOrderAndRecover(t *testing.T) {
	panicky := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	h := Chain(panicky, Recover, Logger)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	var reached bool
	h := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/nodes", nil))
	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", w.Code)
	}
	if reached {
		t.Error("preflight reached the inner handler")
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS headers")
	}
}

func TestLoggerPreservesFlusher(t *testing.T) {
	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := w.(http.Flusher); !ok {
			t.Error("logger wrapper hides http.Flusher")
		}
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/events", nil))
}
