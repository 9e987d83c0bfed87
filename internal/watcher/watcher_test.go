package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"ontolarium/internal/domain"
)

// stageRecorder collects every snapshot it is handed
type stageRecorder struct {
	mu     sync.Mutex
	graphs []*domain.Graph
	staged chan struct{}
}

func newStageRecorder() *stageRecorder {
	return &stageRecorder{staged: make(chan struct{}, 16)}
}

func (s *stageRecorder) Replace(g *domain.Graph) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.graphs = append(s.graphs, g)
	select {
	case s.staged <- struct{}{}:
	default:
	}
	return nil
}

func (s *stageRecorder) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.graphs)
}

func (s *stageRecorder) last() *domain.Graph {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.graphs) == 0 {
		return nil
	}
	return s.graphs[len(s.graphs)-1]
}

const goodYAML = `nodes:
  - id: animal
    label: Animal
    category: class
  - id: dog
    label: Dog
    category: class
edges:
  - source: dog
    target: animal
    label: is_a
`

func TestLoadStagesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.yaml")
	if err := os.WriteFile(path, []byte(goodYAML), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	stage := newStageRecorder()
	if err := New(path, stage).Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	g := stage.last()
	if g == nil || len(g.Nodes) != 2 || len(g.Edges) != 1 {
		t.Fatalf("staged graph = %+v", g)
	}
	if g.Node("dog") == nil {
		t.Error("staged graph is missing the dog node")
	}
}

func TestLoadRejectsBrokenFile(t *testing.T) {
	dir := t.TempDir()
	stage := newStageRecorder()

	bad := filepath.Join(dir, "graph.yaml")
	dangling := "nodes: []\nedges:\n  - source: a\n    target: b\n    label: x\n"
	if err := os.WriteFile(bad, []byte(dangling), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := New(bad, stage).Load(); err == nil {
		t.Error("expected error for dangling edge")
	}
	if stage.count() != 0 {
		t.Error("broken file reached the stage")
	}

	missing := filepath.Join(dir, "nope.yaml")
	if err := New(missing, stage).Load(); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadUnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.toml")
	if err := os.WriteFile(path, []byte("x = 1"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := New(path, newStageRecorder()).Load(); err == nil {
		t.Error("expected error for unsupported extension")
	}
}

func TestWatchReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.yaml")
	if err := os.WriteFile(path, []byte(goodYAML), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	stage := newStageRecorder()
	w := New(path, stage).WithDebounce(50 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx) }()

	// Give the watcher a moment to attach before touching the file.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte(goodYAML), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	select {
	case <-stage.staged:
	case <-time.After(3 * time.Second):
		t.Fatal("no reload after file write")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not stop on cancel")
	}
}
