package sqlite

import (
	"context"
	"errors"
	"testing"

	"ontolarium/internal/domain"
)

// ============================================================================
// Test Helpers
// ============================================================================

// newTestRepo creates an in-memory SQLite repository for testing
func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test repository: %v", err)
	}
	t.Cleanup(func() {
		repo.Close()
	})
	return repo
}

// testGraph builds a small ontology with live layout state
func testGraph(t *testing.T) *domain.Graph {
	t.Helper()
	g := domain.NewGraph()

	animal := domain.NewNode("animal", "Animal", domain.CategoryClass)
	animal.Description = "Living creature"
	animal.X, animal.Y = 10, 20
	animal.VX, animal.VY = 0.5, -0.5

	dog := domain.NewNode("dog", "Dog", domain.CategoryClass)
	dog.X, dog.Y = 110, 20
	dog.Pin(110, 20)

	rex := domain.NewNode("rex", "Rex", domain.CategoryInstance)

	for _, n := range []*domain.Node{animal, dog, rex} {
		if err := g.AddNode(n); err != nil {
			t.Fatalf("AddNode(%s): %v", n.ID, err)
		}
	}
	for _, e := range []*domain.Edge{
		domain.NewEdge("dog", "animal", "is_a"),
		domain.NewEdge("rex", "dog", "instance_of"),
	} {
		if err := g.AddEdge(e); err != nil {
			t.Fatalf("AddEdge(%s): %v", e.Label, err)
		}
	}
	return g
}

// ============================================================================
// Save / Load
// ============================================================================

func TestSaveLoadRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	g := testGraph(t)

	if err := repo.Save(ctx, "zoo", g); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := repo.Load(ctx, "zoo")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(loaded.Nodes) != 3 || len(loaded.Edges) != 2 {
		t.Fatalf("loaded %d nodes, %d edges; want 3, 2", len(loaded.Nodes), len(loaded.Edges))
	}

	// Order survives the round trip.
	for i, want := range []string{"animal", "dog", "rex"} {
		if loaded.Nodes[i].ID != want {
			t.Errorf("node[%d] = %s, want %s", i, loaded.Nodes[i].ID, want)
		}
	}
	for i, want := range []string{"is_a", "instance_of"} {
		if loaded.Edges[i].Label != want {
			t.Errorf("edge[%d] = %s, want %s", i, loaded.Edges[i].Label, want)
		}
	}

	animal := loaded.Node("animal")
	if animal.Label != "Animal" || animal.Category != domain.CategoryClass {
		t.Errorf("animal = %q/%q, want Animal/class", animal.Label, animal.Category)
	}
	if animal.Description != "Living creature" {
		t.Errorf("description = %q, not restored", animal.Description)
	}
	if animal.X != 10 || animal.Y != 20 {
		t.Errorf("position = (%v,%v), want (10,20)", animal.X, animal.Y)
	}

	// Velocity and pins are runtime state and must not come back.
	if animal.VX != 0 || animal.VY != 0 {
		t.Errorf("velocity = (%v,%v), want zero after load", animal.VX, animal.VY)
	}
	if dog := loaded.Node("dog"); dog.Pinned {
		t.Error("pin state survived storage; loaded nodes must arrive free")
	}
}

func TestSaveKeepsUnplacedNodesUnplaced(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	g := domain.NewGraph()
	if err := g.AddNode(domain.NewNode("ghost", "Ghost", domain.CategoryConcept)); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	if err := repo.Save(ctx, "sparse", g); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := repo.Load(ctx, "sparse")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Node("ghost").Placed() {
		t.Error("unplaced node came back with coordinates")
	}
}

func TestSaveReplacesPreviousSnapshot(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Save(ctx, "zoo", testGraph(t)); err != nil {
		t.Fatalf("first Save: %v", err)
	}

	small := domain.NewGraph()
	if err := small.AddNode(domain.NewNode("cat", "Cat", domain.CategoryClass)); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	if err := repo.Save(ctx, "zoo", small); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	loaded, err := repo.Load(ctx, "zoo")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Nodes) != 1 || len(loaded.Edges) != 0 {
		t.Errorf("loaded %d nodes, %d edges; want the replacement snapshot only", len(loaded.Nodes), len(loaded.Edges))
	}
}

func TestSaveRejectsInvalidGraph(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Save(ctx, "zoo", testGraph(t)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Corrupt a copy by hand: an edge to a node that is not there.
	bad := testGraph(t)
	bad.Edges = append(bad.Edges, &domain.Edge{ID: "bad", Source: "rex", Target: "unicorn", Label: "chases"})

	err := repo.Save(ctx, "zoo", bad)
	if !errors.Is(err, domain.ErrDanglingEdge) {
		t.Fatalf("Save(invalid) = %v, want ErrDanglingEdge", err)
	}

	// The stored snapshot is untouched.
	loaded, err := repo.Load(ctx, "zoo")
	if err != nil {
		t.Fatalf("Load after failed save: %v", err)
	}
	if len(loaded.Edges) != 2 {
		t.Errorf("stored snapshot has %d edges after rejected save, want 2", len(loaded.Edges))
	}
}

func TestLoadMissingGraph(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.Load(context.Background(), "nope")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Load(missing) = %v, want ErrNotFound", err)
	}
}

func TestSaveRequiresName(t *testing.T) {
	repo := newTestRepo(t)

	if err := repo.Save(context.Background(), "", testGraph(t)); err == nil {
		t.Fatal("Save with empty name succeeded")
	}
}

// ============================================================================
// List / Delete
// ============================================================================

func TestListAndDelete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Save(ctx, "zoo", testGraph(t)); err != nil {
		t.Fatalf("Save zoo: %v", err)
	}
	empty := domain.NewGraph()
	if err := repo.Save(ctx, "blank", empty); err != nil {
		t.Fatalf("Save blank: %v", err)
	}

	infos, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("List returned %d entries, want 2", len(infos))
	}
	if infos[0].Name != "blank" || infos[1].Name != "zoo" {
		t.Errorf("List order = %s, %s; want name order", infos[0].Name, infos[1].Name)
	}
	if infos[1].Nodes != 3 || infos[1].Edges != 2 {
		t.Errorf("zoo counts = %d/%d, want 3/2", infos[1].Nodes, infos[1].Edges)
	}
	if infos[1].UpdatedAt.IsZero() {
		t.Error("zoo has zero updated_at")
	}

	if err := repo.Delete(ctx, "zoo"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	infos, err = repo.List(ctx)
	if err != nil {
		t.Fatalf("List after delete: %v", err)
	}
	if len(infos) != 1 || infos[0].Name != "blank" {
		t.Errorf("List after delete = %v, want blank only", infos)
	}

	if err := repo.Delete(ctx, "zoo"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Delete(missing) = %v, want ErrNotFound", err)
	}
}
