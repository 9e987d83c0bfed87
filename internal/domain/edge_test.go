package domain

import "testing"

func TestNewEdge(t *testing.T) {
	t.Run("creates edge with generated ID", func(t *testing.T) {
		edge := NewEdge("dog", "mammal", "is_a")

		if edge.Source != "dog" {
			t.Errorf("expected source 'dog', got %s", edge.Source)
		}
		if edge.Target != "mammal" {
			t.Errorf("expected target 'mammal', got %s", edge.Target)
		}
		if edge.Label != "is_a" {
			t.Errorf("expected label 'is_a', got %s", edge.Label)
		}
		if edge.ID == "" {
			t.Error("expected generated ID")
		}
	})
}

func TestEdgeGenerateID(t *testing.T) {
	t.Run("deterministic for same endpoints and label", func(t *testing.T) {
		e1 := NewEdge("a", "b", "relates_to")
		e2 := NewEdge("a", "b", "relates_to")
		if e1.ID != e2.ID {
			t.Errorf("expected identical IDs, got %s and %s", e1.ID, e2.ID)
		}
	})

	t.Run("direction matters", func(t *testing.T) {
		forward := NewEdge("a", "b", "is_a")
		reverse := NewEdge("b", "a", "is_a")
		if forward.ID == reverse.ID {
			t.Error("expected a->b and b->a to have distinct IDs")
		}
	})

	t.Run("label matters", func(t *testing.T) {
		isA := NewEdge("a", "b", "is_a")
		partOf := NewEdge("a", "b", "part_of")
		if isA.ID == partOf.ID {
			t.Error("expected different labels to produce distinct IDs")
		}
	})
}

func TestEdgeEnsureID(t *testing.T) {
	t.Run("fills empty ID", func(t *testing.T) {
		edge := &Edge{Source: "a", Target: "b", Label: "is_a"}
		edge.EnsureID()
		if edge.ID == "" {
			t.Error("expected EnsureID to fill the ID")
		}
	})

	t.Run("preserves supplied ID", func(t *testing.T) {
		edge := &Edge{ID: "e1", Source: "a", Target: "b", Label: "is_a"}
		edge.EnsureID()
		if edge.ID != "e1" {
			t.Errorf("expected ID 'e1' preserved, got %s", edge.ID)
		}
	})
}
