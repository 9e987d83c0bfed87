package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"ontolarium/internal/codec"
	"ontolarium/internal/domain"
	"ontolarium/internal/repository"
)

// Generator produces a graph from a prompt. Generation is opaque to
// the service: it may call external systems and fail for any reason.
type Generator interface {
	Generate(ctx context.Context, prompt string) (*domain.Graph, error)
	Name() string
}

// GraphStore is the persistence surface the service needs
type GraphStore interface {
	Save(ctx context.Context, name string, g *domain.Graph) error
	Load(ctx context.Context, name string) (*domain.Graph, error)
	List(ctx context.Context) ([]repository.GraphInfo, error)
	Delete(ctx context.Context, name string) error
}

// GraphService provides business logic for graph operations. Every
// mutation follows the same path: copy the working graph, edit the
// copy, hand the copy back to the stage as a full snapshot. The stage's
// reconciler validates it and carries live geometry across, so a failed
// edit can never leave a half-changed diagram.
type GraphService struct {
	stage    *Stage
	repo     GraphStore
	gen      Generator
	eventBus *EventBus
}

// NewGraphService creates a new graph service
func NewGraphService(stage *Stage, repo GraphStore, gen Generator, eventBus *EventBus) *GraphService {
	return &GraphService{
		stage:    stage,
		repo:     repo,
		gen:      gen,
		eventBus: eventBus,
	}
}

// workingCopy returns an editable copy of the current graph, or a fresh
// empty graph when nothing is loaded yet
func (s *GraphService) workingCopy() *domain.Graph {
	g, err := s.stage.Export()
	if err != nil {
		return domain.NewGraph()
	}
	return g
}

// Generate asks the generator for a new graph and stages it. The
// current graph stays untouched when generation or validation fails.
func (s *GraphService) Generate(ctx context.Context, prompt string) (*domain.Graph, error) {
	if s.gen == nil {
		return nil, fmt.Errorf("no generator configured")
	}
	g, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	if err := s.stage.Replace(g); err != nil {
		return nil, err
	}

	s.eventBus.Publish(Event{
		Type: EventGraphGenerated,
		Payload: map[string]interface{}{
			"backend": s.gen.Name(),
			"prompt":  prompt,
			"nodes":   len(g.Nodes),
			"edges":   len(g.Edges),
		},
	})
	return s.stage.Export()
}

// NodeUpdate carries the editable node fields; nil means keep
type NodeUpdate struct {
	Label       *string `json:"label,omitempty"`
	Category    *string `json:"category,omitempty"`
	Description *string `json:"description,omitempty"`
}

// AddNode creates a node and stages the grown graph
func (s *GraphService) AddNode(label string, category domain.Category, description string) (*domain.Node, error) {
	if strings.TrimSpace(label) == "" {
		return nil, fmt.Errorf("node label required")
	}

	node := domain.NewNode(uuid.NewString(), strings.TrimSpace(label), category)
	node.Description = description

	g := s.workingCopy()
	if err := g.AddNode(node); err != nil {
		return nil, err
	}
	if err := s.stage.Replace(g); err != nil {
		return nil, err
	}

	s.eventBus.Publish(Event{
		Type:    EventNodeCreated,
		Payload: map[string]string{"node_id": node.ID, "label": node.Label},
	})

	// Hand back the staged record: the engine has placed it by now, so
	// the caller sees real coordinates instead of the unplaced marker.
	staged, err := s.stage.Export()
	if err != nil {
		return nil, err
	}
	return staged.Node(node.ID), nil
}

// UpdateNode edits a node's fields
func (s *GraphService) UpdateNode(id string, update NodeUpdate) (*domain.Node, error) {
	g := s.workingCopy()
	node := g.Node(id)
	if node == nil {
		return nil, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}

	if update.Label != nil {
		if strings.TrimSpace(*update.Label) == "" {
			return nil, fmt.Errorf("node label required")
		}
		node.Label = strings.TrimSpace(*update.Label)
	}
	if update.Category != nil {
		node.Category = domain.Category(*update.Category)
	}
	if update.Description != nil {
		node.Description = *update.Description
	}

	if err := s.stage.Replace(g); err != nil {
		return nil, err
	}

	s.eventBus.Publish(Event{
		Type:    EventNodeUpdated,
		Payload: map[string]string{"node_id": id},
	})
	cp := *node
	return &cp, nil
}

// DeleteNode removes a node and every edge touching it
func (s *GraphService) DeleteNode(id string) error {
	g := s.workingCopy()
	if err := g.RemoveNode(id); err != nil {
		return err
	}
	if err := s.stage.Replace(g); err != nil {
		return err
	}

	s.eventBus.Publish(Event{
		Type:    EventNodeDeleted,
		Payload: map[string]string{"node_id": id},
	})
	return nil
}

// AddEdge creates a labeled edge between two existing nodes. Self
// relations are rejected here rather than at the integrity layer; a
// node pointing at itself is never a useful diagram edge.
func (s *GraphService) AddEdge(source, target, label string) (*domain.Edge, error) {
	if source == target {
		return nil, fmt.Errorf("edge endpoints must differ")
	}

	edge := domain.NewEdge(source, target, label)
	g := s.workingCopy()
	if err := g.AddEdge(edge); err != nil {
		return nil, err
	}
	if err := s.stage.Replace(g); err != nil {
		return nil, err
	}

	s.eventBus.Publish(Event{
		Type:    EventEdgeCreated,
		Payload: map[string]string{"edge_id": edge.ID, "label": edge.Label},
	})
	cp := *edge
	return &cp, nil
}

// DeleteEdge removes an edge. Relabeling an edge is delete and
// recreate; the id is derived from endpoints and label, so an edited
// label would be a different edge anyway.
func (s *GraphService) DeleteEdge(id string) error {
	g := s.workingCopy()
	if err := g.RemoveEdge(id); err != nil {
		return err
	}
	if err := s.stage.Replace(g); err != nil {
		return err
	}

	s.eventBus.Publish(Event{
		Type:    EventEdgeDeleted,
		Payload: map[string]string{"edge_id": id},
	})
	return nil
}

// SaveGraph stores the current graph under name
func (s *GraphService) SaveGraph(ctx context.Context, name string) error {
	g, err := s.stage.Export()
	if err != nil {
		return err
	}
	if err := s.repo.Save(ctx, name, g); err != nil {
		return err
	}

	s.eventBus.Publish(Event{
		Type:    EventGraphSaved,
		Payload: map[string]string{"name": name},
	})
	return nil
}

// LoadGraph stages a stored snapshot. The current graph stays when the
// load or validation fails.
func (s *GraphService) LoadGraph(ctx context.Context, name string) error {
	g, err := s.repo.Load(ctx, name)
	if err != nil {
		return err
	}
	if err := s.stage.Replace(g); err != nil {
		return err
	}

	s.eventBus.Publish(Event{
		Type:    EventGraphLoaded,
		Payload: map[string]string{"name": name},
	})
	return nil
}

// ListGraphs enumerates stored snapshots
func (s *GraphService) ListGraphs(ctx context.Context) ([]repository.GraphInfo, error) {
	return s.repo.List(ctx)
}

// DeleteGraph removes a stored snapshot; the staged graph is unaffected
func (s *GraphService) DeleteGraph(ctx context.Context, name string) error {
	return s.repo.Delete(ctx, name)
}

// Export serializes the current graph with its live geometry
func (s *GraphService) Export(format string) ([]byte, error) {
	exporter := codec.ExporterFor(format)
	if exporter == nil {
		return nil, fmt.Errorf("unknown export format %q", format)
	}
	g, err := s.stage.Export()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := exporter.Export(g, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Import parses a serialized snapshot and stages it
func (s *GraphService) Import(data []byte, format string) error {
	importer := codec.ImporterFor(format)
	if importer == nil {
		return fmt.Errorf("unknown import format %q", format)
	}
	g, err := importer.Parse(bytes.NewReader(data))
	if err != nil {
		return err
	}
	return s.stage.Replace(g)
}
