package codec

import (
	"io"

	"ontolarium/internal/domain"
)

// Importer interface for parsing graph snapshots from serialized forms
type Importer interface {
	Parse(r io.Reader) (*domain.Graph, error)
	Format() string
}

// Exporter interface for writing graph snapshots to serialized forms
type Exporter interface {
	Export(g *domain.Graph, w io.Writer) error
	Format() string
}

// ImporterFor returns the importer for a format name, or nil when the
// format is unknown or export-only
func ImporterFor(format string) Importer {
	switch format {
	case "json", "":
		return NewJSONCodec()
	case "yaml", "yml":
		return NewYAMLCodec()
	}
	return nil
}

// ExporterFor returns the exporter for a format name, or nil when the
// format is unknown
func ExporterFor(format string) Exporter {
	switch format {
	case "json", "":
		return NewJSONCodec()
	case "yaml", "yml":
		return NewYAMLCodec()
	case "markdown", "md":
		return NewMarkdownCodec()
	}
	return nil
}

// graphDoc is the serialized shape of a snapshot. Geometry is reduced
// to bare coordinates: velocity and pin state are runtime mechanics and
// never serialize, and an unplaced node simply has no coordinates.
type graphDoc struct {
	Nodes []nodeDoc `json:"nodes" yaml:"nodes"`
	Edges []edgeDoc `json:"edges" yaml:"edges"`
}

type nodeDoc struct {
	ID          string   `json:"id" yaml:"id"`
	Label       string   `json:"label" yaml:"label"`
	Category    string   `json:"category" yaml:"category"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	X           *float64 `json:"x,omitempty" yaml:"x,omitempty"`
	Y           *float64 `json:"y,omitempty" yaml:"y,omitempty"`
}

type edgeDoc struct {
	ID     string `json:"id,omitempty" yaml:"id,omitempty"`
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
	Label  string `json:"label" yaml:"label"`
}

// toDoc converts a graph to its serialized shape
func toDoc(g *domain.Graph) *graphDoc {
	doc := &graphDoc{
		Nodes: make([]nodeDoc, 0, len(g.Nodes)),
		Edges: make([]edgeDoc, 0, len(g.Edges)),
	}
	for _, n := range g.Nodes {
		dn := nodeDoc{
			ID:          n.ID,
			Label:       n.Label,
			Category:    string(n.Category),
			Description: n.Description,
		}
		if n.Placed() {
			x, y := n.X, n.Y
			dn.X, dn.Y = &x, &y
		}
		doc.Nodes = append(doc.Nodes, dn)
	}
	for _, e := range g.Edges {
		doc.Edges = append(doc.Edges, edgeDoc{ID: e.ID, Source: e.Source, Target: e.Target, Label: e.Label})
	}
	return doc
}

// graph rebuilds a domain graph from the serialized shape, running the
// usual integrity checks. A document with duplicate ids or dangling
// endpoints is rejected whole.
func (d *graphDoc) graph() (*domain.Graph, error) {
	g := domain.NewGraph()
	for _, dn := range d.Nodes {
		n := domain.NewNode(dn.ID, dn.Label, domain.Category(dn.Category))
		n.Description = dn.Description
		if dn.X != nil && dn.Y != nil {
			n.X, n.Y = *dn.X, *dn.Y
		}
		if err := g.AddNode(n); err != nil {
			return nil, err
		}
	}
	for _, de := range d.Edges {
		e := &domain.Edge{ID: de.ID, Source: de.Source, Target: de.Target, Label: de.Label}
		if err := g.AddEdge(e); err != nil {
			return nil, err
		}
	}
	return g, nil
}
