package codec

import (
	"fmt"
	"io"
	"strings"

	"ontolarium/internal/domain"
)

// MarkdownCodec renders a graph as readable text: the node list with
// category and description, then one relation line per edge, both in
// graph order:
//
//	- Animal (class): Living creature
//	- Dog (class)
//
//	Dog --[is_a]--> Animal
//
// Nodes and endpoints are written by label, falling back to the id for
// unlabeled nodes. Export only; the text form is for people and
// prompts, not round-tripping.
type MarkdownCodec struct{}

// NewMarkdownCodec creates a new markdown codec
func NewMarkdownCodec() *MarkdownCodec {
	return &MarkdownCodec{}
}

// Format returns the codec format identifier
func (c *MarkdownCodec) Format() string {
	return "markdown"
}

// Export writes the node and relation lists. Output depends only on
// graph content and order, so identical graphs export identical text.
func (c *MarkdownCodec) Export(g *domain.Graph, w io.Writer) error {
	labels := make(map[string]string, len(g.Nodes))
	for _, n := range g.Nodes {
		label := n.Label
		if label == "" {
			label = n.ID
		}
		labels[n.ID] = label
	}

	var b strings.Builder
	for _, n := range g.Nodes {
		fmt.Fprintf(&b, "- %s (%s)", labels[n.ID], n.Category)
		if n.Description != "" {
			fmt.Fprintf(&b, ": %s", n.Description)
		}
		b.WriteString("\n")
	}
	if len(g.Nodes) > 0 && len(g.Edges) > 0 {
		b.WriteString("\n")
	}
	for _, e := range g.Edges {
		fmt.Fprintf(&b, "%s --[%s]--> %s\n", labels[e.Source], e.Label, labels[e.Target])
	}

	_, err := io.WriteString(w, b.String())
	return err
}
