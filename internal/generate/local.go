package generate

import (
	"context"
	"errors"
	"strings"

	"ontolarium/internal/domain"
)

// stopwords are skipped when mining prompt keywords
var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "of": true, "and": true,
	"or": true, "to": true, "in": true, "on": true, "for": true,
	"with": true, "about": true, "is": true, "are": true, "how": true,
	"what": true, "graph": true, "ontology": true,
}

// LocalGenerator builds a starter ontology from the prompt text alone:
// a concept node for the topic plus a class node per keyword. Output
// depends only on the prompt, so the backend works offline and behaves
// the same on every run.
type LocalGenerator struct {
	maxKeywords int
}

// NewLocalGenerator creates the offline generator
func NewLocalGenerator() *LocalGenerator {
	return &LocalGenerator{maxKeywords: 8}
}

// Name returns the backend identifier
func (g *LocalGenerator) Name() string {
	return "local"
}

// Generate builds the starter graph
func (g *LocalGenerator) Generate(_ context.Context, prompt string) (*domain.Graph, error) {
	topic := strings.TrimSpace(prompt)
	if topic == "" {
		return nil, errors.New("empty prompt")
	}

	graph := domain.NewGraph()
	root := domain.NewNode("topic", topic, domain.CategoryConcept)
	root.Description = "Topic of this ontology"
	if err := graph.AddNode(root); err != nil {
		return nil, err
	}

	for _, word := range keywords(topic, g.maxKeywords) {
		node := domain.NewNode("kw-"+word, capitalize(word), domain.CategoryClass)
		if err := graph.AddNode(node); err != nil {
			return nil, err
		}
		if err := graph.AddEdge(domain.NewEdge(node.ID, root.ID, "relates_to")); err != nil {
			return nil, err
		}
	}
	return graph, nil
}

// keywords extracts up to max distinct lowercase words worth keeping,
// in prompt order
func keywords(prompt string, max int) []string {
	fields := strings.FieldsFunc(strings.ToLower(prompt), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})

	seen := make(map[string]bool, len(fields))
	words := make([]string, 0, max)
	for _, w := range fields {
		if len(w) < 3 || stopwords[w] || seen[w] {
			continue
		}
		seen[w] = true
		words = append(words, w)
		if len(words) == max {
			break
		}
	}
	return words
}

func capitalize(w string) string {
	if w == "" {
		return w
	}
	return strings.ToUpper(w[:1]) + w[1:]
}
