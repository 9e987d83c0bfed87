// Package generate produces graph snapshots from free-form prompts.
//
// A Generator is opaque to its callers: the local backend mines the
// prompt text itself, the llm backend asks a chat-completion API to
// design an ontology, and the netscan backend treats the prompt as scan
// targets and maps the live network into nodes and edges. Whatever the
// backend, the result goes through the same integrity checks as any
// other snapshot, and a failed generation returns an error with no
// graph so the caller keeps what it had.
package generate

import (
	"context"

	"ontolarium/internal/domain"
)

// Generator produces a graph from a prompt
type Generator interface {
	Generate(ctx context.Context, prompt string) (*domain.Graph, error)
	Name() string
}
