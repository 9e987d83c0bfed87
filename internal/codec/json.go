package codec

import (
	"encoding/json"
	"fmt"
	"io"

	"ontolarium/internal/domain"
)

// JSONCodec handles JSON import/export
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return "json"
}

// Parse imports a graph snapshot from JSON
func (c *JSONCodec) Parse(r io.Reader) (*domain.Graph, error) {
	var doc graphDoc
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return doc.graph()
}

// Export exports a graph snapshot to JSON
func (c *JSONCodec) Export(g *domain.Graph, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(toDoc(g)); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}
