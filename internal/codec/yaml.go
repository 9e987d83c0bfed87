package codec

import (
	"fmt"
	"io"

	"ontolarium/internal/domain"

	"gopkg.in/yaml.v3"
)

// YAMLCodec handles YAML import/export
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// Parse imports a graph snapshot from YAML
func (c *YAMLCodec) Parse(r io.Reader) (*domain.Graph, error) {
	var doc graphDoc
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return doc.graph()
}

// Export exports a graph snapshot to YAML
func (c *YAMLCodec) Export(g *domain.Graph, w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(toDoc(g)); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return nil
}
