package repository

import (
	"context"
	"time"

	"ontolarium/internal/domain"
)

// GraphInfo summarizes one stored snapshot
type GraphInfo struct {
	Name      string    `json:"name"`
	Nodes     int       `json:"nodes"`
	Edges     int       `json:"edges"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GraphRepository defines the interface for named graph snapshots.
// Implementations store the durable form only: ids, labels, categories,
// descriptions, and settled positions. Velocity and pin state are
// runtime-only and never reach storage.
type GraphRepository interface {
	// Save stores a snapshot under name, replacing any previous one
	Save(ctx context.Context, name string, g *domain.Graph) error

	// Load returns the snapshot stored under name
	Load(ctx context.Context, name string) (*domain.Graph, error)

	// List enumerates stored snapshots
	List(ctx context.Context) ([]GraphInfo, error)

	// Delete removes a stored snapshot
	Delete(ctx context.Context, name string) error

	// Close releases resources
	Close() error
}
