package sqlite

import (
	"database/sql"

	"ontolarium/internal/domain"
)

// ============================================================================
// Null Type Conversion Helpers
// ============================================================================

// nullToString safely converts sql.NullString to string
func nullToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// stringToNull safely converts string to sql.NullString
func stringToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// floatToNull converts a coordinate to sql.NullFloat64. Unplaced nodes
// carry NaN in memory; that becomes NULL on disk.
func floatToNull(f float64, placed bool) sql.NullFloat64 {
	if !placed {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: f, Valid: true}
}

// ============================================================================
// Node Row Scanner
// ============================================================================

// nodeRow holds all columns from a node query for scanning
type nodeRow struct {
	ID          string
	Label       string
	Category    string
	Description sql.NullString
	X           sql.NullFloat64
	Y           sql.NullFloat64
}

// scanArgs returns pointers to all fields for sql.Scan()
// MUST match the SELECT column order exactly:
// id, label, category, description, x, y
func (r *nodeRow) scanArgs() []interface{} {
	return []interface{}{
		&r.ID,          // 1
		&r.Label,       // 2
		&r.Category,    // 3
		&r.Description, // 4
		&r.X,           // 5
		&r.Y,           // 6
	}
}

// toDomain converts a scanned row to a domain node. Velocity and pin
// state are not stored, so a loaded node is always at rest and free.
func (r *nodeRow) toDomain() *domain.Node {
	n := domain.NewNode(r.ID, r.Label, domain.Category(r.Category))
	n.Description = nullToString(r.Description)
	if r.X.Valid && r.Y.Valid {
		n.X, n.Y = r.X.Float64, r.Y.Float64
	}
	return n
}

// nodeToRow converts a domain node to its stored form
func nodeToRow(n *domain.Node) nodeRow {
	return nodeRow{
		ID:          n.ID,
		Label:       n.Label,
		Category:    string(n.Category),
		Description: stringToNull(n.Description),
		X:           floatToNull(n.X, n.Placed()),
		Y:           floatToNull(n.Y, n.Placed()),
	}
}

// ============================================================================
// Edge Row Scanner
// ============================================================================

// edgeRow holds all columns from an edge query for scanning
type edgeRow struct {
	ID     string
	Source string
	Target string
	Label  string
}

// scanArgs returns pointers to all fields for sql.Scan()
// MUST match the SELECT column order exactly:
// id, source_id, target_id, label
func (r *edgeRow) scanArgs() []interface{} {
	return []interface{}{
		&r.ID,     // 1
		&r.Source, // 2
		&r.Target, // 3
		&r.Label,  // 4
	}
}

// toDomain converts a scanned row to a domain edge
func (r *edgeRow) toDomain() *domain.Edge {
	return &domain.Edge{
		ID:     r.ID,
		Source: r.Source,
		Target: r.Target,
		Label:  r.Label,
	}
}
