package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"ontolarium/internal/domain"
	"ontolarium/internal/repository"

	_ "modernc.org/sqlite"
)

// Repository implements repository.GraphRepository using SQLite
type Repository struct {
	db *sql.DB
}

// New creates a new SQLite repository
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// The driver serializes writes anyway; one connection avoids
	// SQLITE_BUSY on concurrent saves.
	db.SetMaxOpenConns(1)

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS graphs (
		name TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS nodes (
		graph_name TEXT NOT NULL,
		ord INTEGER NOT NULL,
		id TEXT NOT NULL,
		label TEXT NOT NULL,
		category TEXT NOT NULL,
		description TEXT,
		x REAL,
		y REAL,
		PRIMARY KEY (graph_name, id),
		FOREIGN KEY (graph_name) REFERENCES graphs(name) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS edges (
		graph_name TEXT NOT NULL,
		ord INTEGER NOT NULL,
		id TEXT NOT NULL,
		source_id TEXT NOT NULL,
		target_id TEXT NOT NULL,
		label TEXT NOT NULL,
		PRIMARY KEY (graph_name, id),
		FOREIGN KEY (graph_name) REFERENCES graphs(name) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_nodes_graph ON nodes(graph_name, ord);
	CREATE INDEX IF NOT EXISTS idx_edges_graph ON edges(graph_name, ord);
	`
	_, err := r.db.Exec(schema)
	return err
}

// Close releases the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}

// Save stores a snapshot under name, replacing any previous one. The
// whole write is one transaction; a failed save leaves the previous
// snapshot intact. Row order preserves graph order so a reloaded graph
// round-trips deterministically.
func (r *Repository) Save(ctx context.Context, name string, g *domain.Graph) error {
	if name == "" {
		return fmt.Errorf("graph name required")
	}
	if g == nil {
		return fmt.Errorf("nil graph")
	}
	if err := g.Validate(); err != nil {
		return fmt.Errorf("save graph %q: %w", name, err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO graphs (name) VALUES (?)
		ON CONFLICT(name) DO UPDATE SET updated_at = CURRENT_TIMESTAMP`, name); err != nil {
		return fmt.Errorf("upsert graph %q: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM nodes WHERE graph_name = ?`, name); err != nil {
		return fmt.Errorf("clear nodes: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM edges WHERE graph_name = ?`, name); err != nil {
		return fmt.Errorf("clear edges: %w", err)
	}

	for i, n := range g.Nodes {
		row := nodeToRow(n)
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO nodes (graph_name, ord, id, label, category, description, x, y)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			name, i, row.ID, row.Label, row.Category, row.Description, row.X, row.Y); err != nil {
			return fmt.Errorf("insert node %s: %w", n.ID, err)
		}
	}
	for i, e := range g.Edges {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO edges (graph_name, ord, id, source_id, target_id, label)
			VALUES (?, ?, ?, ?, ?, ?)`,
			name, i, e.ID, e.Source, e.Target, e.Label); err != nil {
			return fmt.Errorf("insert edge %s: %w", e.ID, err)
		}
	}

	return tx.Commit()
}

// Load returns the snapshot stored under name. The graph is rebuilt
// through the same integrity checks as any other snapshot source, so a
// corrupted row set is rejected whole.
func (r *Repository) Load(ctx context.Context, name string) (*domain.Graph, error) {
	var exists int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM graphs WHERE name = ?`, name).Scan(&exists)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("graph %q: %w", name, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup graph %q: %w", name, err)
	}

	g := domain.NewGraph()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, label, category, description, x, y
		FROM nodes WHERE graph_name = ? ORDER BY ord`, name)
	if err != nil {
		return nil, fmt.Errorf("query nodes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var row nodeRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		if err := g.AddNode(row.toDomain()); err != nil {
			return nil, fmt.Errorf("load graph %q: %w", name, err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nodes: %w", err)
	}

	edgeRows, err := r.db.QueryContext(ctx, `
		SELECT id, source_id, target_id, label
		FROM edges WHERE graph_name = ? ORDER BY ord`, name)
	if err != nil {
		return nil, fmt.Errorf("query edges: %w", err)
	}
	defer edgeRows.Close()
	for edgeRows.Next() {
		var row edgeRow
		if err := edgeRows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		if err := g.AddEdge(row.toDomain()); err != nil {
			return nil, fmt.Errorf("load graph %q: %w", name, err)
		}
	}
	if err := edgeRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate edges: %w", err)
	}

	return g, nil
}

// List enumerates stored snapshots ordered by name
func (r *Repository) List(ctx context.Context) ([]repository.GraphInfo, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT g.name, g.updated_at,
			(SELECT COUNT(*) FROM nodes n WHERE n.graph_name = g.name),
			(SELECT COUNT(*) FROM edges e WHERE e.graph_name = g.name)
		FROM graphs g ORDER BY g.name`)
	if err != nil {
		return nil, fmt.Errorf("query graphs: %w", err)
	}
	defer rows.Close()

	infos := make([]repository.GraphInfo, 0)
	for rows.Next() {
		var info repository.GraphInfo
		if err := rows.Scan(&info.Name, &info.UpdatedAt, &info.Nodes, &info.Edges); err != nil {
			return nil, fmt.Errorf("scan graph info: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// Delete removes a stored snapshot
func (r *Repository) Delete(ctx context.Context, name string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM nodes WHERE graph_name = ?`, name); err != nil {
		return fmt.Errorf("delete nodes: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM edges WHERE graph_name = ?`, name); err != nil {
		return fmt.Errorf("delete edges: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM graphs WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete graph %q: %w", name, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete graph %q: %w", name, err)
	}
	if affected == 0 {
		return fmt.Errorf("graph %q: %w", name, domain.ErrNotFound)
	}

	return tx.Commit()
}
