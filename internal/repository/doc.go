// Package repository defines the data access interfaces for Ontolarium.
//
// This package provides the repository abstraction for saving and
// loading named graph snapshots. The actual implementation is in the
// sqlite subpackage.
//
// # Persisted Form
//
// A stored snapshot keeps what survives a restart: node identity,
// labels, categories, descriptions, and last-known positions. Velocity
// and pin state are ephemeral layout mechanics and are dropped on save,
// so a loaded graph resumes from its shape without anything arriving
// pinned or already moving.
//
// # SQLite Implementation
//
// The sqlite implementation stores snapshots in three tables (graphs,
// nodes, edges) using WAL mode. Saves are transactional whole-snapshot
// replacements; loads rebuild and validate the graph, so a corrupted
// row set is rejected instead of half-loaded.
//
// # Testing
//
// The sqlite repository is tested with in-memory databases to cover
// round trips, replacement saves, and missing-name errors.
package repository
