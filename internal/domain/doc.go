// Package domain defines the core domain types for the Ontolarium
// ontology visualization system.
//
// This package contains the fundamental entities that represent an
// ontology diagram: nodes, edges, and graph snapshots, including the
// mutable geometry the force simulation works on.
//
// # Core Types
//
// Node represents an ontology entity with a closed category set (class,
// instance, concept, literal), an optional description, and geometry:
// position, velocity, and an optional pin that fixes the node in place.
//
// Edge represents a directed, labeled relationship between two nodes.
// Endpoints are always plain node id strings in this package; the
// pointer-resolved form used during rendering belongs to the scene
// package and never appears in serialized output.
//
// Graph is an ordered snapshot of nodes and edges. Snapshots entering
// the layout core are immutable; the core clones them and owns the
// clone's geometry.
//
// # Integrity Rules
//
// Validate enforces the rules every snapshot must satisfy before it is
// simulated: unique non-empty ids and edge endpoints that reference
// existing nodes. Violations reject the whole graph rather than
// partially rendering it. RemoveNode cascades to incident edges so a
// well-behaved mutation never produces a dangling endpoint in the first
// place.
//
// # Design Principles
//
// - No database or external dependencies
// - Pure domain logic without infrastructure concerns
// - Geometry is data: the simulation engine and the drag handler are
//   its only writers
package domain
