// Package service implements business logic for the Ontolarium application.
//
// This package coordinates between the HTTP handlers and everything the
// diagram is made of: the graph working copy, the force simulation, the
// drawable scene, and persistence.
//
// # Services
//
// Stage owns the live diagram. It serializes ticks, pointer gestures,
// zooming, and selection on one lock, so the whole interactive surface
// behaves like a single-threaded event loop. Graph snapshots go in
// through Replace, which validates, reconciles geometry, swaps the
// engine, and rebuilds the scene under a new epoch.
//
// GraphService manages graph content: generation from prompts, node and
// edge edits, named snapshot persistence, and import/export via codec
// adapters. Every mutation edits a copy and re-stages it whole, so a
// rejected change never leaves a half-edited diagram.
//
// Reconcile merges incoming snapshots with the working copy, carrying
// position and velocity for nodes that survive by id and rebuilding
// edges from scratch.
//
// # Event System
//
// All services publish events via EventBus for real-time updates to
// connected clients via Server-Sent Events (SSE). Event types include
// scene replacement, selection changes, view changes, settling, and
// node/edge edits.
//
// # Design Principles
//
// - The stage lock is the only concurrency control; nothing else races
// - Snapshots are validated whole and rejected whole
// - Event-driven for real-time updates
// - Context-aware for cancellation and timeouts
package service
