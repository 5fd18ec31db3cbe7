// SPDX-License-Identifier: MIT

// Package core holds the directed multigraph used to describe the topology
// of a cloned entity graph.
//
// Vertices are string IDs (the arena uses one vertex per handle). Each edge
// is one relationship reference between two vertices: Label carries the
// relationship key and Position the index inside a to-many collection.
// Parallel edges appear when an entity references the same target more than
// once; self-loops appear for self-referencing entities. Both are refused
// unless enabled with WithMultiEdges and WithLoops.
//
//	g := core.NewGraph(core.WithMultiEdges(), core.WithLoops())
//	_ = g.AddVertex("0")
//	eid, _ := g.AddEdge("0", "1", core.WithLabel("Children"), core.WithPosition(0))
//	out, _ := g.Neighbors("0")   // outgoing edges in insertion order
//
// Determinism:
//
//	Vertices() follows AddVertex order; Edges() and Neighbors() follow
//	AddEdge order; edge IDs are "e1", "e2", ...
//
// Concurrency:
//
//	muVert guards the vertex catalog, muEdgeAdj guards edges and adjacency.
//	Locks are always taken in that order. All methods are safe for
//	concurrent use.
//
// Errors:
//
//	ErrEmptyVertexID       - vertex ID is the empty string.
//	ErrVertexNotFound      - requested vertex does not exist.
//	ErrEdgeNotFound        - requested edge does not exist.
//	ErrLoopNotAllowed      - self-loop when loops are disabled.
//	ErrMultiEdgeNotAllowed - parallel edge when multi-edges are disabled.
package core
