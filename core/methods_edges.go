// SPDX-License-Identifier: MIT
//
// File: methods_edges.go
// Role: Edge lifecycle & queries: AddEdge/RemoveEdge/HasEdge/GetEdge/Edges/EdgeCount.
// Determinism:
//   - Edges() returns edges in AddEdge order.
//   - nextEdgeID() is monotonic ("e" + decimal).
// Concurrency:
//   - Mutations under muEdgeAdj write lock, queries under its read lock.

package core

import (
	"slices"
	"strconv"

	"github.com/cockroachdb/errors"
)

// AddEdge creates the edge from → to, adding missing endpoints, and
// returns its ID.
//
//	from == to without WithLoops        ⇒ ErrLoopNotAllowed
//	existing from → to without multi    ⇒ ErrMultiEdgeNotAllowed
//
// Complexity: O(1) amortized.
func (g *Graph) AddEdge(from, to string, opts ...EdgeOption) (string, error) {
	if from == "" || to == "" {
		return "", ErrEmptyVertexID
	}
	if from == to && !g.allowLoops {
		return "", errors.Wrapf(ErrLoopNotAllowed, "%s", from)
	}
	if err := g.AddVertex(from); err != nil {
		return "", err
	}
	if err := g.AddVertex(to); err != nil {
		return "", err
	}

	g.muEdgeAdj.Lock()
	defer g.muEdgeAdj.Unlock()
	if !g.allowMulti && len(g.adjacency[from][to]) > 0 {
		return "", errors.Wrapf(ErrMultiEdgeNotAllowed, "%s -> %s", from, to)
	}

	e := &Edge{From: from, To: to}
	for _, opt := range opts {
		opt(e)
	}
	e.seq, e.ID = nextEdgeID(g)
	g.edges[e.ID] = e
	if g.adjacency[from][to] == nil {
		g.adjacency[from][to] = make(map[string]struct{})
	}
	g.adjacency[from][to][e.ID] = struct{}{}

	return e.ID, nil
}

// RemoveEdge deletes one edge.
func (g *Graph) RemoveEdge(eid string) error {
	g.muEdgeAdj.Lock()
	defer g.muEdgeAdj.Unlock()
	e, ok := g.edges[eid]
	if !ok {
		return errors.Wrapf(ErrEdgeNotFound, "%s", eid)
	}
	delete(g.edges, eid)
	delete(g.adjacency[e.From][e.To], eid)
	if len(g.adjacency[e.From][e.To]) == 0 {
		delete(g.adjacency[e.From], e.To)
	}

	return nil
}

// HasEdge reports whether at least one edge from → to exists.
func (g *Graph) HasEdge(from, to string) bool {
	g.muEdgeAdj.RLock()
	defer g.muEdgeAdj.RUnlock()

	return len(g.adjacency[from][to]) > 0
}

// GetEdge returns the edge with the given ID.
func (g *Graph) GetEdge(eid string) (*Edge, error) {
	g.muEdgeAdj.RLock()
	defer g.muEdgeAdj.RUnlock()
	e, ok := g.edges[eid]
	if !ok {
		return nil, errors.Wrapf(ErrEdgeNotFound, "%s", eid)
	}

	return e, nil
}

// Edges returns every edge in AddEdge order. Treat the edges as read-only.
// Complexity: O(E log E).
func (g *Graph) Edges() []*Edge {
	g.muEdgeAdj.RLock()
	defer g.muEdgeAdj.RUnlock()
	out := make([]*Edge, 0, len(g.edges))
	for _, e := range g.edges {
		out = append(out, e)
	}
	sortBySeq(out)

	return out
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int {
	g.muEdgeAdj.RLock()
	defer g.muEdgeAdj.RUnlock()

	return len(g.edges)
}

func sortBySeq(edges []*Edge) {
	slices.SortFunc(edges, func(a, b *Edge) int {
		switch {
		case a.seq < b.seq:
			return -1
		case a.seq > b.seq:
			return 1
		default:
			return 0
		}
	})
}

// nextEdgeID reserves the next sequence number. Caller holds muEdgeAdj.
func nextEdgeID(g *Graph) (uint64, string) {
	g.nextEdgeID++
	buf := make([]byte, 0, 1+20)
	buf = append(buf, 'e')
	buf = strconv.AppendUint(buf, g.nextEdgeID, 10)

	return g.nextEdgeID, string(buf)
}
