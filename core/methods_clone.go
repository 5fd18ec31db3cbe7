// SPDX-License-Identifier: MIT
//
// File: methods_clone.go
// Role: Copying graph instances.
// Determinism:
//   - CloneEmpty/Clone carry over nextEdgeID and vertex order.

package core

// CloneEmpty returns a Graph with the same options and vertices but no edges.
// Complexity: O(V).
func (g *Graph) CloneEmpty() *Graph {
	g.muVert.RLock()
	defer g.muVert.RUnlock()
	g.muEdgeAdj.RLock()
	defer g.muEdgeAdj.RUnlock()

	c := &Graph{
		allowMulti: g.allowMulti,
		allowLoops: g.allowLoops,
		nextEdgeID: g.nextEdgeID,
		vertices:   make(map[string]*Vertex, len(g.vertices)),
		order:      append([]string(nil), g.order...),
		edges:      make(map[string]*Edge),
		adjacency:  make(map[string]map[string]map[string]struct{}, len(g.vertices)),
	}
	for id, v := range g.vertices {
		md := make(map[string]any, len(v.Metadata))
		for k, x := range v.Metadata {
			md[k] = x
		}
		c.vertices[id] = &Vertex{ID: id, Metadata: md}
		c.adjacency[id] = make(map[string]map[string]struct{})
	}

	return c
}

// Clone returns a copy with vertices, edges and adjacency.
// Complexity: O(V + E).
func (g *Graph) Clone() *Graph {
	c := g.CloneEmpty()
	g.muEdgeAdj.RLock()
	defer g.muEdgeAdj.RUnlock()
	for eid, e := range g.edges {
		ne := *e
		c.edges[eid] = &ne
		if c.adjacency[e.From][e.To] == nil {
			c.adjacency[e.From][e.To] = make(map[string]struct{})
		}
		c.adjacency[e.From][e.To][eid] = struct{}{}
	}

	return c
}
