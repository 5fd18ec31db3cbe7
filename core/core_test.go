// SPDX-License-Identifier: MIT
// Package core_test verifies core.Graph method-level contracts.

package core_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/entclone/core"
)

// TestGraph_Vertices VERIFIES insertion order and idempotent AddVertex.
func TestGraph_Vertices(t *testing.T) {
	g := core.NewGraph()
	require.ErrorIs(t, g.AddVertex(""), core.ErrEmptyVertexID)

	for _, id := range []string{"2", "0", "1", "0"} {
		require.NoError(t, g.AddVertex(id))
	}
	assert.Equal(t, []string{"2", "0", "1"}, g.Vertices())
	assert.Equal(t, 3, g.VertexCount())
	assert.True(t, g.HasVertex("1"))
	assert.False(t, g.HasVertex(""))
	assert.False(t, g.HasVertex("9"))

	v, err := g.Vertex("0")
	require.NoError(t, err)
	assert.NotNil(t, v.Metadata)
	_, err = g.Vertex("9")
	assert.ErrorIs(t, err, core.ErrVertexNotFound)
}

// TestGraph_EdgeConstraints VERIFIES loop and multi-edge policies.
func TestGraph_EdgeConstraints(t *testing.T) {
	g := core.NewGraph()
	_, err := g.AddEdge("a", "a")
	assert.ErrorIs(t, err, core.ErrLoopNotAllowed)
	_, err = g.AddEdge("a", "")
	assert.ErrorIs(t, err, core.ErrEmptyVertexID)

	_, err = g.AddEdge("a", "b")
	require.NoError(t, err)
	_, err = g.AddEdge("a", "b")
	assert.ErrorIs(t, err, core.ErrMultiEdgeNotAllowed)
	// reverse direction is a different edge
	_, err = g.AddEdge("b", "a")
	assert.NoError(t, err)

	m := core.NewGraph(core.WithMultiEdges(), core.WithLoops())
	assert.True(t, m.Multigraph())
	assert.True(t, m.Looped())
	for i := 0; i < 2; i++ {
		_, err = m.AddEdge("a", "a", core.WithLabel("Self"), core.WithPosition(i))
		require.NoError(t, err)
	}
	assert.Equal(t, 2, m.EdgeCount())
	in, out, err := m.Degree("a")
	require.NoError(t, err)
	assert.Equal(t, 2, in)
	assert.Equal(t, 2, out)
}

// TestGraph_EdgeOrder VERIFIES AddEdge order survives past nine edges.
func TestGraph_EdgeOrder(t *testing.T) {
	g := core.NewGraph(core.WithMultiEdges())
	var ids []string
	for i := 0; i < 12; i++ {
		eid, err := g.AddEdge("root", "leaf", core.WithLabel("Items"), core.WithPosition(i))
		require.NoError(t, err)
		ids = append(ids, eid)
	}
	assert.Equal(t, "e1", ids[0])
	assert.Equal(t, "e12", ids[11])

	edges := g.Edges()
	require.Len(t, edges, 12)
	for i, e := range edges {
		assert.Equal(t, ids[i], e.ID)
		assert.Equal(t, i, e.Position)
		assert.Equal(t, "Items", e.Label)
	}

	out, err := g.Neighbors("root")
	require.NoError(t, err)
	assert.Equal(t, edges, out)
	in, err := g.Neighbors("leaf")
	require.NoError(t, err)
	assert.Empty(t, in, "neighbors are outgoing only")

	targets, err := g.NeighborIDs("root")
	require.NoError(t, err)
	assert.Equal(t, []string{"leaf"}, targets)

	_, err = g.Neighbors("nope")
	assert.ErrorIs(t, err, core.ErrVertexNotFound)
	_, err = g.NeighborIDs("")
	assert.ErrorIs(t, err, core.ErrEmptyVertexID)
}

// TestGraph_RemoveAndGetEdge VERIFIES edge lookup and removal.
func TestGraph_RemoveAndGetEdge(t *testing.T) {
	g := core.NewGraph()
	eid, err := g.AddEdge("a", "b", core.WithLabel("Next"))
	require.NoError(t, err)

	e, err := g.GetEdge(eid)
	require.NoError(t, err)
	assert.Equal(t, "Next", e.Label)

	require.NoError(t, g.RemoveEdge(eid))
	assert.False(t, g.HasEdge("a", "b"))
	assert.Zero(t, g.EdgeCount())
	assert.ErrorIs(t, g.RemoveEdge(eid), core.ErrEdgeNotFound)
	_, err = g.GetEdge(eid)
	assert.True(t, errors.Is(err, core.ErrEdgeNotFound))

	// the pair can be linked again
	_, err = g.AddEdge("a", "b")
	assert.NoError(t, err)
}

// TestGraph_Clone VERIFIES copies are independent and keep the edge sequence.
func TestGraph_Clone(t *testing.T) {
	g := core.NewGraph(core.WithLoops())
	_, err := g.AddEdge("a", "b", core.WithLabel("Next"))
	require.NoError(t, err)
	_, err = g.AddEdge("b", "b", core.WithLabel("Self"))
	require.NoError(t, err)
	v, err := g.Vertex("a")
	require.NoError(t, err)
	v.Metadata["kind"] = "root"

	c := g.Clone()
	assert.Equal(t, g.Vertices(), c.Vertices())
	require.Len(t, c.Edges(), 2)
	assert.Equal(t, *g.Edges()[1], *c.Edges()[1])

	eid, err := c.AddEdge("b", "a")
	require.NoError(t, err)
	assert.Equal(t, "e3", eid)
	assert.False(t, g.HasEdge("b", "a"))

	cv, err := c.Vertex("a")
	require.NoError(t, err)
	cv.Metadata["kind"] = "copy"
	assert.Equal(t, "root", v.Metadata["kind"])

	empty := g.CloneEmpty()
	assert.Equal(t, 2, empty.VertexCount())
	assert.Zero(t, empty.EdgeCount())
	assert.True(t, empty.Looped())
}

// TestGraph_Concurrent VERIFIES concurrent writers keep every edge.
func TestGraph_Concurrent(t *testing.T) {
	g := core.NewGraph(core.WithMultiEdges(), core.WithLoops())
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				_, _ = g.AddEdge("hub", "hub")
				_, _ = g.Neighbors("hub")
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 800, g.EdgeCount())
}
