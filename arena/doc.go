// SPDX-License-Identifier: MIT

// Package arena stores the originals discovered during a graph clone, the
// clone made for each of them, and the relationship edges rewired between
// clones.
//
// Every original receives a stable integer Handle at first sighting, in
// insertion order. The mapping original→clone is kept by handle, so the
// arena never relies on anything but pointer identity to recognize an
// original a second time. Rewired edges are kept in a core.Graph with one
// vertex per handle, so the clone topology can be walked like any graph.
//
//	a := arena.New(0)
//	h, fresh, err := a.Add(orig)     // fresh=false if orig was seen before
//	_ = a.SetClone(h, clone)
//	c, ok := a.CloneOf(orig)
//	_ = a.Link(h, other, "Children", 0) // edge between clones, by handle
//	g := a.Graph()                         // core.Graph, vertex IDs from VertexID
//
// Determinism:
//
//	Handles(), Originals(), Clones() and Edges() all follow insertion order.
//
// Concurrency:
//
//	An Arena is scoped to a single clone operation and is not safe for
//	concurrent mutation.
//
// Errors:
//
//	ErrNilEntity    - nil interface or nil pointer passed to Add/Lookup.
//	ErrNotPointer   - entity is not a pointer; identity would be ambiguous.
//	ErrBadHandle    - handle outside [0, Len()).
//	ErrCloneMissing - SetClone was never called for the handle.
package arena
