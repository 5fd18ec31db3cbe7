// SPDX-License-Identifier: MIT
//
// File: arena.go
// Role: Registration of originals, clone storage and edge bookkeeping.
// Determinism:
//   - Handles are assigned 0,1,2,... in Add order; every listing follows it.
//   - Edges follow Link order.
// Complexity:
//   - Add/Lookup/CloneOf O(1) amortized; Link O(1) amortized; Edges O(E log E).

package arena

import (
	"reflect"
	"strconv"

	"github.com/cockroachdb/errors"

	"github.com/katalvlaran/entclone/core"
)

// Add registers original and returns its handle. fresh is false when
// original was already present; the existing handle is returned.
func (a *Arena) Add(original any) (h Handle, fresh bool, err error) {
	if err = checkEntity(original); err != nil {
		return 0, false, err
	}
	if h, ok := a.index[original]; ok {
		return h, false, nil
	}
	h = Handle(len(a.originals))
	a.originals = append(a.originals, original)
	a.clones = append(a.clones, nil)
	a.index[original] = h
	if err = a.graph.AddVertex(VertexID(h)); err != nil {
		return 0, false, err
	}

	return h, true, nil
}

// Lookup returns the handle of original, if registered.
func (a *Arena) Lookup(original any) (Handle, bool) {
	if checkEntity(original) != nil {
		return 0, false
	}
	h, ok := a.index[original]

	return h, ok
}

// Has reports whether original is registered.
func (a *Arena) Has(original any) bool {
	_, ok := a.Lookup(original)

	return ok
}

// SetClone stores the clone for h.
func (a *Arena) SetClone(h Handle, clone any) error {
	if err := a.check(h); err != nil {
		return err
	}
	if clone == nil {
		return ErrNilEntity
	}
	a.clones[h] = clone

	return nil
}

// Original returns the original registered under h.
func (a *Arena) Original(h Handle) (any, error) {
	if err := a.check(h); err != nil {
		return nil, err
	}

	return a.originals[h], nil
}

// Clone returns the clone stored for h.
func (a *Arena) Clone(h Handle) (any, error) {
	if err := a.check(h); err != nil {
		return nil, err
	}
	if a.clones[h] == nil {
		return nil, errors.Wrapf(ErrCloneMissing, "handle %d", h)
	}

	return a.clones[h], nil
}

// CloneOf returns the clone of original.
func (a *Arena) CloneOf(original any) (any, bool) {
	h, ok := a.Lookup(original)
	if !ok || a.clones[h] == nil {
		return nil, false
	}

	return a.clones[h], true
}

// Len returns the number of registered originals.
func (a *Arena) Len() int { return len(a.originals) }

// Handles lists every handle in insertion order.
func (a *Arena) Handles() []Handle {
	out := make([]Handle, len(a.originals))
	for i := range out {
		out[i] = Handle(i)
	}

	return out
}

// Originals returns a copy of the originals in handle order.
func (a *Arena) Originals() []any { return append([]any(nil), a.originals...) }

// Clones returns a copy of the clones in handle order. Slots without a
// clone are nil.
func (a *Arena) Clones() []any { return append([]any(nil), a.clones...) }

// Link records an edge from → to under relationship key.
func (a *Arena) Link(from, to Handle, key string, position int) error {
	if err := a.check(from); err != nil {
		return err
	}
	if err := a.check(to); err != nil {
		return err
	}
	_, err := a.graph.AddEdge(VertexID(from), VertexID(to), core.WithLabel(key), core.WithPosition(position))

	return err
}

// Edges returns every recorded edge in Link order.
func (a *Arena) Edges() []Edge { return toEdges(a.graph.Edges()) }

// Out returns the edges leaving h in Link order.
func (a *Arena) Out(h Handle) ([]Edge, error) {
	if err := a.check(h); err != nil {
		return nil, err
	}
	out, err := a.graph.Neighbors(VertexID(h))
	if err != nil {
		return nil, err
	}

	return toEdges(out), nil
}

// Graph returns a copy of the clone topology: one vertex per handle,
// one edge per rewired reference.
func (a *Arena) Graph() *core.Graph { return a.graph.Clone() }

// EdgeCount returns the number of recorded edges.
func (a *Arena) EdgeCount() int { return a.graph.EdgeCount() }

// VertexID is the core.Graph vertex ID of h.
func VertexID(h Handle) string { return strconv.Itoa(int(h)) }

// HandleOf parses a vertex ID produced by VertexID.
func HandleOf(id string) (Handle, error) {
	n, err := strconv.Atoi(id)
	if err != nil || n < 0 {
		return 0, errors.Wrapf(ErrBadHandle, "vertex %q", id)
	}

	return Handle(n), nil
}

func toEdges(in []*core.Edge) []Edge {
	out := make([]Edge, 0, len(in))
	for _, e := range in {
		from, _ := HandleOf(e.From)
		to, _ := HandleOf(e.To)
		out = append(out, Edge{From: from, To: to, Key: e.Label, Position: e.Position})
	}

	return out
}

func (a *Arena) check(h Handle) error {
	if h < 0 || int(h) >= len(a.originals) {
		return errors.Wrapf(ErrBadHandle, "handle %d, len %d", h, len(a.originals))
	}

	return nil
}

// checkEntity admits non-nil pointers only: they are comparable and carry
// object identity.
func checkEntity(e any) error {
	if e == nil {
		return ErrNilEntity
	}
	rv := reflect.ValueOf(e)
	if rv.Kind() != reflect.Pointer {
		return errors.Wrapf(ErrNotPointer, "%T", e)
	}
	if rv.IsNil() {
		return ErrNilEntity
	}

	return nil
}
