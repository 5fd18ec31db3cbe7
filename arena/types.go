// SPDX-License-Identifier: MIT
//
// File: types.go
// Role: Handle, Edge, Arena types and sentinel errors.

package arena

import (
	"github.com/cockroachdb/errors"

	"github.com/katalvlaran/entclone/core"
)

// Sentinel errors for arena operations.
var (
	// ErrNilEntity indicates a nil interface or nil pointer entity.
	ErrNilEntity = errors.New("arena: entity is nil")

	// ErrNotPointer indicates an entity that is not a pointer.
	ErrNotPointer = errors.New("arena: entity is not a pointer")

	// ErrBadHandle indicates a handle that does not belong to the arena.
	ErrBadHandle = errors.New("arena: handle out of range")

	// ErrCloneMissing indicates a handle whose clone was never stored.
	ErrCloneMissing = errors.New("arena: clone not set")
)

// Handle is the stable index of an original within its Arena.
type Handle int

// Edge is one rewired relationship reference between two clones.
//
// Position is the index inside a to-many collection, or 0 for to-one.
type Edge struct {
	From     Handle
	To       Handle
	Key      string
	Position int
}

// Arena is the original→clone mapping of one clone operation. Rewired
// edges live in a core.Graph whose vertex IDs are handles (see VertexID).
type Arena struct {
	originals []any
	clones    []any
	index     map[any]Handle
	graph     *core.Graph
}

// New returns an empty Arena sized for about capacity originals.
func New(capacity int) *Arena {
	if capacity < 0 {
		capacity = 0
	}

	return &Arena{
		originals: make([]any, 0, capacity),
		clones:    make([]any, 0, capacity),
		index:     make(map[any]Handle, capacity),
		graph:     core.NewGraph(core.WithMultiEdges(), core.WithLoops()),
	}
}
