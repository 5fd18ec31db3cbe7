// SPDX-License-Identifier: MIT
// Package: entclone/graphclone
//
// types.go - options, hooks, sentinel errors and Result.

package graphclone

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"

	"github.com/katalvlaran/entclone/arena"
	"github.com/katalvlaran/entclone/core"
	"github.com/katalvlaran/entclone/schema"
)

// Sentinel errors for Clone and Run.
var (
	// ErrNilRoot is returned when the root entity is nil.
	ErrNilRoot = errors.New("graphclone: root is nil")

	// ErrNilRegistrar is returned when no Registrar is supplied.
	ErrNilRegistrar = errors.New("graphclone: registrar is nil")

	// ErrNotEntity is returned when the root is not a pointer to a struct.
	ErrNotEntity = errors.New("graphclone: root is not an entity")

	// ErrUnmapped signals a related original without a clone during rewiring.
	// It indicates a discovery bug, never a property of the input graph.
	ErrUnmapped = errors.New("graphclone: related entity has no clone")

	// ErrRegistration is matched by every *RegistrationError.
	ErrRegistration = errors.New("graphclone: registration failed")

	// ErrOptionViolation is returned when an invalid Option is supplied.
	ErrOptionViolation = errors.New("graphclone: invalid option supplied")
)

// RegistrationError carries the error the Registrar returned for Entity.
type RegistrationError struct {
	Entity any
	Err    error
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("graphclone: register %T: %v", e.Entity, e.Err)
}

// Unwrap exposes the Registrar's error.
func (e *RegistrationError) Unwrap() error { return e.Err }

// Is matches ErrRegistration.
func (e *RegistrationError) Is(target error) bool { return target == ErrRegistration }

// Option configures a clone run. Invalid options are recorded and surface
// as ErrOptionViolation when Clone or Run is invoked.
type Option func(*Options)

// Options holds parameters and callbacks of a clone run.
type Options struct {
	// Provider describes entity types. Defaults to schema.Tags().
	Provider schema.Provider

	// OmitLinkage leaves linkage fields at their defaults on every clone.
	OmitLinkage bool

	// Logger receives phase boundaries at debug level.
	Logger *log.Logger

	// OnDiscover runs after an original has been copied and mapped, before
	// its relationships are enqueued. depth is the BFS distance from root.
	// A non-nil error aborts the run before anything is registered.
	OnDiscover func(original, clone any, depth int) error

	// OnRewire runs after a relationship of clone has been assigned.
	OnRewire func(clone any, rel schema.Relationship, related []any)

	// OnRegister runs after the Registrar accepted clone.
	OnRegister func(clone any)

	// Capacity pre-sizes the queue and arena.
	Capacity int

	err error
}

// DefaultOptions returns the options used when none are given:
//   - schema.Tags() as provider
//   - linkage omitted
//   - charm's default logger
//   - no-op hooks
func DefaultOptions() Options {
	return Options{
		Provider:    schema.Tags(),
		OmitLinkage: true,
		Logger:      log.Default(),
		OnDiscover:  func(any, any, int) error { return nil },
		OnRewire:    func(any, schema.Relationship, []any) {},
		OnRegister:  func(any) {},
	}
}

// WithProvider sets the schema provider.
func WithProvider(p schema.Provider) Option {
	return func(o *Options) {
		if p == nil {
			o.err = errors.Wrap(ErrOptionViolation, "nil provider")

			return
		}
		o.Provider = p
	}
}

// WithOmitLinkage controls whether linkage fields are copied.
func WithOmitLinkage(omit bool) Option {
	return func(o *Options) { o.OmitLinkage = omit }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(o *Options) {
		if l == nil {
			o.err = errors.Wrap(ErrOptionViolation, "nil logger")

			return
		}
		o.Logger = l
	}
}

// WithOnDiscover registers a discovery hook; returning an error aborts.
func WithOnDiscover(fn func(original, clone any, depth int) error) Option {
	return func(o *Options) {
		if fn == nil {
			o.err = errors.Wrap(ErrOptionViolation, "nil OnDiscover")

			return
		}
		o.OnDiscover = fn
	}
}

// WithOnRewire registers a rewiring hook.
func WithOnRewire(fn func(clone any, rel schema.Relationship, related []any)) Option {
	return func(o *Options) {
		if fn == nil {
			o.err = errors.Wrap(ErrOptionViolation, "nil OnRewire")

			return
		}
		o.OnRewire = fn
	}
}

// WithOnRegister registers a hook called after each successful registration.
func WithOnRegister(fn func(clone any)) Option {
	return func(o *Options) {
		if fn == nil {
			o.err = errors.Wrap(ErrOptionViolation, "nil OnRegister")

			return
		}
		o.OnRegister = fn
	}
}

// MaxCapacity bounds the WithCapacity hint; storage still grows past it.
const MaxCapacity = 1 << 20

// WithCapacity pre-sizes internal storage for about n entities.
//
//	0 <= n <= MaxCapacity: hint
//	n > MaxCapacity:       clamped to MaxCapacity
//	n < 0:                 invalid option → ErrOptionViolation
func WithCapacity(n int) Option {
	return func(o *Options) {
		if n < 0 {
			o.err = errors.Wrapf(ErrOptionViolation, "capacity cannot be negative (%d)", n)

			return
		}
		o.Capacity = min(n, MaxCapacity)
	}
}

// Result holds the outcome of a clone run.
type Result struct {
	// Root is the clone of the root entity.
	Root any

	arena *arena.Arena
}

// CloneOf returns the clone made for original.
func (r *Result) CloneOf(original any) (any, bool) { return r.arena.CloneOf(original) }

// Originals lists every discovered original in discovery order.
func (r *Result) Originals() []any { return r.arena.Originals() }

// Clones lists every clone in discovery order; Clones()[i] is the clone of
// Originals()[i].
func (r *Result) Clones() []any { return r.arena.Clones() }

// Edges lists the rewired relationship edges between clones, by handle
// (index into Clones).
func (r *Result) Edges() []arena.Edge { return r.arena.Edges() }

// Graph returns the clone topology as a core.Graph: vertex arena.VertexID(i)
// stands for Clones()[i], each edge is one rewired reference labelled with
// its relationship key.
func (r *Result) Graph() *core.Graph { return r.arena.Graph() }

// Len returns the number of cloned entities.
func (r *Result) Len() int { return r.arena.Len() }
