// SPDX-License-Identifier: MIT
// Package: entclone/schema
//
// registry.go - explicit registration table of descriptors.

package schema

import (
	"reflect"
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
)

// Registry is a Provider backed by explicitly registered descriptors.
// Unknown types are delegated to the fallback provider if one is set.
// Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	entries  map[reflect.Type]*Descriptor
	fallback Provider
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithFallback consults p for types that were never registered.
func WithFallback(p Provider) RegistryOption {
	return func(r *Registry) { r.fallback = p }
}

// NewRegistry returns an empty Registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{entries: make(map[reflect.Type]*Descriptor)}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Register builds and stores a descriptor for model. Registering a type
// twice replaces the earlier descriptor.
func (r *Registry) Register(model any, opts ...Option) (*Descriptor, error) {
	d, err := Build(model, opts...)
	if err != nil {
		return nil, err
	}
	r.Add(d)

	return d, nil
}

// MustRegister is Register that panics on error.
func (r *Registry) MustRegister(model any, opts ...Option) *Descriptor {
	d, err := r.Register(model, opts...)
	if err != nil {
		panic(err)
	}

	return d
}

// Add stores a prebuilt descriptor.
func (r *Registry) Add(d *Descriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[d.Type] = d
}

// Describe implements Provider.
func (r *Registry) Describe(t reflect.Type) (*Descriptor, error) {
	st, err := StructType(t)
	if err != nil {
		return nil, &IntrospectionError{Type: t, Err: err}
	}

	r.mu.RLock()
	d, ok := r.entries[st]
	r.mu.RUnlock()
	if ok {
		return d, nil
	}
	if r.fallback != nil {
		return r.fallback.Describe(st)
	}

	return nil, &IntrospectionError{Type: st, Err: errors.Wrapf(ErrUnknownType, "%s", st)}
}

// Types lists the registered types sorted by name.
func (r *Registry) Types() []reflect.Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]reflect.Type, 0, len(r.entries))
	for t := range r.entries {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })

	return out
}
