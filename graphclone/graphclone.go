// SPDX-License-Identifier: MIT

// Package graphclone copies a connected, possibly cyclic graph of entities
// into a detached graph of new entities with the same topology.
//
// A run has three phases:
//
//  1. Discovery: breadth-first from the root over declared relationships.
//     Each original is copied once (copier.Copy) and mapped to its clone
//     before its neighbours are enqueued, so cycles and shared targets
//     resolve to a single clone.
//  2. Rewiring: every relationship of every clone is set to the clones of
//     the original's related entities, in the original's order.
//  3. Registration: every clone is handed to the Registrar, in discovery
//     order, only after rewiring has finished for all of them.
//
// Identity fields are never copied; linkage fields are left out unless
// WithOmitLinkage(false) is given. If phase 1 or 2 fails, nothing is
// registered.
//
//	clone, err := graphclone.Clone(project, uow)
//
// A run is synchronous and single-threaded; the caller must not mutate the
// source graph while it executes.
package graphclone

import (
	"reflect"

	"github.com/cockroachdb/errors"

	"github.com/katalvlaran/entclone/arena"
	"github.com/katalvlaran/entclone/copier"
	"github.com/katalvlaran/entclone/schema"
	"github.com/katalvlaran/entclone/session"
)

// queueItem pairs an original with its distance from the root.
type queueItem struct {
	entity any
	depth  int
}

// walker holds the mutable state of one run.
type walker struct {
	opts   Options
	reg    session.Registrar
	queue  []queueItem
	arena  *arena.Arena
	descs  map[reflect.Type]*schema.Descriptor
	copier []copier.Option
}

// Clone runs the three phases on the graph reachable from root and returns
// the clone of root.
func Clone(root any, reg session.Registrar, opts ...Option) (any, error) {
	res, err := Run(root, reg, opts...)
	if err != nil {
		return nil, err
	}

	return res.Root, nil
}

// Run is Clone returning the full Result.
// Returns ErrNilRoot, ErrNotEntity, ErrNilRegistrar or ErrOptionViolation
// for invalid input, schema.ErrIntrospection or copier.ErrConstruction from
// discovery, any OnDiscover error, and ErrRegistration from the Registrar.
func Run(root any, reg session.Registrar, opts ...Option) (*Result, error) {
	if root == nil {
		return nil, ErrNilRoot
	}
	rv := reflect.ValueOf(root)
	if rv.Kind() != reflect.Pointer || rv.Type().Elem().Kind() != reflect.Struct {
		return nil, errors.Wrapf(ErrNotEntity, "%T", root)
	}
	if rv.IsNil() {
		return nil, ErrNilRoot
	}
	if reg == nil {
		return nil, ErrNilRegistrar
	}
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.err != nil {
		return nil, o.err
	}

	w := &walker{
		opts:  o,
		reg:   reg,
		queue: make([]queueItem, 0, o.Capacity+1),
		arena: arena.New(o.Capacity),
		descs: make(map[reflect.Type]*schema.Descriptor),
		copier: []copier.Option{
			copier.WithOmitLinkage(o.OmitLinkage),
			copier.WithLogger(o.Logger),
		},
	}

	w.queue = append(w.queue, queueItem{entity: root})
	if err := w.discover(); err != nil {
		return nil, err
	}
	o.Logger.Debug("graphclone: discovered", "entities", w.arena.Len())

	if err := w.rewire(); err != nil {
		return nil, err
	}
	o.Logger.Debug("graphclone: rewired", "edges", w.arena.EdgeCount())

	if err := w.register(); err != nil {
		return nil, err
	}
	o.Logger.Debug("graphclone: registered", "entities", w.arena.Len())

	clone, _ := w.arena.CloneOf(root)

	return &Result{Root: clone, arena: w.arena}, nil
}

// describe returns the memoized descriptor for entity's type.
func (w *walker) describe(entity any) (*schema.Descriptor, error) {
	t := reflect.TypeOf(entity)
	if d, ok := w.descs[t]; ok {
		return d, nil
	}
	d, err := w.opts.Provider.Describe(t)
	if err != nil {
		if !errors.Is(err, schema.ErrIntrospection) {
			err = &schema.IntrospectionError{Type: t, Err: err}
		}

		return nil, err
	}
	w.descs[t] = d

	return d, nil
}

// discover drains the queue: copy, map, then enqueue related originals.
func (w *walker) discover() error {
	for len(w.queue) > 0 {
		item := w.queue[0]
		w.queue = w.queue[1:]
		if w.arena.Has(item.entity) {
			continue
		}

		d, err := w.describe(item.entity)
		if err != nil {
			return errors.Wrapf(err, "graphclone: describe %T", item.entity)
		}
		clone, err := copier.Copy(item.entity, d, w.copier...)
		if err != nil {
			return errors.Wrapf(err, "graphclone: copy %T", item.entity)
		}
		h, _, err := w.arena.Add(item.entity)
		if err != nil {
			return errors.Wrapf(err, "graphclone: map %T", item.entity)
		}
		if err = w.arena.SetClone(h, clone); err != nil {
			return err
		}
		if err = w.opts.OnDiscover(item.entity, clone, item.depth); err != nil {
			return errors.Wrapf(err, "graphclone: OnDiscover error at handle %d", h)
		}

		for _, rel := range d.Relationships {
			related, err := d.Related(item.entity, rel)
			if err != nil {
				return errors.Wrapf(err, "graphclone: %s.%s", d.Type.Name(), rel.Name)
			}
			for _, r := range related {
				if r == nil || w.arena.Has(r) {
					continue
				}
				w.queue = append(w.queue, queueItem{entity: r, depth: item.depth + 1})
			}
		}
	}

	return nil
}

// rewire sets every relationship of every clone from the mapping.
func (w *walker) rewire() error {
	for _, h := range w.arena.Handles() {
		original, _ := w.arena.Original(h)
		clone, err := w.arena.Clone(h)
		if err != nil {
			return err
		}
		d := w.descs[reflect.TypeOf(original)]

		for _, rel := range d.Relationships {
			related, err := d.Related(original, rel)
			if err != nil {
				return errors.Wrapf(err, "graphclone: %s.%s", d.Type.Name(), rel.Name)
			}
			var mapped []any
			if related != nil {
				mapped = make([]any, len(related))
			}
			for i, r := range related {
				if r == nil {
					continue
				}
				to, ok := w.arena.Lookup(r)
				if !ok {
					return errors.Wrapf(ErrUnmapped, "%s.%s[%d] of handle %d", d.Type.Name(), rel.Name, i, h)
				}
				if mapped[i], err = w.arena.Clone(to); err != nil {
					return errors.Wrapf(ErrUnmapped, "%s.%s[%d] of handle %d: %v", d.Type.Name(), rel.Name, i, h, err)
				}
				if err = w.arena.Link(h, to, rel.Name, i); err != nil {
					return err
				}
			}
			if err = d.Assign(clone, rel, mapped); err != nil {
				return errors.Wrapf(err, "graphclone: assign %s.%s", d.Type.Name(), rel.Name)
			}
			w.opts.OnRewire(clone, rel, mapped)
		}
	}

	return nil
}

// register hands every clone to the Registrar in discovery order.
func (w *walker) register() error {
	for _, clone := range w.arena.Clones() {
		if err := w.reg.Register(clone); err != nil {
			return &RegistrationError{Entity: clone, Err: err}
		}
		w.opts.OnRegister(clone)
	}

	return nil
}
