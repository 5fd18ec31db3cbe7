// SPDX-License-Identifier: MIT
// Package: entclone/session
//
// memory.go - in-process unit of work.
//
// Lifecycle:
//   Register → pending (each pointer staged once)
//   Commit   → identities assigned, pending moved to committed
//   Rollback → pending dropped
//
// Identity generation on Commit, for zero-valued identity fields only:
//   • uuid.UUID       → uuid.New()
//   • string          → uuid.NewString()
//   • signed/unsigned → per (type, field) sequence, never below a value
//                       already observed on a staged or committed entity

package session

import (
	"context"
	"reflect"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/katalvlaran/entclone/schema"
)

var uuidType = reflect.TypeOf(uuid.UUID{})

// seqKey identifies one integer identity sequence.
type seqKey struct {
	t     reflect.Type
	field string
}

// MemoryOption configures a Memory.
type MemoryOption func(*Memory)

// WithLogger sets the logger used for commit diagnostics; nil is ignored.
func WithLogger(l *log.Logger) MemoryOption {
	return func(m *Memory) {
		if l != nil {
			m.logger = l
		}
	}
}

// Memory stages registered entities and assigns identities on Commit.
// Safe for concurrent use.
type Memory struct {
	mu        sync.Mutex
	provider  schema.Provider
	logger    *log.Logger
	pending   []any
	staged    map[any]struct{}
	committed []any
	seq       map[seqKey]uint64
}

// NewMemory returns an empty unit of work that describes entities with p.
// A nil p falls back to schema.Tags().
func NewMemory(p schema.Provider, opts ...MemoryOption) *Memory {
	if p == nil {
		p = schema.Tags()
	}
	m := &Memory{
		provider: p,
		logger:   log.Default(),
		staged:   make(map[any]struct{}),
		seq:      make(map[seqKey]uint64),
	}
	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Register stages entity. Registering the same pointer twice is a no-op.
func (m *Memory) Register(entity any) error {
	if entity == nil {
		return ErrNilEntity
	}
	if _, err := schema.Indirect(entity); err != nil {
		return errors.Wrapf(err, "session: register %T", entity)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.staged[entity]; ok {
		return nil
	}
	m.staged[entity] = struct{}{}
	m.pending = append(m.pending, entity)

	return nil
}

// Pending returns the staged, uncommitted entities in registration order.
func (m *Memory) Pending() []any {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]any(nil), m.pending...)
}

// Committed returns every committed entity in commit order.
func (m *Memory) Committed() []any {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]any(nil), m.committed...)
}

// Len returns the number of pending entities.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.pending)
}

// Rollback drops every pending entity.
func (m *Memory) Rollback() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.pending {
		delete(m.staged, e)
	}
	m.pending = nil
}

// Commit assigns identities to pending entities in registration order and
// moves them to Committed. On error or cancellation, the entities processed
// so far stay committed and the rest stay pending.
func (m *Memory) Commit(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	descs := make(map[reflect.Type]*schema.Descriptor)
	describe := func(e any) (*schema.Descriptor, error) {
		t := reflect.TypeOf(e)
		if d, ok := descs[t]; ok {
			return d, nil
		}
		d, err := schema.Of(m.provider, e)
		if err != nil {
			return nil, err
		}
		descs[t] = d

		return d, nil
	}

	// Observe existing integer identities first so generated ones never collide.
	for _, e := range m.pending {
		d, err := describe(e)
		if err != nil {
			return errors.Wrapf(err, "session: commit %T", e)
		}
		m.observe(e, d)
	}

	done := 0
	defer func() {
		m.committed = append(m.committed, m.pending[:done]...)
		m.pending = append([]any(nil), m.pending[done:]...)
	}()
	for _, e := range m.pending {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "session: commit interrupted")
		}
		d, err := describe(e)
		if err != nil {
			return errors.Wrapf(err, "session: commit %T", e)
		}
		if err = m.assign(e, d); err != nil {
			return err
		}
		done++
	}
	m.logger.Debug("session: committed", "count", done)

	return nil
}

func (m *Memory) observe(e any, d *schema.Descriptor) {
	v, _ := schema.Indirect(e)
	for _, name := range d.Identity {
		fv, ok := d.Value(v, name)
		if !ok || fv.IsZero() {
			continue
		}
		key := seqKey{t: d.Type, field: name}
		switch fv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if n := fv.Int(); n > 0 && uint64(n) > m.seq[key] {
				m.seq[key] = uint64(n)
			}
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			if n := fv.Uint(); n > m.seq[key] {
				m.seq[key] = n
			}
		}
	}
}

func (m *Memory) assign(e any, d *schema.Descriptor) error {
	v, _ := schema.Indirect(e)
	for _, name := range d.Identity {
		fv, ok := d.Value(v, name)
		if !ok || !fv.IsZero() {
			continue
		}
		next, err := m.next(d, name, fv.Type())
		if err != nil {
			return err
		}
		if err = d.SetValue(v, name, next); err != nil {
			return errors.Wrapf(err, "session: assign %s.%s", d.Type.Name(), name)
		}
	}

	return nil
}

func (m *Memory) next(d *schema.Descriptor, name string, t reflect.Type) (reflect.Value, error) {
	if t == uuidType {
		return reflect.ValueOf(uuid.New()), nil
	}
	key := seqKey{t: d.Type, field: name}
	out := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.String:
		out.SetString(uuid.NewString())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		m.seq[key]++
		if out.OverflowInt(int64(m.seq[key])) {
			return reflect.Value{}, errors.Newf("session: %s.%s sequence overflow", d.Type.Name(), name)
		}
		out.SetInt(int64(m.seq[key]))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		m.seq[key]++
		if out.OverflowUint(m.seq[key]) {
			return reflect.Value{}, errors.Newf("session: %s.%s sequence overflow", d.Type.Name(), name)
		}
		out.SetUint(m.seq[key])
	default:
		return reflect.Value{}, errors.Wrapf(ErrUnsupportedIdentity, "%s.%s: %s", d.Type.Name(), name, t)
	}

	return out, nil
}
