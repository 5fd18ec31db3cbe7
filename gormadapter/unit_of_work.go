// SPDX-License-Identifier: MIT
// Package: entclone/gormadapter
//
// unit_of_work.go - session.Registrar that writes staged entities with GORM.
//
// Commit runs in one transaction:
//   1. insert every staged row, associations omitted (keys come back from
//      the database);
//   2. copy keys into foreign key fields in memory: belongs_to on the
//      owner, has_one/has_many on staged children, polymorphic type values;
//   3. persist those foreign keys with column updates;
//   4. insert many2many join rows, ignoring rows that already exist.
// A failed commit rolls the transaction back, restores the primary and
// foreign key fields it assigned and leaves the entities staged.

package gormadapter

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gschema "gorm.io/gorm/schema"

	"github.com/katalvlaran/entclone/schema"
	"github.com/katalvlaran/entclone/session"
)

// UnitOfWork stages cloned entities and commits them to a database.
// Safe for concurrent use.
type UnitOfWork struct {
	mu        sync.Mutex
	db        *gorm.DB
	provider  *Provider
	logger    *log.Logger
	pending   []any
	staged    map[any]struct{}
	committed int
}

// Option configures a UnitOfWork.
type Option func(*UnitOfWork)

// WithProvider shares p's parse cache; nil is ignored.
func WithProvider(p *Provider) Option {
	return func(u *UnitOfWork) {
		if p != nil {
			u.provider = p
		}
	}
}

// WithLogger sets the logger; nil is ignored.
func WithLogger(l *log.Logger) Option {
	return func(u *UnitOfWork) {
		if l != nil {
			u.logger = l
		}
	}
}

// NewUnitOfWork returns an empty unit of work bound to db.
func NewUnitOfWork(db *gorm.DB, opts ...Option) (*UnitOfWork, error) {
	if db == nil {
		return nil, errors.New("gormadapter: nil *gorm.DB")
	}
	u := &UnitOfWork{
		db:     db,
		logger: log.Default(),
		staged: make(map[any]struct{}),
	}
	for _, opt := range opts {
		opt(u)
	}
	if u.provider == nil {
		p, err := NewProvider(db)
		if err != nil {
			return nil, err
		}
		u.provider = p
	}

	return u, nil
}

var _ session.Registrar = (*UnitOfWork)(nil)

// Register stages entity for insertion. Registering the same pointer twice
// is a no-op.
func (u *UnitOfWork) Register(entity any) error {
	if entity == nil {
		return session.ErrNilEntity
	}
	if _, err := schema.Indirect(entity); err != nil {
		return errors.Wrapf(err, "gormadapter: register %T", entity)
	}
	if _, err := u.provider.Schema(entity); err != nil {
		return err
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	if _, ok := u.staged[entity]; ok {
		return nil
	}
	u.staged[entity] = struct{}{}
	u.pending = append(u.pending, entity)

	return nil
}

// Len returns the number of staged entities.
func (u *UnitOfWork) Len() int {
	u.mu.Lock()
	defer u.mu.Unlock()

	return len(u.pending)
}

// Committed returns how many entities have been written so far.
func (u *UnitOfWork) Committed() int {
	u.mu.Lock()
	defer u.mu.Unlock()

	return u.committed
}

// Rollback drops every staged entity without touching the database.
func (u *UnitOfWork) Rollback() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.pending = nil
	u.staged = make(map[any]struct{})
}

// Commit writes every staged entity in registration order.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.pending) == 0 {
		return nil
	}

	snap, err := u.snapshot(ctx)
	if err != nil {
		return err
	}
	err = u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return u.write(ctx, tx)
	})
	if err != nil {
		snap.restore(ctx)

		return errors.Wrap(err, "gormadapter: commit")
	}

	u.logger.Debug("gormadapter: committed", "rows", len(u.pending))
	u.committed += len(u.pending)
	u.pending = nil
	u.staged = make(map[any]struct{})

	return nil
}

// joinRows groups many2many rows by join table, dropping duplicates.
type joinRows struct {
	tables []string
	rows   map[string][]map[string]any
	seen   map[string]struct{}
}

func (j *joinRows) add(table string, row map[string]any) {
	cols := lo.Keys(row)
	slices.Sort(cols)
	key := table
	for _, c := range cols {
		key += fmt.Sprintf("|%s=%v", c, row[c])
	}
	if _, dup := j.seen[key]; dup {
		return
	}
	j.seen[key] = struct{}{}
	if _, ok := j.rows[table]; !ok {
		j.tables = append(j.tables, table)
	}
	j.rows[table] = append(j.rows[table], row)
}

func (u *UnitOfWork) write(ctx context.Context, tx *gorm.DB) error {
	for _, e := range u.pending {
		if err := tx.Omit(clause.Associations).Create(e).Error; err != nil {
			return errors.Wrapf(err, "insert %T", e)
		}
	}

	dirty := make(map[any]map[string]any)
	mark := func(e any, f *gschema.Field, v any) error {
		// A fresh pointer: copies may share *T keys with their originals.
		val := v
		if ft := f.FieldType; ft.Kind() == reflect.Pointer {
			if rv := reflect.ValueOf(v); rv.Type().ConvertibleTo(ft.Elem()) {
				ptr := reflect.New(ft.Elem())
				ptr.Elem().Set(rv.Convert(ft.Elem()))
				val = ptr.Interface()
			}
		}
		if err := f.Set(ctx, reflect.ValueOf(e), val); err != nil {
			return errors.Wrapf(err, "set %T.%s", e, f.Name)
		}
		if dirty[e] == nil {
			dirty[e] = make(map[string]any)
		}
		dirty[e][f.DBName] = v

		return nil
	}
	joins := &joinRows{rows: make(map[string][]map[string]any), seen: make(map[string]struct{})}

	for _, e := range u.pending {
		s, err := u.provider.Schema(e)
		if err != nil {
			return err
		}
		own := reflect.ValueOf(e)
		for _, f := range s.Fields {
			rel, ok := s.Relationships.Relations[f.Name]
			if !ok {
				continue
			}
			for _, target := range related(ctx, rel, own) {
				tv := reflect.ValueOf(target)
				switch rel.Type {
				case gschema.BelongsTo:
					for _, ref := range rel.References {
						v, zero := ref.PrimaryKey.ValueOf(ctx, tv)
						if zero {
							continue
						}
						if err = mark(e, ref.ForeignKey, v); err != nil {
							return err
						}
					}
				case gschema.HasOne, gschema.HasMany:
					if _, ok := u.staged[target]; !ok {
						continue
					}
					for _, ref := range rel.References {
						var (
							v    any
							zero bool
						)
						switch {
						case ref.OwnPrimaryKey:
							v, zero = ref.PrimaryKey.ValueOf(ctx, own)
						case ref.PrimaryValue != "":
							v = ref.PrimaryValue
						default:
							zero = true
						}
						if zero {
							continue
						}
						if err = mark(target, ref.ForeignKey, v); err != nil {
							return err
						}
					}
				case gschema.Many2Many:
					if row, complete := joinRow(ctx, rel, own, tv); complete {
						joins.add(rel.JoinTable.Table, row)
					}
				}
			}
		}
	}

	for _, e := range u.pending {
		cols, ok := dirty[e]
		if !ok {
			continue
		}
		if err := tx.Model(e).UpdateColumns(cols).Error; err != nil {
			return errors.Wrapf(err, "update keys of %T", e)
		}
	}
	for _, table := range joins.tables {
		rows := joins.rows[table]
		if err := tx.Table(table).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
			return errors.Wrapf(err, "insert into %s", table)
		}
	}

	return nil
}

// related returns the non-nil entities referenced by rel on own.
func related(ctx context.Context, rel *gschema.Relationship, own reflect.Value) []any {
	fv := rel.Field.ReflectValueOf(ctx, own)
	switch fv.Kind() {
	case reflect.Pointer:
		if fv.IsNil() {
			return nil
		}

		return []any{fv.Interface()}
	case reflect.Slice:
		out := make([]any, 0, fv.Len())
		for i := 0; i < fv.Len(); i++ {
			if e := fv.Index(i); e.Kind() == reflect.Pointer && !e.IsNil() {
				out = append(out, e.Interface())
			}
		}

		return out
	default:
		return nil
	}
}

// joinRow builds the join table row linking own to target. complete is
// false when either side has no primary key yet.
func joinRow(ctx context.Context, rel *gschema.Relationship, own, target reflect.Value) (row map[string]any, complete bool) {
	row = make(map[string]any, len(rel.References))
	for _, ref := range rel.References {
		var (
			v    any
			zero bool
		)
		switch {
		case ref.OwnPrimaryKey:
			v, zero = ref.PrimaryKey.ValueOf(ctx, own)
		case ref.PrimaryValue != "":
			v = ref.PrimaryValue
		default:
			v, zero = ref.PrimaryKey.ValueOf(ctx, target)
		}
		if zero {
			return nil, false
		}
		row[ref.ForeignKey.DBName] = v
	}

	return row, true
}

// savedKey is a key field value from before a commit.
type savedKey struct {
	entity any
	field  *gschema.Field
	value  any
}

type identitySnapshot []savedKey

// snapshot saves every field a commit may assign: primary keys and the
// foreign keys filled in from belongs_to, has_one and has_many references.
func (u *UnitOfWork) snapshot(ctx context.Context) (identitySnapshot, error) {
	schemas := make([]*gschema.Schema, len(u.pending))
	foreign := make(map[reflect.Type][]*gschema.Field)
	for i, e := range u.pending {
		s, err := u.provider.Schema(e)
		if err != nil {
			return nil, err
		}
		schemas[i] = s
		for _, rel := range s.Relationships.Relations {
			if rel.Type == gschema.Many2Many {
				continue
			}
			for _, ref := range rel.References {
				owner := ref.ForeignKey.Schema.ModelType
				if !slices.Contains(foreign[owner], ref.ForeignKey) {
					foreign[owner] = append(foreign[owner], ref.ForeignKey)
				}
			}
		}
	}

	var snap identitySnapshot
	for i, e := range u.pending {
		s := schemas[i]
		rv := reflect.ValueOf(e)
		fields := lo.Uniq(append(slices.Clone(s.PrimaryFields), foreign[s.ModelType]...))
		for _, f := range fields {
			snap = append(snap, savedKey{entity: e, field: f, value: f.ReflectValueOf(ctx, rv).Interface()})
		}
	}

	return snap, nil
}

func (s identitySnapshot) restore(ctx context.Context) {
	for _, k := range s {
		rv := reflect.ValueOf(k.entity)
		k.field.ReflectValueOf(ctx, rv).Set(reflect.ValueOf(k.value))
	}
}
