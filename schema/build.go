// SPDX-License-Identifier: MIT
// Package: entclone/schema
//
// build.go - Descriptor construction from explicit field roles.
//
// Contract:
//   • Options are functional (type Option func(*buildConfig)).
//   • Option constructors panic on meaningless inputs (nil factory);
//     Build itself returns errors and never panics.
//   • Relationship kinds are checked against the field shape:
//     HasOne (ToOne) needs *T, HasMany (ToMany) needs []*T, T a struct.

package schema

import (
	"reflect"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

// Option assigns a role to fields while building a Descriptor.
type Option func(*buildConfig)

type buildConfig struct {
	identity []string
	linkage  []string
	toOne    []string
	toMany   []string
	inferred []string
	only     []string
	except   []string
	factory  func() any
}

// Identity marks fields as identity (primary key) fields.
func Identity(names ...string) Option {
	return func(c *buildConfig) { c.identity = append(c.identity, names...) }
}

// Linkage marks fields as linkage (foreign key) fields.
func Linkage(names ...string) Option {
	return func(c *buildConfig) { c.linkage = append(c.linkage, names...) }
}

// HasOne declares *T fields as to-one relationships.
func HasOne(names ...string) Option {
	return func(c *buildConfig) { c.toOne = append(c.toOne, names...) }
}

// HasMany declares []*T fields as to-many relationships.
func HasMany(names ...string) Option {
	return func(c *buildConfig) { c.toMany = append(c.toMany, names...) }
}

// Relation declares relationships whose kind is inferred from the field type.
func Relation(names ...string) Option {
	return func(c *buildConfig) { c.inferred = append(c.inferred, names...) }
}

// Only restricts the copy candidates to the named fields. Identity, linkage
// and relationship fields are always kept.
func Only(names ...string) Option {
	return func(c *buildConfig) {
		if c.only == nil {
			c.only = []string{}
		}
		c.only = append(c.only, names...)
	}
}

// Except removes the named fields from the copy candidates. Identity,
// linkage and relationship fields are always kept.
func Except(names ...string) Option {
	return func(c *buildConfig) { c.except = append(c.except, names...) }
}

// Factory sets the zero-argument constructor. Panics on nil.
func Factory(fn func() any) Option {
	if fn == nil {
		panic("schema: Factory(nil)")
	}

	return func(c *buildConfig) { c.factory = fn }
}

// Build creates a Descriptor for model, which may be a reflect.Type, a
// struct value or a pointer to a struct.
func Build(model any, opts ...Option) (*Descriptor, error) {
	t, err := modelType(model)
	if err != nil {
		return nil, err
	}
	var cfg buildConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	all := exportedFields(t)
	byName := lo.SliceToMap(all, func(f Field) (string, Field) { return f.Name, f })
	lookup := func(name string) (Field, error) {
		f, ok := byName[name]
		if !ok {
			return Field{}, errors.Wrapf(ErrUnknownField, "%s.%s", t.Name(), name)
		}

		return f, nil
	}

	d := &Descriptor{
		Type:     t,
		New:      cfg.factory,
		identity: make(map[string]struct{}),
		linkage:  make(map[string]struct{}),
		related:  make(map[string]struct{}),
	}
	for _, name := range lo.Uniq(cfg.identity) {
		if _, err = lookup(name); err != nil {
			return nil, err
		}
		d.identity[name] = struct{}{}
		d.Identity = append(d.Identity, name)
	}
	for _, name := range lo.Uniq(cfg.linkage) {
		if _, err = lookup(name); err != nil {
			return nil, err
		}
		d.linkage[name] = struct{}{}
		d.Linkage = append(d.Linkage, name)
	}

	declare := func(names []string, kind Kind) error {
		for _, name := range names {
			f, err := lookup(name)
			if err != nil {
				return err
			}
			if _, dup := d.related[name]; dup {
				continue
			}
			if d.IsIdentity(name) || d.IsLinkage(name) {
				return errors.Wrapf(ErrBadRelationship, "%s.%s is also an identity or linkage field", t.Name(), name)
			}
			rel, err := relationshipOf(t, f, kind)
			if err != nil {
				return err
			}
			d.related[name] = struct{}{}
			d.Relationships = append(d.Relationships, rel)
		}

		return nil
	}
	if err = declare(cfg.toOne, ToOne); err != nil {
		return nil, err
	}
	if err = declare(cfg.toMany, ToMany); err != nil {
		return nil, err
	}
	if err = declare(cfg.inferred, 0); err != nil {
		return nil, err
	}

	keep := func(f Field) bool { return true }
	if cfg.only != nil {
		for _, name := range cfg.only {
			if _, err = lookup(name); err != nil {
				return nil, err
			}
		}
		allowed := lo.SliceToMap(cfg.only, func(n string) (string, struct{}) { return n, struct{}{} })
		keep = func(f Field) bool {
			_, ok := allowed[f.Name]

			return ok || d.IsIdentity(f.Name) || d.IsLinkage(f.Name) || d.IsRelationship(f.Name)
		}
	}
	for _, name := range cfg.except {
		if _, err = lookup(name); err != nil {
			return nil, err
		}
	}
	dropped := lo.SliceToMap(cfg.except, func(n string) (string, struct{}) { return n, struct{}{} })
	d.Fields = lo.Filter(all, func(f Field, _ int) bool {
		if _, ok := dropped[f.Name]; ok && !d.IsIdentity(f.Name) && !d.IsLinkage(f.Name) && !d.IsRelationship(f.Name) {
			return false
		}

		return keep(f)
	})
	if cfg.factory == nil {
		for _, f := range d.Fields {
			if via, hidden := hiddenPointer(t, f.Index); hidden {
				return nil, errors.Wrapf(ErrUnsettableField,
					"%s.%s is promoted through unexported *%s; drop it with Except or allocate it in a Factory", t.Name(), f.Name, via)
			}
		}
	}
	d.index = make(map[string]int, len(d.Fields))
	for i, f := range d.Fields {
		d.index[f.Name] = i
	}
	// Relationships follow declaration order, not option order.
	d.Relationships = lo.FilterMap(d.Fields, func(f Field, _ int) (Relationship, bool) {
		return lo.Find(d.Relationships, func(r Relationship) bool { return r.Name == f.Name })
	})

	return d, nil
}

// MustBuild is Build that panics on error. Intended for package-level tables.
func MustBuild(model any, opts ...Option) *Descriptor {
	d, err := Build(model, opts...)
	if err != nil {
		panic(err)
	}

	return d
}

func modelType(model any) (reflect.Type, error) {
	if model == nil {
		return nil, ErrNilEntity
	}
	if t, ok := model.(reflect.Type); ok {
		return StructType(t)
	}

	return StructType(reflect.TypeOf(model))
}

// exportedFields lists exported fields in declaration order, flattening
// embedded structs the way the compiler promotes their fields.
func exportedFields(t reflect.Type) []Field {
	var out []Field
	for _, sf := range reflect.VisibleFields(t) {
		if sf.Anonymous {
			ft := sf.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				continue
			}
		}
		if !sf.IsExported() {
			continue
		}
		out = append(out, Field{Name: sf.Name, Index: sf.Index, Type: sf.Type})
	}

	return out
}

// hiddenPointer names the unexported embedded pointer on index's path, if
// any. A fresh instance cannot allocate it through reflection.
func hiddenPointer(t reflect.Type, index []int) (string, bool) {
	for _, x := range index[:len(index)-1] {
		sf := t.Field(x)
		t = sf.Type
		if t.Kind() == reflect.Pointer {
			if !sf.IsExported() {
				return sf.Name, true
			}
			t = t.Elem()
		}
	}

	return "", false
}

// relationshipOf validates the field shape. kind 0 means infer it.
func relationshipOf(owner reflect.Type, f Field, kind Kind) (Relationship, error) {
	isEntityPtr := func(t reflect.Type) bool {
		return t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct
	}
	shape := 0
	switch {
	case isEntityPtr(f.Type):
		shape = int(ToOne)
	case f.Type.Kind() == reflect.Slice && isEntityPtr(f.Type.Elem()):
		shape = int(ToMany)
	}
	if shape == 0 {
		return Relationship{}, errors.Wrapf(ErrBadRelationship,
			"%s.%s has type %s; want *T or []*T", owner.Name(), f.Name, f.Type)
	}
	if kind != 0 && int(kind) != shape {
		return Relationship{}, errors.Wrapf(ErrBadRelationship,
			"%s.%s declared %s but has type %s", owner.Name(), f.Name, kind, f.Type)
	}

	rel := Relationship{Field: f, Kind: Kind(shape)}
	if rel.Kind == ToOne {
		rel.Target = f.Type.Elem()
	} else {
		rel.Target = f.Type.Elem().Elem()
	}

	return rel, nil
}
