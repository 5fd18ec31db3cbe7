// SPDX-License-Identifier: MIT

// Package gormadapter connects the cloners to GORM: Provider derives entity
// descriptors from GORM model schemas, and UnitOfWork writes a cloned graph
// to a *gorm.DB in one transaction.
//
// Role mapping from a parsed GORM schema:
//
//	primary fields                         → identity
//	foreign keys stored on the model       → linkage
//	  (belongs_to on the model itself, has_one/has_many of other models
//	   pointing at it, polymorphic type columns)
//	has_one, belongs_to                    → to-one
//	has_many, many2many                    → to-many
//	fields GORM cannot read (gorm:"-")     → not copied
//
// Relationship fields must use pointer shapes (*T, []*T) so that shared
// targets keep their identity.
package gormadapter

import (
	"reflect"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"gorm.io/gorm"
	gschema "gorm.io/gorm/schema"

	"github.com/katalvlaran/entclone/schema"
)

// ErrNoSchema is returned when GORM cannot parse a model.
var ErrNoSchema = errors.New("gormadapter: cannot parse model")

// Provider implements schema.Provider on top of gorm.io/gorm/schema.
// Safe for concurrent use.
type Provider struct {
	namer   gschema.Namer
	schemas sync.Map // GORM's parse cache: reflect.Type → *gschema.Schema
	descs   sync.Map // reflect.Type → *schema.Descriptor
}

// NewProvider returns a Provider using db's naming strategy. models are
// parsed immediately; pass every model of the graph so that foreign keys
// declared only by the other side of a relationship are recognized.
func NewProvider(db *gorm.DB, models ...any) (*Provider, error) {
	p := &Provider{namer: gschema.NamingStrategy{}}
	if db != nil && db.Config != nil && db.NamingStrategy != nil {
		p.namer = db.NamingStrategy
	}
	for _, m := range models {
		if _, err := p.Schema(m); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// Schema parses model (a value, pointer or reflect.Type) with GORM.
func (p *Provider) Schema(model any) (*gschema.Schema, error) {
	var (
		t   reflect.Type
		err error
	)
	if rt, ok := model.(reflect.Type); ok {
		t, err = schema.StructType(rt)
	} else if model != nil {
		t, err = schema.StructType(reflect.TypeOf(model))
	} else {
		err = schema.ErrNilEntity
	}
	if err != nil {
		return nil, err
	}
	s, err := gschema.Parse(reflect.New(t).Interface(), &p.schemas, p.namer)
	if err != nil {
		return nil, errors.Wrapf(ErrNoSchema, "%s: %v", t, err)
	}

	return s, nil
}

// Describe implements schema.Provider.
func (p *Provider) Describe(t reflect.Type) (*schema.Descriptor, error) {
	st, err := schema.StructType(t)
	if err != nil {
		return nil, &schema.IntrospectionError{Type: t, Err: err}
	}
	if d, ok := p.descs.Load(st); ok {
		return d.(*schema.Descriptor), nil
	}

	s, err := p.Schema(st)
	if err != nil {
		return nil, &schema.IntrospectionError{Type: st, Err: err}
	}
	d, err := schema.Build(st, p.options(s)...)
	if err != nil {
		return nil, &schema.IntrospectionError{Type: st, Err: err}
	}
	actual, _ := p.descs.LoadOrStore(st, d)

	return actual.(*schema.Descriptor), nil
}

// options translates a parsed schema into schema.Build options.
func (p *Provider) options(s *gschema.Schema) []schema.Option {
	t := s.ModelType
	promoted := func(name string) bool {
		_, ok := t.FieldByName(name)

		return ok
	}

	identity := lo.Map(s.PrimaryFields, func(f *gschema.Field, _ int) string { return f.Name })

	var toOne, toMany []string
	for _, f := range s.Fields {
		rel, ok := s.Relationships.Relations[f.Name]
		if !ok {
			continue
		}
		switch rel.Type {
		case gschema.HasOne, gschema.BelongsTo:
			toOne = append(toOne, rel.Name)
		case gschema.HasMany, gschema.Many2Many:
			toMany = append(toMany, rel.Name)
		}
	}

	foreign := make(map[string]struct{})
	p.schemas.Range(func(_, v any) bool {
		other, ok := v.(*gschema.Schema)
		if !ok {
			return true
		}
		for _, rel := range other.Relationships.Relations {
			for _, ref := range rel.References {
				if ref.ForeignKey != nil && ref.ForeignKey.Schema != nil && ref.ForeignKey.Schema.ModelType == t {
					foreign[ref.ForeignKey.Name] = struct{}{}
				}
			}
		}

		return true
	})
	linkage := lo.FilterMap(s.Fields, func(f *gschema.Field, _ int) (string, bool) {
		_, isForeign := foreign[f.Name]

		return f.Name, isForeign && !f.PrimaryKey && promoted(f.Name)
	})

	unreadable := lo.FilterMap(s.Fields, func(f *gschema.Field, _ int) (string, bool) {
		return f.Name, !f.Readable && promoted(f.Name) && s.Relationships.Relations[f.Name] == nil
	})

	return []schema.Option{
		schema.Identity(identity...),
		schema.Linkage(linkage...),
		schema.HasOne(toOne...),
		schema.HasMany(toMany...),
		schema.Except(unreadable...),
	}
}
