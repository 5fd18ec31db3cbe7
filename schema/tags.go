// SPDX-License-Identifier: MIT
// Package: entclone/schema
//
// tags.go - descriptors derived from struct tags, cached per type.
//
// Tag grammar (key "entity" by default), comma separated:
//   • pk | id        identity field
//   • fk             linkage field
//   • rel            relationship, kind inferred from *T / []*T
//   • one | many     relationship with an explicit kind
//   • -              not an entity property; never copied

package schema

import (
	"reflect"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

// TagKey is the default struct tag consulted by TagProvider.
const TagKey = "entity"

// TagProvider builds descriptors from struct tags. Safe for concurrent use.
type TagProvider struct {
	key   string
	cache sync.Map // reflect.Type → *Descriptor
}

// TagOption configures a TagProvider.
type TagOption func(*TagProvider)

// WithTagKey reads tags under key instead of TagKey. Panics on "".
func WithTagKey(key string) TagOption {
	if key == "" {
		panic("schema: WithTagKey(\"\")")
	}

	return func(p *TagProvider) { p.key = key }
}

// NewTagProvider returns a TagProvider with its own cache.
func NewTagProvider(opts ...TagOption) *TagProvider {
	p := &TagProvider{key: TagKey}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

var defaultTags = NewTagProvider()

// Tags returns the shared TagProvider for the default tag key.
func Tags() *TagProvider { return defaultTags }

// Describe implements Provider.
func (p *TagProvider) Describe(t reflect.Type) (*Descriptor, error) {
	st, err := StructType(t)
	if err != nil {
		return nil, &IntrospectionError{Type: t, Err: err}
	}
	if d, ok := p.cache.Load(st); ok {
		return d.(*Descriptor), nil
	}

	opts, err := p.parse(st)
	if err != nil {
		return nil, &IntrospectionError{Type: st, Err: err}
	}
	d, err := Build(st, opts...)
	if err != nil {
		return nil, &IntrospectionError{Type: st, Err: err}
	}
	actual, _ := p.cache.LoadOrStore(st, d)

	return actual.(*Descriptor), nil
}

func (p *TagProvider) parse(t reflect.Type) ([]Option, error) {
	var (
		identity, linkage, inferred, toOne, toMany, keep []string
	)
	for _, f := range exportedFields(t) {
		sf := t.FieldByIndex(f.Index)
		parts := lo.Compact(lo.Map(strings.Split(sf.Tag.Get(p.key), ","), func(s string, _ int) string {
			return strings.TrimSpace(s)
		}))
		if lo.Contains(parts, "-") {
			continue
		}
		keep = append(keep, f.Name)
		for _, part := range parts {
			switch part {
			case "pk", "id":
				identity = append(identity, f.Name)
			case "fk":
				linkage = append(linkage, f.Name)
			case "rel":
				inferred = append(inferred, f.Name)
			case "one":
				toOne = append(toOne, f.Name)
			case "many":
				toMany = append(toMany, f.Name)
			default:
				return nil, errors.Wrapf(ErrBadTag, "%s.%s: %q", t.Name(), f.Name, part)
			}
		}
	}

	return []Option{
		Identity(identity...),
		Linkage(linkage...),
		Relation(inferred...),
		HasOne(toOne...),
		HasMany(toMany...),
		Only(keep...),
	}, nil
}
