// SPDX-License-Identifier: MIT
// Package: entclone/schema
//
// types.go - Descriptor, Relationship, Provider and sentinel errors.
//
// Error policy:
//   • Sentinels are package-level variables; branch with errors.Is.
//   • Providers return *IntrospectionError so callers can match
//     ErrIntrospection regardless of the underlying cause.

package schema

import (
	"fmt"
	"reflect"

	"github.com/cockroachdb/errors"
)

// Sentinel errors for schema lookups and descriptor construction.
var (
	// ErrIntrospection is matched by every *IntrospectionError.
	ErrIntrospection = errors.New("schema: introspection failed")

	// ErrUnknownType indicates a Registry has no descriptor for the type.
	ErrUnknownType = errors.New("schema: unknown entity type")

	// ErrUnknownField indicates an option referenced a field the type lacks.
	ErrUnknownField = errors.New("schema: unknown field")

	// ErrBadRelationship indicates a relationship field with an unsupported shape.
	ErrBadRelationship = errors.New("schema: bad relationship field")

	// ErrBadTag indicates an unrecognized struct tag option.
	ErrBadTag = errors.New("schema: bad struct tag")

	// ErrNotStruct indicates a type or value that is not (a pointer to) a struct.
	ErrNotStruct = errors.New("schema: not a struct")

	// ErrNilEntity indicates a nil interface or nil pointer entity.
	ErrNilEntity = errors.New("schema: entity is nil")

	// ErrUnsettableField indicates a field a new instance cannot hold, such
	// as one promoted through an unexported embedded pointer.
	ErrUnsettableField = errors.New("schema: field cannot be set on a new instance")

	// ErrValueUnavailable indicates a field that cannot be read or written.
	ErrValueUnavailable = errors.New("schema: value not available")
)

// IntrospectionError reports that metadata for Type could not be obtained.
type IntrospectionError struct {
	Type reflect.Type
	Err  error
}

func (e *IntrospectionError) Error() string {
	return fmt.Sprintf("schema: cannot describe %v: %v", e.Type, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *IntrospectionError) Unwrap() error { return e.Err }

// Is matches ErrIntrospection.
func (e *IntrospectionError) Is(target error) bool { return target == ErrIntrospection }

// Kind distinguishes single-valued from collection relationships.
type Kind uint8

const (
	// ToOne relationships hold a single *T (nil means no related entity).
	ToOne Kind = iota + 1
	// ToMany relationships hold an ordered []*T.
	ToMany
)

func (k Kind) String() string {
	switch k {
	case ToOne:
		return "to-one"
	case ToMany:
		return "to-many"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Field is an exported, settable struct field reachable from the entity type,
// including fields promoted from embedded structs.
type Field struct {
	Name  string
	Index []int
	Type  reflect.Type
}

// Relationship declares a structural edge to other entities.
type Relationship struct {
	Field
	Kind Kind
	// Target is the struct type of the related entities.
	Target reflect.Type
}

// Provider supplies metadata per entity type. Implementations must be pure:
// repeated calls for the same type return equivalent descriptors and have no
// side effects beyond internal caching.
type Provider interface {
	Describe(t reflect.Type) (*Descriptor, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(t reflect.Type) (*Descriptor, error)

// Describe calls f(t).
func (f ProviderFunc) Describe(t reflect.Type) (*Descriptor, error) { return f(t) }

// Loader is implemented by entities that compute some fields lazily.
// Loaded returns false for fields whose value is not currently available;
// such fields are skipped when copying.
type Loader interface {
	Loaded(field string) bool
}

// Constructible is implemented by entities that need initialization after
// allocation. A non-nil error means the type cannot be built without
// arguments and fails construction.
type Constructible interface {
	Construct() error
}

// Descriptor is the metadata for one entity type. Build it with Build or a
// Provider; the zero value is not usable.
type Descriptor struct {
	// Type is the struct type (never a pointer).
	Type reflect.Type

	// Fields lists every copy candidate in declaration order, including
	// identity, linkage and relationship fields.
	Fields []Field

	Identity      []string
	Linkage       []string
	Relationships []Relationship

	// New, when set, replaces reflect.New as the zero-argument factory.
	// It must return a pointer to Type.
	New func() any

	index    map[string]int
	identity map[string]struct{}
	linkage  map[string]struct{}
	related  map[string]struct{}
}

// Field returns the field named name.
func (d *Descriptor) Field(name string) (Field, bool) {
	i, ok := d.index[name]
	if !ok {
		return Field{}, false
	}

	return d.Fields[i], true
}

// IsIdentity reports whether name is an identity field.
func (d *Descriptor) IsIdentity(name string) bool {
	_, ok := d.identity[name]

	return ok
}

// IsLinkage reports whether name is a linkage field.
func (d *Descriptor) IsLinkage(name string) bool {
	_, ok := d.linkage[name]

	return ok
}

// IsRelationship reports whether name is a relationship field.
func (d *Descriptor) IsRelationship(name string) bool {
	_, ok := d.related[name]

	return ok
}

// Prohibited returns identity ∪ relationship fields, plus linkage fields
// when omitLinkage is set.
func (d *Descriptor) Prohibited(omitLinkage bool) map[string]struct{} {
	out := make(map[string]struct{}, len(d.identity)+len(d.related)+len(d.linkage))
	for name := range d.identity {
		out[name] = struct{}{}
	}
	for name := range d.related {
		out[name] = struct{}{}
	}
	if omitLinkage {
		for name := range d.linkage {
			out[name] = struct{}{}
		}
	}

	return out
}

// StructType dereferences pointer types and checks the result is a struct.
func StructType(t reflect.Type) (reflect.Type, error) {
	if t == nil {
		return nil, ErrNilEntity
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, errors.Wrapf(ErrNotStruct, "kind %s", t.Kind())
	}

	return t, nil
}

// Indirect returns the addressable struct value behind an entity pointer.
func Indirect(entity any) (reflect.Value, error) {
	if entity == nil {
		return reflect.Value{}, ErrNilEntity
	}
	rv := reflect.ValueOf(entity)
	if rv.Kind() != reflect.Pointer || rv.Type().Elem().Kind() != reflect.Struct {
		return reflect.Value{}, errors.Wrapf(ErrNotStruct, "entity of type %T", entity)
	}
	if rv.IsNil() {
		return reflect.Value{}, ErrNilEntity
	}

	return rv.Elem(), nil
}

// Of describes the dynamic type of entity using p.
func Of(p Provider, entity any) (*Descriptor, error) {
	if entity == nil {
		return nil, ErrNilEntity
	}

	return p.Describe(reflect.TypeOf(entity))
}
