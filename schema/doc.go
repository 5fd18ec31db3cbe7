// SPDX-License-Identifier: MIT

// Package schema describes entity types to the cloners: which fields are
// identity (primary keys), which are linkage (foreign keys), which are
// relationships to other entities, and which are plain values.
//
// What
//
//   - Descriptor: per-type metadata plus fallible field accessors.
//   - Provider:   Describe(reflect.Type) (*Descriptor, error); pure, no side effects.
//   - Registry:   explicit registration table (Register(model, opts...)).
//   - TagProvider: derives descriptors from `entity:"..."` struct tags.
//
// Entities
//
//	An entity is a non-nil pointer to a struct. Object identity is pointer
//	identity. Relationship fields must be *T (to-one) or []*T (to-many);
//	value shapes (T, []T) cannot carry shared identity and are rejected.
//
// Tags
//
//	type Article struct {
//	    ID       uint     `entity:"pk"`
//	    AuthorID uint     `entity:"fk"`
//	    Author   *Author  `entity:"rel"`
//	    Tags     []*Tag   `entity:"rel"`
//	    Cache    string   `entity:"-"`
//	    Title    string
//	}
//
// Value availability
//
//	Descriptor.Value reports ok=false when a value cannot be read: a nil
//	embedded pointer lies on the field path, or the entity implements Loader
//	and reports the field as not loaded. Callers treat that as "omit".
//
// Errors
//
//   - ErrIntrospection    matched by every *IntrospectionError.
//   - ErrUnknownType      type not registered with a Registry.
//   - ErrUnknownField     option names a field the type does not have.
//   - ErrBadRelationship  relationship field has an unsupported shape.
//   - ErrBadTag           unknown struct tag option.
//   - ErrNotStruct        value is not a pointer to a struct.
//   - ErrNilEntity        nil entity or nil pointer.
//   - ErrUnsettableField  field a new instance cannot hold.
//   - ErrValueUnavailable field cannot be read or written.
package schema
