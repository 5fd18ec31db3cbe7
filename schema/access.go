// SPDX-License-Identifier: MIT
// Package: entclone/schema
//
// access.go - fallible field accessors over entity values.
//
// Reads never panic: a nil embedded pointer on the path, an unexported
// path, or a Loader reporting the field unloaded all yield ok=false.
// Writes allocate nil embedded pointers on the path when they can.

package schema

import (
	"reflect"

	"github.com/cockroachdb/errors"
)

// Value reads field name from the struct value v (as returned by Indirect).
// ok is false when the value is not available.
func (d *Descriptor) Value(v reflect.Value, name string) (reflect.Value, bool) {
	f, ok := d.Field(name)
	if !ok {
		return reflect.Value{}, false
	}
	if v.CanAddr() {
		if l, isLoader := v.Addr().Interface().(Loader); isLoader && !l.Loaded(name) {
			return reflect.Value{}, false
		}
	}
	fv, err := v.FieldByIndexErr(f.Index)
	if err != nil || !fv.CanInterface() {
		return reflect.Value{}, false
	}

	return fv, true
}

// SetValue writes x into field name of the struct value v.
func (d *Descriptor) SetValue(v reflect.Value, name string, x reflect.Value) error {
	f, ok := d.Field(name)
	if !ok {
		return errors.Wrapf(ErrUnknownField, "%s.%s", d.Type.Name(), name)
	}
	fv, err := fieldForWrite(v, f.Index)
	if err != nil {
		return errors.Wrapf(err, "%s.%s", d.Type.Name(), name)
	}
	if !x.IsValid() {
		fv.Set(reflect.Zero(fv.Type()))

		return nil
	}
	if !x.Type().AssignableTo(fv.Type()) {
		return errors.Newf("schema: %s.%s: cannot assign %s to %s", d.Type.Name(), name, x.Type(), fv.Type())
	}
	fv.Set(x)

	return nil
}

// Related returns the entities referenced by rel on entity, in iteration
// order. It returns nil for a nil to-one pointer or a nil to-many slice, and
// a non-nil (possibly empty) slice otherwise. Nil slots inside a to-many
// slice are kept as nil.
func (d *Descriptor) Related(entity any, rel Relationship) ([]any, error) {
	v, err := Indirect(entity)
	if err != nil {
		return nil, err
	}
	fv, err := v.FieldByIndexErr(rel.Index)
	if err != nil || fv.IsNil() {
		return nil, nil
	}
	if rel.Kind == ToOne {
		return []any{fv.Interface()}, nil
	}
	out := make([]any, fv.Len())
	for i := range out {
		if e := fv.Index(i); !e.IsNil() {
			out[i] = e.Interface()
		}
	}

	return out, nil
}

// Assign stores related into rel on entity. A nil related clears the field;
// a to-one relationship accepts at most one element.
func (d *Descriptor) Assign(entity any, rel Relationship, related []any) error {
	v, err := Indirect(entity)
	if err != nil {
		return err
	}
	fv, err := fieldForWrite(v, rel.Index)
	if err != nil {
		return errors.Wrapf(err, "%s.%s", d.Type.Name(), rel.Name)
	}
	if related == nil {
		fv.Set(reflect.Zero(fv.Type()))

		return nil
	}

	switch rel.Kind {
	case ToOne:
		if len(related) > 1 {
			return errors.Wrapf(ErrBadRelationship, "%s.%s: %d values for a to-one relationship",
				d.Type.Name(), rel.Name, len(related))
		}
		return assignElem(fv, related[0])
	case ToMany:
		s := reflect.MakeSlice(fv.Type(), len(related), len(related))
		for i, r := range related {
			if err = assignElem(s.Index(i), r); err != nil {
				return errors.Wrapf(err, "%s.%s[%d]", d.Type.Name(), rel.Name, i)
			}
		}
		fv.Set(s)

		return nil
	default:
		return errors.Wrapf(ErrBadRelationship, "%s.%s: kind %s", d.Type.Name(), rel.Name, rel.Kind)
	}
}

func assignElem(dst reflect.Value, x any) error {
	if x == nil {
		dst.Set(reflect.Zero(dst.Type()))

		return nil
	}
	xv := reflect.ValueOf(x)
	if !xv.Type().AssignableTo(dst.Type()) {
		return errors.Wrapf(ErrBadRelationship, "cannot assign %s to %s", xv.Type(), dst.Type())
	}
	dst.Set(xv)

	return nil
}

// fieldForWrite walks index from v, allocating nil embedded pointers.
func fieldForWrite(v reflect.Value, index []int) (reflect.Value, error) {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				if !v.CanSet() {
					return reflect.Value{}, ErrValueUnavailable
				}
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	if !v.CanSet() {
		return reflect.Value{}, ErrValueUnavailable
	}

	return v, nil
}
