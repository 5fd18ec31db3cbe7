// SPDX-License-Identifier: MIT

package copier

import (
	"reflect"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"

	"github.com/katalvlaran/entclone/schema"
)

// errNoArguments is the cause used when a factory yields nothing.
var errNoArguments = errors.New("factory returned nil")

// Copy returns a new instance of entity's type with every field outside
// d.Prohibited copied across. Fields whose value is not available on the
// original are skipped silently; a field the copy cannot hold is an error.
func Copy(entity any, d *schema.Descriptor, opts ...Option) (any, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	src, err := schema.Indirect(entity)
	if err != nil {
		return nil, err
	}
	if src.Type() != d.Type {
		return nil, errors.Newf("copier: descriptor for %s used with %s", d.Type, src.Type())
	}

	clone, err := New(d)
	if err != nil {
		return nil, err
	}
	dst := reflect.ValueOf(clone).Elem()

	prohibited := d.Prohibited(o.OmitLinkage)
	o.Logger.Debug("copier: skipping", "type", d.Type, "keys", lo.Keys(prohibited))

	for _, f := range d.Fields {
		if _, skip := prohibited[f.Name]; skip {
			continue
		}
		v, ok := d.Value(src, f.Name)
		if !ok {
			o.Logger.Debug("copier: value not available", "type", d.Type, "key", f.Name)
			continue
		}
		if err = d.SetValue(dst, f.Name, v); err != nil {
			return nil, errors.Wrapf(err, "copier: write %s.%s", d.Type.Name(), f.Name)
		}
	}

	return clone, nil
}

// Object describes entity with p and copies it.
func Object(p schema.Provider, entity any, opts ...Option) (any, error) {
	d, err := schema.Of(p, entity)
	if err != nil {
		return nil, err
	}

	return Copy(entity, d, opts...)
}

// New builds a default instance of d.Type: d.New when set, reflect.New
// otherwise, followed by Construct for schema.Constructible types.
func New(d *schema.Descriptor) (any, error) {
	ptrType := reflect.PointerTo(d.Type)

	var instance any
	if d.New != nil {
		instance = d.New()
		if instance == nil {
			return nil, &ConstructionError{Type: d.Type, Err: errNoArguments}
		}
		if reflect.TypeOf(instance) != ptrType {
			return nil, &ConstructionError{
				Type: d.Type,
				Err:  errors.Newf("factory returned %T, want %s", instance, ptrType),
			}
		}
		if reflect.ValueOf(instance).IsNil() {
			return nil, &ConstructionError{Type: d.Type, Err: errNoArguments}
		}
	} else {
		instance = reflect.New(d.Type).Interface()
	}

	if c, ok := instance.(schema.Constructible); ok {
		if err := c.Construct(); err != nil {
			return nil, &ConstructionError{Type: d.Type, Err: err}
		}
	}

	return instance, nil
}
