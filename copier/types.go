// SPDX-License-Identifier: MIT

// Package copier creates a detached copy of one entity: a freshly
// constructed instance of the same type carrying the original's plain field
// values, with identity, relationship and (by default) linkage fields left
// at their construction defaults.
//
// It has no knowledge of graph structure and registers nothing.
package copier

import (
	"fmt"
	"reflect"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
)

// ErrConstruction is matched by every *ConstructionError.
var ErrConstruction = errors.New("copier: construction failed")

// ConstructionError reports that Type could not be built without arguments.
type ConstructionError struct {
	Type reflect.Type
	Err  error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("copier: cannot construct %v: %v", e.Type, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *ConstructionError) Unwrap() error { return e.Err }

// Is matches ErrConstruction.
func (e *ConstructionError) Is(target error) bool { return target == ErrConstruction }

// Option configures Copy.
type Option func(*Options)

// Options holds Copy parameters.
type Options struct {
	// OmitLinkage leaves linkage (foreign key) fields at their defaults.
	OmitLinkage bool

	// Logger receives debug output about skipped fields.
	Logger *log.Logger
}

// DefaultOptions omits linkage fields and logs through charm's default logger.
func DefaultOptions() Options {
	return Options{OmitLinkage: true, Logger: log.Default()}
}

// WithOmitLinkage controls whether linkage fields are left out of the copy.
func WithOmitLinkage(omit bool) Option {
	return func(o *Options) { o.OmitLinkage = omit }
}

// WithLogger sets the logger; nil is ignored.
func WithLogger(l *log.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}
