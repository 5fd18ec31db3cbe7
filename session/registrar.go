// SPDX-License-Identifier: MIT

// Package session is the persistence boundary of the cloners: anything that
// accepts new entities for eventual insertion into a store.
//
// The cloners only ever call Register. Durability, flushing and transaction
// handling are the implementation's business; Memory is an in-process unit
// of work that assigns identities on Commit, and gormadapter.UnitOfWork
// writes to a database.
package session

import (
	"github.com/cockroachdb/errors"
)

// Sentinel errors for session implementations.
var (
	// ErrNilEntity is returned when Register receives nil.
	ErrNilEntity = errors.New("session: entity is nil")

	// ErrUnsupportedIdentity is returned when Memory cannot generate a value
	// for an identity field's type.
	ErrUnsupportedIdentity = errors.New("session: unsupported identity type")
)

// Registrar registers a newly created entity with a persistence context.
// Register may be called many times with distinct entities; implementations
// decide whether and when the entity becomes durable.
type Registrar interface {
	Register(entity any) error
}

// RegistrarFunc adapts a function to the Registrar interface.
type RegistrarFunc func(entity any) error

// Register calls f(entity).
func (f RegistrarFunc) Register(entity any) error { return f(entity) }

// Discard accepts and forgets every entity.
var Discard Registrar = RegistrarFunc(func(any) error { return nil })
