// SPDX-License-Identifier: MIT

// Package entclone copies arbitrary, possibly cyclic graphs of entities.
//
// An entity is a pointer to a struct. Its fields fall into four roles,
// described by a schema.Descriptor: identity fields (primary keys),
// linkage fields (foreign keys that encode a relationship), relationship
// fields (*T or []*T pointing at other entities) and plain values.
//
// Cloning runs in three phases:
//
//	discover - breadth-first walk from the root; every reachable entity is
//	           copied once, plain values only, and recorded in an arena;
//	rewire   - each copy's relationship fields are pointed at the copies
//	           of the originals they referenced;
//	register - every copy is handed to a session.Registrar, which assigns
//	           identities when it commits.
//
// The originals are never modified. Shared and cyclic references map to
// shared and cyclic references among the copies.
//
// Subpackages:
//
//	schema/      - role descriptors from struct tags, options or a registry
//	arena/       - original to clone mapping with edge bookkeeping
//	copier/      - per-object copy of plain values, construction errors
//	graphclone/  - the three-phase driver
//	session/     - Registrar contract and an in-memory unit of work
//	gormadapter/ - GORM-backed descriptors and a transactional unit of work
//	config/      - viper-backed settings and logger construction
//	cmd/entclone - command line demo over SQLite
//
// Quick start:
//
//	mem := session.NewMemory(nil)
//	res, err := graphclone.Run(root, mem)
//	if err != nil { ... }
//	err = mem.Commit(ctx)
//	copy := res.Root.(*Folder)
package entclone
