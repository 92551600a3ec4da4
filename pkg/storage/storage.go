// Package storage persists a *catalog.Database across process restarts.
// Engine is the abstraction point: today only a JSON file engine exists,
// but any implementation backing a Load/Save pair can be substituted.
package storage

import "github.com/Chahine-tech/rowql/pkg/catalog"

// Engine abstracts how a Database is loaded from and saved to durable
// storage, leaving room to add other backends later without touching
// callers.
type Engine interface {
	// Load reads whatever database state exists, returning a fresh empty
	// database if none is found yet.
	Load() (*catalog.Database, error)
	// Save persists db in full, replacing any prior saved state.
	Save(db *catalog.Database) error
}
