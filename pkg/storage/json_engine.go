package storage

import (
	"fmt"
	"os"

	"github.com/Chahine-tech/rowql/pkg/catalog"
)

// JSONFileEngine persists a database as a single pretty-printed JSON file,
// read in full on Load and rewritten in full on every Save.
type JSONFileEngine struct {
	path string
}

// NewJSONFileEngine returns an Engine backed by the file at path.
func NewJSONFileEngine(path string) *JSONFileEngine {
	return &JSONFileEngine{path: path}
}

// Load reads and decodes the snapshot at path, returning a fresh empty
// database if the file does not exist yet.
func (e *JSONFileEngine) Load() (*catalog.Database, error) {
	data, err := os.ReadFile(e.path)
	if err != nil {
		if os.IsNotExist(err) {
			return catalog.NewDatabase(), nil
		}
		return nil, fmt.Errorf("storage: reading %s: %w", e.path, err)
	}
	if len(data) == 0 {
		return catalog.NewDatabase(), nil
	}
	db, err := unmarshalDatabase(data)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// Save serializes db and writes it to path, replacing any prior contents.
func (e *JSONFileEngine) Save(db *catalog.Database) error {
	data, err := marshalDatabase(db)
	if err != nil {
		return fmt.Errorf("storage: serializing database: %w", err)
	}
	if err := os.WriteFile(e.path, data, 0o644); err != nil {
		return fmt.Errorf("storage: writing %s: %w", e.path, err)
	}
	return nil
}
