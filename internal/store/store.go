// Package store persists the goal graph. Two backends share one boundary: a
// SQLite database (the default, which also keeps the calendar journal and
// embedding vectors) and a locked, checksummed flat file in JSON, YAML, or
// TOML. Both rehydrate the full graph on load and write incremental change
// sets after each operation.
package store

import (
	"fmt"
	"strings"

	"github.com/stridehq/stride/internal/goal"
)

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
)

// Store is the persistence boundary for the goal graph.
type Store interface {
	// Load rehydrates every stored goal and dependency edge.
	Load() ([]*goal.Goal, []*goal.Edge, error)

	// Apply writes one flushed change set: upserts for dirty goals, deletes
	// for removed ids, and a full edge-set replacement when edges changed.
	Apply(cs *goal.ChangeSet) error

	// Close releases the backing resource, such as a database handle or a
	// file lock.
	Close() error
}

// Open returns the store for the configured backend. For the file backend,
// format selects the encoding (json, yaml, or toml) and is ignored otherwise.
func Open(backend, path, format string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendSQLite:
		return NewSQLiteStore(path)
	case BackendFile:
		return NewFileStore(path, format)
	default:
		return nil, fmt.Errorf("unknown store backend %q (supported: sqlite, file)", backend)
	}
}
