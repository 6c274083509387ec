// Package linkstore is the durable link store: saved links keyed by URL,
// tagging, curation flags, free-text search, learned extraction patterns,
// and an activity log. SQLite with FTS5.
package linkstore

import (
	"database/sql"

	"github.com/notactuallytreyanastasio/browser-mcp/dbopen"
	"github.com/notactuallytreyanastasio/browser-mcp/idgen"
)

// Store is the link store database handle.
type Store struct {
	DB    *sql.DB
	newID idgen.Generator
}

// Open opens (or creates) the link store at path, applying pragmas and
// the schema.
func Open(path string, opts ...dbopen.Option) (*Store, error) {
	allOpts := append([]dbopen.Option{
		dbopen.WithMkdirAll(),
		dbopen.WithSchema(Schema),
	}, opts...)

	db, err := dbopen.Open(path, allOpts...)
	if err != nil {
		return nil, err
	}
	return NewStore(db), nil
}

// NewStore wraps an already-opened database (tests use this with an
// in-memory db that has the schema applied).
func NewStore(db *sql.DB) *Store {
	return &Store{DB: db, newID: idgen.Prefixed("lnk_", idgen.UUIDv7())}
}

// Close closes the database.
func (s *Store) Close() error {
	return s.DB.Close()
}
