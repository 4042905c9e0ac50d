// Package store keeps handtune's local state in SQLite. It holds settings
// such as the cached OAuth token, never playback or recognition data.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

type Store struct {
	db   *sql.DB
	path string
}

// New opens or creates the database at path and brings its schema up to date.
// Parent directories are created with owner-only permissions since the file
// holds credentials.
func New(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	// Refreshed tokens are saved from background tasks; one connection
	// serializes those writes.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: path}
	version, err := s.migrate()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate store %s: %w", path, err)
	}

	log.WithFields(log.Fields{"path": path, "schema": version}).Debug("Store opened")
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Path() string {
	return s.path
}

// SchemaVersion reports the applied migration count.
func (s *Store) SchemaVersion() (int, error) {
	var v int
	if err := s.db.QueryRow(`PRAGMA user_version`).Scan(&v); err != nil {
		return 0, err
	}
	return v, nil
}
