package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "test.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Fatal("database file should exist after creating store")
	}
	if s.Path() != dbPath {
		t.Errorf("Path() = %q, want %q", s.Path(), dbPath)
	}
}

func TestNewStore_SchemaVersion(t *testing.T) {
	s := newTestStore(t)

	v, err := s.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion() error = %v", err)
	}
	if v != len(migrations) {
		t.Errorf("SchemaVersion() = %d, want %d", v, len(migrations))
	}
}

func TestNewStore_RejectsNewerSchema(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", len(migrations)+1)); err != nil {
		t.Fatal(err)
	}
	s.Close()

	if s, err := New(dbPath); err == nil {
		s.Close()
		t.Error("New() should refuse a schema from a newer build")
	}
}

func TestNewStore_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	if err := s.Settings().Set("k", "v"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	s.Close()

	s, err = New(dbPath)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer s.Close()

	if v, err := s.Settings().Get("k"); err != nil || v != "v" {
		t.Errorf("Get() after reopen = %q, %v", v, err)
	}
}

func TestStore_Close(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	if err := s.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := s.Settings().Set("k", "v"); err == nil {
		t.Error("Set() should fail after Close()")
	}
}

func TestSettings_GetSetDelete(t *testing.T) {
	settings := newTestStore(t).Settings()

	if _, err := settings.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}

	if err := settings.Set("spotify.token", "first"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := settings.Set("spotify.token", "second"); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}

	got, err := settings.Get("spotify.token")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "second" {
		t.Errorf("Get() = %q, want second", got)
	}

	if err := settings.Delete("spotify.token"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := settings.Get("spotify.token"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
	if err := settings.Delete("spotify.token"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() twice error = %v, want ErrNotFound", err)
	}
}

func TestSettings_JSON(t *testing.T) {
	settings := newTestStore(t).Settings()

	type token struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}

	in := token{Access: "a", Refresh: "r"}
	if err := settings.SetJSON("tok", in); err != nil {
		t.Fatalf("SetJSON() error = %v", err)
	}

	var out token
	if err := settings.GetJSON("tok", &out); err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}
	if out != in {
		t.Errorf("GetJSON() = %+v, want %+v", out, in)
	}

	if err := settings.Set("broken", "{"); err != nil {
		t.Fatal(err)
	}
	if err := settings.GetJSON("broken", &out); err == nil {
		t.Error("GetJSON() should fail on malformed JSON")
	}
	if err := settings.GetJSON("absent", &out); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetJSON(absent) error = %v, want ErrNotFound", err)
	}
}
