package kvstore

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestSetGetDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	err = s.Set("mode", "true")
	if err != nil {
		t.Fatalf("set: %v", err)
	}

	v, err := s.Get("mode")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if v != "true" {
		t.Fatalf("expected value true, got %s", v)
	}

	err = s.Delete("mode")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}

	_, err = s.Get("mode")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMissingKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	_, err = s.Get("nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReopenPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	err = s.Set("a", "1")
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	err = s.Set("b", "2")
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	err = s.Delete("a")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}

	v, err := s2.Get("b")
	if err != nil || v != "2" {
		t.Fatalf("expected b=2 after reopen, got %s (%v)", v, err)
	}
	_, err = s2.Get("a")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted key must stay deleted after reopen, got %v", err)
	}
}

func TestOpenMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.json")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open on missing file must succeed, got %v", err)
	}

	_, err = s.Get("anything")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound from empty store, got %v", err)
	}
}
