package memstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) (*SQLite, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "memory.db")
	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestSQLite_SaveLoad(t *testing.T) {
	s, _ := openTestDB(t)
	ctx := context.Background()

	if err := s.Save(ctx, "agent-1", []byte{1, 2, 3}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Save(ctx, "agent-1", []byte{4}); err != nil {
		t.Fatalf("Save overwrite: %v", err)
	}
	got, err := s.Load(ctx, "agent-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 1 || got[0] != 4 {
		t.Fatalf("expected [4], got %v", got)
	}
}

func TestSQLite_NotFound(t *testing.T) {
	s, _ := openTestDB(t)
	if _, err := s.Load(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLite_EmptyBlob(t *testing.T) {
	s, _ := openTestDB(t)
	ctx := context.Background()
	if err := s.Save(ctx, "a", nil); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load(ctx, "a")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty blob, got %v", got)
	}
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	s, path := openTestDB(t)
	ctx := context.Background()
	s.Save(ctx, "b", []byte("two")) //nolint:errcheck
	s.Save(ctx, "a", []byte("one")) //nolint:errcheck
	s.Close()

	reopened, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	ids, err := reopened.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Fatalf("expected [a b], got %v", ids)
	}
	got, _ := reopened.Load(ctx, "b")
	if string(got) != "two" {
		t.Fatalf("expected two, got %q", got)
	}
}

func TestStores_SatisfyInterfaces(t *testing.T) {
	s, _ := openTestDB(t)
	for _, st := range []Store{NewMemory(), s} {
		if _, ok := st.(Lister); !ok {
			t.Fatalf("%T does not list", st)
		}
	}
}
