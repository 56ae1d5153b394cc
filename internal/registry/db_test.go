package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/blackwell-systems/addonsweep/internal/extension"
)

// Helper function to create an in-memory store for testing
func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	return store
}

func insert(t *testing.T, s *Store, rec *extension.Record) *extension.Record {
	t.Helper()
	if err := s.Insert(context.Background(), rec); err != nil {
		t.Fatalf("Insert(%s) failed: %v", rec.Element, err)
	}
	return rec
}

func TestNew(t *testing.T) {
	store, err := New(":memory:")
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer store.Close()

	if store.db == nil {
		t.Error("Store.db should not be nil")
	}
}

func TestMigrate(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	var name string
	err := store.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='extensions'").Scan(&name)
	if err != nil {
		t.Errorf("Table extensions not found: %v", err)
	}

	// Running migrations twice is a no-op
	if err := store.Migrate(context.Background()); err != nil {
		t.Errorf("second Migrate() failed: %v", err)
	}
}

// TestListFamily_NoSchema_ReturnsErrNotInitialized verifies that querying a
// fresh DB without migrations returns ErrNotInitialized.
func TestListFamily_NoSchema_ReturnsErrNotInitialized(t *testing.T) {
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer s.Close()

	_, err = s.ListFamily(context.Background(), "acme")
	if !errors.Is(err, ErrNotInitialized) {
		t.Errorf("ListFamily() error = %v; want errors.Is(err, ErrNotInitialized)", err)
	}

	_, err = s.Get(context.Background(), 1)
	if !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Get() error = %v; want errors.Is(err, ErrNotInitialized)", err)
	}
}

func TestInsertAndGet(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	rec := insert(t, store, &extension.Record{
		Name:         "Acme Search",
		Kind:         extension.KindHook,
		Element:      "acmesearch",
		Folder:       "search",
		Scope:        extension.ScopeSite,
		Enabled:      true,
		ManifestBlob: `{"version":"1.0.16"}`,
	})

	if rec.ID == 0 {
		t.Fatal("Insert() should set a non-zero ID")
	}

	got, err := store.Get(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}

	if *got != *rec {
		t.Errorf("Get() = %+v, want %+v", got, rec)
	}
}

func TestGetNotFound(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	_, err := store.Get(context.Background(), 42)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestListFamily(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	insert(t, store, &extension.Record{Name: "Acme Widget", Kind: extension.KindWidget, Element: "mod_acme_feed"})
	insert(t, store, &extension.Record{Name: "Zeta", Kind: extension.KindBundle, Element: "com_acme_zeta"})
	insert(t, store, &extension.Record{Name: "Alpha", Kind: extension.KindBundle, Element: "com_acme"})
	insert(t, store, &extension.Record{Name: "Acme Content Hook", Kind: extension.KindHook, Element: "pagebreak", Folder: "acme"})
	insert(t, store, &extension.Record{Name: "Other", Kind: extension.KindBundle, Element: "com_other"})
	insert(t, store, &extension.Record{Name: "Upper", Kind: extension.KindBundle, Element: "com_ACME"})

	records, err := store.ListFamily(context.Background(), "acme")
	if err != nil {
		t.Fatalf("ListFamily() failed: %v", err)
	}

	want := []string{"Alpha", "Zeta", "Acme Content Hook", "Acme Widget"}
	if len(records) != len(want) {
		t.Fatalf("ListFamily() returned %d records, want %d", len(records), len(want))
	}
	for i, rec := range records {
		if rec.Name != want[i] {
			t.Errorf("records[%d].Name = %s, want %s", i, rec.Name, want[i])
		}
	}
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	keep := insert(t, store, &extension.Record{Name: "Keep", Kind: extension.KindBundle, Element: "com_acme_keep"})
	gone := insert(t, store, &extension.Record{Name: "Gone", Kind: extension.KindBundle, Element: "com_acme_gone"})

	if err := store.Delete(context.Background(), gone.ID); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}

	if _, err := store.Get(context.Background(), gone.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after Delete() error = %v, want ErrNotFound", err)
	}
	if _, err := store.Get(context.Background(), keep.ID); err != nil {
		t.Errorf("Delete() removed the wrong record: %v", err)
	}

	n, err := store.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Count() = %d, want 1", n)
	}
}

func TestDeleteNotFound(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	err := store.Delete(context.Background(), 99)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}
