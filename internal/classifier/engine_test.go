package classifier

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/blackwell-systems/addonsweep/internal/catalog"
	"github.com/blackwell-systems/addonsweep/internal/extension"
	"github.com/blackwell-systems/addonsweep/internal/inventory"
	"github.com/blackwell-systems/addonsweep/internal/registry"
	"github.com/blackwell-systems/addonsweep/internal/resolver"
	"github.com/blackwell-systems/addonsweep/internal/scanner"
)

const legacyCall = "<?php\n$id = JRequest::getInt('id');\n"

func setupTestStore(t *testing.T) *registry.Store {
	t.Helper()
	st, err := registry.New(":memory:")
	if err != nil {
		t.Fatalf("registry.New() failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}
	return st
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func newTestEngine(src inventory.Source, host string) *Engine {
	return NewEngine(
		inventory.New(src, "acme"),
		resolver.New(resolver.FromHostRoot(host)),
		scanner.New(catalog.Default(), nil),
		New(DefaultProtectedSet()),
	)
}

func insert(t *testing.T, st *registry.Store, rec *extension.Record) *extension.Record {
	t.Helper()
	if err := st.Insert(context.Background(), rec); err != nil {
		t.Fatalf("Insert() failed: %v", err)
	}
	return rec
}

func TestEngine_ScenarioA_LegacyHostCall(t *testing.T) {
	st := setupTestStore(t)
	host := t.TempDir()
	rec := insert(t, st, &extension.Record{
		Name: "Acme Feed", Kind: extension.KindBundle, Element: "com_acme_feed",
		ManifestBlob: `{"version":"1.0.16","authorUrl":"http://legacy.example/"}`,
	})
	writeFile(t, filepath.Join(host, "components", "com_acme_feed", "feed.php"), legacyCall)

	listing, err := newTestEngine(st, host).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	res, ok := listing.Find(rec.ID)
	if !ok {
		t.Fatal("extension missing from listing")
	}
	if res.Status != extension.StatusIncompatible {
		t.Fatalf("Status = %s, want incompatible", res.Status)
	}
	if !strings.Contains(res.Reason, "1 host-API issue") {
		t.Errorf("Reason = %q, want it to mention 1 host-API issue", res.Reason)
	}
	if !strings.Contains(res.Reason, "version: 1.0.16") {
		t.Errorf("Reason = %q, want the manifest version", res.Reason)
	}
	if !res.Selectable() {
		t.Error("incompatible extension should be selectable")
	}
}

func TestEngine_ScenarioB_CleanSource(t *testing.T) {
	st := setupTestStore(t)
	host := t.TempDir()
	rec := insert(t, st, &extension.Record{
		Name: "Acme Feed", Kind: extension.KindBundle, Element: "com_acme_feed",
		ManifestBlob: `{"version":"4.0.0","authorUrl":"http://legacy.example/"}`,
	})
	writeFile(t, filepath.Join(host, "components", "com_acme_feed", "feed.php"),
		"<?php\n$id = $app->input->getInt('id');\n")

	listing, err := newTestEngine(st, host).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	res, _ := listing.Find(rec.ID)
	if res.Status != extension.StatusCompatible {
		t.Errorf("Status = %s, want compatible", res.Status)
	}
	if res.Selectable() {
		t.Error("compatible extension should not be selectable")
	}
}

func TestEngine_ScenarioC_ProtectedWithLegacyCalls(t *testing.T) {
	st := setupTestStore(t)
	host := t.TempDir()
	rec := insert(t, st, &extension.Record{
		Name: "Acme Core", Kind: extension.KindLibrary, Element: "core-engine", Folder: "acme",
		ManifestBlob: `{"version":"1.0.0"}`,
	})
	writeFile(t, filepath.Join(host, "libraries", "core-engine", "engine.php"), legacyCall)

	listing, err := newTestEngine(st, host).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	res, ok := listing.Find(rec.ID)
	if !ok {
		t.Fatal("protected extension missing from listing")
	}
	if res.Status == extension.StatusIncompatible {
		t.Fatal("protected extension classified incompatible")
	}
	if res.Status != extension.StatusCore {
		t.Errorf("Status = %s, want core", res.Status)
	}
	if res.Reason != "Product core engine (version 1.0.0)" {
		t.Errorf("Reason = %q", res.Reason)
	}
}

func TestEngine_GroupsAllFourSections(t *testing.T) {
	st := setupTestStore(t)
	host := t.TempDir()

	insert(t, st, &extension.Record{Name: "Legacy", Kind: extension.KindWidget, Element: "mod_acme_legacy"})
	insert(t, st, &extension.Record{Name: "Gone", Kind: extension.KindTheme, Element: "tpl_acme_gone"})
	insert(t, st, &extension.Record{Name: "Lang", Kind: extension.KindLanguagePack, Element: "acme-en-GB"})
	insert(t, st, &extension.Record{Name: "Clean", Kind: extension.KindHook, Element: "feed", Folder: "acme"})
	insert(t, st, &extension.Record{Name: "Core", Kind: extension.KindLibrary, Element: "core-engine", Folder: "acme"})
	insert(t, st, &extension.Record{Name: "Contact", Kind: extension.KindBundle, Element: "com_contact"})

	writeFile(t, filepath.Join(host, "modules", "mod_acme_legacy", "mod.php"), "<?php\nAcmeLegacyHelper::render();\n")
	writeFile(t, filepath.Join(host, "plugins", "acme", "feed", "feed.php"), "<?php\nreturn true;\n")

	listing, err := newTestEngine(st, host).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	if listing.Len() != 5 {
		t.Fatalf("Len() = %d, want 5 (com_contact is not in the family)", listing.Len())
	}

	wantOrder := []extension.Status{
		extension.StatusIncompatible, extension.StatusNoFiles,
		extension.StatusCompatible, extension.StatusCore,
	}
	for i, sec := range listing.Sections {
		if sec.Status != wantOrder[i] {
			t.Errorf("section %d = %s, want %s", i, sec.Status, wantOrder[i])
		}
	}

	counts := listing.Counts()
	want := map[extension.Status]int{
		extension.StatusIncompatible: 1,
		extension.StatusNoFiles:      2,
		extension.StatusCompatible:   1,
		extension.StatusCore:         1,
	}
	for st, n := range want {
		if counts[st] != n {
			t.Errorf("%s count = %d, want %d", st, counts[st], n)
		}
	}

	if got := len(listing.Selectable()); got != 3 {
		t.Errorf("Selectable() = %d results, want 3", got)
	}
}

func TestEngine_ResolvedButMissingIsNoFiles(t *testing.T) {
	st := setupTestStore(t)
	rec := insert(t, st, &extension.Record{Name: "Acme", Kind: extension.KindBundle, Element: "com_acme", ManifestBlob: "{not json"})

	listing, err := newTestEngine(st, t.TempDir()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	res, _ := listing.Find(rec.ID)
	if res.Status != extension.StatusNoFiles {
		t.Errorf("Status = %s, want no-files", res.Status)
	}
	if res.Path == "" {
		t.Error("resolved path should be kept for display")
	}
	if !strings.Contains(res.Reason, "author: unknown") {
		t.Errorf("Reason = %q, want unknown author for malformed manifest", res.Reason)
	}
}

func TestEngine_UnparsableManifestStillScans(t *testing.T) {
	st := setupTestStore(t)
	host := t.TempDir()
	rec := insert(t, st, &extension.Record{Name: "Acme", Kind: extension.KindBundle, Element: "com_acme", ManifestBlob: "\x00garbage"})
	writeFile(t, filepath.Join(host, "components", "com_acme", "a.php"), legacyCall)

	listing, err := newTestEngine(st, host).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	res, _ := listing.Find(rec.ID)
	if res.Status != extension.StatusIncompatible {
		t.Errorf("Status = %s, want incompatible", res.Status)
	}
	if !strings.Contains(res.Reason, "(author: unknown, version: unknown)") {
		t.Errorf("Reason = %q", res.Reason)
	}
}

type failingSource struct{}

func (failingSource) ListFamily(ctx context.Context, prefix string) ([]*extension.Record, error) {
	return nil, errors.New("registry unavailable")
}

func TestEngine_LoaderErrorIsFatal(t *testing.T) {
	listing, err := newTestEngine(failingSource{}, t.TempDir()).Run(context.Background())
	if err == nil {
		t.Fatal("Run() should fail when the inventory cannot be loaded")
	}
	if listing != nil {
		t.Error("Run() returned a listing alongside an error")
	}
}

func TestEngine_ClassifyRecord(t *testing.T) {
	host := t.TempDir()
	writeFile(t, filepath.Join(host, "administrator", "components", "com_acme", "admin.php"), "<?php\njimport('joomla.filesystem.file');\n")

	e := newTestEngine(failingSource{}, host)
	res := e.ClassifyRecord(&extension.Record{ID: 9, Kind: extension.KindBundle, Element: "com_acme", Scope: extension.ScopeAdmin})

	if res.Status != extension.StatusIncompatible || len(res.Issues) != 1 {
		t.Errorf("ClassifyRecord() = %s with %d issues, want incompatible with 1", res.Status, len(res.Issues))
	}
}

func TestEngine_RunsAreIndependent(t *testing.T) {
	st := setupTestStore(t)
	host := t.TempDir()
	rec := insert(t, st, &extension.Record{Name: "Acme", Kind: extension.KindBundle, Element: "com_acme"})
	e := newTestEngine(st, host)

	first, err := e.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if r, _ := first.Find(rec.ID); r.Status != extension.StatusNoFiles {
		t.Fatalf("first run Status = %s, want no-files", r.Status)
	}

	writeFile(t, filepath.Join(host, "components", "com_acme", "a.php"), "<?php\n")

	second, err := e.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if r, _ := second.Find(rec.ID); r.Status != extension.StatusCompatible {
		t.Errorf("second run Status = %s, want compatible", r.Status)
	}
}
