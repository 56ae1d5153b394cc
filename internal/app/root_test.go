package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/blackwell-systems/addonsweep/internal/config"
	"github.com/blackwell-systems/addonsweep/internal/extension"
	"github.com/blackwell-systems/addonsweep/internal/registry"
)

const legacyCall = "<?php\n$id = JRequest::getInt('id');\n"

// fixture is a host tree plus a SQLite registry holding one extension per
// status and one extension outside the family.
type fixture struct {
	dir    string
	host   string
	db     string
	config string
	ids    map[string]int64 // element -> id
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

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{
		dir:    dir,
		host:   filepath.Join(dir, "www"),
		db:     filepath.Join(dir, "registry.db"),
		config: filepath.Join(dir, "config.yaml"),
		ids:    make(map[string]int64),
	}

	writeFile(t, filepath.Join(f.host, "libraries", "core-engine", "engine.php"), legacyCall)
	writeFile(t, filepath.Join(f.host, "modules", "mod_acme_feed", "mod_acme_feed.php"), legacyCall)
	writeFile(t, filepath.Join(f.host, "templates", "tpl_acme", "index.php"), "<?php\necho 'ok';\n")
	writeFile(t, filepath.Join(f.host, "components", "com_contact", "contact.php"), legacyCall)
	for _, d := range []string{"administrator", "plugins"} {
		if err := os.MkdirAll(filepath.Join(f.host, d), 0755); err != nil {
			t.Fatal(err)
		}
	}

	st, err := registry.New(f.db)
	if err != nil {
		t.Fatalf("registry.New() failed: %v", err)
	}
	defer st.Close()
	ctx := context.Background()
	if err := st.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}

	manifest := `{"version":"1.0.0","author":"Jane"}`
	for _, rec := range []*extension.Record{
		{Name: "Acme Core", Kind: extension.KindLibrary, Element: "core-engine", Folder: "acme", ManifestBlob: manifest},
		{Name: "Acme Feed", Kind: extension.KindWidget, Element: "mod_acme_feed", ManifestBlob: manifest},
		{Name: "Acme Theme", Kind: extension.KindTheme, Element: "tpl_acme", ManifestBlob: manifest},
		{Name: "Acme Ghost", Kind: extension.KindBundle, Element: "com_acme_ghost", ManifestBlob: manifest},
		{Name: "Contact", Kind: extension.KindBundle, Element: "com_contact"},
	} {
		if err := st.Insert(ctx, rec); err != nil {
			t.Fatalf("Insert() failed: %v", err)
		}
		f.ids[rec.Element] = rec.ID
	}

	f.writeConfig(t, "uninstall:\n  command: \"true\"\nlog:\n  level: error\n")
	return f
}

func (f *fixture) writeConfig(t *testing.T, content string) {
	t.Helper()
	writeFile(t, f.config, content)
}

// run executes the root command with the fixture's global flags and returns
// stdout, stderr and the error. Command flag variables are reset first since
// cobra keeps them between executions.
func (f *fixture) run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(t)

	var stdout, stderr bytes.Buffer
	RootCmd.SetOut(&stdout)
	RootCmd.SetErr(&stderr)
	RootCmd.SetIn(strings.NewReader(stdin))
	RootCmd.SetArgs(append([]string{"--config", f.config, "--db", f.db, "--host-root", f.host}, args...))

	err := RootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func (f *fixture) store(t *testing.T) *registry.Store {
	t.Helper()
	st, err := registry.New(f.db)
	if err != nil {
		t.Fatalf("registry.New() failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func resetFlags(t *testing.T) {
	t.Helper()
	configPath, dbDSN, hostRoot = "", "", ""
	scanJSON, scanQuiet = false, false
	removeFlagStatus, removeFlagDryRun, removeFlagYes = "", false, false
	serveListen = ""
	t.Cleanup(func() {
		configPath, dbDSN, hostRoot = "", "", ""
		RootCmd.SetArgs(nil)
		RootCmd.SetIn(nil)
		RootCmd.SetOut(nil)
		RootCmd.SetErr(nil)
	})
}

func TestRootCommand(t *testing.T) {
	if RootCmd.Use != "addonsweep" {
		t.Errorf("expected Use to be 'addonsweep', got '%s'", RootCmd.Use)
	}
	if RootCmd.Short == "" {
		t.Error("expected Short description to be set")
	}
	if RootCmd.Long == "" {
		t.Error("expected Long description to be set")
	}
}

func TestRootCommandHasSubcommands(t *testing.T) {
	found := make(map[string]bool)
	for _, cmd := range RootCmd.Commands() {
		found[cmd.Name()] = true
	}

	for _, expected := range []string{"scan", "explain", "remove", "serve", "watch", "doctor"} {
		if !found[expected] {
			t.Errorf("expected command '%s' to be registered", expected)
		}
	}
}

func TestRootCommandHasPersistentFlags(t *testing.T) {
	for _, name := range []string{"config", "db", "host-root"} {
		flag := RootCmd.PersistentFlags().Lookup(name)
		if flag == nil {
			t.Errorf("expected --%s flag to be registered", name)
			continue
		}
		if flag.Usage == "" {
			t.Errorf("expected --%s flag to have usage text", name)
		}
	}
}

func TestDriverFor(t *testing.T) {
	tests := []struct {
		dsn  string
		want string
	}{
		{"postgres://u:p@localhost/site", config.DriverPostgres},
		{"postgresql://localhost/site", config.DriverPostgres},
		{"/var/lib/site/registry.db", config.DriverSQLite},
		{":memory:", config.DriverSQLite},
		{"file:registry.db?mode=ro", config.DriverSQLite},
	}

	for _, tt := range tests {
		if got := driverFor(tt.dsn); got != tt.want {
			t.Errorf("driverFor(%q) = %q, want %q", tt.dsn, got, tt.want)
		}
	}
}

func TestLoadConfig_FlagOverrides(t *testing.T) {
	resetFlags(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "host:\n  root: /from/file\nregistry:\n  driver: postgres\n  dsn: postgres://file/db\n")

	configPath = path
	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Host.Root != "/from/file" || cfg.Registry.Driver != config.DriverPostgres {
		t.Fatalf("file values not applied: %+v", cfg)
	}

	dbDSN = filepath.Join(dir, "fixture.db")
	hostRoot = "/from/flag"
	cfg, err = loadConfig()
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Host.Root != "/from/flag" {
		t.Errorf("Host.Root = %q, want the --host-root value", cfg.Host.Root)
	}
	if cfg.Registry.Driver != config.DriverSQLite || cfg.Registry.DSN != dbDSN {
		t.Errorf("registry = %s %s, want sqlite %s", cfg.Registry.Driver, cfg.Registry.DSN, dbDSN)
	}
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	resetFlags(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "registry:\n  driver: oracle\n")

	configPath = path
	if _, err := loadConfig(); err == nil {
		t.Error("loadConfig() should reject an unknown registry driver")
	}
}

func TestRootCommand_NoArgsPrintsHint(t *testing.T) {
	f := newFixture(t)
	stdout, _, err := f.run(t, "")
	if err != nil {
		t.Fatalf("root command error = %v", err)
	}
	if !strings.Contains(stdout, "addonsweep scan") {
		t.Errorf("expected a usage hint, got:\n%s", stdout)
	}
}

func TestUnknownCommandSuggests(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.run(t, "", "scna")
	if err == nil || !strings.Contains(err.Error(), "scan") {
		t.Errorf("expected a suggestion for 'scan', got %v", err)
	}
}
