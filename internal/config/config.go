// Package config loads the addonsweep configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/blackwell-systems/addonsweep/internal/catalog"
	"github.com/blackwell-systems/addonsweep/internal/classifier"
	"github.com/blackwell-systems/addonsweep/internal/host"
	"github.com/blackwell-systems/addonsweep/internal/resolver"
)

// FileName is the config file name inside Dir().
const FileName = "config.yaml"

// Registry drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config is the full configuration.
type Config struct {
	Product   ProductConfig   `yaml:"product"`
	Host      HostConfig      `yaml:"host"`
	Registry  RegistryConfig  `yaml:"registry"`
	Uninstall UninstallConfig `yaml:"uninstall"`
	Scan      ScanConfig      `yaml:"scan"`
	Serve     ServeConfig     `yaml:"serve"`
	Log       LogConfig       `yaml:"log"`
}

// ProductConfig names the product family and its protected elements.
type ProductConfig struct {
	Prefix  string   `yaml:"prefix"`
	Core    []string `yaml:"core"`
	Tooling []string `yaml:"tooling"`
}

// HostConfig locates the host installation. Root derives the standard layout;
// the other fields override single roots.
type HostConfig struct {
	Root      string `yaml:"root"`
	Site      string `yaml:"site"`
	Admin     string `yaml:"admin"`
	Plugins   string `yaml:"plugins"`
	Libraries string `yaml:"libraries"`
}

// RegistryConfig selects the registry store.
type RegistryConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
	Table  string `yaml:"table"` // postgres only
}

// UninstallConfig holds the host uninstall command template.
type UninstallConfig struct {
	Command string `yaml:"command"`
}

// ScanConfig tunes the source scanner.
type ScanConfig struct {
	Extensions []string        `yaml:"extensions"`
	Workers    int             `yaml:"workers"`
	Patterns   []catalog.Extra `yaml:"patterns"`
}

// ServeConfig configures the web surface.
type ServeConfig struct {
	Listen string `yaml:"listen"`
}

// LogConfig configures diagnostic logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Dir returns the addonsweep config directory, respecting XDG_CONFIG_HOME.
// Defaults to ~/.config/addonsweep if XDG_CONFIG_HOME is not set.
func Dir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "addonsweep"), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Product: ProductConfig{
			Prefix:  "acme",
			Core:    append([]string(nil), classifier.DefaultCore...),
			Tooling: append([]string(nil), classifier.DefaultTooling...),
		},
		Host:      HostConfig{Root: "."},
		Registry:  RegistryConfig{Driver: DriverSQLite},
		Uninstall: UninstallConfig{Command: host.DefaultCommand},
		Serve:     ServeConfig{Listen: "127.0.0.1:8089"},
		Log:       LogConfig{Level: "info"},
	}
}

// Load reads the config file at path over the defaults. A missing file
// yields the defaults without an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	// Strip a UTF-8 BOM left by some editors.
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// DefaultPath returns Dir()/config.yaml.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// Validate checks values that would otherwise fail later with a less
// helpful message.
func (c *Config) Validate() error {
	if c.Product.Prefix == "" {
		return errors.New("product.prefix must not be empty")
	}
	switch c.Registry.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("registry.driver %q: must be %s or %s", c.Registry.Driver, DriverSQLite, DriverPostgres)
	}
	if c.Registry.Driver == DriverPostgres && c.Registry.DSN == "" {
		return errors.New("registry.dsn is required for the postgres driver")
	}
	if c.Scan.Workers < 0 {
		return fmt.Errorf("scan.workers must not be negative (got %d)", c.Scan.Workers)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	if _, err := catalog.FromConfig(c.Scan.Patterns); err != nil {
		return err
	}
	return nil
}

// Roots returns the resolver roots, applying per-root overrides.
func (c *Config) Roots() resolver.Roots {
	r := resolver.FromHostRoot(c.Host.Root)
	if c.Host.Site != "" {
		r.Site = c.Host.Site
	}
	if c.Host.Admin != "" {
		r.Admin = c.Host.Admin
	}
	if c.Host.Plugins != "" {
		r.Plugins = c.Host.Plugins
	}
	if c.Host.Libraries != "" {
		r.Libraries = c.Host.Libraries
	}
	return r
}

// Protected returns the configured protected set.
func (c *Config) Protected() classifier.ProtectedSet {
	return classifier.NewProtectedSet(c.Product.Core, c.Product.Tooling)
}

// LogLevel returns the configured slog level.
func (c *Config) LogLevel() slog.Level {
	lvl, _ := parseLevel(c.Log.Level)
	return lvl
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log.level %q: must be debug, info, warn or error", s)
	}
}
