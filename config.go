package hiveql

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when no config file exists in dir or any parent.
var ErrConfigNotFound = errors.New("config file not found")

// Catalog source kinds.
const (
	SourceStatic = "static" // built-in sample catalog
	SourceFile   = "file"   // YAML or JSON catalog file
	SourceSQL    = "sql"    // live introspection of a SQL database
)

// Qualified table policies, see completion.QualifiedTablePolicy.
const (
	QualifiedTablesOnly         = "tables_only"
	QualifiedTablesAndDatabases = "tables_and_databases"
)

// Config represents the .hiveql.yaml configuration file.
type Config struct {
	Catalog    CatalogConfig    `yaml:"catalog"`
	Completion CompletionConfig `yaml:"completion,omitempty"`
	Log        LogConfig        `yaml:"log,omitempty"`
	Metrics    MetricsConfig    `yaml:"metrics,omitempty"`
}

// CatalogConfig selects where database metadata comes from.
type CatalogConfig struct {
	Source string `yaml:"source" validate:"required,oneof=static file sql"`

	// Path of the catalog file, relative to the config file (source=file).
	Path string `yaml:"path,omitempty" validate:"required_if=Source file"`

	// Reload the catalog file when it changes (source=file).
	Watch bool `yaml:"watch,omitempty"`

	// Driver and data source name (source=sql).
	Engine string `yaml:"engine,omitempty" validate:"required_if=Source sql,omitempty,oneof=sqlite mysql postgres"`
	DSN    string `yaml:"dsn,omitempty" validate:"required_if=Source sql"`

	// Expression deciding which databases and tables are kept,
	// e.g. `not (database startsWith "tmp_")`.
	Filter string `yaml:"filter,omitempty"`
}

// CompletionConfig tunes the completion engine.
type CompletionConfig struct {
	QualifiedTables string `yaml:"qualified_tables,omitempty" validate:"omitempty,oneof=tables_only tables_and_databases"`
}

// LogConfig holds logging settings for the binaries.
type LogConfig struct {
	Level string `yaml:"level,omitempty" validate:"omitempty,oneof=debug info warn error"`
}

// MetricsConfig enables the prometheus endpoint of the language server.
type MetricsConfig struct {
	Addr string `yaml:"addr,omitempty" validate:"omitempty,hostname_port"`
}

// DefaultConfigNames are the filenames we search for.
var DefaultConfigNames = []string{".hiveql.yaml", ".hiveql.yml", "hiveql.yaml", "hiveql.yml"}

var configValidate = validator.New()

// DefaultConfig returns the configuration used when no file is found.
func DefaultConfig() *Config {
	return &Config{
		Catalog:    CatalogConfig{Source: SourceStatic},
		Completion: CompletionConfig{QualifiedTables: QualifiedTablesOnly},
		Log:        LogConfig{Level: "info"},
	}
}

// LoadConfig finds and loads the nearest .hiveql.yaml walking up from dir.
func LoadConfig(dir string) (*Config, error) {
	path, err := FindConfig(dir)
	if err != nil {
		return nil, err
	}

	return LoadConfigFile(path)
}

// FindConfig searches for a config file starting from dir and walking up.
func FindConfig(dir string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	for dir := absDir; ; {
		for _, name := range DefaultConfigNames {
			path := filepath.Join(dir, name)

			_, err := os.Stat(path)
			if err == nil {
				return path, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrConfigNotFound
		}

		dir = parent
	}
}

// LoadConfigFile loads a config from a specific path. Missing fields take their
// defaults and a relative catalog path is resolved against the file's directory.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if cfg.Catalog.Path != "" && !filepath.IsAbs(cfg.Catalog.Path) {
		cfg.Catalog.Path = filepath.Join(filepath.Dir(path), cfg.Catalog.Path)
	}

	return cfg, nil
}

// ParseConfig decodes and validates config YAML.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()

	err := yaml.Unmarshal(data, cfg)
	if err != nil {
		return nil, err
	}

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	err := configValidate.Struct(c)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	return nil
}
