package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sebaB003/tpsx/pkg/tpsx/internalerr"
	"github.com/sebaB003/tpsx/pkg/tpsx/text"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverFile   = "file"
)

// Config describes an engine, its training material and the processes
// serving it.
type Config struct {
	Language  string     `yaml:"language"`
	Merge     *bool      `yaml:"merge"`
	Stopwords Stopwords  `yaml:"stopwords"`
	Topics    []Topic    `yaml:"topics"`
	Corpus    []string   `yaml:"corpus"`
	Relations []Relation `yaml:"relations"`
	Rules     string     `yaml:"rules"`
	Store     Store      `yaml:"store"`
	Server    Server     `yaml:"server"`
	Log       Log        `yaml:"log"`

	// dir resolves relative paths; empty for configs not read from a file.
	dir string
}

// Stopwords adjusts the bundled stoplist of the language.
type Stopwords struct {
	File   string   `yaml:"file"`
	Add    []string `yaml:"add"`
	Remove []string `yaml:"remove"`
}

// Topic is a topic trained from inline examples and an optional directory
// of HTML pages.
type Topic struct {
	Label    string   `yaml:"label"`
	Examples []string `yaml:"examples"`
	HTMLDir  string   `yaml:"html_dir"`
}

// Relation relates every topic of From to every topic of To.
type Relation struct {
	From          []string `yaml:"from"`
	To            []string `yaml:"to"`
	Coexist       bool     `yaml:"coexist"`
	Bidirectional bool     `yaml:"bidirectional"`
}

// Store selects where trained models are kept.
type Store struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	Name   string `yaml:"name"`
}

// Server configures the HTTP API of tpsx-server.
type Server struct {
	Addr        string   `yaml:"addr"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// Log selects the logger mode: "production" or "development".
type Log struct {
	Mode string `yaml:"mode"`
}

// Load reads, defaults and validates a config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.dir = filepath.Dir(path)
	return cfg, nil
}

// Parse decodes, defaults and validates a config document.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %v: %w", err, internalerr.ErrInvalidArgument)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Language == "" {
		c.Language = string(text.English)
	}
	if c.Merge == nil {
		merge := true
		c.Merge = &merge
	}
	if c.Store.Driver == "" {
		c.Store.Driver = DriverMemory
	}
	if c.Store.Name == "" {
		c.Store.Name = "default"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Log.Mode == "" {
		c.Log.Mode = "development"
	}
}

// Validate checks the config for values the engine would reject.
func (c *Config) Validate() error {
	lang, err := text.ParseLanguage(c.Language)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	c.Language = string(lang)

	for i, t := range c.Topics {
		if strings.TrimSpace(t.Label) == "" {
			return fmt.Errorf("config: topics[%d]: empty label: %w", i, internalerr.ErrInvalidArgument)
		}
	}
	for i, r := range c.Relations {
		if len(r.From) == 0 || len(r.To) == 0 {
			return fmt.Errorf("config: relations[%d]: from and to are required: %w", i, internalerr.ErrInvalidArgument)
		}
	}

	switch c.Store.Driver {
	case DriverMemory:
	case DriverSQLite, DriverFile:
		if c.Store.Path == "" {
			return fmt.Errorf("config: store driver %s needs a path: %w", c.Store.Driver, internalerr.ErrInvalidArgument)
		}
	default:
		return fmt.Errorf("config: unknown store driver %q: %w", c.Store.Driver, internalerr.ErrInvalidArgument)
	}
	return nil
}

// MergeEnabled reports the default merge flag for predictions.
func (c *Config) MergeEnabled() bool {
	return c.Merge == nil || *c.Merge
}

// LanguageTag returns the validated language.
func (c *Config) LanguageTag() text.Language {
	return text.Language(c.Language)
}

// Resolve makes path relative to the config file directory.
func (c *Config) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || c.dir == "" {
		return path
	}
	return filepath.Join(c.dir, path)
}

// LoadStoplist loads a stopword file of the form `terms: [...]`.
func LoadStoplist(path string) (*text.Stoplist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return text.ParseStoplist(data)
}
