// Package config loads reneu settings from TOML or YAML files.
package config

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	reneuerrors "reneu/pkg/errors"
)

// Store kinds.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
)

// Config is the full reneu configuration. Zero sections are never used
// directly; start from Default.
type Config struct {
	Log     Log     `toml:"log" yaml:"log"`
	Codec   Codec   `toml:"codec" yaml:"codec"`
	Contact Contact `toml:"contact" yaml:"contact"`
	Store   Store   `toml:"store" yaml:"store"`
	Server  Server  `toml:"server" yaml:"server"`
}

// Log configures the process logger.
type Log struct {
	Level string `toml:"level" yaml:"level"` // debug, info, warn, error
}

// Codec configures skeleton text output and comparisons.
type Codec struct {
	Precision int     `toml:"precision" yaml:"precision"` // SWC fractional digits
	Tolerance float32 `toml:"tolerance" yaml:"tolerance"` // absolute Equals tolerance
}

// Contact configures the dendrogram contact filter.
type Contact struct {
	Block   [3]int `toml:"block" yaml:"block"` // z, y, x
	Workers int    `toml:"workers" yaml:"workers"`
}

// Store selects and locates the persistence backend.
type Store struct {
	Kind string `toml:"kind" yaml:"kind"` // "file" or "sqlite"
	Path string `toml:"path" yaml:"path"` // directory for file, database file for sqlite
}

// Server configures the HTTP service.
type Server struct {
	Addr          string        `toml:"addr" yaml:"addr"`
	ReadTimeout   time.Duration `toml:"read_timeout" yaml:"read_timeout"`
	WriteTimeout  time.Duration `toml:"write_timeout" yaml:"write_timeout"`
	MaxConcurrent int           `toml:"max_concurrent" yaml:"max_concurrent"`
	CORSOrigin    string        `toml:"cors_origin" yaml:"cors_origin"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Log: Log{Level: "info"},
		Codec: Codec{
			Precision: 3,
			Tolerance: 0.001,
		},
		Contact: Contact{
			Block:   [3]int{8, 8, 8},
			Workers: runtime.NumCPU(),
		},
		Store: Store{
			Kind: StoreFile,
			Path: "reneu-data",
		},
		Server: Server{
			Addr:          ":8080",
			ReadTimeout:   5 * time.Second,
			WriteTimeout:  5 * time.Second,
			MaxConcurrent: runtime.NumCPU() * 2,
		},
	}
}

// Load reads path on top of Default. The decoder is chosen by extension:
// .toml, or .yaml/.yml. Keys missing from the file keep their defaults and
// unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, reneuerrors.Wrap(reneuerrors.ErrCodeInvalidInput, err, "read config")
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return Config{}, reneuerrors.Wrap(reneuerrors.ErrCodeInvalidInput, err, "parse %s", path)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return Config{}, reneuerrors.New(reneuerrors.ErrCodeInvalidInput, "unknown keys in %s: %v", path, undecoded)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, reneuerrors.Wrap(reneuerrors.ErrCodeInvalidInput, err, "parse %s", path)
		}
	default:
		return Config{}, reneuerrors.New(reneuerrors.ErrCodeInvalidInput, "unsupported config extension %q", ext)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return reneuerrors.Wrap(reneuerrors.ErrCodeInvalidInput, err, "log.level")
	}
	if c.Codec.Precision < 0 {
		return reneuerrors.New(reneuerrors.ErrCodeInvalidInput, "codec.precision must be >= 0, got %d", c.Codec.Precision)
	}
	if c.Codec.Tolerance < 0 {
		return reneuerrors.New(reneuerrors.ErrCodeInvalidInput, "codec.tolerance must be >= 0, got %g", c.Codec.Tolerance)
	}
	for i, b := range c.Contact.Block {
		if b <= 0 {
			return reneuerrors.New(reneuerrors.ErrCodeInvalidBlockShape, "contact.block[%d] must be > 0, got %d", i, b)
		}
	}
	if c.Contact.Workers < 1 {
		return reneuerrors.New(reneuerrors.ErrCodeInvalidInput, "contact.workers must be >= 1, got %d", c.Contact.Workers)
	}
	switch c.Store.Kind {
	case StoreFile, StoreSQLite:
	default:
		return reneuerrors.New(reneuerrors.ErrCodeInvalidInput, "store.kind must be %q or %q, got %q", StoreFile, StoreSQLite, c.Store.Kind)
	}
	if c.Store.Path == "" {
		return reneuerrors.New(reneuerrors.ErrCodeInvalidInput, "store.path is required")
	}
	if c.Server.MaxConcurrent < 1 {
		return reneuerrors.New(reneuerrors.ErrCodeInvalidInput, "server.max_concurrent must be >= 1, got %d", c.Server.MaxConcurrent)
	}
	return nil
}
