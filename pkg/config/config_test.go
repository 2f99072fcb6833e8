package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"reneu/pkg/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.Codec.Precision != 3 || cfg.Codec.Tolerance != 0.001 {
		t.Errorf("codec defaults = %+v", cfg.Codec)
	}
	if cfg.Contact.Block != [3]int{8, 8, 8} {
		t.Errorf("block default = %v", cfg.Contact.Block)
	}
	if cfg.Server.Addr != ":8080" || cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("server defaults = %+v", cfg.Server)
	}
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "reneu.toml", `
[codec]
precision = 0

[contact]
block = [16, 32, 32]
workers = 3

[store]
kind = "sqlite"
path = "/data/reneu.db"

[server]
addr = ":9000"
write_timeout = "30s"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Codec.Precision != 0 {
		t.Errorf("Precision = %d, want 0", cfg.Codec.Precision)
	}
	if cfg.Codec.Tolerance != 0.001 {
		t.Errorf("Tolerance = %v, want default 0.001", cfg.Codec.Tolerance)
	}
	if cfg.Contact.Block != [3]int{16, 32, 32} || cfg.Contact.Workers != 3 {
		t.Errorf("Contact = %+v", cfg.Contact)
	}
	if cfg.Store.Kind != StoreSQLite || cfg.Store.Path != "/data/reneu.db" {
		t.Errorf("Store = %+v", cfg.Store)
	}
	if cfg.Server.Addr != ":9000" || cfg.Server.WriteTimeout != 30*time.Second {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("ReadTimeout = %v, want default 5s", cfg.Server.ReadTimeout)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "reneu.yml", `
log:
  level: debug
codec:
  tolerance: 0.5
contact:
  block: [4, 4, 4]
server:
  read_timeout: 2s
  cors_origin: "*"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("Level = %q, want debug", cfg.Log.Level)
	}
	if cfg.Codec.Tolerance != 0.5 || cfg.Codec.Precision != 3 {
		t.Errorf("Codec = %+v", cfg.Codec)
	}
	if cfg.Contact.Block != [3]int{4, 4, 4} {
		t.Errorf("Block = %v", cfg.Contact.Block)
	}
	if cfg.Server.ReadTimeout != 2*time.Second || cfg.Server.CORSOrigin != "*" {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if cfg.Store.Kind != StoreFile {
		t.Errorf("Store.Kind = %q, want default", cfg.Store.Kind)
	}
}

func TestLoadEmptyYAML(t *testing.T) {
	cfg, err := Load(writeFile(t, "empty.yaml", ""))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Default() {
		t.Errorf("empty file should give defaults, got %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		code    errors.Code
	}{
		{name: "extension", file: "reneu.json", content: "{}", code: errors.ErrCodeInvalidInput},
		{name: "toml syntax", file: "bad.toml", content: "[codec\n", code: errors.ErrCodeInvalidInput},
		{name: "toml unknown key", file: "bad.toml", content: "[codec]\ndigits = 2\n", code: errors.ErrCodeInvalidInput},
		{name: "yaml unknown key", file: "bad.yaml", content: "codec:\n  digits: 2\n", code: errors.ErrCodeInvalidInput},
		{name: "negative precision", file: "bad.toml", content: "[codec]\nprecision = -1\n", code: errors.ErrCodeInvalidInput},
		{name: "zero block", file: "bad.yaml", content: "contact:\n  block: [8, 0, 8]\n", code: errors.ErrCodeInvalidBlockShape},
		{name: "store kind", file: "bad.toml", content: "[store]\nkind = \"s3\"\n", code: errors.ErrCodeInvalidInput},
		{name: "log level", file: "bad.yaml", content: "log:\n  level: loud\n", code: errors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.content))
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("err = %v, want INVALID_INPUT", err)
	}
}
