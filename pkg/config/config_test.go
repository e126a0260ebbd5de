package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/picgraph/pkg/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != Default() {
		t.Errorf("missing file should yield defaults, got %+v", cfg)
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
[frame]
device_pixel_ratio = 2.0
disable_tile_cache = true

[cache]
backend = "redis"
redis_addr = "cache:6379"
ttl = "1h30m"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Frame.DevicePixelRatio != 2 || !cfg.Frame.DisableTileCache {
		t.Errorf("frame = %+v", cfg.Frame)
	}
	if cfg.Cache.Backend != "redis" || cfg.Cache.RedisAddr != "cache:6379" {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.Cache.TTL.Duration != 90*time.Minute {
		t.Errorf("ttl = %v", cfg.Cache.TTL)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("unset server.addr should keep default, got %q", cfg.Server.Addr)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"syntax", "[frame\n"},
		{"bad duration", "[cache]\nttl = \"soon\"\n"},
		{"bad backend", "[cache]\nbackend = \"memcached\"\n"},
		{"zero dpr", "[frame]\ndevice_pixel_ratio = 0.0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("code = %v, want INVALID_CONFIG", errors.GetCode(err))
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"default", func(*Config) {}, true},
		{"none backend", func(c *Config) { c.Cache.Backend = "none" }, true},
		{"redis without addr", func(c *Config) { c.Cache.Backend = "redis"; c.Cache.RedisAddr = "" }, false},
		{"negative ttl", func(c *Config) { c.Cache.TTL.Duration = -time.Second }, false},
		{"empty server addr", func(c *Config) { c.Server.Addr = "" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err == nil) != tt.ok {
				t.Errorf("Validate() = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	path, err := DefaultPath()
	if err != nil {
		t.Fatal(err)
	}
	if path != filepath.Join("/tmp/xdg", "picgraph", "config.toml") {
		t.Errorf("DefaultPath = %q", path)
	}
}

func TestCacheOptions(t *testing.T) {
	cfg := Default()
	if got := cfg.CacheOptions("/fallback").Dir; got != "/fallback" {
		t.Errorf("Dir = %q, want fallback", got)
	}
	cfg.Cache.Dir = "/custom"
	if got := cfg.CacheOptions("/fallback").Dir; got != "/custom" {
		t.Errorf("Dir = %q, want /custom", got)
	}
}
