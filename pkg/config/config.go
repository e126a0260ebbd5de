// Package config loads picgraph settings from a TOML file.
//
// The default location is $XDG_CONFIG_HOME/picgraph/config.toml (see
// [DefaultPath]). A missing file is not an error: [Load] falls back to
// [Default]. Command-line flags override file values.
//
//	[frame]
//	device_pixel_ratio = 2.0
//	disable_tile_cache = false
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//	ttl = "24h"
//
//	[server]
//	addr = ":8080"
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/picgraph/pkg/cache"
	"github.com/matzehuels/picgraph/pkg/errors"
)

const appName = "picgraph"

// Config is the full configuration.
type Config struct {
	Frame  FrameConfig  `toml:"frame"`
	Cache  CacheConfig  `toml:"cache"`
	Server ServerConfig `toml:"server"`
}

// FrameConfig sets frame builder defaults.
type FrameConfig struct {
	DevicePixelRatio float32 `toml:"device_pixel_ratio"`
	DisableTileCache bool    `toml:"disable_tile_cache"`
}

// CacheConfig selects the cache backend.
type CacheConfig struct {
	Backend   string   `toml:"backend"`
	Dir       string   `toml:"dir"`
	RedisAddr string   `toml:"redis_addr"`
	TTL       Duration `toml:"ttl"`
}

// ServerConfig configures `picgraph serve`.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// Duration is a time.Duration written as a string such as "24h".
type Duration struct{ time.Duration }

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Frame: FrameConfig{DevicePixelRatio: 1},
		Cache: CacheConfig{
			Backend:   cache.BackendFile,
			RedisAddr: "localhost:6379",
			TTL:       Duration{24 * time.Hour},
		},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/picgraph/config.toml, falling back to
// the user config directory.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config dir: %w", err)
	}
	return filepath.Join(dir, appName, "config.toml"), nil
}

// Load reads path on top of Default. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges and the backend name.
func (c Config) Validate() error {
	if c.Frame.DevicePixelRatio <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "frame.device_pixel_ratio must be positive, got %g", c.Frame.DevicePixelRatio)
	}
	switch c.Cache.Backend {
	case cache.BackendFile, cache.BackendNone:
	case cache.BackendRedis:
		if c.Cache.RedisAddr == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "cache.redis_addr is required for the redis backend")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache.backend %q", c.Cache.Backend)
	}
	if c.Cache.TTL.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.ttl must not be negative")
	}
	if c.Server.Addr == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "server.addr must not be empty")
	}
	return nil
}

// CacheOptions converts the cache section for cache.Open. dir is used when
// the file does not set one.
func (c Config) CacheOptions(dir string) cache.Options {
	if c.Cache.Dir != "" {
		dir = c.Cache.Dir
	}
	return cache.Options{Backend: c.Cache.Backend, Dir: dir, RedisAddr: c.Cache.RedisAddr}
}
