// Package config assembles iconform settings from defaults, an optional
// .env file and ICONFORM_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvDocument      = "ICONFORM_DOCUMENT"
	EnvLogLevel      = "ICONFORM_LOG_LEVEL"
	EnvListen        = "ICONFORM_LISTEN"
	EnvOutline       = "ICONFORM_OUTLINE"
	EnvCacheSize     = "ICONFORM_CACHE_SIZE"
	EnvAliasDepth    = "ICONFORM_ALIAS_DEPTH"
	EnvWriteBack     = "ICONFORM_WRITE_BACK"
	EnvWatchDebounce = "ICONFORM_WATCH_DEBOUNCE_MS"
)

// Config holds runtime settings.
type Config struct {
	// Document is the snapshot file to operate on.
	Document string

	LogLevel string

	// Listen is the websocket listen address for `serve --transport ws`.
	Listen string

	// Outline is the default for commands that do not say whether to
	// outline strokes.
	Outline bool

	CacheSize  int
	AliasDepth int

	// WriteBack saves the document after a successful run.
	WriteBack bool

	WatchDebounce time.Duration
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		LogLevel:      "warn",
		Listen:        "127.0.0.1:7465",
		Outline:       true,
		CacheSize:     256,
		AliasDepth:    16,
		WatchDebounce: 200 * time.Millisecond,
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.CacheSize <= 0 {
		return fmt.Errorf("cache size must be positive, got %d", c.CacheSize)
	}
	if c.AliasDepth <= 0 {
		return fmt.Errorf("alias depth must be positive, got %d", c.AliasDepth)
	}
	if c.WatchDebounce < 0 {
		return fmt.Errorf("watch debounce must not be negative, got %s", c.WatchDebounce)
	}
	if hclog.LevelFromString(c.LogLevel) == hclog.NoLevel {
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return nil
}

// Builder provides a fluent interface for constructing a Config.
type Builder struct {
	config Config
	useEnv bool
	dotEnv []string
	lookup func(string) (string, bool)
}

// NewBuilder creates a builder starting from Default.
func NewBuilder() *Builder {
	return &Builder{config: Default(), lookup: os.LookupEnv}
}

// WithConfig replaces the base settings.
func (b *Builder) WithConfig(c Config) *Builder {
	b.config = c
	return b
}

// WithEnvConfig applies ICONFORM_* environment variables.
func (b *Builder) WithEnvConfig() *Builder {
	b.useEnv = true
	return b
}

// WithDotEnv reads variables from .env files. Real environment variables
// take precedence over file values. Missing files are ignored.
func (b *Builder) WithDotEnv(paths ...string) *Builder {
	b.dotEnv = append(b.dotEnv, paths...)
	return b
}

// WithLookup replaces os.LookupEnv.
func (b *Builder) WithLookup(fn func(string) (string, bool)) *Builder {
	b.lookup = fn
	return b
}

// Build applies the configured sources and validates the result.
func (b *Builder) Build() (Config, error) {
	cfg := b.config
	if !b.useEnv && len(b.dotEnv) == 0 {
		return cfg, cfg.Validate()
	}

	file := map[string]string{}
	for _, path := range b.dotEnv {
		values, err := godotenv.Read(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return cfg, fmt.Errorf("failed to read %s: %w", path, err)
		}
		for k, v := range values {
			file[k] = v
		}
	}

	get := func(key string) (string, bool) {
		if b.useEnv {
			if v, ok := b.lookup(key); ok {
				return strings.TrimSpace(v), true
			}
		}
		v, ok := file[key]
		return strings.TrimSpace(v), ok
	}

	var errs []error
	if v, ok := get(EnvDocument); ok {
		cfg.Document = v
	}
	if v, ok := get(EnvLogLevel); ok {
		cfg.LogLevel = v
	}
	if v, ok := get(EnvListen); ok {
		cfg.Listen = v
	}
	if v, ok := get(EnvOutline); ok {
		cfg.Outline, errs = parseBool(EnvOutline, v, cfg.Outline, errs)
	}
	if v, ok := get(EnvWriteBack); ok {
		cfg.WriteBack, errs = parseBool(EnvWriteBack, v, cfg.WriteBack, errs)
	}
	if v, ok := get(EnvCacheSize); ok {
		cfg.CacheSize, errs = parseInt(EnvCacheSize, v, cfg.CacheSize, errs)
	}
	if v, ok := get(EnvAliasDepth); ok {
		cfg.AliasDepth, errs = parseInt(EnvAliasDepth, v, cfg.AliasDepth, errs)
	}
	if v, ok := get(EnvWatchDebounce); ok {
		var ms int
		ms, errs = parseInt(EnvWatchDebounce, v, int(cfg.WatchDebounce/time.Millisecond), errs)
		cfg.WatchDebounce = time.Duration(ms) * time.Millisecond
	}

	if err := errors.Join(errs...); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func parseBool(key, v string, def bool, errs []error) (bool, []error) {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, append(errs, fmt.Errorf("%s: invalid boolean %q", key, v))
	}
	return b, errs
}

func parseInt(key, v string, def int, errs []error) (int, []error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, append(errs, fmt.Errorf("%s: invalid integer %q", key, v))
	}
	return n, errs
}
