// Package testsupport provides shared builders for deckrip tests: temp-dir
// configs and synthetic .apkg archives with known notes and media.
package testsupport

import (
	"path/filepath"
	"testing"

	"deckrip/internal/config"
)

// ConfigOption customizes the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.OutputDir = filepath.Join(base, "deck")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithModelID restricts extraction to one note model.
func WithModelID(id int64) ConfigOption {
	return func(c *config.Config) { c.Extract.ModelID = id }
}

// WithKeepRaw turns on raw field retention.
func WithKeepRaw() ConfigOption {
	return func(c *config.Config) { c.Extract.KeepRaw = true }
}

// WithOverwrite allows replacing a previous run's output.
func WithOverwrite() ConfigOption {
	return func(c *config.Config) { c.Extract.Overwrite = true }
}

// WithStrict aborts runs on the first malformed note.
func WithStrict() ConfigOption {
	return func(c *config.Config) { c.Extract.Strict = true }
}

// WithStrictMedia aborts runs on the first missing media reference.
func WithStrictMedia() ConfigOption {
	return func(c *config.Config) { c.Extract.StrictMedia = true }
}
