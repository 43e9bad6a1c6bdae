package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cpperrors "github.com/andreymedv/clang-index-mcp/internal/errors"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaultsWhenNoConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir, "")
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.Project.Root)
	assert.Equal(t, filepath.Base(dir), cfg.Project.Name)
	assert.Positive(t, cfg.Engine.Workers)
}

func TestLoadPrefersKDLOverTOML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".cppindex.kdl", `
engine {
    workers 3
}
`)
	writeFile(t, dir, "cppindex.toml", "[engine]\nworkers = 7\n")

	cfg, err := Load(dir, "")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Engine.Workers)
}

func TestLoadExplicitPath(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "custom.kdl", `
engine {
    workers 2
}
`)

	cfg, err := Load(dir, path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Engine.Workers)
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "cppindex.toml", `
version = 1

[project]
name = "demo"

[engine]
max_doc_length = 1234
suggestion_threshold = 0.75

[index]
include = ["src/**/*.cpp"]
watch_debounce_ms = 50
`)
	cfg, err := LoadTOML(dir, path)
	require.NoError(t, err)
	assert.Equal(t, "demo", cfg.Project.Name)
	assert.Equal(t, 1234, cfg.Engine.MaxDocLength)
	assert.InDelta(t, 0.75, cfg.Engine.SuggestionThreshold, 1e-9)
	assert.Equal(t, []string{"src/**/*.cpp"}, cfg.Index.Include)
	assert.Equal(t, 50, cfg.Index.WatchDebounceMs)
	assert.Equal(t, dir, cfg.Project.Root)
}

func TestLoadTOMLInvalid(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "cppindex.toml", "not [valid toml")
	_, err := LoadTOML(dir, path)
	assert.Error(t, err)
}

func TestValidatorRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty root", func(c *Config) { c.Project.Root = "" }},
		{"negative alias depth", func(c *Config) { c.Engine.MaxAliasDepth = -1 }},
		{"negative workers", func(c *Config) { c.Engine.Workers = -2 }},
		{"threshold above one", func(c *Config) { c.Engine.SuggestionThreshold = 1.5 }},
		{"file size too large", func(c *Config) { c.Index.MaxFileSize = 200 * 1024 * 1024 }},
		{"negative debounce", func(c *Config) { c.Index.WatchDebounceMs = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default("/src/demo")
			tt.mutate(cfg)
			err := NewValidator().ValidateAndSetDefaults(cfg)
			require.Error(t, err)
			var cerr *cpperrors.ConfigError
			assert.ErrorAs(t, err, &cerr)
		})
	}
}

func TestValidatorFillsZeroValues(t *testing.T) {
	cfg := &Config{Project: Project{Root: "/src/demo"}}
	require.NoError(t, NewValidator().ValidateAndSetDefaults(cfg))

	def := Default("/src/demo")
	assert.Equal(t, "demo", cfg.Project.Name)
	assert.Positive(t, cfg.Engine.Workers)
	assert.Equal(t, def.Engine.MaxAliasDepth, cfg.Engine.MaxAliasDepth)
	assert.Equal(t, def.Engine.MaxDocLength, cfg.Engine.MaxDocLength)
	assert.Equal(t, def.Engine.SuggestionLimit, cfg.Engine.SuggestionLimit)
	assert.InDelta(t, def.Engine.SuggestionThreshold, cfg.Engine.SuggestionThreshold, 1e-9)
	assert.Equal(t, def.Index.MaxFileSize, cfg.Index.MaxFileSize)
	assert.Equal(t, def.Index.WatchDebounceMs, cfg.Index.WatchDebounceMs)
}
