// Package config loads engine configuration from .cppindex.kdl (primary)
// or cppindex.toml (fallback), with validated defaults for everything.
package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/andreymedv/clang-index-mcp/internal/types"
)

// Config is the engine configuration.
type Config struct {
	Version int
	Project Project
	Engine  Engine
	Index   Index
}

// Project identifies the analyzed codebase.
type Project struct {
	Root string
	Name string
}

// Engine holds resolution and query tunables.
type Engine struct {
	MaxAliasDepth       int     // alias chain substitution cap
	MaxDocLength        int     // normalized documentation truncation limit
	Workers             int     // parallel translation-unit workers; 0 = NumCPU
	SuggestionLimit     int     // did-you-mean candidates per failed lookup
	SuggestionThreshold float64 // minimum Jaro-Winkler similarity for a suggestion
}

// Index controls translation unit discovery and watching.
type Index struct {
	Include         []string // doublestar globs; empty means every C++ source
	Exclude         []string
	MaxFileSize     int64
	WatchDebounceMs int
}

// Default returns the configuration used when no config file exists.
func Default(root string) *Config {
	if root == "" {
		root, _ = os.Getwd()
	}
	abs, err := filepath.Abs(root)
	if err == nil {
		root = abs
	}
	return &Config{
		Version: 1,
		Project: Project{Root: root, Name: filepath.Base(root)},
		Engine: Engine{
			MaxAliasDepth:       types.DefaultMaxAliasDepth,
			MaxDocLength:        types.DefaultMaxDocLength,
			Workers:             runtime.NumCPU(),
			SuggestionLimit:     types.DefaultSuggestionLimit,
			SuggestionThreshold: 0.80,
		},
		Index: Index{
			Include:         []string{},
			Exclude:         []string{"**/build/**", "**/.git/**", "**/third_party/**"},
			MaxFileSize:     10 * 1024 * 1024,
			WatchDebounceMs: 200,
		},
	}
}

// Load reads configuration for a project root. Lookup order: explicit path
// when non-empty, then <root>/.cppindex.kdl, then <root>/cppindex.toml,
// then defaults. The returned config is always validated.
func Load(root, explicit string) (*Config, error) {
	var (
		cfg *Config
		err error
	)
	switch {
	case explicit != "":
		cfg, err = loadPath(root, explicit)
	default:
		kdlPath := filepath.Join(root, ".cppindex.kdl")
		tomlPath := filepath.Join(root, "cppindex.toml")
		if _, statErr := os.Stat(kdlPath); statErr == nil {
			cfg, err = LoadKDL(root, kdlPath)
		} else if _, statErr := os.Stat(tomlPath); statErr == nil {
			cfg, err = LoadTOML(root, tomlPath)
		}
	}
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = Default(root)
	}
	if err := NewValidator().ValidateAndSetDefaults(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadPath(root, path string) (*Config, error) {
	if filepath.Ext(path) == ".toml" {
		return LoadTOML(root, path)
	}
	return LoadKDL(root, path)
}
