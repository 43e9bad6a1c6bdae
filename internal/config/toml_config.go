package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// tomlFile mirrors Config with TOML field tags; zero values mean "keep the
// default".
type tomlFile struct {
	Version int `toml:"version"`
	Project struct {
		Root string `toml:"root"`
		Name string `toml:"name"`
	} `toml:"project"`
	Engine struct {
		MaxAliasDepth       int     `toml:"max_alias_depth"`
		MaxDocLength        int     `toml:"max_doc_length"`
		Workers             int     `toml:"workers"`
		SuggestionLimit     int     `toml:"suggestion_limit"`
		SuggestionThreshold float64 `toml:"suggestion_threshold"`
	} `toml:"engine"`
	Index struct {
		Include         []string `toml:"include"`
		Exclude         []string `toml:"exclude"`
		MaxFileSize     int64    `toml:"max_file_size"`
		WatchDebounceMs int      `toml:"watch_debounce_ms"`
	} `toml:"index"`
}

// LoadTOML loads configuration from a cppindex.toml file.
func LoadTOML(projectRoot, path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var file tomlFile
	if err := toml.Unmarshal(content, &file); err != nil {
		return nil, fmt.Errorf("failed to parse TOML config: %w", err)
	}

	cfg := Default(projectRoot)
	if file.Version != 0 {
		cfg.Version = file.Version
	}
	if file.Project.Root != "" {
		cfg.Project.Root = file.Project.Root
	}
	if file.Project.Name != "" {
		cfg.Project.Name = file.Project.Name
	}
	if file.Engine.MaxAliasDepth != 0 {
		cfg.Engine.MaxAliasDepth = file.Engine.MaxAliasDepth
	}
	if file.Engine.MaxDocLength != 0 {
		cfg.Engine.MaxDocLength = file.Engine.MaxDocLength
	}
	if file.Engine.Workers != 0 {
		cfg.Engine.Workers = file.Engine.Workers
	}
	if file.Engine.SuggestionLimit != 0 {
		cfg.Engine.SuggestionLimit = file.Engine.SuggestionLimit
	}
	if file.Engine.SuggestionThreshold != 0 {
		cfg.Engine.SuggestionThreshold = file.Engine.SuggestionThreshold
	}
	if len(file.Index.Include) > 0 {
		cfg.Index.Include = file.Index.Include
	}
	if len(file.Index.Exclude) > 0 {
		cfg.Index.Exclude = file.Index.Exclude
	}
	if file.Index.MaxFileSize != 0 {
		cfg.Index.MaxFileSize = file.Index.MaxFileSize
	}
	if file.Index.WatchDebounceMs != 0 {
		cfg.Index.WatchDebounceMs = file.Index.WatchDebounceMs
	}
	resolveRoot(cfg, projectRoot)
	return cfg, nil
}
