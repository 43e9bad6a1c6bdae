package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"

	cpperrors "github.com/andreymedv/clang-index-mcp/internal/errors"
)

// Validator validates configuration and sets smart defaults
type Validator struct{}

// NewValidator creates a new configuration validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateAndSetDefaults validates configuration and applies smart defaults
// Returns an error if validation fails
func (v *Validator) ValidateAndSetDefaults(cfg *Config) error {
	if err := v.validateProject(&cfg.Project); err != nil {
		return cpperrors.NewConfigError("project", "", err)
	}
	if err := v.validateEngine(&cfg.Engine); err != nil {
		return cpperrors.NewConfigError("engine", "", err)
	}
	if err := v.validateIndex(&cfg.Index); err != nil {
		return cpperrors.NewConfigError("index", "", err)
	}
	v.setSmartDefaults(cfg)
	return nil
}

func (v *Validator) validateProject(project *Project) error {
	if project.Root == "" {
		return errors.New("project root cannot be empty")
	}
	return nil
}

func (v *Validator) validateEngine(engine *Engine) error {
	if engine.MaxAliasDepth < 0 {
		return fmt.Errorf("MaxAliasDepth must not be negative, got %d", engine.MaxAliasDepth)
	}
	if engine.MaxDocLength < 0 {
		return fmt.Errorf("MaxDocLength must not be negative, got %d", engine.MaxDocLength)
	}
	if engine.Workers < 0 {
		return fmt.Errorf("Workers must not be negative, got %d", engine.Workers)
	}
	if engine.SuggestionThreshold < 0 || engine.SuggestionThreshold > 1 {
		return fmt.Errorf("SuggestionThreshold must be within [0, 1], got %v", engine.SuggestionThreshold)
	}
	return nil
}

func (v *Validator) validateIndex(index *Index) error {
	if index.MaxFileSize < 0 {
		return fmt.Errorf("MaxFileSize must not be negative, got %d", index.MaxFileSize)
	}
	if index.MaxFileSize > 100*1024*1024 {
		return fmt.Errorf("MaxFileSize should not exceed 100MB, got %d", index.MaxFileSize)
	}
	if index.WatchDebounceMs < 0 {
		return fmt.Errorf("WatchDebounceMs must not be negative, got %d", index.WatchDebounceMs)
	}
	return nil
}

// setSmartDefaults fills zero values with usable settings.
func (v *Validator) setSmartDefaults(cfg *Config) {
	if cfg.Project.Name == "" {
		cfg.Project.Name = filepath.Base(cfg.Project.Root)
	}
	if cfg.Engine.Workers == 0 {
		cfg.Engine.Workers = runtime.NumCPU()
	}
	fallback := Default(cfg.Project.Root)
	if cfg.Engine.MaxAliasDepth == 0 {
		cfg.Engine.MaxAliasDepth = fallback.Engine.MaxAliasDepth
	}
	if cfg.Engine.MaxDocLength == 0 {
		cfg.Engine.MaxDocLength = fallback.Engine.MaxDocLength
	}
	if cfg.Engine.SuggestionLimit == 0 {
		cfg.Engine.SuggestionLimit = fallback.Engine.SuggestionLimit
	}
	if cfg.Engine.SuggestionThreshold == 0 {
		cfg.Engine.SuggestionThreshold = fallback.Engine.SuggestionThreshold
	}
	if cfg.Index.MaxFileSize == 0 {
		cfg.Index.MaxFileSize = fallback.Index.MaxFileSize
	}
	if cfg.Index.WatchDebounceMs == 0 {
		cfg.Index.WatchDebounceMs = fallback.Index.WatchDebounceMs
	}
}
