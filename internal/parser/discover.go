package parser

import (
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/andreymedv/clang-index-mcp/internal/config"
)

// cppExtensions are the file suffixes treated as translation units when
// no include globs are configured.
var cppExtensions = map[string]bool{
	".cpp": true, ".cc": true, ".cxx": true, ".c++": true,
	".h": true, ".hpp": true, ".hh": true, ".hxx": true, ".ipp": true,
}

// Discover walks the project root and returns the translation unit paths
// matching the configured include/exclude globs, sorted for deterministic
// unit ordering.
func Discover(cfg *config.Config) ([]string, error) {
	root := cfg.Project.Root
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel != "." && excluded(cfg, rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if excluded(cfg, rel) || !included(cfg, rel) {
			return nil
		}
		if cfg.Index.MaxFileSize > 0 {
			if info, infoErr := d.Info(); infoErr == nil && info.Size() > cfg.Index.MaxFileSize {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func included(cfg *config.Config, rel string) bool {
	if len(cfg.Index.Include) == 0 {
		return cppExtensions[filepath.Ext(rel)]
	}
	for _, pattern := range cfg.Index.Include {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func excluded(cfg *config.Config, rel string) bool {
	for _, pattern := range cfg.Index.Exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}
