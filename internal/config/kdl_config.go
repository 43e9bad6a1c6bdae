package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// LoadKDL loads configuration from a .cppindex.kdl file.
func LoadKDL(projectRoot, path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	cfg, err := parseKDL(projectRoot, string(content))
	if err != nil {
		return nil, err
	}
	resolveRoot(cfg, projectRoot)
	return cfg, nil
}

// resolveRoot makes the configured project root absolute, resolving
// relative paths against the directory the config file sits in.
func resolveRoot(cfg *Config, projectRoot string) {
	if cfg == nil {
		return
	}
	if cfg.Project.Root == "" {
		cfg.Project.Root = projectRoot
	}
	if !filepath.IsAbs(cfg.Project.Root) {
		cfg.Project.Root = filepath.Join(projectRoot, cfg.Project.Root)
	}
	cfg.Project.Root = filepath.Clean(cfg.Project.Root)
}

func parseKDL(projectRoot, content string) (*Config, error) {
	cfg := Default(projectRoot)

	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse KDL config: %w", err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "version":
			if v, ok := firstIntArg(n); ok {
				cfg.Version = v
			}
		case "project":
			for _, cn := range n.Children {
				assignSimpleString(cn, "root", func(v string) { cfg.Project.Root = v })
				assignSimpleString(cn, "name", func(v string) { cfg.Project.Name = v })
			}
		case "engine":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "max_alias_depth":
					if v, ok := firstIntArg(cn); ok {
						cfg.Engine.MaxAliasDepth = v
					}
				case "max_doc_length":
					if v, ok := firstIntArg(cn); ok {
						cfg.Engine.MaxDocLength = v
					}
				case "workers":
					if v, ok := firstIntArg(cn); ok {
						cfg.Engine.Workers = v
					}
				case "suggestion_limit":
					if v, ok := firstIntArg(cn); ok {
						cfg.Engine.SuggestionLimit = v
					}
				case "suggestion_threshold":
					if v, ok := firstFloatArg(cn); ok {
						cfg.Engine.SuggestionThreshold = v
					}
				}
			}
		case "index":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "max_file_size":
					if v, ok := firstIntArg(cn); ok {
						cfg.Index.MaxFileSize = int64(v)
					}
				case "watch_debounce_ms":
					if v, ok := firstIntArg(cn); ok {
						cfg.Index.WatchDebounceMs = v
					}
				}
			}
		case "include":
			cfg.Index.Include = append(cfg.Index.Include, collectStringArgs(n)...)
		case "exclude":
			// An exclude block replaces the default exclusions.
			cfg.Index.Exclude = collectStringArgs(n)
		}
	}
	return cfg, nil
}

// Helper functions leveraging the kdl-go document model.
func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstFloatArg(n *document.Node) (float64, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}
	// Block format: exclude { "pattern" } puts strings in child node names.
	for _, cn := range n.Children {
		if name := nodeName(cn); name != "" {
			out = append(out, name)
		}
	}
	return out
}

func assignSimpleString(n *document.Node, target string, set func(string)) {
	if nodeName(n) != target {
		return
	}
	if s, ok := firstStringArg(n); ok {
		set(s)
	}
}
