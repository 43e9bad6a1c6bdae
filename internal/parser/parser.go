// Package parser is the C++ frontend: it turns source files into the
// ordered event streams the resolution engine ingests. Parsing uses the
// tree-sitter C++ grammar; anything the grammar flags as an error region
// becomes a MalformedRegion event and the stream continues past it.
package parser

import (
	"fmt"
	"os"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_cpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"

	"github.com/andreymedv/clang-index-mcp/internal/debug"
	"github.com/andreymedv/clang-index-mcp/internal/types"
)

// CppParser wraps a tree-sitter parser configured for C++. Not safe for
// concurrent use; create one per worker.
type CppParser struct {
	parser *tree_sitter.Parser
}

// New creates a parser with the C++ grammar loaded.
func New() (*CppParser, error) {
	parser := tree_sitter.NewParser()
	language := tree_sitter.NewLanguage(tree_sitter_cpp.Language())
	if err := parser.SetLanguage(language); err != nil {
		return nil, fmt.Errorf("failed to load C++ grammar: %w", err)
	}
	return &CppParser{parser: parser}, nil
}

// Close releases the underlying parser.
func (p *CppParser) Close() {
	p.parser.Close()
}

// ParseFile reads and parses one translation unit.
func (p *CppParser) ParseFile(path string) ([]types.Event, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return p.Parse(path, content)
}

// Parse produces the event stream for one translation unit's source text.
func (p *CppParser) Parse(path string, content []byte) ([]types.Event, error) {
	tree := p.parser.Parse(content, nil)
	if tree == nil {
		return nil, fmt.Errorf("tree-sitter produced no tree for %s", path)
	}
	defer tree.Close()

	em := &emitter{file: path, content: content}
	em.walkChildren(tree.RootNode())
	debug.LogParse("%s: %d events\n", path, len(em.events))
	return em.events, nil
}
