// Package mcp exposes the resolution engine's query API as MCP tools over
// stdio. Tool input is deserialized manually so malformed arguments get a
// structured error response instead of a protocol failure.
package mcp

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/andreymedv/clang-index-mcp/internal/debug"
	"github.com/andreymedv/clang-index-mcp/internal/engine"
)

// Server wires the engine's query API to an MCP server instance.
type Server struct {
	engine *engine.Engine
	server *mcp.Server
}

// NewServer creates an MCP server over a committed engine.
func NewServer(eng *engine.Engine) *Server {
	s := &Server{
		engine: eng,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "clang-index-mcp",
			Version: "0.1.0",
		}, nil),
	}
	s.registerTools()
	return s
}

// Start serves MCP over stdio until the context ends. Debug output to
// stdio is suppressed for protocol compliance.
func (s *Server) Start(ctx context.Context) error {
	debug.SetMCPMode(true)
	debug.LogMCP("starting MCP server with stdio transport\n")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func symbolSchema(extra map[string]*jsonschema.Schema) *jsonschema.Schema {
	props := map[string]*jsonschema.Schema{
		"name": {
			Type:        "string",
			Description: "Qualified symbol name, e.g. 'ns::Widget'",
		},
	}
	for k, v := range extra {
		props[k] = v
	}
	return &jsonschema.Schema{
		Type:       "object",
		Properties: props,
		Required:   []string{"name"},
	}
}

func (s *Server) registerTools() {
	s.server.AddTool(&mcp.Tool{
		Name:        "get_symbol_info",
		Description: "Look up a symbol by qualified name: kind, definition state, locations, documentation.",
		InputSchema: symbolSchema(nil),
	}, s.handleSymbolInfo)

	s.server.AddTool(&mcp.Tool{
		Name:        "get_ancestors",
		Description: "Transitive base classes of a record type, in declaration order with access, virtual, depth, and diamond-ambiguity flags.",
		InputSchema: symbolSchema(nil),
	}, s.handleAncestors)

	s.server.AddTool(&mcp.Tool{
		Name:        "get_derived",
		Description: "Direct subclasses of a record type.",
		InputSchema: symbolSchema(nil),
	}, s.handleDerived)

	s.server.AddTool(&mcp.Tool{
		Name:        "is_derived_from",
		Description: "Whether one class transitively inherits from another.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"derived": {Type: "string", Description: "Qualified name of the candidate subclass"},
				"base":    {Type: "string", Description: "Qualified name of the candidate base class"},
			},
			Required: []string{"derived", "base"},
		},
	}, s.handleIsDerivedFrom)

	s.server.AddTool(&mcp.Tool{
		Name:        "get_overriders",
		Description: "Classes overriding a virtual method below the given class, nearest first.",
		InputSchema: symbolSchema(map[string]*jsonschema.Schema{
			"method": {Type: "string", Description: "Method name, e.g. 'draw'"},
		}),
	}, s.handleOverriders)

	s.server.AddTool(&mcp.Tool{
		Name:        "get_call_sites",
		Description: "Call edges touching a function: incoming (callers) and outgoing (callees), with call kinds.",
		InputSchema: symbolSchema(nil),
	}, s.handleCallSites)

	s.server.AddTool(&mcp.Tool{
		Name:        "get_documentation",
		Description: "Normalized documentation comment of a symbol: brief, params, return, notes.",
		InputSchema: symbolSchema(nil),
	}, s.handleDocumentation)

	s.server.AddTool(&mcp.Tool{
		Name:        "resolve_alias",
		Description: "Follow a using/typedef chain to its canonical target, reporting cycle or unresolved status.",
		InputSchema: symbolSchema(nil),
	}, s.handleResolveAlias)

	s.server.AddTool(&mcp.Tool{
		Name:        "search_docs",
		Description: "Keyword search over symbol documentation; query words are stemmed before matching.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"query": {Type: "string", Description: "Search words"},
				"limit": {Type: "integer", Description: "Maximum results (default 20)"},
			},
			Required: []string{"query"},
		},
	}, s.handleSearchDocs)

	s.server.AddTool(&mcp.Tool{
		Name:        "get_stats",
		Description: "Index statistics: units, symbols, edges, call sites, instantiations, errors by kind.",
		InputSchema: &jsonschema.Schema{Type: "object"},
	}, s.handleStats)
}
