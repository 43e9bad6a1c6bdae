package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type nameParams struct {
	Name string `json:"name"`
}

type derivedFromParams struct {
	Derived string `json:"derived"`
	Base    string `json:"base"`
}

type overriderParams struct {
	Name   string `json:"name"`
	Method string `json:"method"`
}

type searchParams struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

func unmarshalParams(req *mcp.CallToolRequest, out interface{}) error {
	if err := json.Unmarshal(req.Params.Arguments, out); err != nil {
		return fmt.Errorf("invalid parameters: %w", err)
	}
	return nil
}

func (s *Server) handleSymbolInfo(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p nameParams
	if err := unmarshalParams(req, &p); err != nil {
		return createErrorResponse("get_symbol_info", err)
	}
	info, err := s.engine.GetSymbol(p.Name)
	if err != nil {
		return createErrorResponse("get_symbol_info", err)
	}
	return createJSONResponse(info)
}

func (s *Server) handleAncestors(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p nameParams
	if err := unmarshalParams(req, &p); err != nil {
		return createErrorResponse("get_ancestors", err)
	}
	ancestors, err := s.engine.GetAncestors(p.Name)
	if err != nil {
		return createErrorResponse("get_ancestors", err)
	}
	return createJSONResponse(map[string]interface{}{
		"symbol":    p.Name,
		"ancestors": ancestors,
	})
}

func (s *Server) handleDerived(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p nameParams
	if err := unmarshalParams(req, &p); err != nil {
		return createErrorResponse("get_derived", err)
	}
	derived, err := s.engine.GetDerived(p.Name)
	if err != nil {
		return createErrorResponse("get_derived", err)
	}
	return createJSONResponse(map[string]interface{}{
		"symbol":  p.Name,
		"derived": derived,
	})
}

func (s *Server) handleIsDerivedFrom(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p derivedFromParams
	if err := unmarshalParams(req, &p); err != nil {
		return createErrorResponse("is_derived_from", err)
	}
	ok, err := s.engine.IsDerivedFrom(p.Derived, p.Base)
	if err != nil {
		return createErrorResponse("is_derived_from", err)
	}
	return createJSONResponse(map[string]interface{}{
		"derived": p.Derived,
		"base":    p.Base,
		"result":  ok,
	})
}

func (s *Server) handleOverriders(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p overriderParams
	if err := unmarshalParams(req, &p); err != nil {
		return createErrorResponse("get_overriders", err)
	}
	overriders, err := s.engine.GetOverriders(p.Name, p.Method)
	if err != nil {
		return createErrorResponse("get_overriders", err)
	}
	return createJSONResponse(map[string]interface{}{
		"symbol":     p.Name,
		"method":     p.Method,
		"overriders": overriders,
	})
}

func (s *Server) handleCallSites(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p nameParams
	if err := unmarshalParams(req, &p); err != nil {
		return createErrorResponse("get_call_sites", err)
	}
	incoming, outgoing, err := s.engine.GetCallSites(p.Name)
	if err != nil {
		return createErrorResponse("get_call_sites", err)
	}
	return createJSONResponse(map[string]interface{}{
		"symbol":   p.Name,
		"incoming": incoming,
		"outgoing": outgoing,
	})
}

func (s *Server) handleDocumentation(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p nameParams
	if err := unmarshalParams(req, &p); err != nil {
		return createErrorResponse("get_documentation", err)
	}
	doc, err := s.engine.GetDocumentation(p.Name)
	if err != nil {
		return createErrorResponse("get_documentation", err)
	}
	if doc == nil {
		return createJSONResponse(map[string]interface{}{
			"symbol":     p.Name,
			"documented": false,
		})
	}
	return createJSONResponse(map[string]interface{}{
		"symbol":     p.Name,
		"documented": true,
		"style":      doc.Style.String(),
		"brief":      doc.Brief,
		"params":     doc.Params,
		"return":     doc.Return,
		"see":        doc.See,
		"notes":      doc.Notes,
		"text":       doc.Text,
		"truncated":  doc.Truncated,
	})
}

func (s *Server) handleResolveAlias(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p nameParams
	if err := unmarshalParams(req, &p); err != nil {
		return createErrorResponse("resolve_alias", err)
	}
	res, err := s.engine.ResolveAlias(p.Name)
	if err != nil {
		return createErrorResponse("resolve_alias", err)
	}
	return createJSONResponse(map[string]interface{}{
		"alias":     p.Name,
		"status":    res.Status,
		"target":    res.Target,
		"const":     res.Const,
		"ptr_depth": res.PtrDepth,
	})
}

func (s *Server) handleSearchDocs(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p searchParams
	if err := unmarshalParams(req, &p); err != nil {
		return createErrorResponse("search_docs", err)
	}
	if p.Limit <= 0 {
		p.Limit = 20
	}
	hits, err := s.engine.SearchDocumentation(p.Query, p.Limit)
	if err != nil {
		return createErrorResponse("search_docs", err)
	}
	return createJSONResponse(map[string]interface{}{
		"query": p.Query,
		"hits":  hits,
	})
}

func (s *Server) handleStats(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.engine.Stats()
	if err != nil {
		return createErrorResponse("get_stats", err)
	}
	return createJSONResponse(stats)
}
