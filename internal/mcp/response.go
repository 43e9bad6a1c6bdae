package mcp

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/andreymedv/clang-index-mcp/internal/engine"
)

// createJSONResponse creates a standardized JSON response for MCP tools
func createJSONResponse(data interface{}) (*mcp.CallToolResult, error) {
	content, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response data: %v", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(content)},
		},
	}, nil
}

// createErrorResponse creates a standardized error response for MCP tools.
// A NotFound carries its did-you-mean candidates so the client can retry
// with a corrected name.
func createErrorResponse(operation string, err error) (*mcp.CallToolResult, error) {
	errorData := map[string]interface{}{
		"success":   false,
		"error":     err.Error(),
		"operation": operation,
	}
	var notFound *engine.NotFoundError
	if errors.As(err, &notFound) {
		errorData["not_found"] = notFound.Name
		if len(notFound.Suggestions) > 0 {
			errorData["suggestions"] = notFound.Suggestions
		}
	}

	response, marshalErr := createJSONResponse(errorData)
	if marshalErr != nil {
		return nil, marshalErr
	}
	// IsError=true per MCP specification: tool-level failures are reported
	// inside the result, not as protocol errors.
	response.IsError = true
	return response, nil
}
