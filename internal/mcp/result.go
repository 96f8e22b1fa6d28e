package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/tidwall/pretty"

	"github.com/bobmcallan/liteapi-mcp/internal/dispatch"
)

var prettyOptions = &pretty.Options{Width: 80, Prefix: "", Indent: "  ", SortKeys: false}

// errorResult creates an MCP error result.
func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(message),
		},
		IsError: true,
	}
}

// successResult renders an upstream response as one text block. JSON is
// pretty-printed with its key order kept.
func successResult(res *dispatch.Result) *mcp.CallToolResult {
	text := string(res.Body)
	if res.JSON {
		text = string(pretty.PrettyOptions(res.Body, prettyOptions))
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}
