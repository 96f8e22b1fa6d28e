package mcp

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	common "github.com/bobmcallan/liteapi-mcp/internal/common"
	"github.com/bobmcallan/liteapi-mcp/internal/dispatch"
	"github.com/bobmcallan/liteapi-mcp/internal/openapi"
	"github.com/bobmcallan/liteapi-mcp/internal/schema"
)

// dispatchCall records one call seen by fakeDispatcher.
type dispatchCall struct {
	Tool       string
	Credential string
	Args       map[string]any
}

// fakeDispatcher returns a canned result and records every call.
type fakeDispatcher struct {
	mu     sync.Mutex
	calls  []dispatchCall
	result *dispatch.Result
	err    error
}

func (f *fakeDispatcher) Dispatch(_ context.Context, ep *openapi.Endpoint, credential string, args map[string]any) (*dispatch.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, dispatchCall{Tool: ep.ToolName, Credential: credential, Args: args})
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &dispatch.Result{StatusCode: 200, ContentType: "application/json", Body: []byte(`{"data":[]}`), JSON: true}, nil
}

func (f *fakeDispatcher) Calls() []dispatchCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]dispatchCall(nil), f.calls...)
}

// hotelEndpoints returns a small set of endpoints shaped like the hotel API.
func hotelEndpoints() []openapi.Endpoint {
	return []openapi.Endpoint{
		{
			Method:   "GET",
			Path:     "/data/hotels",
			ToolName: "getHotels",
			Summary:  "List hotels",
			Parameters: []openapi.Parameter{
				{Name: "countryCode", In: openapi.InQuery, Required: true, Schema: schema.String("ISO country code")},
				{Name: "limit", In: openapi.InQuery, Schema: &schema.Node{Kind: schema.KindInteger}},
			},
			BaseURL: "https://api.example.com/v3.0",
			Source:  "data",
		},
		{
			Method:      "GET",
			Path:        "/data/hotel/{hotelId}",
			ToolName:    "getHotel",
			Summary:     "Hotel details",
			Description: "Full details for one hotel.",
			Parameters: []openapi.Parameter{
				{Name: "hotelId", In: openapi.InPath, Required: true, Schema: schema.String("")},
			},
			BaseURL: "https://api.example.com/v3.0",
			Source:  "data",
		},
	}
}

func newTestRegistry(t *testing.T, d Dispatcher, resolver CredentialResolver, opts ...Option) *Registry {
	t.Helper()
	reg, err := Build(hotelEndpoints(), resolver, d, opts...)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return reg
}

func newTestServer(t *testing.T, reg *Registry) *mcpserver.MCPServer {
	t.Helper()
	s := mcpserver.NewMCPServer("liteapi-mcp-test", "0.0.0-test", mcpserver.WithToolCapabilities(true))
	reg.Register(s)
	return s
}

// listTools calls tools/list on the MCPServer and returns the tools.
func listTools(t *testing.T, s *mcpserver.MCPServer) []mcpgo.Tool {
	t.Helper()

	msg := json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list","params":{}}`)
	result := s.HandleMessage(t.Context(), msg)

	resp, ok := result.(mcpgo.JSONRPCResponse)
	if !ok {
		t.Fatalf("expected JSONRPCResponse, got %T", result)
	}

	resultJSON, err := json.Marshal(resp.Result)
	if err != nil {
		t.Fatalf("failed to marshal result: %v", err)
	}

	var toolsResult mcpgo.ListToolsResult
	if err := json.Unmarshal(resultJSON, &toolsResult); err != nil {
		t.Fatalf("failed to unmarshal ListToolsResult: %v", err)
	}
	return toolsResult.Tools
}

// callTool calls a tool on the MCPServer and returns the result.
func callTool(t *testing.T, s *mcpserver.MCPServer, name string, args map[string]interface{}) *mcpgo.CallToolResult {
	t.Helper()

	params := map[string]interface{}{
		"name":      name,
		"arguments": args,
	}
	paramsJSON, _ := json.Marshal(params)

	msg := json.RawMessage(`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":` + string(paramsJSON) + `}`)
	result := s.HandleMessage(t.Context(), msg)

	resp, ok := result.(mcpgo.JSONRPCResponse)
	if !ok {
		t.Fatalf("expected JSONRPCResponse, got %T", result)
	}

	resultJSON, err := json.Marshal(resp.Result)
	if err != nil {
		t.Fatalf("failed to marshal result: %v", err)
	}

	var toolResult mcpgo.CallToolResult
	if err := json.Unmarshal(resultJSON, &toolResult); err != nil {
		t.Fatalf("failed to unmarshal CallToolResult: %v", err)
	}
	return &toolResult
}

// extractText returns the text of a content block.
func extractText(t *testing.T, content mcpgo.Content) string {
	t.Helper()
	contentJSON, _ := json.Marshal(content)
	var tc struct {
		Text string `json:"text"`
	}
	json.Unmarshal(contentJSON, &tc)
	return tc.Text
}

func silentLogger() *common.Logger {
	return common.NewSilentLogger()
}
