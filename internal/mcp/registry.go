// Package mcp exposes API endpoints as MCP tools: one tool per endpoint, all
// served by a single handler that resolves the caller's credential and hands
// the call to the dispatcher.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	common "github.com/bobmcallan/liteapi-mcp/internal/common"
	"github.com/bobmcallan/liteapi-mcp/internal/dispatch"
	"github.com/bobmcallan/liteapi-mcp/internal/openapi"
	"github.com/bobmcallan/liteapi-mcp/internal/schema"
)

// Dispatcher sends one endpoint call upstream.
type Dispatcher interface {
	Dispatch(ctx context.Context, ep *openapi.Endpoint, credential string, args map[string]any) (*dispatch.Result, error)
}

// CallRecorder observes completed tool calls.
type CallRecorder interface {
	RecordToolCall(tool string, success bool, elapsed time.Duration)
}

// Entry is one registered tool.
type Entry struct {
	Name     string
	Endpoint openapi.Endpoint
	Input    *schema.Type
	schema   json.RawMessage
}

// ToolInfo is the public description of a tool. ExampleArguments holds
// defaults for the required arguments.
type ToolInfo struct {
	Name             string          `json:"name"`
	Description      string          `json:"description"`
	InputSchema      json.RawMessage `json:"inputSchema"`
	ExampleArguments any             `json:"exampleArguments,omitempty"`
}

// Registry holds every tool in registration order. It is read-only after
// Build, so concurrent calls need no locking.
type Registry struct {
	entries  []*Entry
	byName   map[string]*Entry
	resolve  CredentialResolver
	dispatch Dispatcher
	logger   *common.Logger
	recorder CallRecorder
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(logger *common.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// WithCallRecorder reports every tool call to rec.
func WithCallRecorder(rec CallRecorder) Option {
	return func(r *Registry) { r.recorder = rec }
}

// Build registers one tool per endpoint. Names that collide with an already
// registered tool get a _1, _2, ... suffix in first-seen order.
func Build(endpoints []openapi.Endpoint, resolver CredentialResolver, dispatcher Dispatcher, opts ...Option) (*Registry, error) {
	r := &Registry{
		byName:   make(map[string]*Entry, len(endpoints)),
		resolve:  resolver,
		dispatch: dispatcher,
		logger:   common.NewSilentLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}

	names := openapi.NewNameSet()
	for _, ep := range endpoints {
		name := names.Claim(ep.ToolName)
		if name != ep.ToolName {
			r.logger.Warn().
				Str("tool", ep.ToolName).
				Str("renamed", name).
				Str("source", ep.Source).
				Msg("tool name collision, renamed")
		}

		input := InputType(&ep)
		raw, err := input.InputSchema()
		if err != nil {
			return nil, errors.Wrapf(err, "tool %s", name)
		}

		e := &Entry{Name: name, Endpoint: ep, Input: input, schema: raw}
		e.Endpoint.ToolName = name
		r.entries = append(r.entries, e)
		r.byName[name] = e
	}
	return r, nil
}

// InputType builds the argument shape of an endpoint: path parameters
// (always required), query parameters, then the top-level properties of the
// request body. A body property named like a parameter is dropped. Header
// parameters are supplied by the server, not the caller.
func InputType(ep *openapi.Endpoint) *schema.Type {
	props := schema.NewProperties()
	var required []string

	for _, in := range []openapi.Location{openapi.InPath, openapi.InQuery} {
		for _, p := range ep.ParametersIn(in) {
			if _, exists := props.Get(p.Name); exists {
				continue
			}
			node := p.Schema
			if node == nil {
				node = schema.String("")
			}
			if p.Description != "" && node.Description == "" {
				cp := *node
				cp.Description = p.Description
				node = &cp
			}
			props.Set(p.Name, node)
			if in == openapi.InPath || p.Required {
				required = append(required, p.Name)
			}
		}
	}

	if body := bodyObject(ep.RequestBody); body.HasProperties() {
		for pair := body.Properties.Oldest(); pair != nil; pair = pair.Next() {
			if _, exists := props.Get(pair.Key); exists {
				continue
			}
			props.Set(pair.Key, pair.Value)
			if body.IsRequired(pair.Key) {
				required = append(required, pair.Key)
			}
		}
	}

	return schema.Translate(schema.Object(props, required, ""), "")
}

// bodyObject flattens an allOf body into a single object node so its
// properties can be lifted into the argument shape.
func bodyObject(n *schema.Node) *schema.Node {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case schema.KindObject:
		return n
	case schema.KindIntersection:
		props := schema.NewProperties()
		var required []string
		for _, v := range n.Variants {
			branch := bodyObject(v)
			if !branch.HasProperties() {
				continue
			}
			for pair := branch.Properties.Oldest(); pair != nil; pair = pair.Next() {
				props.Set(pair.Key, pair.Value)
			}
			required = append(required, branch.Required...)
		}
		return schema.Object(props, required, n.Description)
	}
	return nil
}

// Len returns the number of registered tools.
func (r *Registry) Len() int { return len(r.entries) }

// Entry returns the tool registered under name.
func (r *Registry) Entry(name string) (*Entry, bool) {
	e, ok := r.byName[name]
	return e, ok
}

// ListTools describes every tool in registration order.
func (r *Registry) ListTools() []ToolInfo {
	out := make([]ToolInfo, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, ToolInfo{
			Name:             e.Name,
			Description:      e.description(),
			InputSchema:      e.schema,
			ExampleArguments: e.Input.Zero(),
		})
	}
	return out
}

// Tools returns the mcp-go tool definitions in registration order.
func (r *Registry) Tools() []mcp.Tool {
	out := make([]mcp.Tool, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.tool())
	}
	return out
}

// Register adds every tool to s, all routed through the shared handler.
func (r *Registry) Register(s *server.MCPServer) {
	var tools []server.ServerTool
	for _, t := range r.Tools() {
		tools = append(tools, server.ServerTool{Tool: t, Handler: r.handle})
	}
	s.AddTools(tools...)
}

// CallTool invokes a tool by name. Failures are reported in the result with
// IsError set; CallTool never returns a Go error.
func (r *Registry) CallTool(ctx context.Context, name string, args map[string]any) *mcp.CallToolResult {
	start := time.Now()
	result := r.call(ctx, name, args)
	if r.recorder != nil {
		r.recorder.RecordToolCall(name, !result.IsError, time.Since(start))
	}
	return result
}

func (r *Registry) handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return r.CallTool(ctx, req.Params.Name, req.GetArguments()), nil
}

func (r *Registry) call(ctx context.Context, name string, args map[string]any) *mcp.CallToolResult {
	e, ok := r.byName[name]
	if !ok {
		return errorResult(fmt.Sprintf("Unknown tool: %s", name))
	}

	credential, err := r.resolve(ctx)
	if err != nil {
		r.logger.Warn().Str("tool", name).Str("error", err.Error()).Msg("no credential for tool call")
		return errorResult(err.Error())
	}

	res, err := r.dispatch.Dispatch(ctx, &e.Endpoint, credential, args)
	if err != nil {
		r.logger.Warn().Str("tool", name).Str("error", err.Error()).Msg("tool call failed")
		return errorResult(fmt.Sprintf("Error calling %s: %s", name, err.Error()))
	}
	return successResult(res)
}

func (e *Entry) description() string {
	if e.Endpoint.Description != "" {
		return e.Endpoint.Description
	}
	return e.Endpoint.Summary
}

func (e *Entry) tool() mcp.Tool {
	return mcp.NewToolWithRawSchema(e.Name, e.description(), e.schema)
}
