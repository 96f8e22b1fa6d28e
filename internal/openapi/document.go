// Package openapi loads OpenAPI-shaped API descriptions and flattens them into
// an ordered list of endpoints, one per (path, method) operation.
package openapi

import (
	"encoding/json"

	"github.com/bobmcallan/liteapi-mcp/internal/schema"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// DefaultBaseURL is used when a document declares no servers.
const DefaultBaseURL = "https://api.liteapi.travel/v3.0"

// Document is a decoded API description. Paths keep their document order;
// each path item is decoded lazily so a malformed one can be skipped.
type Document struct {
	Name       string                                          `json:"-"`
	OpenAPI    string                                          `json:"openapi"`
	Info       Info                                            `json:"info"`
	Servers    []Server                                        `json:"servers,omitempty"`
	Paths      *orderedmap.OrderedMap[string, json.RawMessage] `json:"paths"`
	Components *Components                                     `json:"components,omitempty"`
}

// Info holds document metadata.
type Info struct {
	Title   string `json:"title"`
	Version string `json:"version"`
}

// Server is one entry of the document's servers list.
type Server struct {
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// PathItem maps method names (and path-level keys such as "parameters") to
// their raw JSON. Operations are decoded one at a time so a malformed
// operation can be skipped without failing the whole document.
type PathItem = orderedmap.OrderedMap[string, json.RawMessage]

// Components holds reusable objects addressed by local $ref pointers.
type Components struct {
	Schemas       map[string]json.RawMessage `json:"schemas,omitempty"`
	Parameters    map[string]json.RawMessage `json:"parameters,omitempty"`
	RequestBodies map[string]json.RawMessage `json:"requestBodies,omitempty"`
}

// Location is where a parameter is carried on the wire.
type Location string

const (
	InPath   Location = "path"
	InQuery  Location = "query"
	InHeader Location = "header"
)

// Parameter describes one declared operation parameter.
type Parameter struct {
	Name        string
	In          Location
	Required    bool
	Schema      *schema.Node
	Description string
}

// Endpoint is one (path, method) operation ready to be exposed as a tool.
// ToolName is the sanitized identifier; it is made unique when the endpoint
// is registered.
type Endpoint struct {
	Method      string
	Path        string
	ToolName    string
	Summary     string
	Description string
	Tags        []string
	Parameters  []Parameter
	RequestBody *schema.Node
	BaseURL     string
	Source      string
}

// ParametersIn returns the endpoint parameters declared in the given location,
// in declaration order.
func (e *Endpoint) ParametersIn(in Location) []Parameter {
	var out []Parameter
	for _, p := range e.Parameters {
		if p.In == in {
			out = append(out, p)
		}
	}
	return out
}

// HasBody reports whether the endpoint declares a JSON request body.
func (e *Endpoint) HasBody() bool {
	return e.RequestBody != nil
}

type rawOperation struct {
	OperationID string            `json:"operationId"`
	Summary     string            `json:"summary"`
	Description string            `json:"description"`
	Tags        []string          `json:"tags"`
	Parameters  []json.RawMessage `json:"parameters"`
	RequestBody json.RawMessage   `json:"requestBody"`
}

type rawParameter struct {
	Ref         string          `json:"$ref"`
	Name        string          `json:"name"`
	In          string          `json:"in"`
	Required    bool            `json:"required"`
	Description string          `json:"description"`
	Schema      json.RawMessage `json:"schema"`
}

type rawRequestBody struct {
	Ref     string                  `json:"$ref"`
	Content map[string]rawMediaType `json:"content"`
}

type rawMediaType struct {
	Schema json.RawMessage `json:"schema"`
}

type rawSchema struct {
	Ref         string                                          `json:"$ref"`
	Type        json.RawMessage                                 `json:"type"`
	Format      string                                          `json:"format"`
	Description string                                          `json:"description"`
	Properties  *orderedmap.OrderedMap[string, json.RawMessage] `json:"properties"`
	Required    []string                                        `json:"required"`
	Items       json.RawMessage                                 `json:"items"`
	Enum        []any                                           `json:"enum"`
	OneOf       []json.RawMessage                               `json:"oneOf"`
	AnyOf       []json.RawMessage                               `json:"anyOf"`
	AllOf       []json.RawMessage                               `json:"allOf"`
}
