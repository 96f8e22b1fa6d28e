package openapi

import (
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	common "github.com/bobmcallan/liteapi-mcp/internal/common"
	"github.com/bobmcallan/liteapi-mcp/internal/schema"
)

// operationMethods are the path item keys treated as operations.
var operationMethods = map[string]bool{
	"get": true, "put": true, "post": true, "delete": true,
	"patch": true, "head": true, "options": true, "trace": true,
}

// ParserOptions controls base URL resolution.
type ParserOptions struct {
	// FallbackBaseURL is used when the document declares no servers.
	FallbackBaseURL string
	// BaseURLOverride, when set, replaces the base URL of every endpoint.
	BaseURLOverride string
}

// Parser flattens documents into endpoints.
type Parser struct {
	opts   ParserOptions
	logger *common.Logger
}

// NewParser creates a parser. An empty fallback base URL means DefaultBaseURL.
func NewParser(opts ParserOptions, logger *common.Logger) *Parser {
	if opts.FallbackBaseURL == "" {
		opts.FallbackBaseURL = DefaultBaseURL
	}
	return &Parser{opts: opts, logger: logger}
}

// Parse returns one endpoint per (path, method) operation in document order.
// Tool names are sanitized but not deduplicated; uniqueness is assigned once,
// across every document, by the tool registry. A document without paths is a
// LoadError; a path item or operation that cannot be decoded is skipped.
func (p *Parser) Parse(doc *Document) ([]Endpoint, error) {
	if doc == nil || doc.Paths == nil {
		name := ""
		if doc != nil {
			name = doc.Name
		}
		return nil, &LoadError{Source: name, Err: errors.New("document has no paths")}
	}

	baseURL := p.baseURL(doc)
	refs := newRefResolver(doc.Components)
	var endpoints []Endpoint

	for pathPair := doc.Paths.Oldest(); pathPair != nil; pathPair = pathPair.Next() {
		path := pathPair.Key
		if isAbsent(pathPair.Value) {
			continue
		}
		item := orderedmap.New[string, json.RawMessage]()
		if err := json.Unmarshal(pathPair.Value, item); err != nil {
			p.logger.Warn().
				Str("document", doc.Name).
				Str("path", path).
				Str("error", err.Error()).
				Msg("skipping malformed path item")
			continue
		}
		shared := p.pathParameters(doc, path, item, refs)

		for opPair := item.Oldest(); opPair != nil; opPair = opPair.Next() {
			method := opPair.Key
			if !operationMethods[strings.ToLower(method)] {
				continue
			}
			var op rawOperation
			if err := json.Unmarshal(opPair.Value, &op); err != nil {
				p.logger.Warn().
					Str("document", doc.Name).
					Str("path", path).
					Str("method", method).
					Str("error", err.Error()).
					Msg("skipping malformed operation")
				continue
			}

			toolName := Sanitize(rawIdentifier(method, path, op.OperationID))

			summary := op.Summary
			if summary == "" {
				summary = toolName
			}
			description := op.Description
			if description == "" {
				description = op.Summary
			}

			endpoints = append(endpoints, Endpoint{
				Method:      strings.ToUpper(method),
				Path:        path,
				ToolName:    toolName,
				Summary:     summary,
				Description: description,
				Tags:        op.Tags,
				Parameters:  mergeParameters(p.parameters(op.Parameters, refs), shared),
				RequestBody: p.requestBody(op.RequestBody, refs),
				BaseURL:     baseURL,
				Source:      doc.Name,
			})
		}
	}

	p.logger.Debug().
		Str("document", doc.Name).
		Str("base_url", baseURL).
		Int("endpoints", len(endpoints)).
		Msg("parsed API description")

	return endpoints, nil
}

func (p *Parser) baseURL(doc *Document) string {
	if p.opts.BaseURLOverride != "" {
		return p.opts.BaseURLOverride
	}
	if len(doc.Servers) > 0 && doc.Servers[0].URL != "" {
		return doc.Servers[0].URL
	}
	return p.opts.FallbackBaseURL
}

// pathParameters decodes parameters declared on the path item itself.
func (p *Parser) pathParameters(doc *Document, path string, item *PathItem, refs *refResolver) []Parameter {
	raw, ok := item.Get("parameters")
	if !ok {
		return nil
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		p.logger.Warn().
			Str("document", doc.Name).
			Str("path", path).
			Str("error", err.Error()).
			Msg("ignoring malformed path-level parameters")
		return nil
	}
	return p.parameters(list, refs)
}

// parameters decodes path, query and header parameters. Entries without a
// name or with another location are dropped.
func (p *Parser) parameters(list []json.RawMessage, refs *refResolver) []Parameter {
	var out []Parameter
	for _, raw := range list {
		var rp rawParameter
		if err := json.Unmarshal(raw, &rp); err != nil {
			continue
		}
		if rp.Ref != "" {
			target, ok := refs.lookup(rp.Ref)
			if !ok {
				continue
			}
			rp = rawParameter{}
			if err := json.Unmarshal(target, &rp); err != nil {
				continue
			}
		}
		in := Location(strings.ToLower(rp.In))
		if rp.Name == "" || (in != InPath && in != InQuery && in != InHeader) {
			continue
		}
		out = append(out, Parameter{
			Name:        rp.Name,
			In:          in,
			Required:    rp.Required || in == InPath,
			Schema:      refs.node(rp.Schema),
			Description: rp.Description,
		})
	}
	return out
}

// requestBody returns the JSON body schema, or nil when the operation has no
// JSON body.
func (p *Parser) requestBody(raw json.RawMessage, refs *refResolver) *schema.Node {
	if isAbsent(raw) {
		return nil
	}
	var rb rawRequestBody
	if err := json.Unmarshal(raw, &rb); err != nil {
		return nil
	}
	if rb.Ref != "" {
		target, ok := refs.lookup(rb.Ref)
		if !ok {
			return nil
		}
		rb = rawRequestBody{}
		if err := json.Unmarshal(target, &rb); err != nil {
			return nil
		}
	}

	media, ok := rb.Content["application/json"]
	if !ok {
		media, ok = jsonMediaType(rb.Content)
	}
	if !ok || isAbsent(media.Schema) {
		return nil
	}
	return refs.node(media.Schema)
}

// jsonMediaType finds a structured-syntax JSON media type such as
// "application/vnd.api+json", checking keys in sorted order.
func jsonMediaType(content map[string]rawMediaType) (rawMediaType, bool) {
	var best string
	for key := range content {
		if strings.HasSuffix(key, "+json") && (best == "" || key < best) {
			best = key
		}
	}
	if best == "" {
		return rawMediaType{}, false
	}
	return content[best], true
}

// mergeParameters appends path-level parameters not overridden by an
// operation-level parameter with the same name and location.
func mergeParameters(own, shared []Parameter) []Parameter {
	for _, sp := range shared {
		overridden := false
		for _, op := range own {
			if op.Name == sp.Name && op.In == sp.In {
				overridden = true
				break
			}
		}
		if !overridden {
			own = append(own, sp)
		}
	}
	return own
}
