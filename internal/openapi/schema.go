package openapi

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/bobmcallan/liteapi-mcp/internal/schema"
)

// refResolver builds schema nodes from raw JSON, following local $ref
// pointers into the document's components. Unknown and cyclic references
// degrade to schema.KindAny.
type refResolver struct {
	components *Components
	visiting   map[string]bool
}

func newRefResolver(c *Components) *refResolver {
	if c == nil {
		c = &Components{}
	}
	return &refResolver{components: c, visiting: make(map[string]bool)}
}

// lookup returns the component addressed by ref, e.g. "#/components/schemas/Hotel".
func (r *refResolver) lookup(ref string) (json.RawMessage, bool) {
	const prefix = "#/components/"
	if !strings.HasPrefix(ref, prefix) {
		return nil, false
	}
	section, name, ok := strings.Cut(strings.TrimPrefix(ref, prefix), "/")
	if !ok {
		return nil, false
	}
	name = strings.NewReplacer("~1", "/", "~0", "~").Replace(name)

	var table map[string]json.RawMessage
	switch section {
	case "schemas":
		table = r.components.Schemas
	case "parameters":
		table = r.components.Parameters
	case "requestBodies":
		table = r.components.RequestBodies
	}
	raw, ok := table[name]
	return raw, ok
}

// node converts a raw schema into a schema.Node. It never fails.
func (r *refResolver) node(raw json.RawMessage) *schema.Node {
	if isAbsent(raw) {
		return nil
	}
	var rs rawSchema
	if err := json.Unmarshal(raw, &rs); err != nil {
		return schema.Any("")
	}

	if rs.Ref != "" {
		if r.visiting[rs.Ref] {
			return schema.Any(rs.Description)
		}
		target, ok := r.lookup(rs.Ref)
		if !ok {
			return schema.Any(rs.Description)
		}
		r.visiting[rs.Ref] = true
		n := r.node(target)
		delete(r.visiting, rs.Ref)
		if n == nil {
			return schema.Any(rs.Description)
		}
		if rs.Description != "" {
			cp := *n
			cp.Description = rs.Description
			n = &cp
		}
		return n
	}

	switch {
	case len(rs.OneOf) > 0:
		return r.composite(schema.KindUnion, rs.OneOf, rs.Description)
	case len(rs.AnyOf) > 0:
		return r.composite(schema.KindUnion, rs.AnyOf, rs.Description)
	case len(rs.AllOf) > 0:
		n := r.composite(schema.KindIntersection, rs.AllOf, rs.Description)
		if rs.Properties != nil {
			// Sibling properties take part in the intersection as a last branch.
			own := rs
			own.AllOf = nil
			own.Description = ""
			n.Variants = append(n.Variants, r.object(own))
		}
		return n
	}

	if len(rs.Enum) > 0 {
		return &schema.Node{Kind: schema.KindEnum, Enum: rs.Enum, Description: rs.Description}
	}

	switch schemaType(rs.Type) {
	case "string":
		return &schema.Node{Kind: schema.KindString, Format: rs.Format, Description: rs.Description}
	case "number":
		return &schema.Node{Kind: schema.KindNumber, Format: rs.Format, Description: rs.Description}
	case "integer":
		return &schema.Node{Kind: schema.KindInteger, Format: rs.Format, Description: rs.Description}
	case "boolean":
		return &schema.Node{Kind: schema.KindBoolean, Description: rs.Description}
	case "array":
		return schema.Array(r.node(rs.Items), rs.Description)
	case "object":
		return r.object(rs)
	}
	return schema.Any(rs.Description)
}

func (r *refResolver) composite(kind schema.Kind, branches []json.RawMessage, description string) *schema.Node {
	n := &schema.Node{Kind: kind, Description: description}
	for _, b := range branches {
		child := r.node(b)
		if child == nil {
			child = schema.Any("")
		}
		n.Variants = append(n.Variants, child)
	}
	return n
}

func (r *refResolver) object(rs rawSchema) *schema.Node {
	if rs.Properties == nil {
		return schema.Object(nil, nil, rs.Description)
	}
	props := schema.NewProperties()
	for pair := rs.Properties.Oldest(); pair != nil; pair = pair.Next() {
		child := r.node(pair.Value)
		if child == nil {
			child = schema.Any("")
		}
		props.Set(pair.Key, child)
	}
	return schema.Object(props, rs.Required, rs.Description)
}

// schemaType reads "type" as either a string or, as in OpenAPI 3.1, a list
// from which the first non-null entry is taken.
func schemaType(raw json.RawMessage) string {
	if isAbsent(raw) {
		return ""
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return single
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		for _, t := range list {
			if t != "null" {
				return t
			}
		}
	}
	return ""
}

func isAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
