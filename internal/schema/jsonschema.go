package schema

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/invopop/jsonschema"
)

const datePattern = `^\d{4}-\d{2}-\d{2}$`

// JSONSchema renders the type as a JSON Schema document fragment. Record
// properties keep their declaration order.
func (t *Type) JSONSchema() *jsonschema.Schema {
	if t == nil {
		return &jsonschema.Schema{}
	}
	s := &jsonschema.Schema{Description: t.Description}

	switch t.Kind {
	case TypeString:
		s.Type = "string"
		s.Format = t.Format
		if t.Format == "date" {
			s.Pattern = datePattern
		}
	case TypeInteger:
		s.Type = "integer"
	case TypeNumber:
		s.Type = "number"
	case TypeBoolean:
		s.Type = "boolean"
	case TypeArray:
		s.Type = "array"
		s.Items = t.Items.JSONSchema()
	case TypeMap:
		s.Type = "object"
		s.AdditionalProperties = &jsonschema.Schema{}
	case TypeRecord:
		s.Type = "object"
		s.Properties = jsonschema.NewProperties()
		for _, f := range t.Fields {
			s.Properties.Set(f.Name, f.Type.JSONSchema())
			if !f.Optional {
				s.Required = append(s.Required, f.Name)
			}
		}
	case TypeEnum:
		s.Enum = append([]any(nil), t.Enum...)
		if allStrings(t.Enum) {
			s.Type = "string"
		}
	case TypeUnion:
		for _, v := range t.Variants {
			s.AnyOf = append(s.AnyOf, v.JSONSchema())
		}
	}
	return s
}

// InputSchema renders a record type as a tool input schema. Non-record types
// are wrapped so the result is always an object schema.
func (t *Type) InputSchema() (json.RawMessage, error) {
	s := t.JSONSchema()
	if t == nil || t.Kind != TypeRecord {
		s = &jsonschema.Schema{Type: "object", Properties: jsonschema.NewProperties()}
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal input schema")
	}
	return raw, nil
}

func allStrings(values []any) bool {
	for _, v := range values {
		if _, ok := v.(string); !ok {
			return false
		}
	}
	return len(values) > 0
}
