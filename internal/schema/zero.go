package schema

// Zero infers a default value for the type: the first enum value, the zero
// value of a scalar, an empty collection, or a record holding defaults for
// its required fields only.
func (t *Type) Zero() any {
	if t == nil {
		return nil
	}
	switch t.Kind {
	case TypeString:
		switch t.Format {
		case "date":
			return "1970-01-01"
		case "date-time":
			return "1970-01-01T00:00:00Z"
		}
		return ""
	case TypeInteger, TypeNumber:
		return 0
	case TypeBoolean:
		return false
	case TypeArray:
		return []any{}
	case TypeMap:
		return map[string]any{}
	case TypeRecord:
		out := map[string]any{}
		for _, f := range t.Fields {
			if !f.Optional {
				out[f.Name] = f.Type.Zero()
			}
		}
		return out
	case TypeEnum:
		if len(t.Enum) > 0 {
			return t.Enum[0]
		}
	case TypeUnion:
		if len(t.Variants) > 0 {
			return t.Variants[0].Zero()
		}
	}
	return nil
}
