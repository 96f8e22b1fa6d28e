package schema

const (
	dateDescription     = "Date in YYYY-MM-DD format"
	dateTimeDescription = "ISO 8601 datetime"
)

// TypeKind tags the variant held by a Type.
type TypeKind int

const (
	TypeAny TypeKind = iota
	TypeString
	TypeNumber
	TypeInteger
	TypeBoolean
	TypeArray
	TypeRecord
	TypeMap
	TypeEnum
	TypeUnion
)

// Field is one named member of a record type.
type Field struct {
	Name     string
	Type     *Type
	Optional bool
}

// Type is the runtime descriptor a Node translates to. Records keep their
// fields in declaration order; maps are open string-keyed objects of any.
type Type struct {
	Kind        TypeKind
	Format      string
	Description string
	Items       *Type
	Fields      []Field
	Enum        []any
	Variants    []*Type
}

// Field returns the named record field.
func (t *Type) Field(name string) (Field, bool) {
	if t == nil {
		return Field{}, false
	}
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Translate converts a schema node into a runtime type descriptor.
// parentDescription is used when the node carries no description of its own.
// Translate never fails: shapes it does not understand become TypeAny.
func Translate(node *Node, parentDescription string) *Type {
	if node == nil {
		return &Type{Kind: TypeAny, Description: parentDescription}
	}
	desc := node.Description
	if desc == "" {
		desc = parentDescription
	}

	switch node.Kind {
	case KindEnum:
		if len(node.Enum) == 0 {
			return &Type{Kind: TypeAny, Description: desc}
		}
		values := make([]any, len(node.Enum))
		copy(values, node.Enum)
		return &Type{Kind: TypeEnum, Enum: values, Description: desc}

	case KindUnion:
		return translateUnion(node, desc)

	case KindIntersection:
		return translateIntersection(node, desc)

	case KindString:
		switch node.Format {
		case "date":
			if desc == "" {
				desc = dateDescription
			}
			return &Type{Kind: TypeString, Format: "date", Description: desc}
		case "date-time":
			if desc == "" {
				desc = dateTimeDescription
			}
			return &Type{Kind: TypeString, Format: "date-time", Description: desc}
		}
		return &Type{Kind: TypeString, Format: node.Format, Description: desc}

	case KindInteger:
		return &Type{Kind: TypeInteger, Description: desc}

	case KindNumber:
		return &Type{Kind: TypeNumber, Description: desc}

	case KindBoolean:
		return &Type{Kind: TypeBoolean, Description: desc}

	case KindArray:
		return &Type{Kind: TypeArray, Items: Translate(node.Items, ""), Description: desc}

	case KindObject:
		if node.Properties == nil {
			return &Type{Kind: TypeMap, Description: desc}
		}
		t := &Type{Kind: TypeRecord, Description: desc}
		for pair := node.Properties.Oldest(); pair != nil; pair = pair.Next() {
			t.Fields = append(t.Fields, Field{
				Name:     pair.Key,
				Type:     Translate(pair.Value, ""),
				Optional: !node.IsRequired(pair.Key),
			})
		}
		return t
	}

	return &Type{Kind: TypeAny, Description: desc}
}

func translateUnion(node *Node, desc string) *Type {
	switch len(node.Variants) {
	case 0:
		return &Type{Kind: TypeAny, Description: desc}
	case 1:
		return Translate(node.Variants[0], desc)
	}
	t := &Type{Kind: TypeUnion, Description: desc}
	for _, v := range node.Variants {
		t.Variants = append(t.Variants, Translate(v, ""))
	}
	return t
}

// translateIntersection merges the fields of every record branch. Later
// branches override earlier ones; a field is required if any branch requires it.
func translateIntersection(node *Node, desc string) *Type {
	switch len(node.Variants) {
	case 0:
		return &Type{Kind: TypeAny, Description: desc}
	case 1:
		return Translate(node.Variants[0], desc)
	}

	merged := &Type{Kind: TypeRecord, Description: desc}
	required := map[string]bool{}
	records := 0
	for _, v := range node.Variants {
		bt := Translate(v, "")
		if bt.Kind == TypeMap {
			records++
			continue
		}
		if bt.Kind != TypeRecord {
			continue
		}
		records++
		for _, f := range bt.Fields {
			if !f.Optional {
				required[f.Name] = true
			}
			if i := fieldIndex(merged.Fields, f.Name); i >= 0 {
				merged.Fields[i].Type = f.Type
				continue
			}
			merged.Fields = append(merged.Fields, Field{Name: f.Name, Type: f.Type})
		}
	}
	if records == 0 {
		return &Type{Kind: TypeAny, Description: desc}
	}
	for i := range merged.Fields {
		merged.Fields[i].Optional = !required[merged.Fields[i].Name]
	}
	return merged
}

func fieldIndex(fields []Field, name string) int {
	for i, f := range fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}
