// Package schema describes API schemas as a tagged variant (Node) and translates
// them into runtime type descriptors (Type) used to declare tool inputs.
package schema

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Kind tags the variant held by a Node.
type Kind int

const (
	KindAny Kind = iota
	KindString
	KindNumber
	KindInteger
	KindBoolean
	KindArray
	KindObject
	KindEnum
	KindUnion
	KindIntersection
)

var kindNames = map[Kind]string{
	KindAny:          "any",
	KindString:       "string",
	KindNumber:       "number",
	KindInteger:      "integer",
	KindBoolean:      "boolean",
	KindArray:        "array",
	KindObject:       "object",
	KindEnum:         "enum",
	KindUnion:        "union",
	KindIntersection: "intersection",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "any"
}

// Properties is an ordered property map; order follows the source document.
type Properties = orderedmap.OrderedMap[string, *Node]

// NewProperties returns an empty ordered property map.
func NewProperties() *Properties {
	return orderedmap.New[string, *Node]()
}

// Node is a recursive schema description built once at parse time.
//
// Items is set for KindArray, Properties/Required for KindObject, Enum for
// KindEnum and Variants for KindUnion and KindIntersection.
type Node struct {
	Kind        Kind
	Format      string
	Description string
	Items       *Node
	Properties  *Properties
	Required    []string
	Enum        []any
	Variants    []*Node
}

// Any returns a node that accepts any value.
func Any(description string) *Node {
	return &Node{Kind: KindAny, Description: description}
}

// String returns a plain string node.
func String(description string) *Node {
	return &Node{Kind: KindString, Description: description}
}

// Array returns an array node. A nil item schema becomes any.
func Array(items *Node, description string) *Node {
	if items == nil {
		items = Any("")
	}
	return &Node{Kind: KindArray, Items: items, Description: description}
}

// Object returns an object node. Required names that are not declared
// properties are discarded so the required set is always a subset of the
// property set.
func Object(props *Properties, required []string, description string) *Node {
	n := &Node{Kind: KindObject, Properties: props, Description: description}
	if props == nil {
		return n
	}
	for _, name := range required {
		if _, ok := props.Get(name); ok && !contains(n.Required, name) {
			n.Required = append(n.Required, name)
		}
	}
	return n
}

// IsRequired reports whether name is in the node's required set.
func (n *Node) IsRequired(name string) bool {
	if n == nil {
		return false
	}
	return contains(n.Required, name)
}

// HasProperties reports whether the node declares at least one property.
func (n *Node) HasProperties() bool {
	return n != nil && n.Properties != nil && n.Properties.Len() > 0
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
