package schema

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func objectNode(required []string, names ...string) *Node {
	props := NewProperties()
	for _, n := range names {
		props.Set(n, String(""))
	}
	return Object(props, required, "")
}

func TestTranslate_RequiredAndOptional(t *testing.T) {
	typ := Translate(objectNode([]string{"a"}, "a", "b"), "")
	require.Equal(t, TypeRecord, typ.Kind)

	a, ok := typ.Field("a")
	require.True(t, ok)
	assert.False(t, a.Optional)
	b, ok := typ.Field("b")
	require.True(t, ok)
	assert.True(t, b.Optional)

	swapped := Translate(objectNode([]string{"b"}, "a", "b"), "")
	a, _ = swapped.Field("a")
	b, _ = swapped.Field("b")
	assert.True(t, a.Optional)
	assert.False(t, b.Optional)
}

func TestObject_RequiredIsSubsetOfProperties(t *testing.T) {
	n := objectNode([]string{"a", "missing", "a"}, "a")
	assert.Equal(t, []string{"a"}, n.Required)
}

func TestTranslate_Enum(t *testing.T) {
	n := &Node{Kind: KindEnum, Enum: []any{"USD", "EUR"}}
	typ := Translate(n, "")
	assert.Equal(t, TypeEnum, typ.Kind)
	assert.Equal(t, []any{"USD", "EUR"}, typ.Enum)
	assert.Equal(t, "USD", typ.Zero())
}

func TestTranslate_Union(t *testing.T) {
	single := &Node{Kind: KindUnion, Variants: []*Node{{Kind: KindInteger}}}
	assert.Equal(t, TypeInteger, Translate(single, "").Kind)

	double := &Node{Kind: KindUnion, Variants: []*Node{{Kind: KindInteger}, String("")}}
	typ := Translate(double, "")
	require.Equal(t, TypeUnion, typ.Kind)
	require.Len(t, typ.Variants, 2)
	assert.Equal(t, TypeInteger, typ.Variants[0].Kind)
	assert.Equal(t, TypeString, typ.Variants[1].Kind)
}

func TestTranslate_IntersectionMergesBranches(t *testing.T) {
	first := NewProperties()
	first.Set("hotelId", String("first"))
	first.Set("rate", &Node{Kind: KindNumber})
	second := NewProperties()
	second.Set("hotelId", &Node{Kind: KindInteger})
	second.Set("currency", String(""))

	n := &Node{Kind: KindIntersection, Variants: []*Node{
		Object(first, []string{"hotelId"}, ""),
		Object(second, []string{"currency"}, ""),
	}}
	typ := Translate(n, "")
	require.Equal(t, TypeRecord, typ.Kind)
	require.Len(t, typ.Fields, 3)

	hotel, _ := typ.Field("hotelId")
	assert.Equal(t, TypeInteger, hotel.Type.Kind, "later branch overrides")
	assert.False(t, hotel.Optional)
	rate, _ := typ.Field("rate")
	assert.True(t, rate.Optional)
	currency, _ := typ.Field("currency")
	assert.False(t, currency.Optional)
}

func TestTranslate_IntersectionWithoutRecordsIsAny(t *testing.T) {
	n := &Node{Kind: KindIntersection, Variants: []*Node{String(""), {Kind: KindBoolean}}}
	assert.Equal(t, TypeAny, Translate(n, "").Kind)
}

func TestTranslate_Formats(t *testing.T) {
	date := Translate(&Node{Kind: KindString, Format: "date"}, "")
	assert.Equal(t, "date", date.Format)
	assert.Equal(t, dateDescription, date.Description)

	dt := Translate(&Node{Kind: KindString, Format: "date-time", Description: "Check-in"}, "")
	assert.Equal(t, "date-time", dt.Format)
	assert.Equal(t, "Check-in", dt.Description)
}

func TestTranslate_Collections(t *testing.T) {
	arr := Translate(Array(nil, ""), "")
	require.Equal(t, TypeArray, arr.Kind)
	assert.Equal(t, TypeAny, arr.Items.Kind)

	m := Translate(Object(nil, nil, ""), "")
	assert.Equal(t, TypeMap, m.Kind)

	empty := Translate(Object(NewProperties(), nil, ""), "")
	assert.Equal(t, TypeRecord, empty.Kind)
	assert.Empty(t, empty.Fields)
}

func TestTranslate_NilAndUnknownAreAny(t *testing.T) {
	assert.Equal(t, TypeAny, Translate(nil, "").Kind)
	assert.Equal(t, "parent", Translate(nil, "parent").Description)
	assert.Equal(t, TypeAny, Translate(&Node{Kind: Kind(99)}, "").Kind)
	assert.Equal(t, TypeAny, Translate(&Node{Kind: KindEnum}, "").Kind)
}

func TestTranslate_ParentDescription(t *testing.T) {
	assert.Equal(t, "from parent", Translate(String(""), "from parent").Description)
	assert.Equal(t, "own", Translate(String("own"), "from parent").Description)
}

func TestInputSchema_PreservesOrderAndRequired(t *testing.T) {
	props := NewProperties()
	props.Set("zeta", String(""))
	props.Set("alpha", &Node{Kind: KindInteger})
	props.Set("tags", Array(String(""), ""))
	typ := Translate(Object(props, []string{"alpha"}, ""), "")

	raw, err := typ.InputSchema()
	require.NoError(t, err)

	var decoded struct {
		Type       string                     `json:"type"`
		Required   []string                   `json:"required"`
		Properties map[string]json.RawMessage `json:"properties"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "object", decoded.Type)
	assert.Equal(t, []string{"alpha"}, decoded.Required)
	assert.Len(t, decoded.Properties, 3)
	assert.Less(t, strings.Index(string(raw), `"zeta"`), strings.Index(string(raw), `"alpha"`))
}

func TestInputSchema_NonRecordIsEmptyObject(t *testing.T) {
	raw, err := Translate(nil, "").InputSchema()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"object","properties":{}}`, string(raw))
}

func TestZero_Record(t *testing.T) {
	props := NewProperties()
	props.Set("checkin", &Node{Kind: KindString, Format: "date"})
	props.Set("adults", &Node{Kind: KindInteger})
	props.Set("note", String(""))
	typ := Translate(Object(props, []string{"checkin", "adults"}, ""), "")

	assert.Equal(t, map[string]any{"checkin": "1970-01-01", "adults": 0}, typ.Zero())
}
