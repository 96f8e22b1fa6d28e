package openapi

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	common "github.com/bobmcallan/liteapi-mcp/internal/common"
	"github.com/bobmcallan/liteapi-mcp/internal/schema"
)

const hotelsJSON = `{
  "openapi": "3.0.1",
  "info": {"title": "Hotel data", "version": "3.0"},
  "servers": [{"url": "https://api.example.com/v3.0"}],
  "paths": {
    "/data/hotels": {
      "get": {
        "operationId": "getHotels",
        "summary": "List hotels",
        "parameters": [
          {"name": "countryCode", "in": "query", "required": true, "schema": {"type": "string"}},
          {"name": "limit", "in": "query", "schema": {"type": "integer"}},
          {"name": "X-Trace", "in": "header", "schema": {"type": "string"}},
          {"name": "session", "in": "cookie", "schema": {"type": "string"}}
        ]
      }
    },
    "/data/hotel/{hotelId}": {
      "parameters": [
        {"name": "hotelId", "in": "path", "schema": {"type": "string"}},
        {"name": "language", "in": "query", "schema": {"type": "string"}}
      ],
      "get": {
        "summary": "Hotel details",
        "description": "Full details for one hotel.",
        "parameters": [
          {"name": "language", "in": "query", "required": true, "description": "Operation level", "schema": {"type": "string"}}
        ]
      },
      "delete": "not an operation object",
      "summary": "path level summary is not an operation"
    },
    "/rates": {
      "post": {
        "operationId": "getRates",
        "requestBody": {"$ref": "#/components/requestBodies/RatesRequest"}
      }
    },
    "/rates/prebook": {
      "post": {
        "operationId": "getRates",
        "parameters": [{"$ref": "#/components/parameters/Currency"}],
        "requestBody": {
          "content": {
            "application/vnd.api+json": {"schema": {"type": "object", "properties": {"offerId": {"type": "string"}}}}
          }
        }
      }
    }
  },
  "components": {
    "parameters": {
      "Currency": {"name": "currency", "in": "query", "schema": {"type": "string"}}
    },
    "schemas": {
      "Occupancy": {"type": "object", "properties": {"adults": {"type": "integer"}}, "required": ["adults"]}
    },
    "requestBodies": {
      "RatesRequest": {
        "content": {
          "application/json": {
            "schema": {
              "type": "object",
              "required": ["checkin"],
              "properties": {
                "checkin": {"type": "string", "format": "date"},
                "occupancies": {"type": "array", "items": {"$ref": "#/components/schemas/Occupancy"}}
              }
            }
          }
        }
      }
    }
  }
}`

func parseHotels(t *testing.T, opts ParserOptions) []Endpoint {
	t.Helper()
	doc, err := Load("data", []byte(hotelsJSON))
	require.NoError(t, err)
	endpoints, err := NewParser(opts, common.NewSilentLogger()).Parse(doc)
	require.NoError(t, err)
	return endpoints
}

func TestParse_OrderAndNames(t *testing.T) {
	endpoints := parseHotels(t, ParserOptions{})

	var names []string
	for _, ep := range endpoints {
		names = append(names, ep.ToolName)
	}
	// Duplicates are left for the registry to resolve across documents.
	assert.Equal(t, []string{"getHotels", "get_data_hotel_hotelid", "getRates", "getRates"}, names)

	assert.Equal(t, "GET", endpoints[0].Method)
	assert.Equal(t, "POST", endpoints[2].Method)
	assert.Equal(t, "data", endpoints[0].Source)
	assert.Equal(t, "https://api.example.com/v3.0", endpoints[0].BaseURL)
}

func TestParse_SummaryAndDescription(t *testing.T) {
	endpoints := parseHotels(t, ParserOptions{})

	assert.Equal(t, "List hotels", endpoints[0].Summary)
	assert.Equal(t, "List hotels", endpoints[0].Description)
	assert.Equal(t, "Full details for one hotel.", endpoints[1].Description)
	assert.Equal(t, "getRates", endpoints[2].Summary, "summary falls back to the tool name")
	assert.Empty(t, endpoints[2].Description)
}

func TestParse_ParameterLocations(t *testing.T) {
	endpoints := parseHotels(t, ParserOptions{})
	params := endpoints[0].Parameters

	require.Len(t, params, 3, "cookie parameter is dropped")
	assert.Equal(t, InQuery, params[0].In)
	assert.True(t, params[0].Required)
	assert.False(t, params[1].Required)
	assert.Equal(t, InHeader, params[2].In)
	assert.Equal(t, schema.KindInteger, params[1].Schema.Kind)
}

func TestParse_PathLevelParametersMerged(t *testing.T) {
	endpoints := parseHotels(t, ParserOptions{})
	params := endpoints[1].Parameters

	require.Len(t, params, 2)
	assert.Equal(t, "language", params[0].Name)
	assert.Equal(t, "Operation level", params[0].Description, "operation parameter overrides path-level one")
	assert.True(t, params[0].Required)

	assert.Equal(t, "hotelId", params[1].Name)
	assert.Equal(t, InPath, params[1].In)
	assert.True(t, params[1].Required, "path parameters are always required")
}

func TestParse_RefsAndBodies(t *testing.T) {
	endpoints := parseHotels(t, ParserOptions{})

	rates := endpoints[2]
	require.NotNil(t, rates.RequestBody)
	assert.True(t, rates.HasBody())
	assert.Equal(t, schema.KindObject, rates.RequestBody.Kind)
	assert.True(t, rates.RequestBody.IsRequired("checkin"))

	occ, ok := rates.RequestBody.Properties.Get("occupancies")
	require.True(t, ok)
	require.Equal(t, schema.KindArray, occ.Kind)
	assert.Equal(t, schema.KindObject, occ.Items.Kind)
	assert.True(t, occ.Items.IsRequired("adults"))

	prebook := endpoints[3]
	require.Len(t, prebook.Parameters, 1)
	assert.Equal(t, "currency", prebook.Parameters[0].Name)
	require.NotNil(t, prebook.RequestBody, "+json media type is accepted")
	_, ok = prebook.RequestBody.Properties.Get("offerId")
	assert.True(t, ok)
}

func TestParse_BaseURL(t *testing.T) {
	endpoints := parseHotels(t, ParserOptions{BaseURLOverride: "http://localhost:9999"})
	for _, ep := range endpoints {
		assert.Equal(t, "http://localhost:9999", ep.BaseURL)
	}

	doc, err := Load("bare", []byte(`{"paths":{"/ping":{"get":{}}}}`))
	require.NoError(t, err)

	endpoints, err = NewParser(ParserOptions{}, common.NewSilentLogger()).Parse(doc)
	require.NoError(t, err)
	require.Len(t, endpoints, 1)
	assert.Equal(t, DefaultBaseURL, endpoints[0].BaseURL)
	assert.Equal(t, "get_ping", endpoints[0].ToolName)

	endpoints, err = NewParser(ParserOptions{FallbackBaseURL: "https://fallback.example.com"}, common.NewSilentLogger()).Parse(doc)
	require.NoError(t, err)
	assert.Equal(t, "https://fallback.example.com", endpoints[0].BaseURL)
}

func TestParse_SkipsMalformedPathItem(t *testing.T) {
	doc, err := Load("mixed", []byte(`{
  "paths": {
    "/ok": {"get": {"operationId": "ok"}},
    "/bad": ["oops"],
    "/empty": null,
    "/also-ok": {"post": {"operationId": "alsoOk"}}
  }
}`))
	require.NoError(t, err, "one malformed path item must not fail the document")

	endpoints, err := NewParser(ParserOptions{}, common.NewSilentLogger()).Parse(doc)
	require.NoError(t, err)
	require.Len(t, endpoints, 2)
	assert.Equal(t, "ok", endpoints[0].ToolName)
	assert.Equal(t, "alsoOk", endpoints[1].ToolName)
}

func TestParse_NoPaths(t *testing.T) {
	_, err := NewParser(ParserOptions{}, common.NewSilentLogger()).Parse(&Document{Name: "empty"})

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, "empty", loadErr.Source)
}

func TestLoad_YAMLKeepsOrder(t *testing.T) {
	yamlDoc := `
openapi: 3.0.1
info:
  title: Booking
  version: "3.0"
paths:
  /rates/book:
    post:
      operationId: book
      requestBody:
        content:
          application/json:
            schema:
              type: object
              properties:
                prebookId: {type: string}
                holder: {type: object}
                payment: {type: object}
  /bookings:
    get:
      operationId: listBookings
      parameters:
        - name: guestId
          in: query
          schema: {type: string}
`
	doc, err := Load("booking", []byte(yamlDoc))
	require.NoError(t, err)

	endpoints, err := NewParser(ParserOptions{}, common.NewSilentLogger()).Parse(doc)
	require.NoError(t, err)
	require.Len(t, endpoints, 2)
	assert.Equal(t, "book", endpoints[0].ToolName)
	assert.Equal(t, "listBookings", endpoints[1].ToolName)

	var keys []string
	for pair := endpoints[0].RequestBody.Properties.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	assert.Equal(t, []string{"prebookId", "holder", "payment"}, keys)
	assert.Equal(t, "3.0", doc.Info.Version)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", "   "},
		{"invalid json", `{"paths": `},
		{"missing paths", `{"openapi": "3.0.1"}`},
		{"paths not object", `{"paths": []}`},
		{"invalid yaml", "paths: [unclosed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.name, []byte(tt.data))
			var loadErr *LoadError
			require.True(t, errors.As(err, &loadErr), "expected LoadError, got %v", err)
			assert.Equal(t, tt.name, loadErr.Source)
			assert.Contains(t, err.Error(), "failed to load API description")
		})
	}
}

func TestLoadFiles_SkipsBadDocuments(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "data.json")
	bad := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(good, []byte(hotelsJSON), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte(`{"info": {}}`), 0o644))

	docs, errs := LoadFiles([]string{bad, good, filepath.Join(dir, "missing.json")})
	require.Len(t, docs, 1)
	assert.Equal(t, "data", docs[0].Name)
	require.Len(t, errs, 2)

	var loadErr *LoadError
	require.True(t, errors.As(errs[0], &loadErr))
	assert.Equal(t, "broken", loadErr.Source)
	require.True(t, errors.As(errs[1], &loadErr))
	assert.Equal(t, "missing", loadErr.Source)
}
