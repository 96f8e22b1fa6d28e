package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bobmcallan/liteapi-mcp/internal/mcp"
)

type stubCatalog []mcp.ToolInfo

func (s stubCatalog) ListTools() []mcp.ToolInfo { return s }

func sampleCatalog() stubCatalog {
	return stubCatalog{
		{Name: "getHotels", Description: "List hotels", InputSchema: json.RawMessage(`{"type":"object"}`)},
		{
			Name:             "getHotel",
			Description:      "Hotel details",
			InputSchema:      json.RawMessage(`{"type":"object","required":["hotelId"]}`),
			ExampleArguments: map[string]any{"hotelId": ""},
		},
	}
}

func TestHealthHandler_ReturnsOK(t *testing.T) {
	handler := NewHealthHandler(nil, func() int { return 42 })

	req := httptest.NewRequest("GET", "/api/health", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var body struct {
		Status string `json:"status"`
		Tools  int    `json:"tools"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if body.Status != "ok" {
		t.Errorf("expected status ok, got %s", body.Status)
	}
	if body.Tools != 42 {
		t.Errorf("expected 42 tools, got %d", body.Tools)
	}
}

func TestHealthHandler_WithoutToolCount(t *testing.T) {
	handler := NewHealthHandler(nil, nil)

	req := httptest.NewRequest("GET", "/api/health", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if _, ok := body["tools"]; ok {
		t.Error("expected no tools field without a counter")
	}
}

func TestHealthHandler_RejectsNonGET(t *testing.T) {
	handler := NewHealthHandler(nil, nil)

	req := httptest.NewRequest("POST", "/api/health", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", w.Code)
	}
	if allow := w.Header().Get("Allow"); allow != "GET" {
		t.Errorf("expected Allow: GET, got %q", allow)
	}
}

func TestVersionHandler_ReturnsJSON(t *testing.T) {
	handler := NewVersionHandler(nil)

	req := httptest.NewRequest("GET", "/api/version", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	contentType := w.Header().Get("Content-Type")
	if contentType != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", contentType)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	for _, key := range []string{"version", "build", "git_commit"} {
		if _, ok := body[key]; !ok {
			t.Errorf("expected %s field in response", key)
		}
	}
}

func TestVersionHandler_RejectsNonGET(t *testing.T) {
	handler := NewVersionHandler(nil)

	req := httptest.NewRequest("DELETE", "/api/version", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", w.Code)
	}
}

func TestToolsHandler_ListsCatalog(t *testing.T) {
	handler := NewToolsHandler(nil, sampleCatalog())

	req := httptest.NewRequest("GET", "/api/tools", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var body struct {
		Count int            `json:"count"`
		Tools []mcp.ToolInfo `json:"tools"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if body.Count != 2 || len(body.Tools) != 2 {
		t.Fatalf("expected 2 tools, got count=%d len=%d", body.Count, len(body.Tools))
	}
	if body.Tools[0].Name != "getHotels" || body.Tools[1].Name != "getHotel" {
		t.Errorf("expected registration order, got %s, %s", body.Tools[0].Name, body.Tools[1].Name)
	}
}

func TestToolsHandler_SingleTool(t *testing.T) {
	handler := NewToolsHandler(nil, sampleCatalog())

	req := httptest.NewRequest("GET", "/api/tools/getHotel", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var tool mcp.ToolInfo
	if err := json.Unmarshal(w.Body.Bytes(), &tool); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if tool.Name != "getHotel" || tool.Description != "Hotel details" {
		t.Errorf("unexpected tool %+v", tool)
	}
	if args, ok := tool.ExampleArguments.(map[string]any); !ok || args["hotelId"] != "" {
		t.Errorf("expected example arguments for hotelId, got %v", tool.ExampleArguments)
	}
}

func TestToolsHandler_UnknownTool(t *testing.T) {
	handler := NewToolsHandler(nil, sampleCatalog())

	req := httptest.NewRequest("GET", "/api/tools/bookEverything", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}

func TestRequireMethod_HeadAllowedForGet(t *testing.T) {
	req := httptest.NewRequest("HEAD", "/api/health", nil)
	w := httptest.NewRecorder()

	if !RequireMethod(w, req, "GET") {
		t.Error("expected HEAD to satisfy GET")
	}
}

func TestRequireMethod_Mismatch(t *testing.T) {
	req := httptest.NewRequest("PUT", "/api/health", nil)
	w := httptest.NewRecorder()

	if RequireMethod(w, req, "POST") {
		t.Error("expected RequireMethod to return false")
	}
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", w.Code)
	}
}

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	if err := WriteJSON(w, http.StatusCreated, map[string]string{"key": "value"}); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	if w.Code != http.StatusCreated {
		t.Errorf("expected status 201, got %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if body["key"] != "value" {
		t.Errorf("expected key=value, got %v", body)
	}
}

func TestWriteJSON_EncodingFailure(t *testing.T) {
	w := httptest.NewRecorder()
	if err := WriteJSON(w, http.StatusOK, map[string]any{"bad": make(chan int)}); err == nil {
		t.Fatal("expected an encoding error")
	}
	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", w.Code)
	}
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, http.StatusBadRequest, "bad input")

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if body["status"] != "error" || body["error"] != "bad input" {
		t.Errorf("unexpected body %v", body)
	}
}
