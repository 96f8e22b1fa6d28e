package handlers

import (
	"net/http"

	common "github.com/bobmcallan/liteapi-mcp/internal/common"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	logger *common.Logger
	tools  func() int
}

// NewHealthHandler creates a new health handler. tools reports how many MCP
// tools are registered and may be nil.
func NewHealthHandler(logger *common.Logger, tools func() int) *HealthHandler {
	return &HealthHandler{logger: logger, tools: tools}
}

// ServeHTTP handles GET /api/health.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	body := map[string]any{
		"status": "ok",
	}
	if h.tools != nil {
		body["tools"] = h.tools()
	}
	WriteJSON(w, http.StatusOK, body)
}
