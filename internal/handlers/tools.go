package handlers

import (
	"net/http"
	"strings"

	common "github.com/bobmcallan/liteapi-mcp/internal/common"
	"github.com/bobmcallan/liteapi-mcp/internal/mcp"
)

// ToolCatalog lists the registered MCP tools.
type ToolCatalog interface {
	ListTools() []mcp.ToolInfo
}

// ToolsHandler serves the tool catalog as JSON so operators can inspect what
// the MCP endpoint exposes without an MCP client.
type ToolsHandler struct {
	logger  *common.Logger
	catalog ToolCatalog
}

// NewToolsHandler creates a new tools handler.
func NewToolsHandler(logger *common.Logger, catalog ToolCatalog) *ToolsHandler {
	return &ToolsHandler{logger: logger, catalog: catalog}
}

// ServeHTTP handles GET /api/tools and GET /api/tools/{name}.
func (h *ToolsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	tools := h.catalog.ListTools()
	name := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/tools"), "/")
	if name == "" {
		WriteJSON(w, http.StatusOK, map[string]any{
			"count": len(tools),
			"tools": tools,
		})
		return
	}

	for _, t := range tools {
		if t.Name == name {
			WriteJSON(w, http.StatusOK, t)
			return
		}
	}
	WriteError(w, http.StatusNotFound, "unknown tool: "+name)
}
