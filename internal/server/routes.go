package server

import (
	"net/http"
	"strings"
)

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// MCP endpoint (streamable HTTP transport)
	if s.app.MCPHandler != nil {
		mux.Handle("/mcp", s.app.MCPHandler)
	}

	// API routes
	mux.HandleFunc("/api/health", s.app.HealthHandler.ServeHTTP)
	mux.HandleFunc("/api/version", s.app.VersionHandler.ServeHTTP)
	mux.Handle("/api/tools", s.app.ToolsHandler)
	mux.Handle("/api/tools/", s.app.ToolsHandler)

	if s.app.Metrics != nil {
		mux.Handle("/metrics", s.app.Metrics.Handler())
	}

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.handleNotFound)

	return mux
}

// handleNotFound returns a JSON 404 for unmatched API routes.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"error":"Not Found","message":"The requested endpoint does not exist"}`))
}

// routeLabel maps a request path onto a fixed set of metric labels.
func routeLabel(path string) string {
	switch {
	case path == "/mcp", path == "/api/health", path == "/api/version", path == "/metrics":
		return path
	case path == "/api/tools", strings.HasPrefix(path, "/api/tools/"):
		return "/api/tools"
	}
	return "other"
}
