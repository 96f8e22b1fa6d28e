package mcp

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	common "github.com/bobmcallan/liteapi-mcp/internal/common"
	"github.com/bobmcallan/liteapi-mcp/internal/session"
)

// SessionObserver is told when a session gains or loses a credential binding.
type SessionObserver interface {
	SessionBound()
	SessionReleased()
}

// ServerOptions configures the MCP server.
type ServerOptions struct {
	Name      string
	Version   string
	Stateless bool
	// Store keeps the credential each session initialized with. Nil disables
	// session binding.
	Store    session.Store
	Observer SessionObserver
}

// Handler is the HTTP handler for the MCP endpoint.
// It wraps mcp-go's StreamableHTTPServer and delegates to it.
type Handler struct {
	mcp        *mcpserver.MCPServer
	streamable *mcpserver.StreamableHTTPServer
	store      session.Store
	observer   SessionObserver
	logger     *common.Logger
}

// NewHandler creates an MCP server exposing every tool in reg.
func NewHandler(reg *Registry, opts ServerOptions, logger *common.Logger) *Handler {
	h := &Handler{
		store:    opts.Store,
		observer: opts.Observer,
		logger:   logger,
	}

	hooks := &mcpserver.Hooks{}
	hooks.AddAfterInitialize(h.bindSession)
	hooks.AddOnUnregisterSession(h.releaseSession)

	h.mcp = mcpserver.NewMCPServer(
		opts.Name,
		opts.Version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithHooks(hooks),
	)
	reg.Register(h.mcp)

	h.streamable = mcpserver.NewStreamableHTTPServer(h.mcp,
		mcpserver.WithHTTPContextFunc(httpContext),
		mcpserver.WithStateLess(opts.Stateless),
	)

	logger.Info().
		Int("tools", reg.Len()).
		Str("stateless", strconv.FormatBool(opts.Stateless)).
		Msg("MCP handler initialized")

	return h
}

// ServeHTTP delegates to the mcp-go StreamableHTTPServer. A credential in
// the request is attached to the context by the HTTP context function.
// A DELETE terminates the session, so its credential binding goes with it.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.streamable.ServeHTTP(w, r)

	if r.Method == http.MethodDelete {
		if id := r.Header.Get(mcpserver.HeaderKeySessionID); id != "" {
			h.release(r.Context(), id)
		}
	}
}

// ServeStdio serves JSON-RPC over in and out until ctx is done or in closes.
func (h *Handler) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := mcpserver.NewStdioServer(h.mcp)
	return stdio.Listen(ctx, in, out)
}

// bindSession remembers the credential a session initialized with, so later
// calls on the same session can omit it.
func (h *Handler) bindSession(ctx context.Context, _ any, _ *mcp.InitializeRequest, _ *mcp.InitializeResult) {
	if h.store == nil {
		return
	}
	key, ok := APIKeyFromContext(ctx)
	if !ok {
		return
	}
	id := sessionID(ctx)
	if id == "" {
		return
	}
	if err := h.store.Put(ctx, id, key); err != nil {
		h.logger.Warn().Str("session", id).Str("error", err.Error()).Msg("failed to bind session credential")
		return
	}
	if h.observer != nil {
		h.observer.SessionBound()
	}
	h.logger.Debug().Str("session", id).Msg("session credential bound")
}

// releaseSession drops the binding of a session unregistered by the server.
func (h *Handler) releaseSession(ctx context.Context, cs mcpserver.ClientSession) {
	if cs == nil {
		return
	}
	h.release(ctx, cs.SessionID())
}

// release removes the binding for id, if there is one.
func (h *Handler) release(ctx context.Context, id string) {
	if h.store == nil || id == "" {
		return
	}
	if _, ok, _ := h.store.Get(ctx, id); !ok {
		return
	}
	if err := h.store.Delete(ctx, id); err != nil {
		h.logger.Warn().Str("session", id).Str("error", err.Error()).Msg("failed to release session credential")
		return
	}
	if h.observer != nil {
		h.observer.SessionReleased()
	}
	h.logger.Debug().Str("session", id).Msg("session credential released")
}
