package mcp

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/mark3labs/mcp-go/server"

	common "github.com/bobmcallan/liteapi-mcp/internal/common"
	"github.com/bobmcallan/liteapi-mcp/internal/session"
)

// ErrMissingCredential is returned when no credential can be found for a call.
var ErrMissingCredential = errors.New(
	"No LiteAPI API key available. Provide one with the apiKey query parameter, " +
		"the X-API-Key header or an Authorization: Bearer token when connecting, " +
		"or set LITEAPI_API_KEY on the server.")

// CredentialResolver returns the credential for the call in ctx. It is
// consulted on every call.
type CredentialResolver func(ctx context.Context) (string, error)

// NewCredentialResolver resolves, in order: a credential attached to the
// request context, the credential bound to the MCP session in store, and
// defaultKey. store may be nil.
func NewCredentialResolver(store session.Store, defaultKey string, logger *common.Logger) CredentialResolver {
	return func(ctx context.Context) (string, error) {
		if key, ok := APIKeyFromContext(ctx); ok {
			return key, nil
		}
		if store != nil {
			if id := sessionID(ctx); id != "" {
				key, ok, err := store.Get(ctx, id)
				if err != nil {
					logger.Warn().Str("session", id).Str("error", err.Error()).Msg("session lookup failed")
				} else if ok && key != "" {
					return key, nil
				}
			}
		}
		if defaultKey != "" {
			return defaultKey, nil
		}
		return "", ErrMissingCredential
	}
}

// StaticCredential always resolves to key.
func StaticCredential(key string) CredentialResolver {
	return func(context.Context) (string, error) {
		if key == "" {
			return "", ErrMissingCredential
		}
		return key, nil
	}
}

func sessionID(ctx context.Context) string {
	if cs := server.ClientSessionFromContext(ctx); cs != nil {
		return cs.SessionID()
	}
	return ""
}
