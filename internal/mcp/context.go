package mcp

import (
	"context"
	"net/http"
	"strings"
)

// apiKeyContextKey is the context key for a credential supplied with the
// current request.
type apiKeyContextKey struct{}

// WithAPIKey returns a new context carrying an explicit credential.
func WithAPIKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, apiKeyContextKey{}, key)
}

// APIKeyFromContext returns the explicit credential attached to ctx, if any.
func APIKeyFromContext(ctx context.Context) (string, bool) {
	key, ok := ctx.Value(apiKeyContextKey{}).(string)
	return key, ok && key != ""
}

// APIKeyFromRequest extracts a credential from the apiKey query parameter,
// the X-API-Key header or an Authorization Bearer token, in that order.
func APIKeyFromRequest(r *http.Request) string {
	if key := strings.TrimSpace(r.URL.Query().Get("apiKey")); key != "" {
		return key
	}
	if key := strings.TrimSpace(r.Header.Get("X-API-Key")); key != "" {
		return key
	}
	if auth := r.Header.Get("Authorization"); len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

// httpContext attaches the request's explicit credential to ctx.
func httpContext(ctx context.Context, r *http.Request) context.Context {
	if key := APIKeyFromRequest(r); key != "" {
		return WithAPIKey(ctx, key)
	}
	return ctx
}
