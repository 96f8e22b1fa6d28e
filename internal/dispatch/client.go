// Package dispatch turns a tool call into an HTTP request against the
// upstream API and normalizes the response.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/tidwall/gjson"

	common "github.com/bobmcallan/liteapi-mcp/internal/common"
	"github.com/bobmcallan/liteapi-mcp/internal/openapi"
)

const (
	// DefaultKeyHeader carries the API credential on every request.
	DefaultKeyHeader = "X-API-Key"

	defaultMaxResponseSize = 50 << 20 // 50MB
	defaultTimeout         = 60 * time.Second
)

// Recorder observes completed upstream requests. A status of 0 means no
// response was received.
type Recorder interface {
	ObserveUpstream(source, method string, status int, elapsed time.Duration)
}

// Result is a successful upstream response.
type Result struct {
	StatusCode  int
	ContentType string
	Body        []byte
	// JSON is true when Body holds a validated JSON document.
	JSON bool
}

// Client dispatches endpoint calls over HTTP.
type Client struct {
	httpClient      *http.Client
	logger          *common.Logger
	keyHeader       string
	maxResponseSize int64
	recorder        Recorder
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithKeyHeader sets the header that carries the credential.
func WithKeyHeader(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.keyHeader = name
		}
	}
}

// WithMaxResponseSize caps how many bytes of a response body are read.
func WithMaxResponseSize(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxResponseSize = n
		}
	}
}

// WithRecorder reports every upstream request to r.
func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// NewClient creates a dispatcher.
func NewClient(logger *common.Logger, opts ...Option) *Client {
	c := &Client{
		httpClient:      &http.Client{Timeout: defaultTimeout},
		logger:          logger,
		keyHeader:       DefaultKeyHeader,
		maxResponseSize: defaultMaxResponseSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dispatch builds the HTTP request for ep from args, sends it with the
// credential and returns the response. Errors are *RequestBuildError,
// *UpstreamError, *TransportError, or a plain error for an unusable response.
func (c *Client) Dispatch(ctx context.Context, ep *openapi.Endpoint, credential string, args map[string]any) (*Result, error) {
	parts := partitionArgs(ep, args)

	path, err := substitutePath(ep, parts.path)
	if err != nil {
		return nil, err
	}
	target, err := buildURL(ep.BaseURL, path, parts.query)
	if err != nil {
		return nil, &RequestBuildError{Tool: ep.ToolName, Reason: err.Error()}
	}

	var bodyReader io.Reader
	withBody := false
	if body, ok := shapeBody(ep, args, parts); ok && sendsBody(ep.Method) {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, &RequestBuildError{Tool: ep.ToolName, Reason: "failed to encode request body: " + err.Error()}
		}
		bodyReader = bytes.NewReader(data)
		withBody = true
	}

	req, err := http.NewRequestWithContext(ctx, ep.Method, target, bodyReader)
	if err != nil {
		return nil, &RequestBuildError{Tool: ep.ToolName, Reason: err.Error()}
	}
	req.Header.Set(c.keyHeader, credential)
	req.Header.Set("Accept", "application/json")
	if withBody {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug().Str("tool", ep.ToolName).Str("method", ep.Method).Str("path", req.URL.Path).Msg("upstream request")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.observe(ep, 0, duration)
		c.logger.Error().
			Str("tool", ep.ToolName).
			Str("method", ep.Method).
			Str("path", req.URL.Path).
			Int64("duration_ms", duration.Milliseconds()).
			Str("error", err.Error()).
			Msg("upstream request failed")
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()
	c.observe(ep, resp.StatusCode, duration)

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponseSize+1))
	if err != nil {
		return nil, &TransportError{Err: errors.Wrap(err, "failed to read response")}
	}
	if int64(len(body)) > c.maxResponseSize {
		return nil, errors.Newf("response from %s %s exceeds %d bytes", ep.Method, req.URL.Path, c.maxResponseSize)
	}

	c.logger.Debug().
		Str("tool", ep.ToolName).
		Int("status", resp.StatusCode).
		Int64("duration_ms", duration.Milliseconds()).
		Msg("upstream response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(body)}
	}

	contentType := resp.Header.Get("Content-Type")
	result := &Result{StatusCode: resp.StatusCode, ContentType: contentType, Body: body}
	if strings.Contains(strings.ToLower(contentType), "json") && len(bytes.TrimSpace(body)) > 0 {
		if !gjson.ValidBytes(body) {
			return nil, errors.Newf("invalid JSON in response from %s %s", ep.Method, req.URL.Path)
		}
		result.JSON = true
	}
	return result, nil
}

func (c *Client) observe(ep *openapi.Endpoint, status int, elapsed time.Duration) {
	if c.recorder != nil {
		c.recorder.ObserveUpstream(ep.Source, ep.Method, status, elapsed)
	}
}

// sendsBody reports whether a JSON body may be attached to method.
func sendsBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}
