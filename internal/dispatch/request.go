package dispatch

import (
	"encoding/json"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/bobmcallan/liteapi-mcp/internal/openapi"
)

var pathToken = regexp.MustCompile(`\{([^{}]+)\}`)

// partition splits a flat argument bag by parameter location. Path names are
// checked before query names; remaining keys go to the body group when the
// endpoint declares a body and are dropped otherwise.
type partition struct {
	path  map[string]any
	query map[string]any
	body  map[string]any
}

func partitionArgs(ep *openapi.Endpoint, args map[string]any) partition {
	pathNames := names(ep.ParametersIn(openapi.InPath))
	queryNames := names(ep.ParametersIn(openapi.InQuery))

	p := partition{path: map[string]any{}, query: map[string]any{}, body: map[string]any{}}
	for key, value := range args {
		switch {
		case pathNames[key]:
			p.path[key] = value
		case queryNames[key]:
			p.query[key] = value
		case ep.HasBody():
			p.body[key] = value
		}
	}
	return p
}

func names(params []openapi.Parameter) map[string]bool {
	out := make(map[string]bool, len(params))
	for _, p := range params {
		out[p.Name] = true
	}
	return out
}

// substitutePath replaces every {name} token with the escaped argument value.
func substitutePath(ep *openapi.Endpoint, values map[string]any) (string, error) {
	path := ep.Path
	for _, param := range ep.ParametersIn(openapi.InPath) {
		value, ok := values[param.Name]
		if !ok || value == nil || value == "" {
			return "", &RequestBuildError{
				Tool:   ep.ToolName,
				Reason: "missing required path parameter: " + param.Name,
			}
		}
		path = strings.ReplaceAll(path, "{"+param.Name+"}", url.PathEscape(stringify(value)))
	}
	if m := pathToken.FindStringSubmatch(path); m != nil {
		return "", &RequestBuildError{
			Tool:   ep.ToolName,
			Reason: "unresolved path parameter: " + m[1],
		}
	}
	return path, nil
}

// shapeBody decides what is sent as the JSON body. When no path or query
// values were supplied the whole argument bag is sent, so an empty call
// still sends {}. Otherwise only the leftover keys are sent, and nothing at
// all when none are left.
func shapeBody(ep *openapi.Endpoint, args map[string]any, p partition) (any, bool) {
	if !ep.HasBody() {
		return nil, false
	}
	if len(p.path) == 0 && len(p.query) == 0 {
		if args == nil {
			return map[string]any{}, true
		}
		return args, true
	}
	if len(p.body) == 0 {
		return nil, false
	}
	return p.body, true
}

// buildURL joins the base URL origin, its path prefix and the substituted
// endpoint path with exactly one "/" between them, then appends the query.
// Userinfo and query parameters on the base URL are kept.
func buildURL(baseURL, path string, query map[string]any) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", errors.Wrapf(err, "invalid base URL %q", baseURL)
	}
	if base.Scheme == "" || base.Host == "" {
		return "", errors.Newf("invalid base URL %q: scheme and host are required", baseURL)
	}

	host := base.Host
	if base.User != nil {
		host = base.User.String() + "@" + host
	}
	prefix := strings.TrimRight(base.EscapedPath(), "/")
	u := base.Scheme + "://" + host + prefix + "/" + strings.TrimLeft(path, "/")

	if q := encodeQuery(base.Query(), query); q != "" {
		u += "?" + q
	}
	return u, nil
}

// encodeQuery adds the query arguments to the base URL's own query. An
// argument replaces a base parameter of the same name.
func encodeQuery(values url.Values, query map[string]any) string {
	for key, value := range query {
		if value == nil {
			continue
		}
		values.Set(key, stringify(value))
	}
	return values.Encode()
}

// stringify renders an argument the way it appears in a URL: numbers without
// exponent noise, booleans as true/false, arrays comma-joined and objects as
// JSON.
func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return formatFloat(v)
	case float32:
		return formatFloat(float64(v))
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case json.Number:
		return v.String()
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = stringify(item)
		}
		return strings.Join(parts, ",")
	case []string:
		return strings.Join(v, ",")
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return ""
	}
	return string(raw)
}

func formatFloat(f float64) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
