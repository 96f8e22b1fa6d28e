package dispatch

import (
	"fmt"
	"net/http"
	"strconv"
)

// RequestBuildError reports an HTTP request that could not be assembled from
// the tool arguments. No network call is made when it is returned.
type RequestBuildError struct {
	Tool   string
	Reason string
}

func (e *RequestBuildError) Error() string {
	return e.Reason
}

// UpstreamError reports a non-2xx response from the API.
type UpstreamError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("API request failed: %s\n%s", e.statusLine(), e.Body)
}

func (e *UpstreamError) statusLine() string {
	if e.Status != "" {
		return e.Status
	}
	return strconv.Itoa(e.StatusCode) + " " + http.StatusText(e.StatusCode)
}

// TransportError reports a request that never produced an HTTP response.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }
