// Package session keeps the API credential bound to each MCP session.
package session

import (
	"context"

	"github.com/cockroachdb/errors"
)

// ErrEmptyID is returned when a session id is empty.
var ErrEmptyID = errors.New("session id is empty")

// Store maps MCP session ids to credentials. Entries expire after the
// store's TTL.
type Store interface {
	// Put binds credential to id, replacing any previous binding and
	// restarting its TTL.
	Put(ctx context.Context, id, credential string) error
	// Get returns the credential bound to id. The bool is false when there is
	// no live binding.
	Get(ctx context.Context, id string) (string, bool, error)
	// Delete removes the binding for id. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error
	Close() error
}
