package store

import (
	"context"

	"github.com/vvka-141/sphelper/pkg/sphelper"
)

// Store persists parameter-set shapes by cache key.
// Implementations must be safe for concurrent use and must never expose a
// partially written entry.
type Store interface {
	// Get returns the entry for key and whether it exists.
	Get(ctx context.Context, key string) ([]*sphelper.Parameter, bool, error)

	// Set stores or replaces the entry for key.
	Set(ctx context.Context, key string, params []*sphelper.Parameter) error

	// Delete removes the entry for key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys lists every stored key in unspecified order.
	Keys(ctx context.Context) ([]string, error)

	// Clear removes every entry.
	Clear(ctx context.Context) error
}
