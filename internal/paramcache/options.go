package paramcache

import (
	"golang.org/x/sync/singleflight"

	"github.com/vvka-141/sphelper/internal/store"
	"github.com/vvka-141/sphelper/pkg/sphelper"
)

// Option configures a Cache.
type Option func(*Cache)

// WithStore replaces the default in-memory store.
func WithStore(s store.Store) Option {
	return func(c *Cache) {
		if s != nil {
			c.store = s
		}
	}
}

// WithLogger sets the logger used for hit/miss/discovery messages.
func WithLogger(logger sphelper.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithSingleflight collapses concurrent discoveries of the same key into one
// round-trip. Each waiting caller still receives its own copy.
func WithSingleflight() Option {
	return func(c *Cache) {
		c.group = &singleflight.Group{}
	}
}
