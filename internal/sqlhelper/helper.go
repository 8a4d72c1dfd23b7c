package sqlhelper

import (
	"fmt"
	"time"

	"github.com/vvka-141/sphelper/internal/db"
	"github.com/vvka-141/sphelper/internal/logging"
	"github.com/vvka-141/sphelper/internal/paramcache"
	"github.com/vvka-141/sphelper/pkg/sphelper"
)

// Source is the connection factory a Helper runs against.
type Source interface {
	sphelper.ConnectionFactory
	Driver() string
}

// Helper executes stored procedures using cached parameter templates.
//
// Thread-Safety: Safe for concurrent use. Each call uses its own connection.
type Helper struct {
	source   Source
	cache    sphelper.ParameterSetCache
	discover sphelper.DiscoverFunc
	dialect  db.Dialect
	logger   sphelper.Logger
	timeout  time.Duration
}

// Option configures a Helper.
type Option func(*Helper)

// WithCache shares a parameter-set cache between helpers.
func WithCache(cache sphelper.ParameterSetCache) Option {
	return func(h *Helper) { h.cache = cache }
}

// WithDiscover replaces the driver's default discovery function.
func WithDiscover(fn sphelper.DiscoverFunc) Option {
	return func(h *Helper) { h.discover = fn }
}

// WithDialect replaces the driver's default call dialect.
func WithDialect(d db.Dialect) Option {
	return func(h *Helper) { h.dialect = d }
}

// WithLogger sets the logger.
func WithLogger(logger sphelper.Logger) Option {
	return func(h *Helper) { h.logger = logger }
}

// WithCommandTimeout bounds each execution. Zero leaves the caller's context alone.
func WithCommandTimeout(d time.Duration) Option {
	return func(h *Helper) { h.timeout = d }
}

// New creates a Helper for source. Discovery and dialect default to the
// implementations for source.Driver(); the cache defaults to a private
// in-memory paramcache.Cache.
func New(source Source, opts ...Option) (*Helper, error) {
	if source == nil {
		return nil, fmt.Errorf("source is required: %w", sphelper.ErrInvalidArgument)
	}
	h := &Helper{source: source}
	for _, opt := range opts {
		opt(h)
	}

	if h.logger == nil {
		h.logger = logging.NewNullLogger()
	}
	if h.cache == nil {
		h.cache = paramcache.New(paramcache.WithLogger(h.logger))
	}
	if h.discover == nil {
		fn, err := db.DiscoverFor(source.Driver())
		if err != nil {
			return nil, err
		}
		h.discover = fn
	}
	if h.dialect == nil {
		d, err := db.DialectFor(source.Driver())
		if err != nil {
			return nil, err
		}
		h.dialect = d
	}
	return h, nil
}

// Cache returns the parameter-set cache the helper reads templates from.
func (h *Helper) Cache() sphelper.ParameterSetCache {
	return h.cache
}
