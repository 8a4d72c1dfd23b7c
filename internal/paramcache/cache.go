package paramcache

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/vvka-141/sphelper/internal/logging"
	"github.com/vvka-141/sphelper/internal/store"
	"github.com/vvka-141/sphelper/pkg/sphelper"
)

// Cache is the default sphelper.ParameterSetCache.
//
// Thread-Safety: Safe for concurrent use by multiple goroutines.
type Cache struct {
	store  store.Store
	logger sphelper.Logger
	group  *singleflight.Group
	stats  counters
}

// New creates a Cache backed by a MemoryStore unless WithStore is given.
func New(opts ...Option) *Cache {
	c := &Cache{
		store:  store.NewMemoryStore(),
		logger: logging.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CacheParameterSet stores a copy of params under the key for commandText.
// Values are cleared before storing; an existing entry is overwritten.
func (c *Cache) CacheParameterSet(ctx context.Context, connectionIdentity, commandText string, params ...*sphelper.Parameter) error {
	if err := requireKeyParts(connectionIdentity, commandText); err != nil {
		return err
	}
	if err := sphelper.ValidateParameterSet(params); err != nil {
		return err
	}

	entry := sphelper.CloneParameters(params)
	if entry == nil {
		entry = []*sphelper.Parameter{}
	}
	sphelper.ResetValues(entry)

	key := Key(connectionIdentity, commandText)
	if err := c.store.Set(ctx, key, entry); err != nil {
		return fmt.Errorf("store parameter set %q: %w", key, err)
	}
	c.logger.Verbose("Cached parameter set %q (%d parameters)", key, len(entry))
	return nil
}

// GetCachedParameterSet returns a copy of the entry for commandText, or nil
// when there is none.
func (c *Cache) GetCachedParameterSet(ctx context.Context, connectionIdentity, commandText string) ([]*sphelper.Parameter, error) {
	if err := requireKeyParts(connectionIdentity, commandText); err != nil {
		return nil, err
	}
	params, found, err := c.lookup(ctx, Key(connectionIdentity, commandText))
	if err != nil || !found {
		return nil, err
	}
	return params, nil
}

// GetSpParameterSet returns a copy of the parameter set of procedureName,
// discovering and caching it on the first request for the key.
//
// Discovery failures are returned wrapped with sphelper.ErrDiscoveryFailed
// and are not cached; the next call tries again.
func (c *Cache) GetSpParameterSet(ctx context.Context, source sphelper.ConnectionFactory, discover sphelper.DiscoverFunc, procedureName string, includeReturnValue bool) ([]*sphelper.Parameter, error) {
	if source == nil {
		return nil, fmt.Errorf("connection source is nil: %w", sphelper.ErrInvalidArgument)
	}
	if discover == nil {
		return nil, fmt.Errorf("discover func is nil: %w", sphelper.ErrInvalidArgument)
	}
	if procedureName == "" {
		return nil, fmt.Errorf("procedure name is empty: %w", sphelper.ErrInvalidArgument)
	}
	identity := source.Identity()
	if identity == "" {
		return nil, fmt.Errorf("connection identity is empty: %w", sphelper.ErrInvalidArgument)
	}

	key := ProcedureKey(identity, procedureName, includeReturnValue)
	if params, found, err := c.lookup(ctx, key); err != nil || found {
		return params, err
	}

	if c.group == nil {
		params, err := c.discoverAndStore(ctx, key, source, discover, procedureName, includeReturnValue)
		if err != nil {
			return nil, err
		}
		return params, nil
	}

	// The flight outlives any single caller: it runs detached from the
	// caller's cancellation, and each caller stops waiting on its own ctx.
	ch := c.group.DoChan(key, func() (any, error) {
		flightCtx := context.WithoutCancel(ctx)
		// A flight that finished between our lookup and DoChan has already stored the set.
		params, found, err := c.store.Get(flightCtx, key)
		if err != nil {
			return nil, fmt.Errorf("read parameter set %q: %w", key, err)
		}
		if found {
			c.stats.hits.Add(1)
			c.logger.Verbose("Parameter cache hit for %q", key)
			return params, nil
		}
		return c.discoverAndStore(flightCtx, key, source, discover, procedureName, includeReturnValue)
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("wait for discovery of %q: %w", procedureName, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			c.logger.Verbose("Shared in-flight discovery for %q", key)
		}
		return sphelper.CloneParameters(res.Val.([]*sphelper.Parameter)), nil
	}
}

// Clear removes every entry from the backing store.
func (c *Cache) Clear(ctx context.Context) error {
	if err := c.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear parameter cache: %w", err)
	}
	return nil
}

// Keys lists the keys currently held by the backing store.
func (c *Cache) Keys(ctx context.Context) ([]string, error) {
	keys, err := c.store.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("list parameter cache keys: %w", err)
	}
	return keys, nil
}

// Len returns the number of cached entries.
func (c *Cache) Len(ctx context.Context) (int, error) {
	keys, err := c.Keys(ctx)
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

// Stats returns a snapshot of the hit, miss and discovery counters.
func (c *Cache) Stats() Stats {
	return c.stats.snapshot()
}

func (c *Cache) lookup(ctx context.Context, key string) ([]*sphelper.Parameter, bool, error) {
	params, found, err := c.store.Get(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("read parameter set %q: %w", key, err)
	}
	if !found {
		c.stats.misses.Add(1)
		c.logger.Verbose("Parameter cache miss for %q", key)
		return nil, false, nil
	}
	c.stats.hits.Add(1)
	c.logger.Verbose("Parameter cache hit for %q", key)
	out := sphelper.CloneParameters(params)
	if out == nil {
		out = []*sphelper.Parameter{}
	}
	return out, true, nil
}

// discoverAndStore returns a set the caller owns; the store receives its own copy.
func (c *Cache) discoverAndStore(ctx context.Context, key string, source sphelper.ConnectionFactory, discover sphelper.DiscoverFunc, procedureName string, includeReturnValue bool) ([]*sphelper.Parameter, error) {
	c.stats.discoveries.Add(1)
	start := time.Now()

	params, err := c.discover(ctx, source, discover, procedureName, includeReturnValue)
	if err != nil {
		c.stats.failures.Add(1)
		c.logger.Error("Parameter discovery for %q failed: %v", procedureName, err)
		return nil, fmt.Errorf("discover parameters for %q: %w: %w", procedureName, sphelper.ErrDiscoveryFailed, err)
	}

	if err := c.store.Set(ctx, key, sphelper.CloneParameters(params)); err != nil {
		// The caller still gets a usable set; the next request rediscovers.
		c.logger.Error("Failed to store parameter set %q: %v", key, err)
	}

	c.logger.Info("Discovered %d parameters for %q in %v", len(params), procedureName, time.Since(start).Round(time.Millisecond))
	return params, nil
}

func requireKeyParts(connectionIdentity, commandText string) error {
	if connectionIdentity == "" {
		return fmt.Errorf("connection identity is empty: %w", sphelper.ErrInvalidArgument)
	}
	if commandText == "" {
		return fmt.Errorf("command text is empty: %w", sphelper.ErrInvalidArgument)
	}
	return nil
}

var _ sphelper.ParameterSetCache = (*Cache)(nil)
