package sphelper

import "context"

// ParameterSetCache memoizes stored-procedure parameter shapes per connection
// identity. Every read returns a deep copy; callers may mutate the result freely.
//
// Thread-Safety: implementations must be safe for concurrent use.
type ParameterSetCache interface {
	// CacheParameterSet stores (or overwrites) the shape for the key derived from
	// connectionIdentity and commandText. No discovery is performed.
	CacheParameterSet(ctx context.Context, connectionIdentity, commandText string, params ...*Parameter) error

	// GetCachedParameterSet returns a copy of the stored shape, or nil when the
	// key is absent. It never triggers discovery.
	GetCachedParameterSet(ctx context.Context, connectionIdentity, commandText string) ([]*Parameter, error)

	// GetSpParameterSet returns the shape of procedureName, discovering it through
	// a fresh connection from source on the first request for the key.
	GetSpParameterSet(ctx context.Context, source ConnectionFactory, discover DiscoverFunc, procedureName string, includeReturnValue bool) ([]*Parameter, error)
}
