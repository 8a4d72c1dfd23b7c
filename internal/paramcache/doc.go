// Package paramcache implements sphelper.ParameterSetCache.
//
// A Cache maps a key derived from a connection identity and a command text to
// the ordered parameter shape of that command. Shapes of stored procedures are
// discovered lazily: the first GetSpParameterSet for a key opens a fresh
// connection from the caller's ConnectionFactory, runs the provider's
// DiscoverFunc, closes the connection and stores the result. Later requests
// for the same key are served without I/O.
//
// Every value handed out is a deep copy, so callers may bind values into the
// returned parameters without affecting the cache or each other.
//
// Concurrent misses on one key may both discover (last writer wins) unless
// the cache is built with WithSingleflight.
package paramcache
