// Package store provides the entry stores that back the parameter-set cache.
//
// Available implementations:
//   - MemoryStore: process-local map guarded by a sync.RWMutex
//   - RedisStore: JSON entries in Redis, shared by every process using the same prefix
//
// Stores keep exactly what they are given. Copy-on-read and value resetting are
// the cache's responsibility, so a store never needs to know about callers.
package store
