package paramcache

import "sync/atomic"

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits        int64 `json:"hits" yaml:"hits"`
	Misses      int64 `json:"misses" yaml:"misses"`
	Discoveries int64 `json:"discoveries" yaml:"discoveries"`
	Failures    int64 `json:"failures" yaml:"failures"`
}

type counters struct {
	hits        atomic.Int64
	misses      atomic.Int64
	discoveries atomic.Int64
	failures    atomic.Int64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Discoveries: c.discoveries.Load(),
		Failures:    c.failures.Load(),
	}
}
