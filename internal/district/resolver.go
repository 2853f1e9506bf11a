package district

import (
	"errors"
	"sync/atomic"
	"time"
)

const (
	DefaultHotCacheSize     = 1024
	DefaultRuntimeCacheSize = 4096
)

// Config sizes the two cache tiers. WarmZips overrides the hot-cache warm
// list (most-queried ZIPs from history); when empty the most populous ZIPs
// in the index are used instead.
type Config struct {
	HotCacheSize     int
	RuntimeCacheSize int
	WarmZips         []string
}

// CacheStats is the point-in-time cache view exposed to callers.
// HotCacheSize is constant after init; RuntimeCacheSize fluctuates with
// capacity and eviction.
type CacheStats struct {
	CacheHitRate     float64 `json:"cache_hit_rate"`
	HotCacheSize     int     `json:"hot_cache_size"`
	RuntimeCacheSize int     `json:"runtime_cache_size"`
}

// Resolver answers ZIP lookups through hot cache, runtime cache and dataset
// index, in that order. The lookup path is synchronous and in-memory; no
// operation blocks or returns an error.
type Resolver struct {
	idx     atomic.Pointer[Index]
	hot     atomic.Pointer[staticTier]
	runtime *lruTier
	metrics *Collector
}

// NewResolver builds the engine around an index that must already be fully
// loaded; dataset loading is the caller's separate, fallible init step.
func NewResolver(idx *Index, cfg Config) (*Resolver, error) {
	if idx == nil {
		return nil, errors.New("district: nil index")
	}
	if cfg.HotCacheSize <= 0 {
		cfg.HotCacheSize = DefaultHotCacheSize
	}
	if cfg.RuntimeCacheSize <= 0 {
		cfg.RuntimeCacheSize = DefaultRuntimeCacheSize
	}
	rt, err := newLRUTier(cfg.RuntimeCacheSize)
	if err != nil {
		return nil, err
	}
	r := &Resolver{runtime: rt, metrics: NewCollector()}
	r.idx.Store(idx)
	r.hot.Store(warmHotTier(idx, cfg.HotCacheSize, cfg.WarmZips))
	return r, nil
}

// warmHotTier pre-populates and seals the static tier.
func warmHotTier(idx *Index, size int, warm []string) *staticTier {
	if len(warm) == 0 {
		warm = idx.TopByPopulation(size)
	} else if len(warm) > size {
		warm = warm[:size]
	}
	hot := newStaticTier()
	for _, z := range warm {
		if rec, ok := idx.Get(z); ok {
			hot.put(z, rec)
		}
	}
	hot.seal()
	return hot
}

// Resolve returns the full record for a ZIP. Malformed input is answered
// absent without touching any tier; unknown ZIPs are answered absent and not
// memoized, so a refreshed dataset is picked up without cache invalidation.
func (r *Resolver) Resolve(zip string) (Record, bool) {
	start := time.Now()
	z, ok := normalizeZip(zip)
	if !ok {
		r.metrics.Record(OutcomeDataset, false, time.Since(start))
		return Record{}, false
	}
	if rec, ok := r.hot.Load().get(z); ok {
		r.metrics.Record(OutcomeHotCache, len(rec.Candidates) > 1, time.Since(start))
		return rec, true
	}
	if rec, ok := r.runtime.get(z); ok {
		r.metrics.Record(OutcomeRuntimeCache, len(rec.Candidates) > 1, time.Since(start))
		return rec, true
	}
	if rec, ok := r.idx.Load().Get(z); ok {
		r.runtime.put(z, rec)
		r.metrics.Record(OutcomeDataset, len(rec.Candidates) > 1, time.Since(start))
		return rec, true
	}
	r.metrics.Record(OutcomeDataset, false, time.Since(start))
	return Record{}, false
}

// PrimaryDistrict resolves and returns the canonical candidate.
func (r *Resolver) PrimaryDistrict(zip string) (Candidate, bool) {
	rec, ok := r.Resolve(zip)
	if !ok {
		return Candidate{}, false
	}
	return rec.Primary()
}

// AllDistricts returns the candidate list ordered by descending coverage
// weight then ascending district; an unknown ZIP yields an empty slice.
func (r *Resolver) AllDistricts(zip string) []Candidate {
	rec, ok := r.Resolve(zip)
	if !ok {
		return []Candidate{}
	}
	out := make([]Candidate, len(rec.Candidates))
	copy(out, rec.Candidates)
	return out
}

// IsMultiDistrict is defined through AllDistricts so the two can never
// diverge.
func (r *Resolver) IsMultiDistrict(zip string) bool {
	return len(r.AllDistricts(zip)) > 1
}

// StateOf returns the primary candidate's state.
func (r *Resolver) StateOf(zip string) (string, bool) {
	c, ok := r.PrimaryDistrict(zip)
	if !ok {
		return "", false
	}
	return c.State, true
}

func (r *Resolver) Metrics() Snapshot { return r.metrics.Snapshot() }

// SetMetricsHook mirrors every lookup record to an external sink. Wire this
// before serving traffic.
func (r *Resolver) SetMetricsHook(h func(Outcome, bool, time.Duration)) {
	r.metrics.SetHook(h)
}

// ResetMetrics zeroes all counters. Callers must quiesce lookups first; the
// collector only guarantees per-field consistency across a concurrent reset.
func (r *Resolver) ResetMetrics() { r.metrics.Reset() }

func (r *Resolver) CacheStats() CacheStats {
	return CacheStats{
		CacheHitRate:     r.metrics.Snapshot().CacheHitRate,
		HotCacheSize:     r.hot.Load().size(),
		RuntimeCacheSize: r.runtime.size(),
	}
}

// SwapIndex atomically replaces the dataset, re-warms the hot tier and
// purges runtime entries computed from the previous index. Reads in flight
// keep the index they already loaded.
func (r *Resolver) SwapIndex(idx *Index, cfg Config) {
	if idx == nil {
		return
	}
	if cfg.HotCacheSize <= 0 {
		cfg.HotCacheSize = DefaultHotCacheSize
	}
	r.idx.Store(idx)
	r.hot.Store(warmHotTier(idx, cfg.HotCacheSize, cfg.WarmZips))
	r.runtime.purge()
}

// DatasetSize reports the number of ZIPs currently indexed.
func (r *Resolver) DatasetSize() int { return r.idx.Load().Len() }
