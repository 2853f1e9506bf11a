package district

import (
	"sync"
	"time"
)

// Outcome tags which tier answered a lookup.
type Outcome int

const (
	OutcomeHotCache Outcome = iota
	OutcomeRuntimeCache
	// OutcomeDataset covers index fallbacks and total misses, including
	// malformed input that never reached a tier.
	OutcomeDataset
)

// Snapshot is a point-in-time copy of the collector's aggregates.
// CacheHitRate is derived and defined as 0 when no lookups were recorded.
type Snapshot struct {
	TotalLookups         uint64        `json:"total_lookups"`
	HotCacheHits         uint64        `json:"hot_cache_hits"`
	RuntimeCacheHits     uint64        `json:"runtime_cache_hits"`
	DatasetFallbacks     uint64        `json:"dataset_fallbacks"`
	MultiDistrictLookups uint64        `json:"multi_district_lookups"`
	AverageResponseTime  time.Duration `json:"average_response_time_ns"`
	CacheHitRate         float64       `json:"cache_hit_rate"`
}

// Collector keeps process-wide lookup counters and a latency sum/count pair
// for the O(1) running mean. A single mutex guards the compound update so a
// Record is never half-applied. Reset assumes callers quiesce lookups first;
// it does not fence in-flight Record calls beyond the mutex.
type Collector struct {
	mu         sync.Mutex
	total      uint64
	hotHits    uint64
	runHits    uint64
	fallbacks  uint64
	multi      uint64
	elapsedSum time.Duration
	hook       func(Outcome, bool, time.Duration)
}

func NewCollector() *Collector { return &Collector{} }

// SetHook installs a mirror for every recorded lookup (e.g. prometheus
// counters). Must be set during wiring, before lookups start.
func (c *Collector) SetHook(h func(Outcome, bool, time.Duration)) { c.hook = h }

// Record folds one lookup into the aggregates. An unknown outcome tag is
// counted as a dataset fallback rather than rejected; Record never fails.
func (c *Collector) Record(outcome Outcome, multi bool, elapsed time.Duration) {
	if c.hook != nil {
		c.hook(outcome, multi, elapsed)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.total++
	switch outcome {
	case OutcomeHotCache:
		c.hotHits++
	case OutcomeRuntimeCache:
		c.runHits++
	default:
		c.fallbacks++
	}
	if multi {
		c.multi++
	}
	c.elapsedSum += elapsed
}

func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Snapshot{
		TotalLookups:         c.total,
		HotCacheHits:         c.hotHits,
		RuntimeCacheHits:     c.runHits,
		DatasetFallbacks:     c.fallbacks,
		MultiDistrictLookups: c.multi,
	}
	if c.total > 0 {
		s.AverageResponseTime = c.elapsedSum / time.Duration(c.total)
		s.CacheHitRate = float64(c.hotHits+c.runHits) / float64(c.total)
	}
	return s
}

func (c *Collector) Reset() {
	c.mu.Lock()
	c.total, c.hotHits, c.runHits, c.fallbacks, c.multi = 0, 0, 0, 0, 0
	c.elapsedSum = 0
	c.mu.Unlock()
}
