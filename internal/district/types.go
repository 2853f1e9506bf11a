// Package district implements the ZIP to congressional-district resolution
// engine: an immutable dataset index fronted by a static hot cache and an
// LRU runtime cache, with per-lookup metrics.
package district

import "time"

// Candidate is one district covering (part of) a ZIP's area.
// CoverageWeight is the fraction of the ZIP's population attributed to the
// district; weights across one ZIP need not sum to 1 (approximate source).
type Candidate struct {
	State          string  `json:"state"`
	District       string  `json:"district"`
	CoverageWeight float64 `json:"coverage_weight"`
	Primary        bool    `json:"primary"`
}

// Record is the immutable entry for one ZIP. Candidates is never empty for a
// record present in the index; exactly one candidate carries Primary=true.
// Population is record-level and only used for hot-cache warming.
type Record struct {
	Zip        string      `json:"zip"`
	Candidates []Candidate `json:"candidates"`
	Population int64       `json:"-"`
}

// Primary returns the candidate flagged by the selector.
func (r Record) Primary() (Candidate, bool) {
	for _, c := range r.Candidates {
		if c.Primary {
			return c, true
		}
	}
	return Candidate{}, false
}

// cacheEntry is owned by exactly one cache tier.
type cacheEntry struct {
	rec          Record
	insertedAt   time.Time
	lastAccessed time.Time
}
