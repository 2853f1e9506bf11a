package district

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testRows() []Row {
	return []Row{
		{Zip: "48221", State: "MI", District: "13", Weight: 1.0, Population: 31000},
		{Zip: "01007", State: "MA", District: "1", Weight: 0.62, Population: 15000},
		{Zip: "01007", State: "MA", District: "2", Weight: 0.38, Population: 15000},
		{Zip: "90210", State: "CA", District: "30", Weight: 1.0, Population: 21000},
		{Zip: "50309", State: "IA", District: "3", Weight: 1.0, Population: 9000},
		{Zip: "99950", State: "AK", District: "00", Weight: 1.0, Population: 2000},
	}
}

func newTestResolver(t *testing.T, cfg Config) *Resolver {
	t.Helper()
	r, err := NewResolver(NewIndex(testRows()), cfg)
	require.NoError(t, err)
	return r
}

func TestResolveKnownZip(t *testing.T) {
	r := newTestResolver(t, Config{})
	rec, ok := r.Resolve("48221")
	require.True(t, ok)
	require.Equal(t, "48221", rec.Zip)
	require.Len(t, rec.Candidates, 1)

	state, ok := r.StateOf("48221")
	require.True(t, ok)
	require.Equal(t, "MI", state)

	p, ok := r.PrimaryDistrict("48221")
	require.True(t, ok)
	require.Equal(t, p.State, state)
	require.True(t, p.Primary)
}

func TestResolveMalformedInput(t *testing.T) {
	r := newTestResolver(t, Config{})
	inputs := []string{
		"",
		"1234",
		"123456789",
		"abcde",
		"12a45",
		`"; DROP TABLE users; --`,
		"../../etc/passwd",
		"<script>alert(1)</script>",
	}
	for _, in := range inputs {
		before := r.CacheStats().RuntimeCacheSize
		_, ok := r.Resolve(in)
		require.False(t, ok, "input %q", in)
		require.Equal(t, before, r.CacheStats().RuntimeCacheSize, "cache polluted by %q", in)
		require.Empty(t, r.AllDistricts(in))
		require.False(t, r.IsMultiDistrict(in))
		_, ok = r.StateOf(in)
		require.False(t, ok)
	}
	snap := r.Metrics()
	require.Equal(t, snap.TotalLookups, snap.DatasetFallbacks)
	require.Zero(t, snap.HotCacheHits+snap.RuntimeCacheHits)
}

func TestResolveTrimsWhitespace(t *testing.T) {
	r := newTestResolver(t, Config{})
	rec, ok := r.Resolve("  48221 ")
	require.True(t, ok)
	require.Equal(t, "48221", rec.Zip)
}

func TestMultiDistrictZip(t *testing.T) {
	r := newTestResolver(t, Config{})
	require.True(t, r.IsMultiDistrict("01007"))

	all := r.AllDistricts("01007")
	require.Len(t, all, 2)
	require.GreaterOrEqual(t, all[0].CoverageWeight, all[1].CoverageWeight)

	p, ok := r.PrimaryDistrict("01007")
	require.True(t, ok)
	require.True(t, p.Primary)
	require.Equal(t, "1", p.District)
	require.Contains(t, all, p)

	require.False(t, r.IsMultiDistrict("48221"))
}

func TestIsMultiDistrictConsistency(t *testing.T) {
	r := newTestResolver(t, Config{})
	for _, zip := range []string{"48221", "01007", "99950", "00000", "bogus"} {
		require.Equal(t, len(r.AllDistricts(zip)) > 1, r.IsMultiDistrict(zip), "zip %q", zip)
	}
}

func TestCacheTierProgression(t *testing.T) {
	// Hot tier warms with the single most populous ZIP (48221).
	r := newTestResolver(t, Config{HotCacheSize: 1, RuntimeCacheSize: 8})
	require.Equal(t, 1, r.CacheStats().HotCacheSize)

	_, ok := r.Resolve("48221")
	require.True(t, ok)
	require.Equal(t, uint64(1), r.Metrics().HotCacheHits)

	// Cold ZIP: dataset fallback once, runtime hits afterwards.
	_, ok = r.Resolve("90210")
	require.True(t, ok)
	require.Equal(t, uint64(1), r.Metrics().DatasetFallbacks)
	for i := 0; i < 5; i++ {
		_, ok = r.Resolve("90210")
		require.True(t, ok)
	}
	snap := r.Metrics()
	require.Equal(t, uint64(1), snap.DatasetFallbacks, "fallbacks must stay constant after first occurrence")
	require.Equal(t, uint64(5), snap.RuntimeCacheHits)
}

func TestUnknownZipNotMemoized(t *testing.T) {
	r := newTestResolver(t, Config{})
	for i := 0; i < 3; i++ {
		_, ok := r.Resolve("00000")
		require.False(t, ok)
	}
	require.Equal(t, 0, r.CacheStats().RuntimeCacheSize)
	require.Equal(t, uint64(3), r.Metrics().DatasetFallbacks)
}

func TestRuntimeCacheEviction(t *testing.T) {
	// Pin the hot tier to a ZIP outside the traffic so everything below
	// exercises the runtime tier, capacity 2.
	r := newTestResolver(t, Config{HotCacheSize: 1, RuntimeCacheSize: 2, WarmZips: []string{"99950"}})

	_, _ = r.Resolve("48221")
	_, _ = r.Resolve("90210")
	require.Equal(t, 2, r.CacheStats().RuntimeCacheSize)

	// Freshen 48221, then insert a third ZIP: 90210 is the LRU victim.
	_, _ = r.Resolve("48221")
	_, _ = r.Resolve("50309")
	require.Equal(t, 2, r.CacheStats().RuntimeCacheSize)

	before := r.Metrics().DatasetFallbacks
	_, ok := r.Resolve("48221")
	require.True(t, ok)
	require.Equal(t, before, r.Metrics().DatasetFallbacks, "48221 should still be cached")
	_, ok = r.Resolve("90210")
	require.True(t, ok)
	require.Equal(t, before+1, r.Metrics().DatasetFallbacks, "90210 should have been evicted")
}

func TestRepeatedLookupHitRate(t *testing.T) {
	r := newTestResolver(t, Config{HotCacheSize: 4, RuntimeCacheSize: 16})
	for i := 0; i < 10000; i++ {
		state, ok := r.StateOf("48221")
		require.True(t, ok)
		require.Equal(t, "MI", state)
	}
	snap := r.Metrics()
	require.Equal(t, uint64(10000), snap.TotalLookups)
	require.Greater(t, snap.CacheHitRate, 0.8)
	require.Less(t, snap.AverageResponseTime, time.Millisecond)
}

func TestMetricsResetThroughResolver(t *testing.T) {
	r := newTestResolver(t, Config{})
	_, _ = r.Resolve("48221")
	_, _ = r.Resolve("01007")
	require.NotZero(t, r.Metrics().TotalLookups)

	r.ResetMetrics()
	snap := r.Metrics()
	require.Zero(t, snap.TotalLookups)
	require.Equal(t, 0.0, snap.CacheHitRate)
	require.Zero(t, snap.AverageResponseTime)
}

func TestMultiDistrictCounter(t *testing.T) {
	r := newTestResolver(t, Config{})
	_, _ = r.Resolve("01007")
	_, _ = r.Resolve("01007")
	_, _ = r.Resolve("48221")
	require.Equal(t, uint64(2), r.Metrics().MultiDistrictLookups)
}

func TestSwapIndex(t *testing.T) {
	r := newTestResolver(t, Config{HotCacheSize: 2, RuntimeCacheSize: 8})
	_, _ = r.Resolve("50309")
	require.Equal(t, 1, r.CacheStats().RuntimeCacheSize)

	// Redistricting moves 50309 to a new district; the swap must purge
	// runtime entries computed from the old dataset.
	next := NewIndex([]Row{
		{Zip: "50309", State: "IA", District: "4", Weight: 1.0, Population: 9000},
	})
	r.SwapIndex(next, Config{HotCacheSize: 2})
	require.Equal(t, 0, r.CacheStats().RuntimeCacheSize)
	require.Equal(t, 1, r.DatasetSize())

	p, ok := r.PrimaryDistrict("50309")
	require.True(t, ok)
	require.Equal(t, "4", p.District)
	_, ok = r.Resolve("48221")
	require.False(t, ok)
}

func TestConcurrentResolve(t *testing.T) {
	r := newTestResolver(t, Config{HotCacheSize: 2, RuntimeCacheSize: 4})
	done := make(chan struct{})
	for g := 0; g < 8; g++ {
		go func(g int) {
			defer func() { done <- struct{}{} }()
			zips := []string{"48221", "01007", "90210", "50309", "99950", fmt.Sprintf("%05d", g)}
			for i := 0; i < 500; i++ {
				_, _ = r.Resolve(zips[i%len(zips)])
			}
		}(g)
	}
	for g := 0; g < 8; g++ {
		<-done
	}
	require.Equal(t, uint64(8*500), r.Metrics().TotalLookups)
}
