package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"district-api/internal/district"

	"github.com/stretchr/testify/require"
)

func newTestMux(t *testing.T) (*http.ServeMux, *district.Resolver) {
	t.Helper()
	idx := district.NewIndex([]district.Row{
		{Zip: "48221", State: "MI", District: "13", Weight: 1.0, Population: 31000},
		{Zip: "01007", State: "MA", District: "1", Weight: 0.62, Population: 15000},
		{Zip: "01007", State: "MA", District: "2", Weight: 0.38, Population: 15000},
	})
	res, err := district.NewResolver(idx, district.Config{HotCacheSize: 2, RuntimeCacheSize: 8})
	require.NoError(t, err)
	return BuildRoutes(res, nil, nil, district.Config{HotCacheSize: 2}), res
}

func getJSON(t *testing.T, mux *http.ServeMux, url string, out any) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, url, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), out))
	return rr
}

func TestDistrictEndpoint(t *testing.T) {
	mux, _ := newTestMux(t)
	var out queryResult
	getJSON(t, mux, "/district?zip=48221", &out)
	require.Equal(t, "48221", out.Zip)
	require.Equal(t, "MI", out.State)
	require.Equal(t, "13", out.District)
	require.False(t, out.MultiDistrict)
	require.Len(t, out.Candidates, 1)
}

func TestDistrictEndpointMulti(t *testing.T) {
	mux, _ := newTestMux(t)
	var out queryResult
	getJSON(t, mux, "/district?zip=01007", &out)
	require.True(t, out.MultiDistrict)
	require.Len(t, out.Candidates, 2)
	require.Equal(t, "1", out.District)
	require.True(t, out.Candidates[0].Primary)
}

func TestDistrictEndpointBadInput(t *testing.T) {
	mux, _ := newTestMux(t)
	for _, q := range []string{
		"/district?zip=",
		"/district?zip=123456789",
		"/district?zip=%22%3B%20DROP%20TABLE%20users%3B%20--",
	} {
		var out queryResult
		getJSON(t, mux, q, &out)
		require.Empty(t, out.State)
		require.Empty(t, out.District)
		require.Empty(t, out.Candidates)
		require.False(t, out.MultiDistrict)
	}
}

func TestCacheEndpoint(t *testing.T) {
	mux, res := newTestMux(t)
	_, _ = res.Resolve("01007")
	var out district.CacheStats
	getJSON(t, mux, "/cache", &out)
	require.Equal(t, 2, out.HotCacheSize)
	require.Equal(t, 1, out.RuntimeCacheSize)
}

func TestStatsEndpointEngineSnapshot(t *testing.T) {
	mux, res := newTestMux(t)
	_, _ = res.Resolve("48221")
	var out struct {
		Engine district.Snapshot `json:"engine"`
	}
	getJSON(t, mux, "/stats", &out)
	require.Equal(t, uint64(1), out.Engine.TotalLookups)
}

func TestResetMetricsRequiresToken(t *testing.T) {
	mux, res := newTestMux(t)
	t.Setenv("ADMIN_TOKEN", "sekrit")
	_, _ = res.Resolve("48221")

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/reset-metrics", nil))
	require.Equal(t, http.StatusForbidden, rr.Code)
	require.NotZero(t, res.Metrics().TotalLookups)

	req := httptest.NewRequest(http.MethodPost, "/reset-metrics", nil)
	req.Header.Set("x-admin-token", "sekrit")
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	require.Equal(t, http.StatusNoContent, rr.Code)
	require.Zero(t, res.Metrics().TotalLookups)
}

func TestReloadDatasetWithoutStore(t *testing.T) {
	mux, _ := newTestMux(t)
	t.Setenv("ADMIN_TOKEN", "sekrit")
	req := httptest.NewRequest(http.MethodPost, "/reload-dataset", nil)
	req.Header.Set("x-admin-token", "sekrit")
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
