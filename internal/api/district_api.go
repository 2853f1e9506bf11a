// Package api registers the HTTP routes on a standalone ServeMux so the
// main entrypoint just mounts it under the configured base path.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"time"

	"district-api/internal/district"
	"district-api/internal/logger"
	"district-api/internal/metrics"
	"district-api/internal/store"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix  = "district:"
	redisTTL        = 24 * time.Hour
	visitorBloomKey = "district:visitors"
	visitorBloomM   = 1 << 20
	visitorBloomK   = 4
	visitorBloomTTL = 48 * time.Hour
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	_ = json.NewEncoder(w).Encode(v)
}

func resultFrom(zip string, rec district.Record, ok bool) queryResult {
	res := queryResult{Zip: zip, Candidates: []district.Candidate{}}
	if !ok {
		return res
	}
	res.Zip = rec.Zip
	res.Candidates = rec.Candidates
	res.MultiDistrict = len(rec.Candidates) > 1
	if p, has := rec.Primary(); has {
		res.State = p.State
		res.District = p.District
	}
	return res
}

// BuildRoutes wires the lookup endpoint plus the stats/cache/admin surface.
// st and rc may be nil (tests, redis-less deployments); the lookup path
// degrades to engine-only resolution.
func BuildRoutes(res *district.Resolver, st *store.Store, rc *redis.Client, cfg district.Config) *http.ServeMux {
	apiMux := http.NewServeMux()

	apiMux.HandleFunc("/district", func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		start := time.Now()
		metrics.RequestsTotal.Inc()
		zip := r.URL.Query().Get("zip")

		if rc != nil && district.ValidZip(zip) {
			s, _ := rc.Get(ctx, redisKeyPrefix+zip).Result()
			if s != "" {
				metrics.RedisHitsTotal.Inc()
				var out queryResult
				_ = json.Unmarshal([]byte(s), &out)
				writeJSON(w, out)
				countLookup(ctx, st, rc, r, zip)
				metrics.RequestDurationMs.Observe(float64(time.Since(start).Milliseconds()))
				return
			}
			metrics.RedisMissesTotal.Inc()
		}

		rec, ok := res.Resolve(zip)
		out := resultFrom(zip, rec, ok)
		if ok {
			if rc != nil {
				b, _ := json.Marshal(out)
				rc.Set(ctx, redisKeyPrefix+rec.Zip, string(b), redisTTL)
			}
			countLookup(ctx, st, rc, r, rec.Zip)
		} else {
			metrics.EmptyResultsTotal.Inc()
		}
		writeJSON(w, out)
		metrics.RequestDurationMs.Observe(float64(time.Since(start).Milliseconds()))
	})

	apiMux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		m := map[string]any{"engine": res.Metrics()}
		if st != nil {
			t, _ := st.GetTotals(r.Context())
			m["total"] = t.Total
			m["today"] = t.Today
		}
		writeJSON(w, m)
	})

	apiMux.HandleFunc("/cache", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, res.CacheStats())
	})

	apiMux.HandleFunc("/reset-metrics", func(w http.ResponseWriter, r *http.Request) {
		if !adminOK(r) {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		res.ResetMetrics()
		logger.L().Info("metrics_reset")
		w.WriteHeader(http.StatusNoContent)
	})

	apiMux.HandleFunc("/reload-dataset", func(w http.ResponseWriter, r *http.Request) {
		if !adminOK(r) {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if st == nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		rows, err := st.LoadRows(r.Context())
		if err != nil {
			logger.L().Error("dataset_reload_error", "err", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		warm, _ := st.MostQueried(r.Context(), 0, cfg.HotCacheSize)
		cfg.WarmZips = warm
		res.SwapIndex(district.NewIndex(rows), cfg)
		logger.L().Info("dataset_reloaded", "zips", res.DatasetSize())
		w.WriteHeader(http.StatusNoContent)
	})

	return apiMux
}

func adminOK(r *http.Request) bool {
	t := r.Header.Get("x-admin-token")
	return t != "" && t == os.Getenv("ADMIN_TOKEN")
}

// countLookup feeds the DB-side stats after a successful resolution: the
// query counters, the bloom-deduped visitor counter and the recent-ZIP log
// used for hot-cache warming. Failures never surface to the response.
func countLookup(ctx context.Context, st *store.Store, rc *redis.Client, r *http.Request, zip string) {
	if st == nil {
		return
	}
	visitor := getVisitorIP(r)
	if visitor != "" {
		first, err := bloomCheckAndSet(ctx, rc, visitorBloomKey,
			bloomPositions([]byte(visitor), visitorBloomM, visitorBloomK), visitorBloomTTL)
		if err != nil || !first {
			visitor = ""
		}
	}
	_ = st.IncrStats(ctx, visitor)
	_ = st.RecordRecent(ctx, zip)
}
