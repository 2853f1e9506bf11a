// Server entrypoint: reads config, wires dependencies and starts serving;
// route registration lives in internal/api.
package main

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"district-api/internal/api"
	"district-api/internal/district"
	"district-api/internal/ingest"
	"district-api/internal/logger"
	"district-api/internal/metrics"
	"district-api/internal/middleware"
	"district-api/internal/migrate"
	"district-api/internal/store"
	"district-api/internal/utils"
	"district-api/internal/version"

	"github.com/joho/godotenv"
)

func envInt(name string, def int) int {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
	l := logger.Setup()
	l.Debug("log_init_ok")

	apiBase := os.Getenv("API_BASE")
	if apiBase == "" {
		apiBase = "/api"
	}
	l.Debug("config_api_base", "base", apiBase)
	ui := os.Getenv("UI_DIST")
	if ui == "" {
		ui = filepath.Join("ui", "dist")
	}

	db, err := utils.OpenPostgresFromEnv()
	if err != nil {
		l.Error("db_open_error", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	l.Info("db_open_ok")
	if err := db.Ping(); err != nil {
		l.Error("db_ping_error", "err", err)
	} else {
		l.Info("db_ping_ok")
	}
	st := store.AttachDB(db)
	if err := migrate.EnsureSchema(db); err != nil {
		l.Error("schema_error", "err", err)
		os.Exit(1)
	}

	var rc = utils.OpenRedisFromEnv()
	if os.Getenv("REDIS_ENABLED") == "false" {
		rc = nil
		l.Info("redis_disabled")
	} else if err := rc.Ping(context.Background()).Err(); err != nil {
		l.Error("redis_ping_error", "err", err)
	} else {
		l.Info("redis_ping_ok")
	}

	// Dataset bootstrap: import the relationship file once when the table is
	// empty, before the index is built. Refreshes go through the ingest CLI
	// plus /reload-dataset.
	datasetPath := os.Getenv("DATASET_PATH")
	if datasetPath == "" {
		datasetPath = filepath.Join("data", "zcta", "zcta_cd.txt")
	}
	l.Debug("config_dataset_path", "path", datasetPath)
	if os.Getenv("IMPORT_DATASET") != "false" {
		if _, err := os.Stat(datasetPath); err == nil {
			if err := ingest.EnsureInitialized(db, datasetPath); err != nil {
				l.Error("dataset_import_error", "err", err)
			}
		} else {
			l.Info("dataset_file_absent", "path", datasetPath)
		}
	}

	cfg := district.Config{
		HotCacheSize:     envInt("HOT_CACHE_SIZE", district.DefaultHotCacheSize),
		RuntimeCacheSize: envInt("RUNTIME_CACHE_SIZE", district.DefaultRuntimeCacheSize),
	}
	rows, err := st.LoadRows(context.Background())
	if err != nil {
		l.Error("dataset_load_error", "err", err)
		os.Exit(1)
	}
	if len(rows) == 0 {
		l.Warn("dataset_empty", "hint", "run zcta-ingest or set DATASET_PATH")
	}
	if warm, err := st.MostQueried(context.Background(), 0, cfg.HotCacheSize); err == nil {
		cfg.WarmZips = warm
	}
	res, err := district.NewResolver(district.NewIndex(rows), cfg)
	if err != nil {
		l.Error("resolver_init_error", "err", err)
		os.Exit(1)
	}
	l.Info("resolver_ready", "zips", res.DatasetSize(), "hot", res.CacheStats().HotCacheSize)

	// Mirror engine lookup outcomes into prometheus.
	res.SetMetricsHook(func(o district.Outcome, multi bool, _ time.Duration) {
		switch o {
		case district.OutcomeHotCache:
			metrics.CacheHitsTotal.WithLabelValues("hot").Inc()
		case district.OutcomeRuntimeCache:
			metrics.CacheHitsTotal.WithLabelValues("runtime").Inc()
		default:
			metrics.DatasetFallbacksTotal.Inc()
		}
		if multi {
			metrics.MultiDistrictTotal.Inc()
		}
	})

	mux := http.NewServeMux()
	apiMux := api.BuildRoutes(res, st, rc, cfg)
	mux.Handle(apiBase+"/", http.StripPrefix(apiBase, apiMux))
	mux.Handle(apiBase+"/metrics", metrics.Handler())

	fs := http.FileServer(http.Dir(ui))
	mux.Handle("/", fs)

	// Runtime config shim for the frontend; avoids rebuilding the UI per env.
	mux.HandleFunc("/config.js", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "application/javascript; charset=utf-8")
		w.Header().Set("cache-control", "no-store")
		_, _ = w.Write([]byte("window.__API_BASE__='" + apiBase + "'"))
		_, _ = w.Write([]byte("\n"))
		_, _ = w.Write([]byte("window.__DATA_SOURCE__='Census ZCTA-CD relationship file'"))
		_, _ = w.Write([]byte("\n"))
		_, _ = w.Write([]byte("window.__COMMIT_SHA__='" + version.Commit + "'"))
	})

	addr := os.Getenv("ADDR")
	if addr == "" {
		addr = ":8080"
	}
	handler := logger.AccessMiddleware(l)(mux)
	handler = middleware.Wrap(handler)
	s := &http.Server{Addr: addr, Handler: handler}
	if os.Getenv("TLS_ENABLE") == "true" {
		certPath := os.Getenv("TLS_CERT_PATH")
		keyPath := os.Getenv("TLS_KEY_PATH")
		if certPath == "" {
			certPath = filepath.Join("data", "certs", "server.crt")
		}
		if keyPath == "" {
			keyPath = filepath.Join("data", "certs", "server.key")
		}
		_ = utils.EnsureSelfSignedCert(certPath, keyPath, "district-api.local")
		if os.Getenv("TLS_REDIRECT_ENABLE") == "true" {
			redirAddr := os.Getenv("TLS_REDIRECT_ADDR")
			if redirAddr == "" {
				redirAddr = ":80"
			}
			go func() {
				httpsPort := strings.TrimPrefix(addr, ":")
				redir := http.NewServeMux()
				redir.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
					baseHost := r.Host
					if i := strings.LastIndex(baseHost, ":"); i != -1 {
						baseHost = baseHost[:i]
					}
					target := "https://" + baseHost
					if httpsPort != "" {
						target += ":" + httpsPort
					}
					target += r.URL.RequestURI()
					http.Redirect(w, r, target, http.StatusMovedPermanently)
				})
				l.Info("http_redirect_listening", "addr", redirAddr)
				_ = http.ListenAndServe(redirAddr, logger.AccessMiddleware(l)(redir))
			}()
		}
		l.Info("listening_tls", "addr", addr, "cert", certPath)
		_ = s.ListenAndServeTLS(certPath, keyPath)
		return
	}
	l.Info("listening", "addr", addr)
	_ = s.ListenAndServe()
}
