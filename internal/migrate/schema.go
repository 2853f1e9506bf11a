package migrate

import (
	"database/sql"

	"district-api/internal/logger"
)

// EnsureSchema creates the tables and indexes the service needs on first
// run. Everything is IF NOT EXISTS so restarts against an initialized
// database are no-ops; only the minimal structures are created here.
func EnsureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS _zip_districts (
            zip TEXT NOT NULL,
            state TEXT NOT NULL,
            district TEXT NOT NULL,
            coverage_weight DOUBLE PRECISION NOT NULL,
            population BIGINT NOT NULL DEFAULT 0,
            source_seq SERIAL
        )`,
		`CREATE INDEX IF NOT EXISTS idx_zip_districts_zip ON _zip_districts(zip)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uniq_zip_district ON _zip_districts(zip, state, district)`,
		`CREATE TABLE IF NOT EXISTS _zip_stats_total (
            id INT PRIMARY KEY,
            total_queries BIGINT NOT NULL DEFAULT 0,
            total_visitors BIGINT NOT NULL DEFAULT 0
        )`,
		`CREATE TABLE IF NOT EXISTS _zip_stats_daily (
            day DATE PRIMARY KEY,
            queries BIGINT NOT NULL DEFAULT 0,
            visitors BIGINT NOT NULL DEFAULT 0
        )`,
		`INSERT INTO _zip_stats_total(id, total_queries, total_visitors)
         VALUES(1, 0, 0)
         ON CONFLICT (id) DO NOTHING`,
		`CREATE TABLE IF NOT EXISTS _zip_recent (
            zip TEXT PRIMARY KEY,
            last_seen TIMESTAMPTZ NOT NULL DEFAULT now(),
            queries BIGINT NOT NULL DEFAULT 0
        )`,
		`CREATE INDEX IF NOT EXISTS idx_zip_recent_seen ON _zip_recent(last_seen)`,
	}
	for i, s := range stmts {
		logger.L().Debug("schema_exec", "idx", i)
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	logger.L().Debug("schema_done")
	return nil
}
