// Package store is the PostgreSQL access layer: dataset rows for the index,
// query statistics and the recent-ZIP log feeding hot-cache warming.
package store

import (
	"context"
	"database/sql"

	"district-api/internal/district"
	"district-api/internal/logger"

	_ "github.com/lib/pq"
)

// Store holds the connection pool and exposes dataset/stats operations.
type Store struct {
	db *sql.DB
}

func AttachDB(db *sql.DB) *Store { return &Store{db: db} }

// Open opens a pool from a DSN with the service's pool defaults.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

// LoadRows reads the full dataset in source order (source_seq within a ZIP)
// so the index's stable tie-break matches the offline pipeline's ordering.
func (s *Store) LoadRows(ctx context.Context) ([]district.Row, error) {
	logger.L().Debug("dataset_load_begin")
	rows, err := s.db.QueryContext(ctx,
		"SELECT zip, state, district, coverage_weight, population FROM _zip_districts ORDER BY zip, source_seq")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []district.Row
	for rows.Next() {
		var r district.Row
		if err := rows.Scan(&r.Zip, &r.State, &r.District, &r.Weight, &r.Population); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	logger.L().Debug("dataset_load_done", "rows", len(out))
	return out, nil
}

// MostQueried returns up to limit ZIPs by query count inside the recent
// window, for warming the hot cache from live history. An empty result is
// fine; the resolver falls back to population ordering.
func (s *Store) MostQueried(ctx context.Context, hours int, limit int) ([]string, error) {
	if hours <= 0 {
		hours = 24 * 7
	}
	if limit <= 0 {
		limit = 1000
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT zip FROM _zip_recent
        WHERE last_seen >= now() - make_interval(hours => $1)
        ORDER BY queries DESC, last_seen DESC
        LIMIT $2`, hours, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var z string
		if err := rows.Scan(&z); err != nil {
			return nil, err
		}
		out = append(out, z)
	}
	return out, rows.Err()
}

// IncrStats bumps the total and daily query counters; visitor is non-empty
// only the first time a client is seen inside the dedup window.
func (s *Store) IncrStats(ctx context.Context, visitor string) error {
	_, _ = s.db.ExecContext(ctx, "UPDATE _zip_stats_total SET total_queries=total_queries+1 WHERE id=1")
	_, _ = s.db.ExecContext(ctx, "INSERT INTO _zip_stats_daily(day, queries) VALUES(current_date, 1) ON CONFLICT (day) DO UPDATE SET queries=_zip_stats_daily.queries+1")
	if visitor != "" {
		_, _ = s.db.ExecContext(ctx, "UPDATE _zip_stats_total SET total_visitors=total_visitors+1 WHERE id=1")
		_, _ = s.db.ExecContext(ctx, "INSERT INTO _zip_stats_daily(day, visitors) VALUES(current_date, 1) ON CONFLICT (day) DO UPDATE SET visitors=_zip_stats_daily.visitors+1")
	}
	logger.L().Debug("stats_incr", "visitor", visitor)
	return nil
}

// Totals mirrors the stats endpoint payload.
type Totals struct {
	Total int64
	Today int64
}

func (s *Store) GetTotals(ctx context.Context) (*Totals, error) {
	var t Totals
	row := s.db.QueryRowContext(ctx, "SELECT total_queries FROM _zip_stats_total WHERE id=1")
	_ = row.Scan(&t.Total)
	row2 := s.db.QueryRowContext(ctx, "SELECT queries FROM _zip_stats_daily WHERE day=current_date")
	_ = row2.Scan(&t.Today)
	logger.L().Debug("stats_totals", "total", t.Total, "today", t.Today)
	return &t, nil
}

// RecordRecent upserts a resolved ZIP into the recent log. Invalid ZIPs are
// skipped silently; only last_seen and the counter are touched on repeats.
func (s *Store) RecordRecent(ctx context.Context, zip string) error {
	if !district.ValidZip(zip) {
		return nil
	}
	_, _ = s.db.ExecContext(ctx, `INSERT INTO _zip_recent(zip, last_seen, queries)
        VALUES($1, now(), 1)
        ON CONFLICT (zip) DO UPDATE SET last_seen=now(), queries=_zip_recent.queries+1`, zip)
	return nil
}
