// Package ingest is the offline dataset channel: it parses ZCTA↔district
// relationship rows and batch-imports them into PostgreSQL.
package ingest

import (
	"bufio"
	"database/sql"
	"errors"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"district-api/internal/district"
	"district-api/internal/logger"
)

// ParseLine parses one pipe-delimited dataset row:
//
//	zip|state|district|coverage_weight|population
//
// population is optional. Malformed rows are rejected rather than repaired
// so the imported dataset stays trustworthy; the caller skips them.
func ParseLine(line string) (district.Row, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return district.Row{}, false
	}
	parts := strings.Split(line, "|")
	if len(parts) < 4 {
		return district.Row{}, false
	}
	r := district.Row{
		Zip:      strings.TrimSpace(parts[0]),
		State:    strings.ToUpper(strings.TrimSpace(parts[1])),
		District: strings.TrimSpace(parts[2]),
	}
	if !district.ValidZip(r.Zip) || len(r.State) != 2 || r.District == "" {
		return district.Row{}, false
	}
	w, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
	if err != nil || w <= 0 || w > 1 {
		return district.Row{}, false
	}
	r.Weight = w
	if len(parts) >= 5 {
		if p, err := strconv.ParseInt(strings.TrimSpace(parts[4]), 10, 64); err == nil && p > 0 {
			r.Population = p
		}
	}
	return r, true
}

// ImportReader streams rows into _zip_districts, committing every 5000 rows
// to keep lock hold times and WAL pressure down. Parse failures are skipped;
// database errors abort (retry is the scheduler/operator's concern).
func ImportReader(db *sql.DB, rd io.Reader) (int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	const insert = `INSERT INTO _zip_districts(zip, state, district, coverage_weight, population)
        VALUES($1,$2,$3,$4,$5)
        ON CONFLICT (zip, state, district) DO UPDATE SET coverage_weight=EXCLUDED.coverage_weight, population=EXCLUDED.population`
	stmt, err := tx.Prepare(insert)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	sc := bufio.NewScanner(rd)
	sc.Buffer(make([]byte, 1024), 1024*1024)
	count := 0
	for sc.Scan() {
		row, ok := ParseLine(sc.Text())
		if !ok {
			continue
		}
		if _, err := stmt.Exec(row.Zip, row.State, row.District, row.Weight, row.Population); err != nil {
			return count, err
		}
		count++
		if count%5000 == 0 {
			logger.L().Info("ingest_progress", "count", count)
			if err = tx.Commit(); err != nil {
				return count, err
			}
			tx, err = db.Begin()
			if err != nil {
				return count, err
			}
			stmt, err = tx.Prepare(insert)
			if err != nil {
				return count, err
			}
		}
	}
	if err := sc.Err(); err != nil {
		return count, err
	}
	if err := tx.Commit(); err != nil {
		return count, err
	}
	return count, nil
}

// FetchAndImport reads the dataset from an http(s) URL or a local file path
// and imports it.
func FetchAndImport(db *sql.DB, src string) error {
	logger.L().Info("ingest_start", "src", src)
	var rd io.ReadCloser
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		resp, err := http.Get(src)
		if err != nil {
			return err
		}
		if resp.StatusCode != 200 {
			resp.Body.Close()
			return errors.New("bad status")
		}
		rd = resp.Body
	} else {
		f, err := os.Open(src)
		if err != nil {
			return err
		}
		rd = f
	}
	defer rd.Close()
	count, err := ImportReader(db, rd)
	if err != nil {
		return err
	}
	logger.L().Info("ingest_done", "count", count)
	return nil
}

// EnsureInitialized imports once when the districts table is empty, so a
// fresh deployment comes up queryable without a manual import step.
func EnsureInitialized(db *sql.DB, src string) error {
	var c int64
	row := db.QueryRow("SELECT COUNT(1) FROM _zip_districts")
	_ = row.Scan(&c)
	if c > 0 {
		return nil
	}
	return FetchAndImport(db, src)
}
