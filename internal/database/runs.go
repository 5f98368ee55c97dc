package database

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// StartCrawlRun records the start of a crawl and returns its id.
func (db *DB) StartCrawlRun(symbol string) (string, error) {
	id := uuid.NewString()
	_, err := db.conn.Exec(
		"INSERT INTO crawl_runs (id, symbol, started_at) VALUES (?, ?, ?)",
		id, symbol, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

// FinishCrawlRun stores the outcome of a crawl. errMsg may be empty.
func (db *DB) FinishCrawlRun(id, outcome string, windows, fetched, added int, cursor, errMsg string) error {
	var e *string
	if errMsg != "" {
		e = &errMsg
	}
	_, err := db.conn.Exec(
		`UPDATE crawl_runs SET finished_at = ?, outcome = ?, windows = ?, fetched = ?, added = ?, cursor = ?, error = ?
		WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339), outcome, windows, fetched, added, cursor, e, id,
	)
	return err
}

// GetCrawlRun returns a run by id, or nil if it does not exist.
func (db *DB) GetCrawlRun(id string) (*CrawlRun, error) {
	row := db.conn.QueryRow(
		`SELECT id, symbol, started_at, finished_at, outcome, windows, fetched, added, cursor, error
		FROM crawl_runs WHERE id = ?`, id,
	)
	r, err := scanCrawlRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return r, err
}

// RecentCrawlRuns returns up to limit runs, newest first.
func (db *DB) RecentCrawlRuns(limit int) ([]CrawlRun, error) {
	rows, err := db.conn.Query(
		`SELECT id, symbol, started_at, finished_at, outcome, windows, fetched, added, cursor, error
		FROM crawl_runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CrawlRun
	for rows.Next() {
		r, err := scanCrawlRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCrawlRun(s scanner) (*CrawlRun, error) {
	var r CrawlRun
	if err := s.Scan(&r.ID, &r.Symbol, &r.StartedAt, &r.FinishedAt, &r.Outcome,
		&r.Windows, &r.Fetched, &r.Added, &r.Cursor, &r.Error); err != nil {
		return nil, err
	}
	return &r, nil
}
