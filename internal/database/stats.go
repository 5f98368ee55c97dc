package database

import (
	"database/sql"
	"fmt"
)

// GetStats returns aggregate counts across all tables.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{FilingsByForm: make(map[string]int)}

	var from, to sql.NullString
	if err := db.conn.QueryRow(
		"SELECT COUNT(*), MIN(date), MAX(date) FROM news_sentiment",
	).Scan(&s.NewsRows, &from, &to); err != nil {
		return nil, fmt.Errorf("news stats: %w", err)
	}
	s.NewsFrom, s.NewsTo = from.String, to.String

	rows, err := db.conn.Query("SELECT form_type, COUNT(*) FROM filing_features GROUP BY form_type")
	if err != nil {
		return nil, fmt.Errorf("filing stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var form string
		var n int
		if err := rows.Scan(&form, &n); err != nil {
			return nil, err
		}
		s.FilingsByForm[form] = n
		s.FilingRows += n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := db.conn.QueryRow("SELECT COUNT(*) FROM crawl_runs").Scan(&s.CrawlRuns); err != nil {
		return nil, fmt.Errorf("crawl run stats: %w", err)
	}
	return s, nil
}
