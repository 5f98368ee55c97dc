package database

import (
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"go.uber.org/zap"
)

// mergeBatch keeps each INSERT well under SQLite's bound-variable limit.
const mergeBatch = 400

var newsColumns = []string{"date", "headline", "neg", "neu", "pos", "compound", "source", "url"}

// MinNewsDate returns the earliest stored news date, or "" when the table is
// empty.
func (db *DB) MinNewsDate() (string, error) {
	var d sql.NullString
	if err := db.conn.QueryRow("SELECT MIN(date) FROM news_sentiment").Scan(&d); err != nil {
		return "", fmt.Errorf("reading min news date: %w", err)
	}
	return d.String, nil
}

// MergeNews inserts rows whose (date, headline) is not stored yet and returns
// how many were added. Duplicates within rows collapse to the first one. The
// whole merge commits atomically.
func (db *DB) MergeNews(rows []NewsSentiment) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin merge: %w", err)
	}
	defer tx.Rollback()

	added := 0
	for start := 0; start < len(rows); start += mergeBatch {
		end := min(start+mergeBatch, len(rows))
		q := stmt.Insert("news_sentiment").Options("OR IGNORE").Columns(newsColumns...)
		for _, r := range rows[start:end] {
			q = q.Values(r.Date, r.Headline, r.Neg, r.Neu, r.Pos, r.Compound, r.Source, r.URL)
		}
		query, args, err := q.ToSql()
		if err != nil {
			return 0, fmt.Errorf("building merge: %w", err)
		}
		res, err := tx.Exec(query, args...)
		if err != nil {
			return 0, fmt.Errorf("merging news: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("counting merged rows: %w", err)
		}
		added += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit merge: %w", err)
	}
	db.logger.Debug("merged news", zap.Int("offered", len(rows)), zap.Int("added", added))
	return added, nil
}

// ListNews returns stored rows ordered by date, then headline.
func (db *DB) ListNews(f NewsFilter) ([]NewsSentiment, error) {
	q := stmt.Select(append(append([]string{}, newsColumns...), "collected_at")...).
		From("news_sentiment").
		OrderBy("date", "headline")
	if f.From != "" {
		q = q.Where(sq.GtOrEq{"date": f.From})
	}
	if f.To != "" {
		q = q.Where(sq.LtOrEq{"date": f.To})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building news query: %w", err)
	}
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []NewsSentiment
	for rows.Next() {
		var n NewsSentiment
		if err := rows.Scan(&n.Date, &n.Headline, &n.Neg, &n.Neu, &n.Pos, &n.Compound,
			&n.Source, &n.URL, &n.CollectedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// CountNews returns the number of stored news rows.
func (db *DB) CountNews() (int, error) {
	var n int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM news_sentiment").Scan(&n)
	return n, err
}
