package database

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS news_sentiment (
    date TEXT NOT NULL,
    headline TEXT NOT NULL,
    neg REAL NOT NULL DEFAULT 0,
    neu REAL NOT NULL DEFAULT 0,
    pos REAL NOT NULL DEFAULT 0,
    compound REAL NOT NULL DEFAULT 0,
    source TEXT NOT NULL DEFAULT '',
    url TEXT NOT NULL DEFAULT '',
    collected_at TEXT DEFAULT (datetime('now')),
    PRIMARY KEY (date, headline)
);

CREATE TABLE IF NOT EXISTS filing_features (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    date TEXT NOT NULL,
    form_type TEXT NOT NULL,
    filename TEXT NOT NULL,
    path TEXT NOT NULL,
    fog_index REAL,
    sentiment REAL NOT NULL,
    processed_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS crawl_runs (
    id TEXT PRIMARY KEY,
    symbol TEXT NOT NULL,
    started_at TEXT NOT NULL,
    finished_at TEXT,
    outcome TEXT,
    windows INTEGER DEFAULT 0,
    fetched INTEGER DEFAULT 0,
    added INTEGER DEFAULT 0,
    cursor TEXT,
    error TEXT
);

CREATE INDEX IF NOT EXISTS idx_news_sentiment_date ON news_sentiment(date);
CREATE INDEX IF NOT EXISTS idx_filing_features_date ON filing_features(date);
CREATE INDEX IF NOT EXISTS idx_crawl_runs_started ON crawl_runs(started_at);
`)
			return err
		},
	},
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
