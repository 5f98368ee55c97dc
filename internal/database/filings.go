package database

import "fmt"

// ReplaceFilingFeatures swaps the stored feature table for rows in one
// transaction, keeping the given order.
func (db *DB) ReplaceFilingFeatures(rows []FilingFeature) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM filing_features"); err != nil {
		return fmt.Errorf("clearing filing features: %w", err)
	}

	ins, err := tx.Prepare(`INSERT INTO filing_features (date, form_type, filename, path, fog_index, sentiment)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer ins.Close()

	for _, r := range rows {
		if _, err := ins.Exec(r.Date, r.FormType, r.Filename, r.Path, r.FogIndex, r.Sentiment); err != nil {
			return fmt.Errorf("inserting %s: %w", r.Path, err)
		}
	}
	return tx.Commit()
}

// ListFilingFeatures returns the stored feature table in insertion order,
// which is ascending date.
func (db *DB) ListFilingFeatures() ([]FilingFeature, error) {
	rows, err := db.conn.Query(
		`SELECT id, date, form_type, filename, path, fog_index, sentiment
		FROM filing_features ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FilingFeature
	for rows.Next() {
		var f FilingFeature
		if err := rows.Scan(&f.ID, &f.Date, &f.FormType, &f.Filename, &f.Path, &f.FogIndex, &f.Sentiment); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
