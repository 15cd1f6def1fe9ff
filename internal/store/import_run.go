package store

import "time"

// StartImportRun records the beginning of an import.
func (db *DB) StartImportRun(id, source string) error {
	_, err := db.Exec(`INSERT INTO import_runs (id, source, started_at) VALUES (?, ?, ?)`,
		id, source, time.Now().UnixMilli())
	return err
}

// FinishImportRun stores the outcome of an import.
func (db *DB) FinishImportRun(id, result string, imported, failed int) error {
	res, err := db.Exec(`
		UPDATE import_runs SET result = ?, imported = ?, failed = ?, finished_at = ?
		WHERE id = ?`, result, imported, failed, time.Now().UnixMilli(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListImportRuns returns the most recent import runs first.
func (db *DB) ListImportRuns(limit int) ([]ImportRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.Query(`
		SELECT id, source, result, imported, failed, started_at, finished_at
		FROM import_runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var runs []ImportRun
	for rows.Next() {
		var r ImportRun
		if err := rows.Scan(&r.ID, &r.Source, &r.Result, &r.Imported, &r.Failed, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
