package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists records to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS tick_journal (
        id TEXT PRIMARY KEY,
        ts INTEGER,
        experiment_id TEXT,
        simulation_at INTEGER,
        phase INTEGER,
        record TEXT
    );
    CREATE INDEX IF NOT EXISTS tick_journal_experiment ON tick_journal (experiment_id, simulation_at);`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Append writes the record to the database.
func (s *SQLiteStore) Append(ctx context.Context, rec Record) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO tick_journal (id, ts, experiment_id, simulation_at, phase, record) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID.String(), rec.Timestamp.UnixNano(), rec.ExperimentID, rec.SimulationAt, rec.Phase, string(b))
	return err
}

// Query returns records matching q ordered by insertion time.
func (s *SQLiteStore) Query(ctx context.Context, q Query) ([]Record, error) {
	var args []any
	query := `SELECT record FROM tick_journal WHERE 1=1`
	if !q.Start.IsZero() {
		query += ` AND ts >= ?`
		args = append(args, q.Start.UnixNano())
	}
	if !q.End.IsZero() {
		query += ` AND ts <= ?`
		args = append(args, q.End.UnixNano())
	}
	if q.ExperimentID != "" {
		query += ` AND experiment_id = ?`
		args = append(args, q.ExperimentID)
	}
	if q.Phase != 0 {
		query += ` AND phase = ?`
		args = append(args, q.Phase)
	}
	query += ` ORDER BY ts, simulation_at, phase`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []Record
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var r Record
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			return nil, fmt.Errorf("unmarshal record: %w", err)
		}
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
