package botdb

import (
	"context"
	"database/sql"
	"time"

	"chartabot/internal/logging"
	"chartabot/internal/model"

	_ "modernc.org/sqlite"
)

// DB is a SQLite journal of pipeline outcomes. It exists for observability
// and reply budgets only; dedup correctness never depends on it.
type DB struct{ sql *sql.DB }

func Open(path string) (*DB, error) {
	d, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := d.Exec(`PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;`); err != nil {
		return nil, err
	}
	db := &DB{sql: d}
	if err := db.migrate(); err != nil {
		_ = d.Close()
		return nil, err
	}
	return db, nil
}

func (d *DB) Close() error { return d.sql.Close() }

func (d *DB) migrate() error {
	_, err := d.sql.Exec(`
	CREATE TABLE IF NOT EXISTS outcomes (
	  id INTEGER PRIMARY KEY AUTOINCREMENT,
	  ts INTEGER NOT NULL,
	  type TEXT NOT NULL,
	  mention_id TEXT NOT NULL,
	  stage TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_outcomes_ts ON outcomes(ts);
	`)
	return err
}

// RecordOutcome stores one terminal pipeline outcome. Best effort: a journal
// write failure is logged, never propagated into the pipeline.
func (d *DB) RecordOutcome(ctx context.Context, ev model.PipelineEvent) {
	_, err := d.sql.ExecContext(ctx, `INSERT INTO outcomes(ts, type, mention_id, stage) VALUES(?,?,?,?)`,
		ev.Timestamp.Unix(), ev.Type, ev.MentionID, ev.Stage)
	if err != nil {
		logging.Error("journal_write_failed", map[string]any{"error": err.Error(), "mention": ev.MentionID})
	}
}

// LoadOutcomesRange returns outcomes in [start, end), optionally filtered by type.
func (d *DB) LoadOutcomesRange(ctx context.Context, start, end time.Time, typ string) ([]model.PipelineEvent, error) {
	var rows *sql.Rows
	var err error
	if typ == "" {
		rows, err = d.sql.QueryContext(ctx, `SELECT ts, type, mention_id, COALESCE(stage,'') FROM outcomes WHERE ts>=? AND ts<? ORDER BY ts`, start.Unix(), end.Unix())
	} else {
		rows, err = d.sql.QueryContext(ctx, `SELECT ts, type, mention_id, COALESCE(stage,'') FROM outcomes WHERE ts>=? AND ts<? AND type=? ORDER BY ts`, start.Unix(), end.Unix(), typ)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.PipelineEvent
	for rows.Next() {
		var ts int64
		var ev model.PipelineEvent
		if err := rows.Scan(&ts, &ev.Type, &ev.MentionID, &ev.Stage); err != nil {
			return nil, err
		}
		ev.Timestamp = time.Unix(ts, 0).UTC()
		out = append(out, ev)
	}
	return out, rows.Err()
}

// CountOutcomesWithin counts outcomes of a type in [start, end).
func (d *DB) CountOutcomesWithin(ctx context.Context, start, end time.Time, typ string) (int, error) {
	row := d.sql.QueryRowContext(ctx, `SELECT COUNT(1) FROM outcomes WHERE ts>=? AND ts<? AND type=?`, start.Unix(), end.Unix(), typ)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
