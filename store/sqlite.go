package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/mobster570/ticketime/clock"
	"github.com/mobster570/ticketime/engine"
	"github.com/mobster570/ticketime/enginerr"
	"github.com/mobster570/ticketime/extract"
)

// SQLite is a database/sql-backed Store using github.com/mattn/go-sqlite3.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and applies the schema.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(1) // sqlite3 driver serializes writers; avoid SQLITE_BUSY churn

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLite) migrate() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS servers (
		id           TEXT PRIMARY KEY,
		url          TEXT NOT NULL,
		extractor_id INTEGER NOT NULL,
		created_at   TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sync_results (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		server_id      TEXT NOT NULL REFERENCES servers(id) ON DELETE CASCADE,
		whole_offset   INTEGER NOT NULL,
		sub_offset     REAL NOT NULL,
		total_offset_ms REAL NOT NULL,
		verified       INTEGER NOT NULL,
		synced_at      TEXT NOT NULL,
		duration_ms    INTEGER NOT NULL,
		phase_reached  INTEGER NOT NULL,
		extractor_used INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sync_results_server ON sync_results(server_id, id DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error { return s.db.Close() }

// AddServer inserts a new server record. Idempotent on id via an
// ON CONFLICT upsert that keeps the existing row's created_at, matching the at-least-once semantics spec.md §4.10 requires.
func (s *SQLite) AddServer(ctx context.Context, target engine.ServerTarget) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO servers (id, url, extractor_id, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET url = excluded.url, extractor_id = excluded.extractor_id`,
		target.ID.String(), target.URL, int(target.ExtractorID), nowUTC().Format(time.RFC3339Nano),
	)
	return err
}

// DeleteServer removes a server and its sync history (via ON DELETE CASCADE).
func (s *SQLite) DeleteServer(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM servers WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrServerNotFound
	}
	return nil
}

// ListServers returns all servers ordered by creation time.
func (s *SQLite) ListServers(ctx context.Context) ([]engine.ServerTarget, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, url, extractor_id FROM servers ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var targets []engine.ServerTarget
	for rows.Next() {
		t, err := scanServer(rows)
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, rows.Err()
}

// GetServer retrieves a single server by id.
func (s *SQLite) GetServer(ctx context.Context, id uuid.UUID) (engine.ServerTarget, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, url, extractor_id FROM servers WHERE id = ?`, id.String())
	var idStr string
	var target engine.ServerTarget
	var extractorID int
	if err := row.Scan(&idStr, &target.URL, &extractorID); err != nil {
		if err == sql.ErrNoRows {
			return engine.ServerTarget{}, ErrServerNotFound
		}
		return engine.ServerTarget{}, err
	}
	parsed, err := uuid.FromString(idStr)
	if err != nil {
		return engine.ServerTarget{}, fmt.Errorf("parse server id %q: %w", idStr, err)
	}
	target.ID = parsed
	target.ExtractorID = extract.ID(extractorID)
	return target, nil
}

func scanServer(rows *sql.Rows) (engine.ServerTarget, error) {
	var idStr string
	var target engine.ServerTarget
	var extractorID int
	if err := rows.Scan(&idStr, &target.URL, &extractorID); err != nil {
		return engine.ServerTarget{}, err
	}
	parsed, err := uuid.FromString(idStr)
	if err != nil {
		return engine.ServerTarget{}, fmt.Errorf("parse server id %q: %w", idStr, err)
	}
	target.ID = parsed
	target.ExtractorID = extract.ID(extractorID)
	return target, nil
}

// AppendSyncResult persists a completed run's result under serverID.
func (s *SQLite) AppendSyncResult(ctx context.Context, serverID uuid.UUID, result engine.SyncResult) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sync_results (server_id, whole_offset, sub_offset, total_offset_ms, verified,
		 synced_at, duration_ms, phase_reached, extractor_used) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		serverID.String(), int64(result.WholeOffset), float64(result.SubOffset), result.TotalOffsetMS,
		boolToInt(result.Verified), result.SyncedAt.Time().Format(time.RFC3339Nano), result.Duration.Milliseconds(),
		int(result.PhaseReached), int(result.ExtractorUsed),
	)
	return err
}

// GetSyncHistory returns the most recent limit results for serverID, newest
// first.
func (s *SQLite) GetSyncHistory(ctx context.Context, serverID uuid.UUID, limit int) ([]SyncRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, whole_offset, sub_offset, total_offset_ms, verified, synced_at, duration_ms,
		 phase_reached, extractor_used FROM sync_results WHERE server_id = ? ORDER BY id DESC LIMIT ?`,
		serverID.String(), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []SyncRecord
	for rows.Next() {
		var rec SyncRecord
		var syncedAtStr string
		var verifiedInt, durationMS int64
		var phase, extractorID int
		if err := rows.Scan(&rec.ID, &rec.Result.WholeOffset, &rec.Result.SubOffset, &rec.Result.TotalOffsetMS,
			&verifiedInt, &syncedAtStr, &durationMS, &phase, &extractorID); err != nil {
			return nil, err
		}
		syncedAt, err := time.Parse(time.RFC3339Nano, syncedAtStr)
		if err != nil {
			return nil, fmt.Errorf("parse synced_at for record %d: %w", rec.ID, err)
		}
		rec.ServerID = serverID
		rec.Result.SyncedAt = clock.NewWallInstant(syncedAt)
		rec.Result.Verified = verifiedInt != 0
		rec.Result.Duration = time.Duration(durationMS) * time.Millisecond
		rec.Result.PhaseReached = enginerr.Phase(phase)
		rec.Result.ExtractorUsed = extract.ID(extractorID)
		records = append(records, rec)
	}
	return records, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
