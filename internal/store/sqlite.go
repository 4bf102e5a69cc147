package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/pokescan/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS scans (
	id                 TEXT PRIMARY KEY,
	identity           TEXT NOT NULL,
	valuation          TEXT NOT NULL,
	needs_confirmation INTEGER NOT NULL DEFAULT 0,
	status             TEXT NOT NULL DEFAULT 'analyzed',
	created_at         DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at         DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_scans_status ON scans(status);
CREATE INDEX IF NOT EXISTS idx_scans_created_at ON scans(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateScan(ctx context.Context, record model.ScanRecord) (*model.ScanRecord, error) {
	record.ScanID = uuid.New().String()
	now := time.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now
	if record.Status == "" {
		record.Status = model.ScanStatusAnalyzed
	}

	identityJSON, err := json.Marshal(record.Identity)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal identity")
	}
	valuationJSON, err := json.Marshal(record.Valuation)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal valuation")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO scans (id, identity, valuation, needs_confirmation, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.ScanID, string(identityJSON), string(valuationJSON),
		boolToInt(record.NeedsUserConfirmation), string(record.Status), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert scan")
	}
	return &record, nil
}

func (s *SQLiteStore) GetScan(ctx context.Context, scanID string) (*model.ScanRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, identity, valuation, needs_confirmation, status, created_at, updated_at
		 FROM scans WHERE id = ?`, scanID)
	record, err := scanRecordFromRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrapf(err, "sqlite: get scan %s", scanID)
	}
	return record, nil
}

func (s *SQLiteStore) ConfirmScan(ctx context.Context, scanID string) (*model.ScanRecord, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE scans SET status = ?, updated_at = ? WHERE id = ? AND status != ?`,
		string(model.ScanStatusConfirmed), time.Now().UTC(), scanID, string(model.ScanStatusConfirmed),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: confirm scan %s", scanID)
	}
	return s.GetScan(ctx, scanID)
}

func (s *SQLiteStore) ListScans(ctx context.Context, filter ScanFilter) ([]model.ScanRecord, error) {
	query := `SELECT id, identity, valuation, needs_confirmation, status, created_at, updated_at FROM scans`
	var args []any
	if filter.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list scans")
	}
	defer rows.Close()

	var records []model.ScanRecord
	for rows.Next() {
		record, err := scanRecordFromRow(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan row")
		}
		records = append(records, *record)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: iterate scans")
}

// scannable covers *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

func scanRecordFromRow(row scannable) (*model.ScanRecord, error) {
	var record model.ScanRecord
	var identityJSON, valuationJSON, status string
	var needsConfirmation int

	err := row.Scan(&record.ScanID, &identityJSON, &valuationJSON,
		&needsConfirmation, &status, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(identityJSON), &record.Identity); err != nil {
		return nil, eris.Wrap(err, "unmarshal identity")
	}
	if err := json.Unmarshal([]byte(valuationJSON), &record.Valuation); err != nil {
		return nil, eris.Wrap(err, "unmarshal valuation")
	}
	record.NeedsUserConfirmation = needsConfirmation != 0
	record.Status = model.ScanStatus(status)
	return &record, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
