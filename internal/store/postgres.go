package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/pokescan/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies
// it, which keeps the Postgres store testable without a database.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool, for tests.
func NewPostgresFromPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS scans (
	id                 TEXT PRIMARY KEY,
	identity           JSONB NOT NULL,
	valuation          JSONB NOT NULL,
	needs_confirmation BOOLEAN NOT NULL DEFAULT FALSE,
	status             TEXT NOT NULL DEFAULT 'analyzed',
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_scans_status ON scans(status);
CREATE INDEX IF NOT EXISTS idx_scans_created_at ON scans(created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateScan(ctx context.Context, record model.ScanRecord) (*model.ScanRecord, error) {
	record.ScanID = uuid.New().String()
	now := time.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now
	if record.Status == "" {
		record.Status = model.ScanStatusAnalyzed
	}

	identityJSON, err := json.Marshal(record.Identity)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal identity")
	}
	valuationJSON, err := json.Marshal(record.Valuation)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal valuation")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO scans (id, identity, valuation, needs_confirmation, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		record.ScanID, identityJSON, valuationJSON,
		record.NeedsUserConfirmation, string(record.Status), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert scan")
	}
	return &record, nil
}

func (s *PostgresStore) GetScan(ctx context.Context, scanID string) (*model.ScanRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, identity, valuation, needs_confirmation, status, created_at, updated_at
		 FROM scans WHERE id = $1`, scanID)
	record, err := pgScanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrapf(err, "postgres: get scan %s", scanID)
	}
	return record, nil
}

func (s *PostgresStore) ConfirmScan(ctx context.Context, scanID string) (*model.ScanRecord, error) {
	_, err := s.pool.Exec(ctx,
		`UPDATE scans SET status = $1, updated_at = now() WHERE id = $2 AND status != $1`,
		string(model.ScanStatusConfirmed), scanID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: confirm scan %s", scanID)
	}
	return s.GetScan(ctx, scanID)
}

func (s *PostgresStore) ListScans(ctx context.Context, filter ScanFilter) ([]model.ScanRecord, error) {
	query := `SELECT id, identity, valuation, needs_confirmation, status, created_at, updated_at FROM scans`
	var args []any
	if filter.Status != "" {
		query += ` WHERE status = $1`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list scans")
	}
	defer rows.Close()

	var records []model.ScanRecord
	for rows.Next() {
		record, err := pgScanRecord(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan row")
		}
		records = append(records, *record)
	}
	return records, eris.Wrap(rows.Err(), "postgres: iterate scans")
}

func pgScanRecord(row pgx.Row) (*model.ScanRecord, error) {
	var record model.ScanRecord
	var identityJSON, valuationJSON []byte
	var status string

	err := row.Scan(&record.ScanID, &identityJSON, &valuationJSON,
		&record.NeedsUserConfirmation, &status, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(identityJSON, &record.Identity); err != nil {
		return nil, eris.Wrap(err, "unmarshal identity")
	}
	if err := json.Unmarshal(valuationJSON, &record.Valuation); err != nil {
		return nil, eris.Wrap(err, "unmarshal valuation")
	}
	record.Status = model.ScanStatus(status)
	return &record, nil
}
