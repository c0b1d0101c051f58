package session

import (
	"context"
	"database/sql"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const historySchema = `
CREATE TABLE IF NOT EXISTS analysis_history (
	request_id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	file_name  TEXT NOT NULL DEFAULT '',
	report     TEXT NOT NULL,
	summary    TEXT NOT NULL,
	fault      TEXT NOT NULL DEFAULT '',
	cached     BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS analysis_history_session_idx ON analysis_history (session_id, created_at);
`

// PostgresStore persists history rows through database/sql with the pgx
// stdlib driver.
type PostgresStore struct {
	db *sql.DB

	schemaOnce sync.Once
	schemaErr  error
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.ExecContext(ctx, historySchema)
	})
	return s.schemaErr
}

func (s *PostgresStore) Append(ctx context.Context, rec Record) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO analysis_history (request_id, session_id, file_name, report, summary, fault, cached, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (request_id) DO NOTHING`,
		rec.RequestID, rec.SessionID, rec.FileName, rec.Report, rec.Summary, rec.Fault, rec.Cached, rec.CreatedAt,
	)
	return err
}

func (s *PostgresStore) List(ctx context.Context, sessionID string) ([]Record, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT request_id, session_id, file_name, report, summary, fault, cached, created_at
		 FROM analysis_history
		 WHERE $1 = '' OR session_id = $1
		 ORDER BY created_at`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.RequestID, &rec.SessionID, &rec.FileName, &rec.Report, &rec.Summary, &rec.Fault, &rec.Cached, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Close() error { return s.db.Close() }
