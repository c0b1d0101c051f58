// Package session keeps the caller-owned analysis history. The pipeline
// itself is stateless; completed results are appended here per session.
package session

import (
	"context"
	"strings"
	"time"
)

// Record is one completed analysis in a session's ordered history.
type Record struct {
	RequestID string    `json:"request_id"`
	SessionID string    `json:"session_id"`
	FileName  string    `json:"file_name,omitempty"`
	Report    string    `json:"report"`
	Summary   string    `json:"summary"`
	Fault     string    `json:"fault,omitempty"` // empty on success
	Cached    bool      `json:"cached,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Store interface {
	Append(ctx context.Context, rec Record) error
	List(ctx context.Context, sessionID string) ([]Record, error)
	Close() error
}

// NewStore selects the backend: Postgres when a DSN is configured, the JSON
// file store otherwise.
func NewStore(filePath, postgresDSN string) (Store, error) {
	if dsn := strings.TrimSpace(postgresDSN); dsn != "" {
		return NewPostgresStore(dsn)
	}
	return NewFileStore(filePath), nil
}
