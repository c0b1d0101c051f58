package session

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps history in memory and mirrors every append to a JSON file.
// Load failures are treated as an empty history; persist failures are
// swallowed so history never fails a request.
type FileStore struct {
	path string

	loadOnce sync.Once
	mu       sync.RWMutex
	records  []Record
}

func NewFileStore(path string) *FileStore {
	if path == "" {
		path = filepath.Join("tmp", "history.json")
	}
	return &FileStore{path: path}
}

func (s *FileStore) load() {
	s.loadOnce.Do(func() {
		data, err := os.ReadFile(s.path)
		if err != nil {
			return
		}
		var rows []Record
		if err := json.Unmarshal(data, &rows); err != nil {
			return
		}
		s.mu.Lock()
		s.records = rows
		s.mu.Unlock()
	})
}

func (s *FileStore) Append(ctx context.Context, rec Record) error {
	s.load()
	s.mu.Lock()
	s.records = append(s.records, rec)
	rows := make([]Record, len(s.records))
	copy(rows, s.records)
	s.mu.Unlock()

	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return nil
	}
	_ = os.MkdirAll(filepath.Dir(s.path), 0o755)
	_ = os.WriteFile(s.path, data, 0o644)
	return nil
}

func (s *FileStore) List(ctx context.Context, sessionID string) ([]Record, error) {
	s.load()
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		if sessionID == "" || rec.SessionID == sessionID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *FileStore) Close() error { return nil }
