package journal

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// RotatingJSONLStore writes JSON lines through lumberjack so the journal
// of long runs is rotated by size.
type RotatingJSONLStore struct {
	mu     sync.Mutex
	logger *lumberjack.Logger
	path   string
}

// NewRotatingJSONLStore creates a store with rotation options in megabytes and days.
func NewRotatingJSONLStore(path string, maxSizeMB, maxBackups, maxAgeDays int) (*RotatingJSONLStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	lj := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
	}
	return &RotatingJSONLStore{logger: lj, path: path}, nil
}

// Append writes the record and triggers rotation if needed.
func (s *RotatingJSONLStore) Append(ctx context.Context, rec Record) error {
	_ = ctx
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.logger.Write(append(b, '\n'))
	return err
}

// Query reads the active file and every rotated backup.
func (s *RotatingJSONLStore) Query(ctx context.Context, q Query) ([]Record, error) {
	files, err := filepath.Glob(s.backupPattern())
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	files = append(files, s.path)
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []Record
	for _, name := range files {
		f, err := os.Open(name)
		if err != nil {
			continue
		}
		res, err = scan(ctx, f, q, res)
		_ = f.Close()
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}

// backupPattern matches the names lumberjack gives rotated files:
// <name>-<timestamp><ext> next to the active file.
func (s *RotatingJSONLStore) backupPattern() string {
	ext := filepath.Ext(s.path)
	base := s.path[:len(s.path)-len(ext)]
	return base + "-*" + ext
}

// Close closes the underlying writer.
func (s *RotatingJSONLStore) Close() error {
	return s.logger.Close()
}
