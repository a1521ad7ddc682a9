// Package jsonfile persists the usage ledger as a single flat JSON file.
// The whole file is read once at open and rewritten in full on every
// mutation; it is the default backend and matches the ledger's historical
// on-disk format (user id -> {count, window_start}).
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/Samandar0813/darsbot/internal/storage"
)

// Store implements the storage.Store interface over a flat JSON file.
type Store struct {
	path    string
	mu      sync.Mutex
	records map[string]storage.UsageRecord
}

// Open loads the ledger file. A missing file starts an empty ledger; an
// unreadable or corrupt file is an error, since there is no fallback.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := storage.EnsureDir(dir); err != nil {
			return nil, fmt.Errorf("create ledger directory: %w", err)
		}
	}

	s := &Store{
		path:    path,
		records: make(map[string]storage.UsageRecord),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read ledger file: %w", err)
	}

	if len(data) > 0 {
		if err := json.Unmarshal(data, &s.records); err != nil {
			return nil, fmt.Errorf("parse ledger file %s: %w", path, err)
		}
	}

	// Backfill the map key into records written before UserID was stored.
	for id, rec := range s.records {
		if rec.UserID == "" {
			rec.UserID = id
			s.records[id] = rec
		}
	}

	return s, nil
}

// Close is a no-op; every mutation is already flushed.
func (s *Store) Close() error { return nil }

// Usage returns the usage store.
func (s *Store) Usage() storage.UsageStore { return (*usageStore)(s) }

type usageStore Store

func (s *usageStore) Get(ctx context.Context, userID string) (*storage.UsageRecord, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &rec, nil
}

func (s *usageStore) Put(ctx context.Context, record storage.UsageRecord) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[record.UserID] = record
	return s.flush()
}

func (s *usageStore) List(ctx context.Context) ([]storage.UsageRecord, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]storage.UsageRecord, 0, len(s.records))
	for _, rec := range s.records {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].UserID < records[j].UserID })
	return records, nil
}

// flush rewrites the entire ledger file. Callers must hold the lock. The
// write goes through a temp file and rename so a crash mid-write cannot
// truncate the ledger.
func (s *usageStore) flush() error {
	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write ledger file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace ledger file: %w", err)
	}
	return nil
}
