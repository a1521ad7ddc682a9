package bolt

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Samandar0813/darsbot/internal/storage"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "darsbot.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestGetNotFound(t *testing.T) {
	store := openTestStore(t)

	if _, err := store.Usage().Get(context.Background(), "missing"); err != storage.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPutGetRoundtrip(t *testing.T) {
	store := openTestStore(t)
	usage := store.Usage()
	ctx := context.Background()

	rec := storage.UsageRecord{
		UserID:      "42",
		Count:       3,
		WindowStart: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := usage.Put(ctx, rec); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := usage.Get(ctx, "42")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Count != rec.Count {
		t.Errorf("expected count %d, got %d", rec.Count, got.Count)
	}
	if !got.WindowStart.Equal(rec.WindowStart) {
		t.Errorf("expected window_start %v, got %v", rec.WindowStart, got.WindowStart)
	}
}

func TestOverwrite(t *testing.T) {
	store := openTestStore(t)
	usage := store.Usage()
	ctx := context.Background()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	_ = usage.Put(ctx, storage.UsageRecord{UserID: "1", Count: 1, WindowStart: now})
	if err := usage.Put(ctx, storage.UsageRecord{UserID: "1", Count: 4, WindowStart: now}); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := usage.Get(ctx, "1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Count != 4 {
		t.Errorf("expected count 4, got %d", got.Count)
	}
}

func TestList(t *testing.T) {
	store := openTestStore(t)
	usage := store.Usage()
	ctx := context.Background()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for _, id := range []string{"3", "1", "2"} {
		if err := usage.Put(ctx, storage.UsageRecord{UserID: id, Count: 1, WindowStart: now}); err != nil {
			t.Fatalf("put %s: %v", id, err)
		}
	}

	records, err := usage.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}

	seen := make(map[string]bool)
	for _, rec := range records {
		seen[rec.UserID] = true
	}
	for _, id := range []string{"1", "2", "3"} {
		if !seen[id] {
			t.Errorf("missing record for user %s", id)
		}
	}
}
