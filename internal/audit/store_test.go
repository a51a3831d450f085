package audit

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "audit.db"), logger)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordAndListDecisions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	recs := []DecisionRecord{
		{ChatID: -1, AuthorID: 10, Outcome: "ignored"},
		{ChatID: -1, AuthorID: 11, Outcome: "moderated", Reason: "spam"},
		{ChatID: -1, AuthorID: 12, Outcome: "responded", Trigger: "greeting"},
	}
	for _, r := range recs {
		if err := store.RecordDecision(ctx, r); err != nil {
			t.Fatalf("RecordDecision: %v", err)
		}
	}

	got, err := store.RecentDecisions(ctx, 10)
	if err != nil {
		t.Fatalf("RecentDecisions: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d records, want 3", len(got))
	}
	// Newest first.
	if got[0].Outcome != "responded" || got[0].Trigger != "greeting" {
		t.Errorf("newest record = %+v", got[0])
	}
	if got[1].Outcome != "moderated" || got[1].Reason != "spam" {
		t.Errorf("middle record = %+v", got[1])
	}
}

func TestRecentDecisionsLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := store.RecordDecision(ctx, DecisionRecord{ChatID: -1, AuthorID: int64(i), Outcome: "ignored"}); err != nil {
			t.Fatalf("RecordDecision: %v", err)
		}
	}
	got, err := store.RecentDecisions(ctx, 2)
	if err != nil {
		t.Fatalf("RecentDecisions: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d records, want 2", len(got))
	}
}

func TestRecordDigest(t *testing.T) {
	store := newTestStore(t)
	if err := store.RecordDigest(context.Background(), "2026-03-01"); err != nil {
		t.Fatalf("RecordDigest: %v", err)
	}
}
