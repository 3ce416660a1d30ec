package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "journal.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenAppliesMigrationsOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	first, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := first.Record(context.Background(), Entry{Action: ActionCreated, Email: "a@x.y"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	entries, err := second.Recent(context.Background(), 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected entry to survive reopen, got %d", len(entries))
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestRecordAndRecentOrdering(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	inputs := []Entry{
		{Action: ActionCreated, Email: "a@x.y", MaskedEmailID: "m1", ForDomain: "shop.example", RecordedAt: base},
		{Action: ActionArchived, Email: "a@x.y", MaskedEmailID: "m1", RecordedAt: base.Add(500 * time.Millisecond)},
		{Action: ActionCreated, Email: "b@x.y", MaskedEmailID: "m2", Description: "news", RecordedAt: base.Add(2 * time.Second)},
	}
	for _, entry := range inputs {
		saved, err := store.Record(ctx, entry)
		if err != nil {
			t.Fatalf("Record: %v", err)
		}
		if saved.ID == 0 {
			t.Fatal("expected id to be assigned")
		}
	}

	recent, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(recent))
	}
	if recent[0].Email != "b@x.y" || recent[1].Action != ActionArchived {
		t.Fatalf("unexpected ordering: %+v", recent)
	}
	if !recent[1].RecordedAt.Equal(base.Add(500 * time.Millisecond)) {
		t.Fatalf("timestamp not preserved: %s", recent[1].RecordedAt)
	}
	if recent[0].Description != "news" {
		t.Fatalf("description not preserved: %+v", recent[0])
	}

	history, err := store.ForEmail(ctx, "a@x.y")
	if err != nil {
		t.Fatalf("ForEmail: %v", err)
	}
	if len(history) != 2 || history[0].Action != ActionArchived || history[1].Action != ActionCreated {
		t.Fatalf("unexpected history: %+v", history)
	}
}

func TestRecordDefaultsTimestamp(t *testing.T) {
	store := openTestStore(t)
	fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.FixedZone("CET", 3600))
	store.now = func() time.Time { return fixed }

	saved, err := store.Record(context.Background(), Entry{Action: ActionDestroyed, Email: "c@x.y"})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if !saved.RecordedAt.Equal(fixed) || saved.RecordedAt.Location() != time.UTC {
		t.Fatalf("expected UTC timestamp equal to %s, got %s", fixed, saved.RecordedAt)
	}
}

func TestRecordRejectsIncompleteEntry(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.Record(context.Background(), Entry{Email: "a@x.y"}); err == nil {
		t.Fatal("expected error without action")
	}
	if _, err := store.Record(context.Background(), Entry{Action: ActionCreated}); err == nil {
		t.Fatal("expected error without email")
	}
}

func TestCloseNilStore(t *testing.T) {
	var store *Store
	if err := store.Close(); err != nil {
		t.Fatalf("Close on nil store: %v", err)
	}
}
