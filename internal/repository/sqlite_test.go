package repository

import (
	"context"
	"testing"
	"time"

	"github.com/xiaot623/agentdesk/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return store
}

func TestSQLiteStoreRelays(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	defer store.Close()

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	records := []*domain.RelayRecord{
		{RelayID: "rly_1", UserID: "u1", FileID: "f1", FileName: "x.png", MimeType: "image/png", ObjectKey: "a/x.png", PublicURL: "http://h/a/x.png", SizeBytes: 4, CreatedAt: base},
		{RelayID: "rly_2", UserID: "u1", FileID: "f2", ObjectKey: "b", PublicURL: "http://h/b", CreatedAt: base.Add(time.Minute)},
		{RelayID: "rly_3", UserID: "u2", FileID: "f3", ObjectKey: "c", PublicURL: "http://h/c", CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, r := range records {
		if err := store.CreateRelay(ctx, r); err != nil {
			t.Fatalf("CreateRelay failed: %v", err)
		}
	}

	got, err := store.GetRelay(ctx, "rly_1")
	if err != nil {
		t.Fatalf("GetRelay failed: %v", err)
	}
	if got == nil || got.PublicURL != "http://h/a/x.png" || got.MimeType != "image/png" || got.SizeBytes != 4 {
		t.Fatalf("unexpected relay: %+v", got)
	}

	list, err := store.ListRelays(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("ListRelays failed: %v", err)
	}
	if len(list) != 2 || list[0].RelayID != "rly_2" {
		t.Fatalf("unexpected list: %+v", list)
	}

	all, err := store.ListRelays(ctx, "", 1)
	if err != nil {
		t.Fatalf("ListRelays failed: %v", err)
	}
	if len(all) != 1 || all[0].RelayID != "rly_3" {
		t.Fatalf("unexpected limited list: %+v", all)
	}
}

func TestSQLiteStoreGetRelayMissing(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()

	got, err := store.GetRelay(context.Background(), "nope")
	if err != nil {
		t.Fatalf("GetRelay failed: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func TestSQLiteStoreDuplicateRelay(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	defer store.Close()

	r := &domain.RelayRecord{RelayID: "dup", UserID: "u", FileID: "f", ObjectKey: "k", PublicURL: "p", CreatedAt: time.Now()}
	if err := store.CreateRelay(ctx, r); err != nil {
		t.Fatalf("CreateRelay failed: %v", err)
	}
	if err := store.CreateRelay(ctx, r); err == nil {
		t.Fatalf("expected unique constraint error")
	}
}
