package repo

import (
	"context"
	"errors"
	"testing"

	"tg-content-bot/internal/domain"
)

func openMemory(t *testing.T) *SQLite {
	t.Helper()
	store, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteContentUpsertKeepsViews(t *testing.T) {
	store := openMemory(t)
	ctx := context.Background()

	item := domain.ContentItem{Code: "A1", SourceRef: 10, MediaKind: domain.MediaVideo, MediaRef: "vid", Caption: "c", DisplayName: "Film", ViewCount: 5}
	if err := store.UpsertContent(ctx, item, true); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	item.Caption = "c2"
	item.ViewCount = 0
	if err := store.UpsertContent(ctx, item, false); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	items, err := store.ListContent(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	got := items[0]
	if got.Caption != "c2" || got.ViewCount != 5 || got.MediaKind != domain.MediaVideo || got.SourceRef != 10 {
		t.Fatalf("unexpected item: %+v", got)
	}

	item.ViewCount = 1
	if err := store.UpsertContent(ctx, item, true); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	items, _ = store.ListContent(ctx)
	if items[0].ViewCount != 1 {
		t.Fatalf("expected overwritten views 1, got %d", items[0].ViewCount)
	}
}

func TestSQLiteListContentOrder(t *testing.T) {
	store := openMemory(t)
	ctx := context.Background()
	for _, code := range []string{"B", "A", "C"} {
		if err := store.UpsertContent(ctx, domain.ContentItem{Code: code, MediaKind: domain.MediaNone}, false); err != nil {
			t.Fatalf("upsert %s: %v", code, err)
		}
	}
	items, err := store.ListContent(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var order string
	for _, it := range items {
		order += it.Code
	}
	if order != "BAC" {
		t.Fatalf("expected insertion order BAC, got %s", order)
	}
}

func TestSQLiteSaveViewCounts(t *testing.T) {
	store := openMemory(t)
	ctx := context.Background()
	_ = store.UpsertContent(ctx, domain.ContentItem{Code: "A"}, false)
	_ = store.UpsertContent(ctx, domain.ContentItem{Code: "B"}, false)

	if err := store.SaveViewCounts(ctx, map[string]int64{"A": 3, "B": 7, "missing": 1}); err != nil {
		t.Fatalf("save: %v", err)
	}
	items, _ := store.ListContent(ctx)
	if items[0].ViewCount != 3 || items[1].ViewCount != 7 {
		t.Fatalf("unexpected views: %+v", items)
	}
	if err := store.SaveViewCounts(ctx, nil); err != nil {
		t.Fatalf("empty save: %v", err)
	}
}

func TestSQLiteUsers(t *testing.T) {
	store := openMemory(t)
	ctx := context.Background()
	name := "alice"
	if err := store.UpsertUser(ctx, domain.UserRecord{UserID: 2, Username: &name, DisplayName: "Alice"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := store.UpsertUser(ctx, domain.UserRecord{UserID: 1, DisplayName: "Bob"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := store.UpsertUser(ctx, domain.UserRecord{UserID: 2, DisplayName: "Alice B"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	users, err := store.ListUsers(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
	if users[0].UserID != 2 || users[0].DisplayName != "Alice B" || users[0].HasUsername() {
		t.Fatalf("unexpected first user: %+v", users[0])
	}
	if users[1].UserID != 1 || users[1].DisplayName != "Bob" {
		t.Fatalf("unexpected second user: %+v", users[1])
	}
}

func TestSQLiteChannels(t *testing.T) {
	store := openMemory(t)
	ctx := context.Background()
	if err := store.AddChannel(ctx, domain.Channel{Username: "news"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := store.AddChannel(ctx, domain.Channel{Username: "news"}); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	if err := store.AddChannel(ctx, domain.Channel{Username: "films"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	list, err := store.ListChannels(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Username != "news" || list[1].Username != "films" {
		t.Fatalf("unexpected channels: %+v", list)
	}
	if err := store.RemoveChannel(ctx, domain.Channel{Username: "news"}); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := store.RemoveChannel(ctx, domain.Channel{Username: "news"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteClosedStoreIsUnavailable(t *testing.T) {
	store, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	_ = store.Close()
	if _, err := store.ListChannels(context.Background()); !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
}

func TestProfileRoundTripEmptyUsername(t *testing.T) {
	empty := ""
	raw, err := encodeProfile(domain.UserRecord{UserID: 1, Username: &empty, DisplayName: "X"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	u, err := decodeProfile(1, raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if u.HasUsername() || u.DisplayName != "X" {
		t.Fatalf("unexpected user: %+v", u)
	}
}
