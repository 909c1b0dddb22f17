package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/louisbranch/feedwatch/internal/services/chatfeed/storage"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chatfeed.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(" "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chatfeed.db")
	for i := 0; i < 2; i++ {
		store, err := Open(path)
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		if err := store.Close(); err != nil {
			t.Fatalf("close %d: %v", i, err)
		}
	}
}

func TestEnsureChannelCreatesOnce(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	first, err := store.EnsureChannel(ctx, "general")
	if err != nil {
		t.Fatalf("ensure channel: %v", err)
	}
	if first.ID == "" || !strings.HasPrefix(first.RoomRef, roomRefPrefix) {
		t.Fatalf("channel = %+v", first)
	}

	second, err := store.EnsureChannel(ctx, " general ")
	if err != nil {
		t.Fatalf("ensure channel again: %v", err)
	}
	if second.ID != first.ID || second.RoomRef != first.RoomRef {
		t.Fatalf("second = %+v, want %+v", second, first)
	}

	byRef, err := store.ChannelByRoomRef(ctx, first.RoomRef)
	if err != nil {
		t.Fatalf("channel by room ref: %v", err)
	}
	if byRef.Name != "general" {
		t.Fatalf("name = %q, want general", byRef.Name)
	}

	if _, err := store.EnsureChannel(ctx, ""); err == nil {
		t.Fatal("expected error for empty name")
	}
}

func TestChannelLookupsNotFound(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	if _, err := store.ChannelByName(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("ChannelByName err = %v, want ErrNotFound", err)
	}
	if _, err := store.ChannelByRoomRef(ctx, "chatfeed:channel:missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("ChannelByRoomRef err = %v, want ErrNotFound", err)
	}
}

func TestAppendAndListMessages(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 6_000_000, time.UTC)
	store.now = func() time.Time { return fixed }

	general, err := store.EnsureChannel(ctx, "general")
	if err != nil {
		t.Fatalf("ensure general: %v", err)
	}
	other, err := store.EnsureChannel(ctx, "other")
	if err != nil {
		t.Fatalf("ensure other: %v", err)
	}

	for _, content := range []string{"one", "two", "three"} {
		if _, err := store.AppendMessage(ctx, storage.Message{ChannelID: general.ID, Author: "Alice", Content: content}); err != nil {
			t.Fatalf("append %s: %v", content, err)
		}
	}
	if _, err := store.AppendMessage(ctx, storage.Message{ChannelID: other.ID, Author: "Bob", Content: "elsewhere"}); err != nil {
		t.Fatalf("append other: %v", err)
	}

	messages, err := store.ListMessages(ctx, general.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("messages = %d, want 3", len(messages))
	}
	for i, want := range []string{"one", "two", "three"} {
		if messages[i].Content != want {
			t.Fatalf("messages[%d] = %q, want %q", i, messages[i].Content, want)
		}
		if messages[i].ID == "" {
			t.Fatalf("messages[%d] has no id", i)
		}
		if !messages[i].CreatedAt.Equal(fixed.Truncate(time.Millisecond)) {
			t.Fatalf("created_at = %v, want %v", messages[i].CreatedAt, fixed)
		}
	}
}

func TestAppendMessageUnknownChannel(t *testing.T) {
	store := openTempStore(t)
	_, err := store.AppendMessage(context.Background(), storage.Message{ChannelID: "nope", Author: "a", Content: "c"})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestAppendMessageDuplicateIDFails(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()
	channel, err := store.EnsureChannel(ctx, "general")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	msg := storage.Message{ID: "fixed", ChannelID: channel.ID, Author: "a", Content: "c"}
	if _, err := store.AppendMessage(ctx, msg); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := store.AppendMessage(ctx, msg); err == nil {
		t.Fatal("expected duplicate id error")
	}
}
