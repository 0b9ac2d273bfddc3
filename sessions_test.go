package main

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// newTestSessionStore returns a memory store whose clock is controlled by the
// returned advance func.
func newTestSessionStore(ttl time.Duration, maxEntries int) (*memorySessionStore, func(time.Duration)) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	s := newMemorySessionStore(ttl, maxEntries)
	s.now = func() time.Time { return now }
	return s, func(d time.Duration) { now = now.Add(d) }
}

func TestMemorySessionStore_PutGet(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSessionStore(time.Minute, 10)

	in := chatSession{ID: "a", UserID: 3, Messages: []openAIMessage{{Role: "user", Content: "hi"}}}
	if err := s.put(ctx, in); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, found, err := s.get(ctx, "a")
	if err != nil || !found {
		t.Fatalf("expected session, found=%v err=%v", found, err)
	}
	if got.UserID != 3 || len(got.Messages) != 1 || got.Messages[0].Content != "hi" {
		t.Errorf("unexpected session %+v", got)
	}

	if _, found, _ := s.get(ctx, "missing"); found {
		t.Error("expected unknown id to be not found")
	}
}

func TestMemorySessionStore_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSessionStore(time.Minute, 10)
	s.put(ctx, chatSession{ID: "a", Messages: []openAIMessage{{Role: "user", Content: "original"}}})

	got, _, _ := s.get(ctx, "a")
	got.Messages[0].Content = "mutated"

	again, _, _ := s.get(ctx, "a")
	if again.Messages[0].Content != "original" {
		t.Errorf("stored session was mutated through a returned copy: %q", again.Messages[0].Content)
	}
}

func TestMemorySessionStore_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	s, advance := newTestSessionStore(time.Minute, 10)
	s.put(ctx, chatSession{ID: "a"})

	advance(59 * time.Second)
	if _, found, _ := s.get(ctx, "a"); !found {
		t.Fatal("expected session before ttl")
	}

	advance(time.Second)
	if _, found, _ := s.get(ctx, "a"); found {
		t.Fatal("expected session to expire at ttl")
	}
	if n := s.size(); n != 0 {
		t.Errorf("expired session should be removed on read, size=%d", n)
	}
}

func TestMemorySessionStore_PutRefreshesTTL(t *testing.T) {
	ctx := context.Background()
	s, advance := newTestSessionStore(time.Minute, 10)
	s.put(ctx, chatSession{ID: "a"})

	advance(45 * time.Second)
	s.put(ctx, chatSession{ID: "a"})
	advance(45 * time.Second)

	if _, found, _ := s.get(ctx, "a"); !found {
		t.Error("expected rewritten session to survive past the original ttl")
	}
}

func TestMemorySessionStore_LRUEviction(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSessionStore(time.Hour, 3)

	for i := 0; i < 3; i++ {
		s.put(ctx, chatSession{ID: fmt.Sprintf("s%d", i)})
	}
	// Touch s0 so s1 becomes least recently used.
	if _, found, _ := s.get(ctx, "s0"); !found {
		t.Fatal("expected s0")
	}
	s.put(ctx, chatSession{ID: "s3"})

	if n := s.size(); n != 3 {
		t.Fatalf("expected size 3, got %d", n)
	}
	if _, found, _ := s.get(ctx, "s1"); found {
		t.Error("expected s1 to be evicted")
	}
	for _, id := range []string{"s0", "s2", "s3"} {
		if _, found, _ := s.get(ctx, id); !found {
			t.Errorf("expected %s to be kept", id)
		}
	}
}

func TestMemorySessionStore_Delete(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSessionStore(time.Minute, 10)
	s.put(ctx, chatSession{ID: "a"})

	if err := s.delete(ctx, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, found, _ := s.get(ctx, "a"); found {
		t.Error("expected deleted session to be gone")
	}
	if err := s.delete(ctx, "a"); err != nil {
		t.Errorf("deleting an unknown id should not fail, got %v", err)
	}
}

func TestMemorySessionStore_MinimumCapacity(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSessionStore(time.Minute, 0)
	s.put(ctx, chatSession{ID: "a"})
	s.put(ctx, chatSession{ID: "b"})
	if n := s.size(); n != 1 {
		t.Errorf("expected capacity clamped to 1, size=%d", n)
	}
}

func TestTrimHistory(t *testing.T) {
	var msgs []openAIMessage
	for i := 0; i < maxSessionMessages+5; i++ {
		msgs = append(msgs, openAIMessage{Role: "user", Content: fmt.Sprint(i)})
	}

	short := trimHistory(msgs[:3])
	if len(short) != 3 {
		t.Errorf("short history should be kept as is, got %d", len(short))
	}

	trimmed := trimHistory(msgs)
	if len(trimmed) != maxSessionMessages {
		t.Fatalf("expected %d messages, got %d", maxSessionMessages, len(trimmed))
	}
	if trimmed[0].Content != "5" || trimmed[len(trimmed)-1].Content != fmt.Sprint(maxSessionMessages+4) {
		t.Errorf("expected most recent messages kept, got first=%s last=%s", trimmed[0].Content, trimmed[len(trimmed)-1].Content)
	}
}

func TestNewSessionStore_SelectsBackend(t *testing.T) {
	s, err := newSessionStore(context.Background(), config{SessionTTL: time.Minute, SessionMax: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := s.(*memorySessionStore); !ok {
		t.Errorf("expected memory store without REDIS_URL, got %T", s)
	}

	if _, err := newSessionStore(context.Background(), config{RedisURL: "not-a-url", SessionTTL: time.Minute}); err == nil {
		t.Error("expected error for malformed REDIS_URL")
	}
}

func TestSessionKey(t *testing.T) {
	if got := sessionKey("abc"); got != "chat_session:abc" {
		t.Errorf("unexpected key %q", got)
	}
}

/* ─── Redis store ────────────────────────────────────────────────────── */

// newTestRedisSessionStore runs the redis store against an in-process server.
// Time on the server moves only through mr.FastForward.
func newTestRedisSessionStore(t *testing.T, ttl time.Duration) (*redisSessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return &redisSessionStore{client: client, ttl: ttl}, mr
}

func TestRedisSessionStore_PutGet(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestRedisSessionStore(t, time.Minute)

	updated := time.Date(2026, 10, 18, 12, 30, 0, 0, time.UTC)
	in := chatSession{
		ID:     "abc",
		UserID: 4,
		Messages: []openAIMessage{
			{Role: "user", Content: "pasta"},
			{Role: "assistant", Content: `{"title":"Pesto"}`},
		},
		UpdatedAt: updated,
	}
	if err := s.put(ctx, in); err != nil {
		t.Fatalf("put: %v", err)
	}
	if !mr.Exists("chat_session:abc") {
		t.Fatal("expected session stored under chat_session:abc")
	}
	if ttl := mr.TTL("chat_session:abc"); ttl != time.Minute {
		t.Errorf("ttl: want 1m, got %s", ttl)
	}

	got, found, err := s.get(ctx, "abc")
	if err != nil || !found {
		t.Fatalf("expected session, found=%v err=%v", found, err)
	}
	if got.ID != "abc" || got.UserID != 4 || !got.UpdatedAt.Equal(updated) {
		t.Errorf("unexpected session %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[1].Role != "assistant" || got.Messages[1].Content != `{"title":"Pesto"}` {
		t.Errorf("messages not preserved: %+v", got.Messages)
	}
}

func TestRedisSessionStore_MissingIsNotFound(t *testing.T) {
	s, _ := newTestRedisSessionStore(t, time.Minute)

	_, found, err := s.get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("missing key should not be an error, got %v", err)
	}
	if found {
		t.Error("expected missing key to be not found")
	}
}

func TestRedisSessionStore_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestRedisSessionStore(t, time.Minute)
	s.put(ctx, chatSession{ID: "a"})

	mr.FastForward(59 * time.Second)
	if _, found, _ := s.get(ctx, "a"); !found {
		t.Fatal("expected session before ttl")
	}

	mr.FastForward(time.Second)
	if _, found, err := s.get(ctx, "a"); found || err != nil {
		t.Fatalf("expected session to expire at ttl, found=%v err=%v", found, err)
	}
}

func TestRedisSessionStore_PutRefreshesTTL(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestRedisSessionStore(t, time.Minute)
	s.put(ctx, chatSession{ID: "a"})

	mr.FastForward(45 * time.Second)
	s.put(ctx, chatSession{ID: "a"})
	mr.FastForward(45 * time.Second)

	if _, found, _ := s.get(ctx, "a"); !found {
		t.Error("expected rewritten session to survive past the original ttl")
	}
}

func TestRedisSessionStore_Delete(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestRedisSessionStore(t, time.Minute)
	s.put(ctx, chatSession{ID: "a"})

	if err := s.delete(ctx, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if mr.Exists("chat_session:a") {
		t.Error("expected key removed from redis")
	}
	if _, found, _ := s.get(ctx, "a"); found {
		t.Error("expected deleted session to be gone")
	}
	if err := s.delete(ctx, "a"); err != nil {
		t.Errorf("deleting an unknown id should not fail, got %v", err)
	}
}

func TestRedisSessionStore_CorruptValue(t *testing.T) {
	s, mr := newTestRedisSessionStore(t, time.Minute)
	mr.Set("chat_session:bad", "not json")

	if _, _, err := s.get(context.Background(), "bad"); err == nil {
		t.Error("expected error for undecodable session")
	}
}

func TestRedisSessionStore_Unreachable(t *testing.T) {
	s, mr := newTestRedisSessionStore(t, time.Minute)
	mr.Close()

	if _, _, err := s.get(context.Background(), "a"); err == nil {
		t.Error("expected error when redis is down")
	}
}

func TestNewSessionStore_Redis(t *testing.T) {
	mr := miniredis.RunT(t)

	s, err := newSessionStore(context.Background(), config{RedisURL: "redis://" + mr.Addr(), SessionTTL: 5 * time.Minute})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Close()
	rs, ok := s.(*redisSessionStore)
	if !ok {
		t.Fatalf("expected redis store with REDIS_URL, got %T", s)
	}
	if rs.ttl != 5*time.Minute {
		t.Errorf("ttl: want 5m, got %s", rs.ttl)
	}
}
