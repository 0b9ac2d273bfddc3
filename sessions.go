package main

import (
	"container/list"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// chatSession is one recipe-generation conversation. History is replayed to
// the LLM on every turn.
type chatSession struct {
	ID        string          `json:"id"`
	UserID    int             `json:"userId"`
	Messages  []openAIMessage `json:"messages"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// maxSessionMessages bounds the replayed history (system prompt excluded).
const maxSessionMessages = 20

// sessionStore caches chat sessions by id. Expired or evicted sessions are
// reported as not found.
type sessionStore interface {
	get(ctx context.Context, id string) (chatSession, bool, error)
	put(ctx context.Context, s chatSession) error
	delete(ctx context.Context, id string) error
	Close() error
}

// newSessionStore picks redis when REDIS_URL is set, memory otherwise.
func newSessionStore(ctx context.Context, cfg config) (sessionStore, error) {
	if cfg.RedisURL == "" {
		log.Printf("[newSessionStore] using in-memory chat sessions (ttl=%s, max=%d)", cfg.SessionTTL, cfg.SessionMax)
		return newMemorySessionStore(cfg.SessionTTL, cfg.SessionMax), nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	log.Printf("[newSessionStore] using redis chat sessions (ttl=%s)", cfg.SessionTTL)
	return &redisSessionStore{client: client, ttl: cfg.SessionTTL}, nil
}

/* ─── In-memory store ────────────────────────────────────────────────── */

// memorySessionStore keeps sessions in process with a TTL and a size cap.
// When full, the least recently used session is evicted.
type memorySessionStore struct {
	mu         sync.Mutex
	ttl        time.Duration
	maxEntries int
	order      *list.List // front = most recently used
	items      map[string]*list.Element
	now        func() time.Time
}

type memorySessionItem struct {
	session   chatSession
	expiresAt time.Time
}

func newMemorySessionStore(ttl time.Duration, maxEntries int) *memorySessionStore {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &memorySessionStore{
		ttl:        ttl,
		maxEntries: maxEntries,
		order:      list.New(),
		items:      make(map[string]*list.Element),
		now:        time.Now,
	}
}

func (m *memorySessionStore) get(_ context.Context, id string) (chatSession, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	el, ok := m.items[id]
	if !ok {
		return chatSession{}, false, nil
	}
	item := el.Value.(*memorySessionItem)
	if !m.now().Before(item.expiresAt) {
		m.removeElement(el)
		return chatSession{}, false, nil
	}
	m.order.MoveToFront(el)
	s := item.session
	s.Messages = append([]openAIMessage(nil), s.Messages...)
	return s, true, nil
}

func (m *memorySessionStore) put(_ context.Context, s chatSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	expiresAt := m.now().Add(m.ttl)
	if el, ok := m.items[s.ID]; ok {
		el.Value = &memorySessionItem{session: s, expiresAt: expiresAt}
		m.order.MoveToFront(el)
		return nil
	}

	m.items[s.ID] = m.order.PushFront(&memorySessionItem{session: s, expiresAt: expiresAt})
	for m.order.Len() > m.maxEntries {
		m.removeElement(m.order.Back())
	}
	return nil
}

func (m *memorySessionStore) delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if el, ok := m.items[id]; ok {
		m.removeElement(el)
	}
	return nil
}

func (m *memorySessionStore) Close() error { return nil }

// size reports the number of cached sessions, expired ones included.
func (m *memorySessionStore) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.order.Len()
}

// removeElement must be called with mu held.
func (m *memorySessionStore) removeElement(el *list.Element) {
	m.order.Remove(el)
	delete(m.items, el.Value.(*memorySessionItem).session.ID)
}

/* ─── Redis store ────────────────────────────────────────────────────── */

// redisSessionStore stores each session as one JSON value with a TTL,
// refreshed on every write.
type redisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func sessionKey(id string) string {
	return "chat_session:" + id
}

func (r *redisSessionStore) get(ctx context.Context, id string) (chatSession, bool, error) {
	data, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return chatSession{}, false, nil
	}
	if err != nil {
		return chatSession{}, false, fmt.Errorf("redis get session: %w", err)
	}
	var s chatSession
	if err := json.Unmarshal(data, &s); err != nil {
		return chatSession{}, false, fmt.Errorf("unmarshal session: %w", err)
	}
	return s, true, nil
}

func (r *redisSessionStore) put(ctx context.Context, s chatSession) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := r.client.Set(ctx, sessionKey(s.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

func (r *redisSessionStore) delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}

func (r *redisSessionStore) Close() error {
	return r.client.Close()
}

// trimHistory keeps the most recent maxSessionMessages messages.
func trimHistory(msgs []openAIMessage) []openAIMessage {
	if len(msgs) <= maxSessionMessages {
		return msgs
	}
	return append([]openAIMessage(nil), msgs[len(msgs)-maxSessionMessages:]...)
}
