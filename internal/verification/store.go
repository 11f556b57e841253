package verification

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "verify:v1:"

// Record is the pending verification state for one academic email.
type Record struct {
	Username      string    `json:"username"`
	PersonalEmail string    `json:"personal_email"`
	CodeHash      []byte    `json:"code_hash"`
	Attempts      int       `json:"attempts"`
	Verified      bool      `json:"verified"`
	SentAt        time.Time `json:"sent_at"`
}

// Store keeps verification records until they expire.
type Store interface {
	// Save replaces the record for email and resets its expiry.
	Save(ctx context.Context, email string, rec Record, ttl time.Duration) error
	Get(ctx context.Context, email string) (Record, error)
	// Update overwrites an existing record without touching its expiry.
	Update(ctx context.Context, email string, rec Record) error
	Delete(ctx context.Context, email string) error
}

// RedisStore implements Store with one JSON value per email.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore builds a Redis-backed store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Save(ctx context.Context, email string, rec Record, ttl time.Duration) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, keyPrefix+email, payload, ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, email string) (Record, error) {
	raw, err := s.client.Get(ctx, keyPrefix+email).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, ErrNoCode
	}
	if err != nil {
		return Record{}, err
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (s *RedisStore) Update(ctx context.Context, email string, rec Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	err = s.client.SetArgs(ctx, keyPrefix+email, payload, redis.SetArgs{Mode: "XX", KeepTTL: true}).Err()
	if errors.Is(err, redis.Nil) {
		return ErrNoCode
	}
	return err
}

func (s *RedisStore) Delete(ctx context.Context, email string) error {
	return s.client.Del(ctx, keyPrefix+email).Err()
}

type memoryEntry struct {
	rec       Record
	expiresAt time.Time
}

type memoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore builds an in-process store for development and tests.
func NewMemoryStore() Store {
	return &memoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (s *memoryStore) Save(_ context.Context, email string, rec Record, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictExpired()
	s.entries[strings.ToLower(email)] = memoryEntry{rec: rec, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *memoryStore) Get(_ context.Context, email string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.live(email)
	if !ok {
		return Record{}, ErrNoCode
	}
	return entry.rec, nil
}

func (s *memoryStore) Update(_ context.Context, email string, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.live(email)
	if !ok {
		return ErrNoCode
	}
	entry.rec = rec
	s.entries[strings.ToLower(email)] = entry
	return nil
}

func (s *memoryStore) Delete(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, strings.ToLower(email))
	return nil
}

func (s *memoryStore) live(email string) (memoryEntry, bool) {
	entry, ok := s.entries[strings.ToLower(email)]
	if !ok || !s.now().Before(entry.expiresAt) {
		return memoryEntry{}, false
	}
	return entry, true
}

func (s *memoryStore) evictExpired() {
	now := s.now()
	for key, entry := range s.entries {
		if !now.Before(entry.expiresAt) {
			delete(s.entries, key)
		}
	}
}
