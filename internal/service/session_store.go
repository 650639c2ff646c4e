package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionStore guarda el jti de cada sesion activa junto al username; borrar el jti cierra la sesion.
type SessionStore interface {
	Store(jti, username string, ttl time.Duration) error
	// Lookup devuelve el username de la sesion, o "" si no existe o expiro.
	Lookup(jti string) (string, error)
	Revoke(jti string) error
}

type memorySessionEntry struct {
	username  string
	expiresAt time.Time
}

type memorySessionStore struct {
	mu    sync.Mutex
	items map[string]memorySessionEntry
}

func NewMemorySessionStore() SessionStore {
	return &memorySessionStore{
		items: make(map[string]memorySessionEntry),
	}
}

func (s *memorySessionStore) Store(jti, username string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.TrimSpace(jti) == "" {
		return nil
	}
	s.sweepLocked(time.Now().UTC())
	s.items[jti] = memorySessionEntry{
		username:  username,
		expiresAt: time.Now().UTC().Add(ttl),
	}
	return nil
}

// sweepLocked borra las sesiones vencidas; cada login limpia las que nadie volvio a consultar.
func (s *memorySessionStore) sweepLocked(now time.Time) {
	for jti, entry := range s.items {
		if now.After(entry.expiresAt) {
			delete(s.items, jti)
		}
	}
}

func (s *memorySessionStore) Lookup(jti string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.items[jti]
	if !ok {
		return "", nil
	}
	if time.Now().UTC().After(entry.expiresAt) {
		delete(s.items, jti)
		return "", nil
	}
	return entry.username, nil
}

func (s *memorySessionStore) Revoke(jti string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, jti)
	return nil
}

// redisKVClient es el subconjunto de *redis.Client que usa el store.
type redisKVClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type redisSessionStore struct {
	client redisKVClient
	prefix string
}

func NewRedisSessionStore(client *redis.Client) SessionStore {
	if client == nil {
		return nil
	}
	return &redisSessionStore{
		client: client,
		prefix: "lume:session:",
	}
}

func (s *redisSessionStore) Store(jti, username string, ttl time.Duration) error {
	jti = strings.TrimSpace(jti)
	if jti == "" {
		return nil
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	return s.client.Set(ctx, s.prefix+jti, username, ttl).Err()
}

func (s *redisSessionStore) Lookup(jti string) (string, error) {
	jti = strings.TrimSpace(jti)
	if jti == "" {
		return "", nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	username, err := s.client.Get(ctx, s.prefix+jti).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return username, nil
}

func (s *redisSessionStore) Revoke(jti string) error {
	jti = strings.TrimSpace(jti)
	if jti == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	return s.client.Del(ctx, s.prefix+jti).Err()
}
