package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/vvka-141/sphelper/pkg/sphelper"
)

// DefaultRedisPrefix namespaces parameter-set entries inside a shared Redis.
const DefaultRedisPrefix = "sphelper:params:"

// scanBatch is the COUNT hint used when iterating keys.
const scanBatch = 256

// RedisStore keeps entries in Redis so several processes share one discovery
// per procedure. Entries are JSON documents; decoding always allocates fresh
// parameters.
//
// Thread-Safety: Safe for concurrent use (go-redis clients are thread-safe).
type RedisStore struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithPrefix overrides DefaultRedisPrefix.
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// WithTTL expires entries after d. Zero keeps entries until cleared.
func WithTTL(d time.Duration) RedisOption {
	return func(s *RedisStore) {
		s.ttl = d
	}
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client redis.Cmdable, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client: client,
		prefix: DefaultRedisPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DialRedis connects to addr and verifies the server answers PING.
func DialRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("could not connect to redis at %s: %w", addr, err)
	}
	return client, nil
}

type redisEntry struct {
	Params   []*sphelper.Parameter `json:"params"`
	StoredAt time.Time             `json:"storedAt"`
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]*sphelper.Parameter, bool, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %q: %w", key, err)
	}

	var entry redisEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false, fmt.Errorf("decode cached parameter set %q: %w", key, err)
	}
	if entry.Params == nil {
		entry.Params = []*sphelper.Parameter{}
	}
	return entry.Params, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, params []*sphelper.Parameter) error {
	data, err := json.Marshal(redisEntry{Params: params, StoredAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("encode parameter set %q: %w", key, err)
	}
	if err := s.client.Set(ctx, s.prefix+key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del %q: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, scanPattern(s.prefix), scanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), s.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan %q: %w", s.prefix, err)
	}
	return keys, nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	keys, err := s.Keys(ctx)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.prefix + k
	}
	if err := s.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("redis del %d keys: %w", len(full), err)
	}
	return nil
}

// scanPattern matches every key under prefix. Glob metacharacters in the
// prefix are escaped so SCAN never reaches keys outside it.
func scanPattern(prefix string) string {
	var b strings.Builder
	for _, r := range prefix {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('*')
	return b.String()
}

var _ Store = (*RedisStore)(nil)
