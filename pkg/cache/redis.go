package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rubiojr/reposearch/pkg/core"
)

// RedisOptions configures a RedisStore.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	// Prefix namespaces every key so several deployments can share a server.
	Prefix string
}

// RedisStore keeps encoded pages in redis, shared by every process pointing
// at the same server and prefix. Keys never expire.
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ AdminStore = (*RedisStore)(nil)

// NewRedisStore connects to redis and verifies the connection with a PING.
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", opts.Addr, err)
	}
	return &RedisStore{client: client, prefix: opts.Prefix + "page:"}, nil
}

func (s *RedisStore) key(key string) string {
	return s.prefix + key
}

func (s *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("checking page: %w", err)
	}
	return n > 0, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (*core.CombinedPage, error) {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading page: %w", err)
	}
	return decodePage(data)
}

func (s *RedisStore) Put(ctx context.Context, key string, page *core.CombinedPage) error {
	data, err := encodePage(page)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(key), data, 0).Err(); err != nil {
		return fmt.Errorf("storing page: %w", err)
	}
	return nil
}

// scan walks every key under the store prefix.
func (s *RedisStore) scan(ctx context.Context, fn func(keys []string) error) error {
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, s.prefix+"*", 500).Result()
		if err != nil {
			return fmt.Errorf("scanning pages: %w", err)
		}
		if len(keys) > 0 {
			if err := fn(keys); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func (s *RedisStore) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{Driver: "redis"}
	err := s.scan(ctx, func(keys []string) error {
		pipe := s.client.Pipeline()
		cmds := make([]*redis.IntCmd, len(keys))
		for i, k := range keys {
			cmds[i] = pipe.StrLen(ctx, k)
		}
		if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("measuring pages: %w", err)
		}
		for _, cmd := range cmds {
			stats.Entries++
			stats.Bytes += cmd.Val()
		}
		return nil
	})
	return stats, err
}

func (s *RedisStore) Purge(ctx context.Context) (int64, error) {
	var removed int64
	err := s.scan(ctx, func(keys []string) error {
		n, err := s.client.Del(ctx, keys...).Result()
		if err != nil {
			return fmt.Errorf("deleting pages: %w", err)
		}
		removed += n
		return nil
	})
	return removed, err
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
