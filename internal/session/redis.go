package session

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps bindings in Redis so several server replicas share them.
// Expiry is delegated to the Redis key TTL.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisOptions configures a RedisStore.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// NewRedisStore connects to Redis and verifies the connection with PING.
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrapf(err, "failed to connect to redis at %s", opts.Addr)
	}
	return &RedisStore{client: client, prefix: opts.Prefix, ttl: opts.TTL}, nil
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

func (s *RedisStore) Put(ctx context.Context, id, credential string) error {
	if id == "" {
		return ErrEmptyID
	}
	if err := s.client.Set(ctx, s.key(id), credential, s.ttl).Err(); err != nil {
		return errors.Wrapf(err, "failed to store session %s", id)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (string, bool, error) {
	credential, err := s.client.Get(ctx, s.key(id)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "failed to load session %s", id)
	}
	return credential, true, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return errors.Wrapf(err, "failed to delete session %s", id)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
