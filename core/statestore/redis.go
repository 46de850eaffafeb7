package statestore

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/targetkit/targetkit/pkg/logger"
	"github.com/targetkit/targetkit/pkg/sanitize"
)

// RedisStore keeps one key per broker under keyPrefix. A TTL of zero
// stores blobs without expiry; a positive TTL bounds how long an idle
// session survives on a shared runner.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	log    *slog.Logger
}

const defaultKeyPrefix = "targetkit:cookies:"

// NewRedisStore creates a Redis-backed state store on client.
func NewRedisStore(client redis.UniversalClient, ttl time.Duration, log *slog.Logger) *RedisStore {
	if log == nil {
		log = slog.Default()
	}
	return &RedisStore{
		client: client,
		prefix: defaultKeyPrefix,
		ttl:    ttl,
		log:    log.With(logger.Component("statestore")),
	}
}

func (s *RedisStore) key(brokerURL string) string {
	return s.prefix + sanitize.FileName(brokerURL)
}

// Load reads the state blob for brokerURL. Missing keys and corrupt
// blobs yield (nil, nil); a corrupt blob is deleted.
func (s *RedisStore) Load(ctx context.Context, brokerURL string) (map[string]string, error) {
	data, err := s.client.Get(ctx, s.key(brokerURL)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	cookies := decodeBlob(data)
	if cookies == nil {
		s.log.Warn("removing corrupt state blob", slog.String("key", s.key(brokerURL)))
		_ = s.client.Del(ctx, s.key(brokerURL)).Err()
		return nil, nil
	}
	return cookies, nil
}

// Save writes the state blob for brokerURL, or deletes it when cookies
// is empty.
func (s *RedisStore) Save(ctx context.Context, brokerURL string, cookies map[string]string) error {
	if len(cookies) == 0 {
		return s.Delete(ctx, brokerURL)
	}
	data, err := encodeBlob(cookies)
	if err != nil {
		return errors.Join(ErrSaveState, err)
	}
	if err := s.client.Set(ctx, s.key(brokerURL), data, s.ttl).Err(); err != nil {
		return errors.Join(ErrSaveState, err)
	}
	return nil
}

// Delete removes the state blob for brokerURL.
func (s *RedisStore) Delete(ctx context.Context, brokerURL string) error {
	if err := s.client.Del(ctx, s.key(brokerURL)).Err(); err != nil {
		return errors.Join(ErrDeleteState, err)
	}
	return nil
}
