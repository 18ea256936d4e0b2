package devicestate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is the durable [Store]. Trust records carry a Redis TTL matching
// the grant duration, so expired grants vanish without a sweeper; preferences
// persist indefinitely.
type RedisStore struct {
	redis  *redis.Client
	prefix string
}

// NewRedisStore wraps client with the given key prefix.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "chal"
	}
	return &RedisStore{redis: client, prefix: prefix}
}

func (s *RedisStore) trustKey(marker string) string {
	return s.prefix + ":trust:" + marker
}

func (s *RedisStore) prefKey(marker, purpose string) string {
	return s.prefix + ":pref:" + marker + ":" + purpose
}

// SaveTrust writes the grant with ttl.
func (s *RedisStore) SaveTrust(ctx context.Context, marker string, record TrustRecord, ttl time.Duration) error {
	encoded, err := encodeTrustRecord(record)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, s.trustKey(marker), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return nil
}

// GetTrust loads the grant for marker.
func (s *RedisStore) GetTrust(ctx context.Context, marker string) (TrustRecord, error) {
	data, err := s.redis.Get(ctx, s.trustKey(marker)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return TrustRecord{}, ErrNotFound
		}
		return TrustRecord{}, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	record, err := decodeTrustRecord(data)
	if err != nil {
		return TrustRecord{}, err
	}
	return record, nil
}

// DeleteTrust removes the grant. Deleting an absent grant is not an error.
func (s *RedisStore) DeleteTrust(ctx context.Context, marker string) error {
	if err := s.redis.Del(ctx, s.trustKey(marker)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return nil
}

// SetChannelPreference records the last-used channel for purpose.
func (s *RedisStore) SetChannelPreference(ctx context.Context, marker, purpose, channel string) error {
	if err := s.redis.Set(ctx, s.prefKey(marker, purpose), channel, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return nil
}

// GetChannelPreference reads the stored channel name, "" when unset.
func (s *RedisStore) GetChannelPreference(ctx context.Context, marker, purpose string) (string, error) {
	val, err := s.redis.Get(ctx, s.prefKey(marker, purpose)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return val, nil
}
