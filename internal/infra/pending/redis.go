package pending

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/custodia-labs/depositwatch/internal/core/domain"
	redisclient "github.com/custodia-labs/depositwatch/internal/infra/redis"
)

const keyPrefix = "pending_deposit:"

// RedisStore implements Store on Redis. Entries survive process restarts and
// carry no TTL: only the verification worker removes them.
type RedisStore struct {
	rdb *goredis.Client
}

// NewRedisStore creates a Redis-backed pending store.
func NewRedisStore(client *redisclient.Client) *RedisStore {
	return &RedisStore{rdb: client.Raw()}
}

func entryKey(hash string) string {
	return keyPrefix + hash
}

// Put stores a transfer under its hash.
func (s *RedisStore) Put(
	ctx context.Context,
	hash string,
	transfer *domain.ObservedTransfer,
) error {
	data, err := json.Marshal(transfer)
	if err != nil {
		return fmt.Errorf("failed to marshal pending transfer: %w", err)
	}
	if err := s.rdb.Set(ctx, entryKey(hash), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set pending transfer: %w", err)
	}
	return nil
}

// Get retrieves a stored transfer.
func (s *RedisStore) Get(
	ctx context.Context,
	hash string,
) (*domain.ObservedTransfer, bool, error) {
	data, err := s.rdb.Get(ctx, entryKey(hash)).Bytes()
	if err == goredis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get pending transfer: %w", err)
	}

	var transfer domain.ObservedTransfer
	if err := json.Unmarshal(data, &transfer); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal pending transfer: %w", err)
	}
	return &transfer, true, nil
}

// Delete removes an entry.
func (s *RedisStore) Delete(ctx context.Context, hash string) error {
	if err := s.rdb.Del(ctx, entryKey(hash)).Err(); err != nil {
		return fmt.Errorf("failed to delete pending transfer: %w", err)
	}
	return nil
}

// Keys returns stored hashes matching pattern.
func (s *RedisStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	var hashes []string
	iter := s.rdb.Scan(ctx, 0, keyPrefix+pattern, 0).Iterator()
	for iter.Next(ctx) {
		hashes = append(hashes, iter.Val()[len(keyPrefix):])
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	return hashes, nil
}
