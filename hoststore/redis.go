package hoststore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisSuspendedRunStore implements SuspendedRunStore using Redis, keyed
// by execution ID under the conductor:suspended: prefix.
type RedisSuspendedRunStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSuspendedRunStore wraps an existing Redis client. suspended runs
// expire after ttl if never resumed or deleted; pass 0 to keep the
// library default of 24 hours.
func NewRedisSuspendedRunStore(client *redis.Client, ttl time.Duration) *RedisSuspendedRunStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisSuspendedRunStore{client: client, ttl: ttl}
}

func suspendedKey(executionID string) string {
	return fmt.Sprintf("conductor:suspended:%s", executionID)
}

func (s *RedisSuspendedRunStore) Save(ctx context.Context, record SuspendedRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshaling suspended record: %w", err)
	}

	key := suspendedKey(record.ExecutionID)
	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("saving suspended record to redis: %w", err)
	}
	return nil
}

func (s *RedisSuspendedRunStore) Get(ctx context.Context, executionID string) (SuspendedRecord, error) {
	key := suspendedKey(executionID)

	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return SuspendedRecord{}, fmt.Errorf("suspended run %s not found", executionID)
		}
		return SuspendedRecord{}, fmt.Errorf("getting suspended record: %w", err)
	}

	var record SuspendedRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return SuspendedRecord{}, fmt.Errorf("unmarshaling suspended record: %w", err)
	}
	return record, nil
}

func (s *RedisSuspendedRunStore) Delete(ctx context.Context, executionID string) error {
	key := suspendedKey(executionID)
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("deleting suspended record: %w", err)
	}
	return nil
}
