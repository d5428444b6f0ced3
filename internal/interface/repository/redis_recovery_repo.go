package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"inzira-booking-client/internal/domain/entity"
	"inzira-booking-client/internal/domain/repository"
)

// RedisRecoveryRepository keeps the recovery record under a single redis key
type RedisRecoveryRepository struct {
	client *redis.Client
	key    string
}

// NewRedisRecoveryRepository creates a new redis-backed recovery repository.
// An empty prefix stores the record under entity.RecoveryKey.
func NewRedisRecoveryRepository(client *redis.Client, prefix string) repository.RecoveryRepository {
	return &RedisRecoveryRepository{
		client: client,
		key:    prefix + entity.RecoveryKey,
	}
}

func (r *RedisRecoveryRepository) Save(ctx context.Context, record *entity.RecoveryRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal recovery record: %w", err)
	}
	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save recovery record: %w", err)
	}
	return nil
}

func (r *RedisRecoveryRepository) Load(ctx context.Context) (*entity.RecoveryRecord, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load recovery record: %w", err)
	}

	var record entity.RecoveryRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to decode recovery record: %w", err)
	}
	return &record, nil
}

func (r *RedisRecoveryRepository) Clear(ctx context.Context) error {
	return r.client.Del(ctx, r.key).Err()
}
