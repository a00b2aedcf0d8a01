package services

import (
	"context"
	"encoding/json"
	"iotlab-http-service/internal/infrastructure/config"
	"time"

	"github.com/go-redis/redis/v8"
)

// InterfaceLiveStateCache is the snapshot cache consumed by the relay
// orchestrator for pin live-state reads
type InterfaceLiveStateCache interface {
	CacheLiveState(pin string, stateData interface{}, expiration time.Duration) error
	GetLiveState(pin string, dest interface{}) error
}

// RedisService handles Redis operations
type RedisService struct {
	Client *redis.Client
	Ctx    context.Context
}

// NewRedisService creates a new Redis service
func NewRedisService(cfg *config.Config) *RedisService {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: "", // No password set
		DB:       cfg.RedisDB,
	})

	ctx := context.Background()

	return &RedisService{
		Client: client,
		Ctx:    ctx,
	}
}

// Ping checks the Redis connection
func (s *RedisService) Ping() error {
	return s.Client.Ping(s.Ctx).Err()
}

// Set sets a key-value pair in Redis with expiration
func (s *RedisService) Set(key string, value interface{}, expiration time.Duration) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return s.Client.Set(s.Ctx, key, jsonValue, expiration).Err()
}

// Get gets a value from Redis by key
func (s *RedisService) Get(key string, dest interface{}) error {
	val, err := s.Client.Get(s.Ctx, key).Result()
	if err != nil {
		return err
	}

	return json.Unmarshal([]byte(val), dest)
}

// Delete deletes a key from Redis
func (s *RedisService) Delete(key string) error {
	return s.Client.Del(s.Ctx, key).Err()
}

// CacheLiveState caches the latest live-state snapshot of a pin
func (s *RedisService) CacheLiveState(pin string, stateData interface{}, expiration time.Duration) error {
	key := "live_state:" + pin
	jsonValue, err := json.Marshal(stateData)
	if err != nil {
		return err
	}

	return s.Client.Set(s.Ctx, key, jsonValue, expiration).Err()
}

// GetLiveState gets a cached live-state snapshot of a pin
func (s *RedisService) GetLiveState(pin string, dest interface{}) error {
	key := "live_state:" + pin
	val, err := s.Client.Get(s.Ctx, key).Result()
	if err != nil {
		return err
	}

	return json.Unmarshal([]byte(val), dest)
}
