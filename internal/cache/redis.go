package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pathshala-ai/pathshala/models"
)

const redisKeyPrefix = "pathshala:qcache:"

// RedisCache is a Redis-backed query cache for deployments running more
// than one API replica. Same contract as MemoryCache; capacity is left
// to the Redis maxmemory policy. Entries carry no TTL.
type RedisCache struct {
	client *redis.Client
	logger *log.Logger
}

// Conn dials Redis and verifies the connection.
func Conn(ctx context.Context, addr, password string, db int, timeout time.Duration) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: timeout,
	})
	pong, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, err
	}
	if pong != "PONG" {
		return nil, fmt.Errorf("expected PONG, got %s", pong)
	}
	return client, nil
}

// NewRedisCache wraps an established client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client: client,
		logger: log.New(log.Writer(), "[CACHE] ", log.LstdFlags),
	}
}

// Get treats any Redis or decode error as a miss so a cache outage never
// fails a query.
func (c *RedisCache) Get(ctx context.Context, key Key) ([]models.RetrievalResult, bool) {
	raw, err := c.client.Get(ctx, redisKeyPrefix+key.String()).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.Printf("WARNING: redis get failed: %v", err)
		return nil, false
	}
	var results []models.RetrievalResult
	if err := json.Unmarshal(raw, &results); err != nil {
		c.logger.Printf("WARNING: corrupt cache entry for %s: %v", key, err)
		return nil, false
	}
	return results, true
}

// Put stores the results without expiry; failures are logged, not fatal.
func (c *RedisCache) Put(ctx context.Context, key Key, results []models.RetrievalResult) {
	raw, err := json.Marshal(results)
	if err != nil {
		c.logger.Printf("WARNING: cache encode failed: %v", err)
		return
	}
	if err := c.client.SetNX(ctx, redisKeyPrefix+key.String(), raw, 0).Err(); err != nil {
		c.logger.Printf("WARNING: redis put failed: %v", err)
	}
}

// InvalidateAll removes every query cache key.
func (c *RedisCache) InvalidateAll(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
