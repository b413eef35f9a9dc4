package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/biodoia/contentforge/pkg/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisCache implementa Cache su Redis
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache crea una nuova cache Redis e verifica la connessione
func NewRedisCache(cfg *config.RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Host,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	log.Info().
		Str("addr", cfg.Host).
		Dur("ttl", ttl).
		Msg("Redis cache connected")

	return &RedisCache{
		client: client,
		ttl:    ttl,
	}, nil
}

// Get recupera l'entry per un topic
func (c *RedisCache) Get(ctx context.Context, topic string) (*Entry, error) {
	data, err := c.client.Get(ctx, TopicKey(topic)).Bytes()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		// Entry corrotta: la rimuoviamo e la trattiamo come miss
		c.client.Del(ctx, TopicKey(topic))
		return nil, ErrCacheMiss
	}

	return &entry, nil
}

// Set memorizza l'entry per un topic
func (c *RedisCache) Set(ctx context.Context, topic string, entry *Entry) error {
	if entry.CachedAt == 0 {
		entry.CachedAt = time.Now().Unix()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	if err := c.client.Set(ctx, TopicKey(topic), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}

	return nil
}

// Invalidate rimuove l'entry per un topic
func (c *RedisCache) Invalidate(ctx context.Context, topic string) error {
	if err := c.client.Del(ctx, TopicKey(topic)).Err(); err != nil {
		return fmt.Errorf("redis del failed: %w", err)
	}
	return nil
}

// Ping verifica la connessione a Redis
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close chiude la connessione a Redis
func (c *RedisCache) Close() error {
	return c.client.Close()
}
