package redis

import (
	"context"
	"fmt"
	"time"

	"clientdesk/backend/pkg/config"

	"github.com/redis/go-redis/v9"
)

// NewClient creates a redis client from the application configuration
func NewClient() *redis.Client {
	cfg := config.Get()
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// Ping verifies the connection is usable
func Ping(ctx context.Context, client *redis.Client) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}
