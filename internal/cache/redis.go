package cache

import (
	"context"
	"fmt"
	"time"

	"gidimart-be/internal/config"
	"gidimart-be/internal/logger"

	"github.com/redis/go-redis/v9"
)

// InitRedis connects to Redis and verifies the connection before returning.
func InitRedis(cfg *config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.L().Info("Redis connection established")
	return rdb, nil
}
