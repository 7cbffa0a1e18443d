package database

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisPinger adapts a Redis client to the health check's Ping(ctx) error shape.
type RedisPinger struct {
	Client *redis.Client
}

func (p RedisPinger) Ping(ctx context.Context) error {
	return p.Client.Ping(ctx).Err()
}
