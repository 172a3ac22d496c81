package redis

import (
	"context"
	"fmt"

	redisclient "github.com/redis/go-redis/v9"

	"julianmorley.ca/con-plar/storefront/pkg/global"
)

// NewClient builds a client from the configured address. The caller owns it
// and must Close it.
func NewClient(cfg global.Config) *redisclient.Client {
	return redisclient.NewClient(&redisclient.Options{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		Protocol: 2,
	})
}

func Ping(ctx context.Context, client redisclient.UniversalClient) error {
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}
