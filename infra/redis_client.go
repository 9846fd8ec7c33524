package infra

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
)

func NewRedisClient(ctx context.Context, config RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        config.Address,
		Username:    config.Username,
		Password:    config.Password,
		DialTimeout: config.DialTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, "could not check redis connectivity")
	}
	return client, nil
}
