package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/incentiva/campaign-engine/models"
)

// RedisIdempotencyRepository stores serialized decision records keyed by
// (campaign, idempotency key), expiring after the campaign's idempotency
// window.
type RedisIdempotencyRepository struct {
	client *redis.Client
}

func NewRedisIdempotencyRepository(client *redis.Client) *RedisIdempotencyRepository {
	return &RedisIdempotencyRepository{client: client}
}

func idempotencyCacheKey(campaignId uuid.UUID, key string) string {
	return fmt.Sprintf("idempotency:%s:%s", campaignId, key)
}

func (repo *RedisIdempotencyRepository) GetDecision(ctx context.Context, campaignId uuid.UUID, key string) ([]byte, error) {
	record, err := repo.client.Get(ctx, idempotencyCacheKey(campaignId, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, errors.Wrap(models.NotFoundError, "no idempotency record")
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (repo *RedisIdempotencyRepository) SetDecision(
	ctx context.Context,
	campaignId uuid.UUID,
	key string,
	record []byte,
	window time.Duration,
) error {
	// SetNX keeps the first stored decision when two evaluations race on
	// the same key.
	return repo.client.SetNX(ctx, idempotencyCacheKey(campaignId, key), record, window).Err()
}
