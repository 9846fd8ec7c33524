package repositories

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/incentiva/campaign-engine/models"
)

// InMemoryIdempotencyRepository bounds the dedup cache with an expirable
// LRU. The expiry is fixed at construction: pick the longest idempotency
// window among the campaigns served by the process; replays past a
// campaign's own window are handled by the engine re-evaluating, which
// is the documented behavior once the window has elapsed.
type InMemoryIdempotencyRepository struct {
	cache *expirable.LRU[string, []byte]
}

func NewInMemoryIdempotencyRepository(maxEntries int, window time.Duration) *InMemoryIdempotencyRepository {
	return &InMemoryIdempotencyRepository{
		cache: expirable.NewLRU[string, []byte](maxEntries, nil, window),
	}
}

func (repo *InMemoryIdempotencyRepository) GetDecision(ctx context.Context, campaignId uuid.UUID, key string) ([]byte, error) {
	if record, ok := repo.cache.Get(idempotencyCacheKey(campaignId, key)); ok {
		return record, nil
	}
	return nil, errors.Wrap(models.NotFoundError, "no idempotency record")
}

func (repo *InMemoryIdempotencyRepository) SetDecision(
	ctx context.Context,
	campaignId uuid.UUID,
	key string,
	record []byte,
	window time.Duration,
) error {
	cacheKey := idempotencyCacheKey(campaignId, key)
	if _, ok := repo.cache.Get(cacheKey); ok {
		return nil
	}
	repo.cache.Add(cacheKey, record)
	return nil
}
