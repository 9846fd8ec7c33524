package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/incentiva/campaign-engine/models"
)

type IdempotencyRepository struct {
	mock.Mock
}

func (m *IdempotencyRepository) GetDecision(ctx context.Context, campaignId uuid.UUID, key string) ([]byte, error) {
	args := m.Called(campaignId, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *IdempotencyRepository) SetDecision(ctx context.Context, campaignId uuid.UUID, key string, record []byte, window time.Duration) error {
	args := m.Called(campaignId, key, record, window)
	return args.Error(0)
}

type DecisionStore struct {
	mock.Mock
}

func (m *DecisionStore) StoreDecision(ctx context.Context, decision models.Decision) error {
	args := m.Called(decision)
	return args.Error(0)
}
