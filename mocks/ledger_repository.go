package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/incentiva/campaign-engine/models"
)

type LedgerRepository struct {
	mock.Mock
}

func (m *LedgerRepository) GetEntry(ctx context.Context, key models.LedgerKey) (models.LedgerEntry, error) {
	args := m.Called(key)
	return args.Get(0).(models.LedgerEntry), args.Error(1)
}

func (m *LedgerRepository) CompareAndSwap(ctx context.Context, entry models.LedgerEntry, newUsed int64) (bool, error) {
	args := m.Called(entry, newUsed)
	return args.Bool(0), args.Error(1)
}
