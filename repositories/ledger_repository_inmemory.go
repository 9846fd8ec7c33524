package repositories

import (
	"context"
	"sync"

	"github.com/incentiva/campaign-engine/models"
)

// InMemoryLedgerRepository is the embedded counterpart of the postgres
// ledger repository, used in tests and single-process deployments. The
// mutex only guards the map; the versioned compare-and-swap semantics
// are the same as in the SQL implementation.
type InMemoryLedgerRepository struct {
	mu      sync.Mutex
	entries map[string]models.LedgerEntry
}

func NewInMemoryLedgerRepository() *InMemoryLedgerRepository {
	return &InMemoryLedgerRepository{entries: make(map[string]models.LedgerEntry)}
}

func (repo *InMemoryLedgerRepository) GetEntry(ctx context.Context, key models.LedgerKey) (models.LedgerEntry, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if entry, ok := repo.entries[key.String()]; ok {
		return entry, nil
	}
	return models.LedgerEntry{Key: key}, nil
}

func (repo *InMemoryLedgerRepository) CompareAndSwap(ctx context.Context, entry models.LedgerEntry, newUsed int64) (bool, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	current, exists := repo.entries[entry.Key.String()]
	currentVersion := int64(0)
	if exists {
		currentVersion = current.Version
	}
	if currentVersion != entry.Version {
		return false, nil
	}

	repo.entries[entry.Key.String()] = models.LedgerEntry{
		Key:     entry.Key,
		Used:    newUsed,
		Version: currentVersion + 1,
	}
	return true, nil
}
