package repositories

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/incentiva/campaign-engine/dto"
	"github.com/incentiva/campaign-engine/models"
	"github.com/incentiva/campaign-engine/repositories/dbmodels"
)

type DecisionRepositoryPostgresql struct {
	pool *pgxpool.Pool
}

func NewDecisionRepositoryPostgresql(pool *pgxpool.Pool) *DecisionRepositoryPostgresql {
	return &DecisionRepositoryPostgresql{pool: pool}
}

func (repo *DecisionRepositoryPostgresql) StoreDecision(ctx context.Context, decision models.Decision) error {
	outcome, err := dto.SerializeDecision(decision)
	if err != nil {
		return err
	}

	sql, args, err := NewQueryBuilder().
		Insert(dbmodels.TABLE_DECISIONS).
		Columns("id", "campaign_id", "user_id", "idempotency_key", "outcome", "created_at").
		Values(decision.Id, decision.CampaignId, decision.UserId,
			decision.IdempotencyKey, outcome, decision.CreatedAt).
		ToSql()
	if err != nil {
		return err
	}

	_, err = repo.pool.Exec(ctx, sql, args...)
	return err
}

func (repo *DecisionRepositoryPostgresql) GetDecision(ctx context.Context, decisionId uuid.UUID) (models.Decision, error) {
	sql, args, err := NewQueryBuilder().
		Select(dbmodels.SelectDecisionColumn...).
		From(dbmodels.TABLE_DECISIONS).
		Where("id = ?", decisionId).
		ToSql()
	if err != nil {
		return models.Decision{}, err
	}

	rows, err := repo.pool.Query(ctx, sql, args...)
	if err != nil {
		return models.Decision{}, err
	}
	db, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[dbmodels.DbDecision])
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Decision{}, errors.Wrapf(models.NotFoundError,
			"decision %s not found", decisionId)
	} else if err != nil {
		return models.Decision{}, err
	}

	return dbmodels.AdaptDecision(db)
}

type InMemoryDecisionRepository struct {
	mu        sync.RWMutex
	decisions map[uuid.UUID]models.Decision
}

func NewInMemoryDecisionRepository() *InMemoryDecisionRepository {
	return &InMemoryDecisionRepository{decisions: make(map[uuid.UUID]models.Decision)}
}

func (repo *InMemoryDecisionRepository) StoreDecision(ctx context.Context, decision models.Decision) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.decisions[decision.Id] = decision
	return nil
}

func (repo *InMemoryDecisionRepository) GetDecision(ctx context.Context, decisionId uuid.UUID) (models.Decision, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	decision, ok := repo.decisions[decisionId]
	if !ok {
		return models.Decision{}, errors.Wrapf(models.NotFoundError,
			"decision %s not found", decisionId)
	}
	return decision, nil
}
