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

type CampaignRepositoryPostgresql struct {
	pool *pgxpool.Pool
}

func NewCampaignRepositoryPostgresql(pool *pgxpool.Pool) *CampaignRepositoryPostgresql {
	return &CampaignRepositoryPostgresql{pool: pool}
}

func (repo *CampaignRepositoryPostgresql) GetCampaign(ctx context.Context, campaignId uuid.UUID) (models.Campaign, error) {
	sql, args, err := NewQueryBuilder().
		Select(dbmodels.SelectCampaignColumn...).
		From(dbmodels.TABLE_CAMPAIGNS).
		Where("id = ?", campaignId).
		ToSql()
	if err != nil {
		return models.Campaign{}, err
	}

	rows, err := repo.pool.Query(ctx, sql, args...)
	if err != nil {
		return models.Campaign{}, err
	}
	db, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[dbmodels.DbCampaign])
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Campaign{}, errors.Wrapf(models.NotFoundError,
			"campaign %s not found", campaignId)
	} else if err != nil {
		return models.Campaign{}, err
	}

	return dbmodels.AdaptCampaign(db)
}

func (repo *CampaignRepositoryPostgresql) SaveCampaign(ctx context.Context, campaign models.Campaign, definition []byte) error {
	sql, args, err := NewQueryBuilder().
		Insert(dbmodels.TABLE_CAMPAIGNS).
		Columns("id", "status", "version", "definition").
		Values(campaign.Id, campaign.Status.String(), campaign.Version, definition).
		Suffix("ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, version = EXCLUDED.version, definition = EXCLUDED.definition").
		ToSql()
	if err != nil {
		return err
	}

	_, err = repo.pool.Exec(ctx, sql, args...)
	return err
}

// InMemoryCampaignRepository holds fully adapted campaigns. It is the
// backing store for tests and single-process deployments.
type InMemoryCampaignRepository struct {
	mu        sync.RWMutex
	campaigns map[uuid.UUID]models.Campaign
}

func NewInMemoryCampaignRepository() *InMemoryCampaignRepository {
	return &InMemoryCampaignRepository{campaigns: make(map[uuid.UUID]models.Campaign)}
}

func (repo *InMemoryCampaignRepository) GetCampaign(ctx context.Context, campaignId uuid.UUID) (models.Campaign, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	campaign, ok := repo.campaigns[campaignId]
	if !ok {
		return models.Campaign{}, errors.Wrapf(models.NotFoundError,
			"campaign %s not found", campaignId)
	}
	return campaign, nil
}

func (repo *InMemoryCampaignRepository) AddCampaign(campaign models.Campaign) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.campaigns[campaign.Id] = campaign
}

// LoadCampaignDefinition parses and validates a raw JSON definition and
// stores the result. Invalid definitions are rejected as a whole.
func (repo *InMemoryCampaignRepository) LoadCampaignDefinition(raw []byte) (models.Campaign, error) {
	campaign, err := dto.DeserializeCampaign(raw)
	if err != nil {
		return models.Campaign{}, err
	}
	repo.AddCampaign(campaign)
	return campaign, nil
}
