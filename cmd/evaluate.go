package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/incentiva/campaign-engine/dto"
	"github.com/incentiva/campaign-engine/infra"
	"github.com/incentiva/campaign-engine/models"
	"github.com/incentiva/campaign-engine/repositories"
	"github.com/incentiva/campaign-engine/usecases/effect_dispatch"
	"github.com/incentiva/campaign-engine/usecases/evaluate_campaign"
	"github.com/incentiva/campaign-engine/usecases/ledger"
	"github.com/incentiva/campaign-engine/utils"
)

type stores struct {
	ledgerRepo  ledger.Repository
	idempotency evaluate_campaign.IdempotencyRepository
	decisions   evaluate_campaign.DecisionStore
	campaigns   *repositories.CampaignRepositoryPostgresql
}

// RunEvaluate evaluates one event against one campaign and writes the
// serialized decision to stdout. The campaign comes from a definition
// file, or from the campaigns table when only an id is given and
// STORE=postgres. STORE=memory (the default) keeps ledger counters and
// idempotency records in process, which is enough for dry runs of a
// definition against sample events.
func RunEvaluate(campaignPath, eventPath, campaignId string) error {
	logger := utils.NewLogger(utils.GetStringEnv("LOGGING_FORMAT", "text"))
	ctx := utils.StoreLoggerInContext(context.Background(), logger)

	config := infra.ConfigFromEnv()

	s, err := setupStores(ctx, config)
	if err != nil {
		return err
	}

	campaign, err := loadCampaign(ctx, s, campaignPath, campaignId)
	if err != nil {
		return err
	}

	rawEvent, err := os.ReadFile(eventPath)
	if err != nil {
		return errors.Wrap(err, "could not read event file")
	}
	evalCtx, err := dto.AdaptEvaluationContext(rawEvent)
	if err != nil {
		return err
	}

	dispatcher := effect_dispatch.NewDispatcher(
		ledger.NewLedger(s.ledgerRepo), newLoggingCollaborators())
	evaluator := evaluate_campaign.NewEvaluator(dispatcher)

	decision, err := evaluator.EvalCampaign(ctx,
		evaluate_campaign.CampaignEvaluationParameters{
			Campaign: campaign,
			Context:  evalCtx,
		},
		evaluate_campaign.CampaignEvaluationRepositories{
			Idempotency: s.idempotency,
			Decisions:   s.decisions,
		})
	if err != nil {
		return err
	}

	record, err := dto.SerializeDecision(decision)
	if err != nil {
		return err
	}
	fmt.Println(string(record))
	return nil
}

func setupStores(ctx context.Context, config infra.EngineConfig) (stores, error) {
	switch store := utils.GetStringEnv("STORE", "memory"); store {
	case "memory":
		return stores{
			ledgerRepo:  repositories.NewInMemoryLedgerRepository(),
			idempotency: repositories.NewInMemoryIdempotencyRepository(1024, time.Hour),
			decisions:   repositories.NewInMemoryDecisionRepository(),
		}, nil

	case "postgres":
		pool, err := infra.NewPostgresConnectionPool(ctx, config.Pg)
		if err != nil {
			return stores{}, err
		}
		redisClient, err := infra.NewRedisClient(ctx, config.Redis)
		if err != nil {
			return stores{}, err
		}
		return stores{
			ledgerRepo:  repositories.NewLedgerRepositoryPostgresql(pool),
			idempotency: repositories.NewRedisIdempotencyRepository(redisClient),
			decisions:   repositories.NewDecisionRepositoryPostgresql(pool),
			campaigns:   repositories.NewCampaignRepositoryPostgresql(pool),
		}, nil

	default:
		return stores{}, errors.Wrap(models.BadParameterError,
			fmt.Sprintf("unknown STORE %q", store))
	}
}

func loadCampaign(ctx context.Context, s stores, campaignPath, campaignId string) (models.Campaign, error) {
	if campaignPath != "" {
		raw, err := os.ReadFile(campaignPath)
		if err != nil {
			return models.Campaign{}, errors.Wrap(err, "could not read campaign definition file")
		}
		return dto.DeserializeCampaign(raw)
	}

	if campaignId == "" {
		return models.Campaign{}, errors.Wrap(models.BadParameterError,
			"either a campaign definition file or a campaign id is required")
	}
	if s.campaigns == nil {
		return models.Campaign{}, errors.Wrap(models.BadParameterError,
			"loading a campaign by id requires STORE=postgres")
	}
	id, err := uuid.Parse(campaignId)
	if err != nil {
		return models.Campaign{}, errors.Wrap(models.BadParameterError,
			fmt.Sprintf("invalid campaign id %q", campaignId))
	}
	return s.campaigns.GetCampaign(ctx, id)
}
