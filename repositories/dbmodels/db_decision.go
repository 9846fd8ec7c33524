package dbmodels

import (
	"time"

	"github.com/google/uuid"

	"github.com/incentiva/campaign-engine/dto"
	"github.com/incentiva/campaign-engine/models"
)

type DbDecision struct {
	Id             uuid.UUID `db:"id"`
	CampaignId     uuid.UUID `db:"campaign_id"`
	UserId         string    `db:"user_id"`
	IdempotencyKey string    `db:"idempotency_key"`
	Outcome        []byte    `db:"outcome"`
	CreatedAt      time.Time `db:"created_at"`
}

const TABLE_DECISIONS = "decisions"

var SelectDecisionColumn = []string{
	"id", "campaign_id", "user_id", "idempotency_key", "outcome", "created_at",
}

func AdaptDecision(db DbDecision) (models.Decision, error) {
	return dto.DeserializeDecision(db.Outcome)
}
