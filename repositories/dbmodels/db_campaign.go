package dbmodels

import (
	"time"

	"github.com/google/uuid"

	"github.com/incentiva/campaign-engine/dto"
	"github.com/incentiva/campaign-engine/models"
)

type DbCampaign struct {
	Id         uuid.UUID `db:"id"`
	Status     string    `db:"status"`
	Version    int       `db:"version"`
	Definition []byte    `db:"definition"`
	CreatedAt  time.Time `db:"created_at"`
}

const TABLE_CAMPAIGNS = "campaigns"

var SelectCampaignColumn = []string{"id", "status", "version", "definition", "created_at"}

// AdaptCampaign deserializes and fully validates the stored definition;
// a campaign whose definition no longer validates is rejected, not
// partially loaded.
func AdaptCampaign(db DbCampaign) (models.Campaign, error) {
	return dto.DeserializeCampaign(db.Definition)
}
