package dbmodels

import (
	"time"

	"github.com/google/uuid"

	"github.com/incentiva/campaign-engine/models"
)

type DbLedgerEntry struct {
	CampaignId  uuid.UUID `db:"campaign_id"`
	UserId      string    `db:"user_id"`
	Dimension   string    `db:"dimension"`
	Period      string    `db:"period"`
	PeriodStart time.Time `db:"period_start"`
	Used        int64     `db:"used"`
	Version     int64     `db:"version"`
}

const TABLE_LEDGER_ENTRIES = "ledger_entries"

var SelectLedgerEntryColumn = []string{
	"campaign_id", "user_id", "dimension", "period", "period_start", "used", "version",
}

func AdaptLedgerEntry(db DbLedgerEntry) (models.LedgerEntry, error) {
	dimension := models.DimensionPoints
	if db.Dimension == models.DimensionCoupons.String() {
		dimension = models.DimensionCoupons
	}

	period := models.PeriodCampaign
	switch db.Period {
	case models.PeriodDaily.String():
		period = models.PeriodDaily
	case models.PeriodMonthly.String():
		period = models.PeriodMonthly
	}

	return models.LedgerEntry{
		Key: models.LedgerKey{
			CampaignId:  db.CampaignId,
			UserId:      db.UserId,
			Dimension:   dimension,
			Period:      period,
			PeriodStart: db.PeriodStart,
		},
		Used:    db.Used,
		Version: db.Version,
	}, nil
}
