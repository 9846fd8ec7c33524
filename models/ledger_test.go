package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriodStart_daily_uses_campaign_timezone(t *testing.T) {
	saoPaulo, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)

	// 01:30 UTC is still the previous day in Sao Paulo (UTC-3).
	at := time.Date(2026, 3, 2, 1, 30, 0, 0, time.UTC)

	utcStart := PeriodStart(PeriodDaily, at, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), utcStart)

	localStart := PeriodStart(PeriodDaily, at, saoPaulo)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, saoPaulo), localStart)
}

func TestPeriodStart_monthly(t *testing.T) {
	at := time.Date(2026, 3, 17, 15, 4, 5, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		PeriodStart(PeriodMonthly, at, time.UTC))
}

func TestPeriodStart_campaign_lifetime_is_zero(t *testing.T) {
	assert.True(t, PeriodStart(PeriodCampaign, time.Now(), time.UTC).IsZero())
}

func TestPeriodStart_nil_timezone_defaults_to_utc(t *testing.T) {
	at := time.Date(2026, 3, 2, 1, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		PeriodStart(PeriodDaily, at, nil))
}

func TestLedgerKey_distinguishes_periods(t *testing.T) {
	base := LedgerKey{UserId: "user-1", Dimension: DimensionPoints, Period: PeriodDaily}
	other := base
	other.PeriodStart = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	assert.NotEqual(t, base.String(), other.String())
}
