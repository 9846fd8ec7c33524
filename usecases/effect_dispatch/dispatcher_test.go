package effect_dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/guregu/null/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/incentiva/campaign-engine/mocks"
	"github.com/incentiva/campaign-engine/models"
	"github.com/incentiva/campaign-engine/repositories"
	"github.com/incentiva/campaign-engine/usecases/ledger"
)

func testCampaign(budgets models.Budgets) models.Campaign {
	return models.Campaign{
		Id:       uuid.New(),
		Status:   models.CampaignPublished,
		Budgets:  budgets,
		Timezone: time.UTC,
	}
}

func testEvalContext() models.EvaluationContext {
	return models.EvaluationContext{
		UserId:         "user-1",
		Timestamp:      time.Now(),
		IdempotencyKey: "evt-1",
	}
}

func awardEffect(points int64) QueuedEffect {
	return QueuedEffect{
		Effect: models.Effect{
			Id:          uuid.New(),
			Type:        models.EffectAwardPoints,
			AwardPoints: &models.AwardPointsParams{Formula: "x"},
		},
		Points: points,
	}
}

func couponEffect() QueuedEffect {
	return QueuedEffect{
		Effect: models.Effect{
			Id:   uuid.New(),
			Type: models.EffectCreateCoupon,
			CreateCoupon: &models.CreateCouponParams{
				Value:        10,
				ValueKind:    models.CouponValuePercent,
				CodeMode:     models.CouponCodeGenerated,
				ValidityDays: 30,
			},
		},
	}
}

func emailEffect() QueuedEffect {
	return QueuedEffect{
		Effect: models.Effect{
			Id:        uuid.New(),
			Type:      models.EffectSendEmail,
			SendEmail: &models.SendEmailParams{Template: "welcome", Subject: "hi"},
		},
	}
}

func TestDispatchEffects_award_points(t *testing.T) {
	l := ledger.NewLedger(repositories.NewInMemoryLedgerRepository())
	dispatcher := NewDispatcher(l, Collaborators{})
	campaign := testCampaign(models.Budgets{
		CampaignPointsCap: null.IntFrom(1000),
		SoftCapPercent:    80,
		HardCapPercent:    95,
	})

	executions, totals := dispatcher.DispatchEffects(context.Background(),
		campaign, testEvalContext(), []QueuedEffect{awardEffect(100)})

	require.Len(t, executions, 1)
	assert.Equal(t, models.EffectApplied, executions[0].Status)
	assert.Equal(t, int64(100), executions[0].Points)
	assert.Equal(t, int64(100), totals.Points)
}

func TestDispatchEffects_blocked_effect_does_not_abort_siblings(t *testing.T) {
	l := ledger.NewLedger(repositories.NewInMemoryLedgerRepository())
	emailSender := new(mocks.EmailSender)
	emailSender.On("SendEmail", "user-1", mock.Anything).Return(nil)
	dispatcher := NewDispatcher(l, Collaborators{EmailSender: emailSender})

	// A zero coupon budget blocks every coupon issuance.
	campaign := testCampaign(models.Budgets{
		CampaignCouponsCap: null.IntFrom(0),
		SoftCapPercent:     100,
		HardCapPercent:     100,
	})

	executions, totals := dispatcher.DispatchEffects(context.Background(),
		campaign, testEvalContext(), []QueuedEffect{couponEffect(), emailEffect()})

	require.Len(t, executions, 2)
	assert.Equal(t, models.EffectBudgetBlocked, executions[0].Status)
	assert.Equal(t, models.EffectApplied, executions[1].Status)
	assert.Equal(t, int64(0), totals.Coupons)
	emailSender.AssertExpectations(t)
}

func TestDispatchEffects_collaborator_failure_releases_reservation(t *testing.T) {
	repo := repositories.NewInMemoryLedgerRepository()
	l := ledger.NewLedger(repo)
	issuer := new(mocks.CouponIssuer)
	issuer.On("IssueCoupon", mock.Anything, "user-1", mock.Anything, mock.Anything).
		Return(errors.New("coupon service unavailable"))
	dispatcher := NewDispatcher(l, Collaborators{CouponIssuer: issuer})

	campaign := testCampaign(models.Budgets{
		CampaignCouponsCap: null.IntFrom(10),
		SoftCapPercent:     100,
		HardCapPercent:     100,
	})

	executions, totals := dispatcher.DispatchEffects(context.Background(),
		campaign, testEvalContext(), []QueuedEffect{couponEffect()})

	require.Len(t, executions, 1)
	assert.Equal(t, models.EffectFailed, executions[0].Status)
	assert.Contains(t, executions[0].Error, "coupon service unavailable")
	assert.Equal(t, int64(0), totals.Coupons)

	// The failed issuance must not consume coupon budget.
	used, err := l.Usage(context.Background(), models.LedgerKey{
		CampaignId: campaign.Id,
		Dimension:  models.DimensionCoupons,
		Period:     models.PeriodCampaign,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), used)
}

func TestDispatchEffects_formula_error_marks_effect_failed(t *testing.T) {
	l := ledger.NewLedger(repositories.NewInMemoryLedgerRepository())
	dispatcher := NewDispatcher(l, Collaborators{})
	campaign := testCampaign(models.Budgets{SoftCapPercent: 100, HardCapPercent: 100})

	broken := awardEffect(0)
	broken.FormulaErr = errors.New("unknown field reference: missing")

	executions, totals := dispatcher.DispatchEffects(context.Background(),
		campaign, testEvalContext(), []QueuedEffect{broken})

	require.Len(t, executions, 1)
	assert.Equal(t, models.EffectFailed, executions[0].Status)
	assert.Contains(t, executions[0].Error, "unknown field reference")
	assert.Equal(t, int64(0), totals.Points)
}

func TestDispatchEffects_soft_cap_warning(t *testing.T) {
	l := ledger.NewLedger(repositories.NewInMemoryLedgerRepository())
	dispatcher := NewDispatcher(l, Collaborators{})
	campaign := testCampaign(models.Budgets{
		CampaignPointsCap: null.IntFrom(100),
		SoftCapPercent:    80,
		HardCapPercent:    95,
	})

	executions, totals := dispatcher.DispatchEffects(context.Background(),
		campaign, testEvalContext(), []QueuedEffect{awardEffect(90)})

	require.Len(t, executions, 1)
	assert.Equal(t, models.EffectSoftCapWarning, executions[0].Status)
	assert.Equal(t, int64(90), totals.Points)
}

func TestDispatchEffects_atomic_denial_blocks_whole_list(t *testing.T) {
	l := ledger.NewLedger(repositories.NewInMemoryLedgerRepository())
	emailSender := new(mocks.EmailSender)
	dispatcher := NewDispatcher(l, Collaborators{EmailSender: emailSender})

	campaign := testCampaign(models.Budgets{
		CampaignPointsCap:  null.IntFrom(1000),
		CampaignCouponsCap: null.IntFrom(0),
		SoftCapPercent:     100,
		HardCapPercent:     100,
	})
	campaign.AtomicEffects = true

	executions, totals := dispatcher.DispatchEffects(context.Background(),
		campaign, testEvalContext(),
		[]QueuedEffect{awardEffect(100), couponEffect(), emailEffect()})

	require.Len(t, executions, 3)
	assert.Equal(t, models.EffectBudgetBlocked, executions[0].Status)
	assert.Equal(t, models.EffectBudgetBlocked, executions[1].Status)
	assert.Equal(t, models.EffectNotQueued, executions[2].Status)
	assert.Equal(t, models.BudgetDelta{}, totals)

	// The granted points reservation was rolled back with the rest.
	used, err := l.Usage(context.Background(), models.LedgerKey{
		CampaignId: campaign.Id,
		Dimension:  models.DimensionPoints,
		Period:     models.PeriodCampaign,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), used)

	emailSender.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything)
}

func TestDispatchEffects_generated_coupon_code(t *testing.T) {
	l := ledger.NewLedger(repositories.NewInMemoryLedgerRepository())
	issuer := new(mocks.CouponIssuer)
	var issuedCode string
	issuer.On("IssueCoupon", mock.Anything, "user-1", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { issuedCode = args.String(2) }).
		Return(nil)
	dispatcher := NewDispatcher(l, Collaborators{CouponIssuer: issuer})
	campaign := testCampaign(models.Budgets{SoftCapPercent: 100, HardCapPercent: 100})

	executions, totals := dispatcher.DispatchEffects(context.Background(),
		campaign, testEvalContext(), []QueuedEffect{couponEffect()})

	require.Len(t, executions, 1)
	assert.Equal(t, models.EffectApplied, executions[0].Status)
	assert.Equal(t, int64(1), totals.Coupons)
	assert.Regexp(t, "^CPN-[0-9A-F]{12}$", issuedCode)
}

func TestDispatchEffects_fixed_coupon_code(t *testing.T) {
	l := ledger.NewLedger(repositories.NewInMemoryLedgerRepository())
	issuer := new(mocks.CouponIssuer)
	issuer.On("IssueCoupon", mock.Anything, "user-1", "WELCOME10", mock.Anything).Return(nil)
	dispatcher := NewDispatcher(l, Collaborators{CouponIssuer: issuer})
	campaign := testCampaign(models.Budgets{SoftCapPercent: 100, HardCapPercent: 100})

	fixed := couponEffect()
	fixed.Effect.CreateCoupon.CodeMode = models.CouponCodeFixed
	fixed.Effect.CreateCoupon.FixedCode = "WELCOME10"

	_, _ = dispatcher.DispatchEffects(context.Background(),
		campaign, testEvalContext(), []QueuedEffect{fixed})

	issuer.AssertExpectations(t)
}
