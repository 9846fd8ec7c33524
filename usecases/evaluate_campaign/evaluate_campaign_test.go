package evaluate_campaign

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/incentiva/campaign-engine/dto"
	"github.com/incentiva/campaign-engine/mocks"
	"github.com/incentiva/campaign-engine/models"
	"github.com/incentiva/campaign-engine/repositories"
	"github.com/incentiva/campaign-engine/usecases/effect_dispatch"
	"github.com/incentiva/campaign-engine/usecases/ledger"
)

func awardEffectDto(formula string) dto.EffectDto {
	return dto.EffectDto{
		Id:         uuid.NewString(),
		Type:       "award_points",
		Parameters: json.RawMessage(fmt.Sprintf(`{"formula": %q}`, formula)),
	}
}

func emailEffectDto(template string) dto.EffectDto {
	return dto.EffectDto{
		Id:         uuid.NewString(),
		Type:       "send_email",
		Parameters: json.RawMessage(fmt.Sprintf(`{"template": %q, "subject": "hello"}`, template)),
	}
}

func amountRule(name string, priority int, minAmount float64, effects []dto.EffectDto, elseEffects []dto.EffectDto) dto.RuleDto {
	return dto.RuleDto{
		Id:       uuid.NewString(),
		Name:     name,
		Priority: priority,
		Enabled:  true,
		Conditions: dto.ConditionGroupDto{
			Operator: "ALL",
			Children: []dto.ConditionChildDto{{
				Condition: &dto.ConditionDto{
					Field:    "purchase_amount",
					Operator: ">=",
					Value:    minAmount,
				},
			}},
		},
		Effects:     effects,
		ElseEffects: elseEffects,
	}
}

func buildCampaign(t *testing.T, policy string, pointsCap *int64, rules ...dto.RuleDto) models.Campaign {
	t.Helper()
	campaign, err := dto.AdaptCampaign(dto.CampaignDto{
		Id:             uuid.NewString(),
		Name:           "spring promo",
		Version:        1,
		Status:         "published",
		ConflictPolicy: policy,
		Budgets: dto.BudgetsDto{
			CampaignPointsCap: pointsCap,
			SoftCapPercent:    80,
			HardCapPercent:    95,
		},
		Rules: rules,
	})
	require.NoError(t, err)
	return campaign
}

type testHarness struct {
	evaluator   *Evaluator
	ledgerRepo  *repositories.InMemoryLedgerRepository
	idempotency *repositories.InMemoryIdempotencyRepository
	emailSender *mocks.EmailSender
}

func newTestHarness() *testHarness {
	ledgerRepo := repositories.NewInMemoryLedgerRepository()
	emailSender := new(mocks.EmailSender)
	dispatcher := effect_dispatch.NewDispatcher(
		ledger.NewLedger(ledgerRepo),
		effect_dispatch.Collaborators{EmailSender: emailSender},
	)
	return &testHarness{
		evaluator:   NewEvaluator(dispatcher),
		ledgerRepo:  ledgerRepo,
		idempotency: repositories.NewInMemoryIdempotencyRepository(128, time.Hour),
		emailSender: emailSender,
	}
}

func (h *testHarness) eval(t *testing.T, campaign models.Campaign, amount float64, key string) models.Decision {
	t.Helper()
	decision, err := h.evaluator.EvalCampaign(context.Background(),
		CampaignEvaluationParameters{
			Campaign: campaign,
			Context: models.EvaluationContext{
				Payload:        map[string]any{"purchase_amount": amount},
				UserId:         "user-1",
				Timestamp:      time.Now(),
				IdempotencyKey: key,
			},
		},
		CampaignEvaluationRepositories{Idempotency: h.idempotency},
	)
	require.NoError(t, err)
	return decision
}

func TestEvalCampaign_first_match_short_circuits(t *testing.T) {
	h := newTestHarness()
	campaign := buildCampaign(t, "first_match", nil,
		amountRule("big spender", 1, 200, []dto.EffectDto{awardEffectDto("purchase_amount * 0.2")}, nil),
		amountRule("any purchase", 2, 0, []dto.EffectDto{awardEffectDto("purchase_amount * 0.1")}, nil),
	)

	decision := h.eval(t, campaign, 300, "evt-1")

	require.Len(t, decision.Rules, 2)
	assert.Equal(t, models.RuleMatched, decision.Rules[0].State)
	assert.Equal(t, models.EffectApplied, decision.Rules[0].Effects[0].Status)
	assert.Equal(t, models.RuleNotEvaluated, decision.Rules[1].State)
	assert.Equal(t, models.EffectNotQueued, decision.Rules[1].Effects[0].Status)
	assert.Equal(t, int64(60), decision.Totals.Points)
}

func TestEvalCampaign_first_match_else_effects_before_winner(t *testing.T) {
	h := newTestHarness()
	h.emailSender.On("SendEmail", "user-1", mock.Anything).Return(nil)
	campaign := buildCampaign(t, "first_match", nil,
		amountRule("vip", 1, 1000, []dto.EffectDto{awardEffectDto("500")},
			[]dto.EffectDto{emailEffectDto("upsell")}),
		amountRule("any purchase", 2, 0, []dto.EffectDto{awardEffectDto("purchase_amount * 0.1")}, nil),
	)

	decision := h.eval(t, campaign, 300, "evt-1")

	require.Len(t, decision.Rules, 2)
	assert.Equal(t, models.RuleNotMatched, decision.Rules[0].State)
	assert.True(t, decision.Rules[0].ElseBranch)
	assert.Equal(t, models.EffectApplied, decision.Rules[0].Effects[0].Status)
	assert.Equal(t, models.RuleMatched, decision.Rules[1].State)
	assert.Equal(t, int64(30), decision.Totals.Points)
	h.emailSender.AssertExpectations(t)
}

func TestEvalCampaign_allow_all_dispatches_every_match(t *testing.T) {
	h := newTestHarness()
	campaign := buildCampaign(t, "allow_all", nil,
		amountRule("big spender", 1, 200, []dto.EffectDto{awardEffectDto("purchase_amount * 0.2")}, nil),
		amountRule("any purchase", 2, 0, []dto.EffectDto{awardEffectDto("purchase_amount * 0.1")}, nil),
	)

	decision := h.eval(t, campaign, 300, "evt-1")

	require.Len(t, decision.Rules, 2)
	assert.Equal(t, models.RuleMatched, decision.Rules[0].State)
	assert.Equal(t, models.RuleMatched, decision.Rules[1].State)
	assert.Equal(t, int64(90), decision.Totals.Points)
}

func TestEvalCampaign_highest_payout_wins(t *testing.T) {
	h := newTestHarness()
	campaign := buildCampaign(t, "highest_payout", nil,
		amountRule("small award", 1, 0, []dto.EffectDto{awardEffectDto("10")}, nil),
		amountRule("large award", 2, 0, []dto.EffectDto{awardEffectDto("50")}, nil),
	)

	decision := h.eval(t, campaign, 300, "evt-1")

	require.Len(t, decision.Rules, 2)
	assert.Equal(t, models.EffectNotQueued, decision.Rules[0].Effects[0].Status)
	assert.Equal(t, models.EffectApplied, decision.Rules[1].Effects[0].Status)
	assert.Equal(t, int64(50), decision.Totals.Points)
}

func TestEvalCampaign_highest_payout_tie_prefers_lower_priority(t *testing.T) {
	h := newTestHarness()
	campaign := buildCampaign(t, "highest_payout", nil,
		amountRule("first", 1, 0, []dto.EffectDto{awardEffectDto("50")}, nil),
		amountRule("second", 2, 0, []dto.EffectDto{awardEffectDto("50")}, nil),
	)

	decision := h.eval(t, campaign, 300, "evt-1")

	require.Len(t, decision.Rules, 2)
	assert.Equal(t, models.EffectApplied, decision.Rules[0].Effects[0].Status)
	assert.Equal(t, models.EffectNotQueued, decision.Rules[1].Effects[0].Status)
	assert.Equal(t, int64(50), decision.Totals.Points)
}

func TestEvalCampaign_idempotent_replay(t *testing.T) {
	h := newTestHarness()
	pointsCap := int64(1000)
	campaign := buildCampaign(t, "allow_all", &pointsCap,
		amountRule("any purchase", 1, 0, []dto.EffectDto{awardEffectDto("purchase_amount * 0.1")}, nil),
	)

	first := h.eval(t, campaign, 300, "evt-1")
	replayed := h.eval(t, campaign, 300, "evt-1")

	firstBytes, err := dto.SerializeDecision(first)
	require.NoError(t, err)
	replayedBytes, err := dto.SerializeDecision(replayed)
	require.NoError(t, err)
	assert.Equal(t, firstBytes, replayedBytes)

	// The replay moved no budget.
	used, err := ledger.NewLedger(h.ledgerRepo).Usage(context.Background(), models.LedgerKey{
		CampaignId: campaign.Id,
		Dimension:  models.DimensionPoints,
		Period:     models.PeriodCampaign,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(30), used)
}

func TestEvalCampaign_budget_blocked_award_still_returns_decision(t *testing.T) {
	h := newTestHarness()
	// 300 * 1 = 300 points against a 100 point cap with a 95% hard
	// threshold: the award is blocked but the decision is returned.
	pointsCap := int64(100)
	campaign := buildCampaign(t, "allow_all", &pointsCap,
		amountRule("full cashback", 1, 0, []dto.EffectDto{awardEffectDto("purchase_amount")}, nil),
	)

	decision := h.eval(t, campaign, 300, "evt-1")

	require.Len(t, decision.Rules, 1)
	assert.Equal(t, models.RuleMatched, decision.Rules[0].State)
	assert.Equal(t, models.EffectBudgetBlocked, decision.Rules[0].Effects[0].Status)
	assert.Equal(t, int64(0), decision.Totals.Points)
}

func TestEvalCampaign_disabled_rule_is_skipped(t *testing.T) {
	h := newTestHarness()
	disabled := amountRule("disabled", 1, 0, []dto.EffectDto{awardEffectDto("100")}, nil)
	disabled.Enabled = false
	campaign := buildCampaign(t, "allow_all", nil, disabled)

	decision := h.eval(t, campaign, 300, "evt-1")

	require.Len(t, decision.Rules, 1)
	assert.Equal(t, models.RuleSkipped, decision.Rules[0].State)
	assert.Equal(t, models.EffectNotQueued, decision.Rules[0].Effects[0].Status)
}

func TestEvalCampaign_rejects_unpublished_campaign(t *testing.T) {
	h := newTestHarness()
	campaign := buildCampaign(t, "allow_all", nil)
	campaign.Status = models.CampaignDraft

	_, err := h.evaluator.EvalCampaign(context.Background(),
		CampaignEvaluationParameters{
			Campaign: campaign,
			Context: models.EvaluationContext{
				Payload:        map[string]any{},
				UserId:         "user-1",
				IdempotencyKey: "evt-1",
			},
		},
		CampaignEvaluationRepositories{Idempotency: h.idempotency},
	)
	assert.ErrorIs(t, err, models.ErrCampaignNotPublished)
}

func TestEvalCampaign_stores_decision_when_store_configured(t *testing.T) {
	h := newTestHarness()
	store := new(mocks.DecisionStore)
	store.On("StoreDecision", mock.Anything).Return(nil)
	campaign := buildCampaign(t, "allow_all", nil,
		amountRule("any purchase", 1, 0, []dto.EffectDto{awardEffectDto("10")}, nil),
	)

	_, err := h.evaluator.EvalCampaign(context.Background(),
		CampaignEvaluationParameters{
			Campaign: campaign,
			Context: models.EvaluationContext{
				Payload:        map[string]any{"purchase_amount": 300.0},
				UserId:         "user-1",
				Timestamp:      time.Now(),
				IdempotencyKey: "evt-1",
			},
		},
		CampaignEvaluationRepositories{Idempotency: h.idempotency, Decisions: store},
	)
	require.NoError(t, err)
	store.AssertExpectations(t)
}
