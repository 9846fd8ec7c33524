package evaluate_campaign

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/incentiva/campaign-engine/dto"
	"github.com/incentiva/campaign-engine/models"
	"github.com/incentiva/campaign-engine/models/conditions"
	"github.com/incentiva/campaign-engine/usecases/condition_eval"
	"github.com/incentiva/campaign-engine/usecases/effect_dispatch"
	"github.com/incentiva/campaign-engine/usecases/formula_eval"
	"github.com/incentiva/campaign-engine/usecases/payload"
	"github.com/incentiva/campaign-engine/utils"
)

// Maximum number of rules whose conditions are evaluated concurrently
const MAX_CONCURRENT_RULE_EXECUTIONS = 5

type CampaignEvaluationParameters struct {
	Campaign models.Campaign
	Context  models.EvaluationContext
}

// IdempotencyRepository stores serialized decisions keyed by
// (campaign, idempotency key) for the campaign's replay window.
type IdempotencyRepository interface {
	GetDecision(ctx context.Context, campaignId uuid.UUID, key string) ([]byte, error)
	SetDecision(ctx context.Context, campaignId uuid.UUID, key string, record []byte, window time.Duration) error
}

// DecisionStore persists the full decision record. Optional: evaluation
// proceeds without one.
type DecisionStore interface {
	StoreDecision(ctx context.Context, decision models.Decision) error
}

type CampaignEvaluationRepositories struct {
	Idempotency IdempotencyRepository
	Decisions   DecisionStore
}

type Evaluator struct {
	environment condition_eval.EvaluatorEnvironment
	dispatcher  *effect_dispatch.Dispatcher
}

func NewEvaluator(dispatcher *effect_dispatch.Dispatcher) *Evaluator {
	return &Evaluator{
		environment: condition_eval.NewEvaluatorEnvironment(),
		dispatcher:  dispatcher,
	}
}

// ruleOutcome is the intermediate result of one rule before effects are
// dispatched: match state, trace, and the effect list the rule queues
// (main effects on match, else effects otherwise). Point amounts are
// computed here once and reused by both the conflict policy and the
// dispatcher.
type ruleOutcome struct {
	rule       models.Rule
	state      models.RuleMatchState
	elseBranch bool
	payout     int64
	evaluation *conditions.GroupEvaluation
	queued     []effect_dispatch.QueuedEffect
}

// EvalCampaign evaluates one event against a published campaign and
// returns the terminal decision. A previously stored decision for the
// same idempotency key is returned as-is, with no ledger movement and
// no effect dispatch.
func (e *Evaluator) EvalCampaign(
	ctx context.Context,
	params CampaignEvaluationParameters,
	repositories CampaignEvaluationRepositories,
) (decision models.Decision, err error) {
	logger := utils.LoggerFromContext(ctx)
	start := time.Now()
	///////////////////////////////
	// Recover in case the evaluation panicked, so the caller sees a
	// sentinel error instead of a crashed worker.
	///////////////////////////////
	defer func() {
		if r := recover(); r != nil {
			logger.ErrorContext(ctx, "recovered from panic during campaign evaluation. stacktrace from panic: ")
			logger.ErrorContext(ctx, string(debug.Stack()))

			err = models.ErrPanicInCampaignEvaluation
			decision = models.Decision{}
		}
	}()

	campaign := params.Campaign
	evalCtx := params.Context

	if campaign.Status != models.CampaignPublished {
		return models.Decision{}, errors.Wrap(models.ErrCampaignNotPublished,
			fmt.Sprintf("campaign %s has status %s", campaign.Id, campaign.Status))
	}

	logger.InfoContext(ctx, "Evaluating campaign",
		"campaignId", campaign.Id.String(),
		"userId", evalCtx.UserId,
		"idempotencyKey", evalCtx.IdempotencyKey)

	tracer := utils.OpenTelemetryTracerFromContext(ctx)
	ctx, span := tracer.Start(ctx, "evaluate_campaign.EvalCampaign",
		trace.WithAttributes(
			attribute.String("campaign_id", campaign.Id.String()),
			attribute.String("user_id", evalCtx.UserId),
			attribute.String("conflict_policy", campaign.ConflictPolicy.String()),
		),
	)
	defer span.End()

	if stored, errIdem := repositories.Idempotency.GetDecision(
		ctx, campaign.Id, evalCtx.IdempotencyKey); errIdem == nil {
		replayed, errReplay := dto.DeserializeDecision(stored)
		if errReplay != nil {
			return models.Decision{}, errors.Wrap(errReplay, "corrupt idempotency record")
		}
		logger.InfoContext(ctx, "Replaying stored decision",
			"campaignId", campaign.Id.String(),
			"idempotencyKey", evalCtx.IdempotencyKey)
		evaluationsTotal.WithLabelValues(campaign.ConflictPolicy.String(), "replayed").Inc()
		return replayed, nil
	} else if !errors.Is(errIdem, models.NotFoundError) {
		return models.Decision{}, errors.Wrap(errIdem, "failed to read idempotency record")
	}

	reader := payload.NewFieldReader(evalCtx)

	var ruleExecutions []models.RuleExecution
	var totals models.BudgetDelta

	switch campaign.ConflictPolicy {
	case models.FirstMatch:
		ruleExecutions, totals = e.evalFirstMatch(ctx, campaign, evalCtx, reader)
	default:
		outcomes, errEval := e.evalAllRules(ctx, campaign, reader)
		if errEval != nil {
			return models.Decision{}, errEval
		}
		if campaign.ConflictPolicy == models.HighestPayout {
			electHighestPayoutWinner(outcomes)
		}
		ruleExecutions, totals = e.dispatchOutcomes(ctx, campaign, evalCtx, outcomes)
	}

	decision = models.Decision{
		Id:             uuid.New(),
		CampaignId:     campaign.Id,
		UserId:         evalCtx.UserId,
		IdempotencyKey: evalCtx.IdempotencyKey,
		Policy:         campaign.ConflictPolicy,
		CreatedAt:      time.Now(),
		Rules:          ruleExecutions,
		Totals:         totals,
	}

	record, err := dto.SerializeDecision(decision)
	if err != nil {
		return models.Decision{}, errors.Wrap(err, "failed to serialize decision")
	}
	if err := repositories.Idempotency.SetDecision(ctx, campaign.Id,
		evalCtx.IdempotencyKey, record, campaign.IdempotencyWindow); err != nil {
		return models.Decision{}, errors.Wrap(err, "failed to store idempotency record")
	}

	if repositories.Decisions != nil {
		if errStore := repositories.Decisions.StoreDecision(ctx, decision); errStore != nil {
			// The effects already ran and the idempotency record is
			// written, so a failed archive write must not fail the
			// evaluation.
			logger.ErrorContext(ctx, "failed to persist decision",
				"decisionId", decision.Id.String(), "error", errStore.Error())
		}
	}

	observeDecision(campaign, decision)
	evaluationDuration.WithLabelValues(campaign.ConflictPolicy.String()).
		Observe(time.Since(start).Seconds())
	logger.InfoContext(ctx, "Campaign evaluated",
		"campaignId", campaign.Id.String(),
		"decisionId", decision.Id.String(),
		"points", totals.Points,
		"coupons", totals.Coupons,
		"durationMs", time.Since(start).Milliseconds())

	return decision, nil
}

// evalFirstMatch walks rules in priority order and stops evaluating at
// the first match. Rules before the winner dispatch their else effects;
// rules after it are reported not evaluated.
func (e *Evaluator) evalFirstMatch(
	ctx context.Context,
	campaign models.Campaign,
	evalCtx models.EvaluationContext,
	reader payload.FieldReader,
) ([]models.RuleExecution, models.BudgetDelta) {
	executions := make([]models.RuleExecution, 0, len(campaign.Rules))
	totals := models.BudgetDelta{}
	matched := false

	for _, rule := range campaign.Rules {
		outcome := ruleOutcome{rule: rule}

		switch {
		case !rule.Enabled:
			outcome.state = models.RuleSkipped
		case matched:
			outcome.state = models.RuleNotEvaluated
		default:
			e.evalRuleConditions(ctx, &outcome, reader)
			if outcome.state == models.RuleMatched {
				matched = true
			}
		}

		execution, delta := e.dispatchOutcome(ctx, campaign, evalCtx, outcome)
		totals.Points += delta.Points
		totals.Coupons += delta.Coupons
		executions = append(executions, execution)
	}
	return executions, totals
}

// evalAllRules evaluates every enabled rule's conditions concurrently,
// writing into an indexed slice so the output order stays the priority
// order. Effects are not dispatched here.
func (e *Evaluator) evalAllRules(
	ctx context.Context,
	campaign models.Campaign,
	reader payload.FieldReader,
) ([]ruleOutcome, error) {
	outcomes := make([]ruleOutcome, len(campaign.Rules))

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(MAX_CONCURRENT_RULE_EXECUTIONS)

	for i, rule := range campaign.Rules {
		group.Go(func() error {
			// return early if ctx is done
			select {
			case <-ctx.Done():
				return errors.Wrap(ctx.Err(), fmt.Sprintf(
					"context cancelled before evaluating rule %s (%s)", rule.Name, rule.Id))
			default:
			}

			outcome := ruleOutcome{rule: rule}
			if !rule.Enabled {
				outcome.state = models.RuleSkipped
			} else {
				e.evalRuleConditions(ctx, &outcome, reader)
			}
			outcomes[i] = outcome
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// evalRuleConditions evaluates the rule's condition tree, selects the
// effect branch, and precomputes point amounts for the queued effects.
func (e *Evaluator) evalRuleConditions(
	ctx context.Context,
	outcome *ruleOutcome,
	reader payload.FieldReader,
) {
	tracer := utils.OpenTelemetryTracerFromContext(ctx)
	_, span := tracer.Start(ctx, "evaluate_campaign.evalRuleConditions",
		trace.WithAttributes(
			attribute.String("rule_id", outcome.rule.Id.String()),
			attribute.String("rule_name", outcome.rule.Name),
		))
	defer span.End()

	matched, evaluation := condition_eval.EvaluateGroup(
		e.environment, reader, outcome.rule.Root, condition_eval.ShortCircuit)
	outcome.evaluation = &evaluation

	branch := outcome.rule.Effects
	if matched {
		outcome.state = models.RuleMatched
	} else {
		outcome.state = models.RuleNotMatched
		outcome.elseBranch = true
		branch = outcome.rule.ElseEffects
	}

	outcome.queued = make([]effect_dispatch.QueuedEffect, 0, len(branch))
	for _, effect := range branch {
		queued := effect_dispatch.QueuedEffect{Effect: effect}
		if effect.Type == models.EffectAwardPoints {
			points, err := formula_eval.ComputeAwardPoints(reader, *effect.AwardPoints)
			queued.Points = points
			queued.FormulaErr = err
			outcome.payout += points
		}
		outcome.queued = append(outcome.queued, queued)
	}
}

// electHighestPayoutWinner demotes every matched rule except the one
// with the strictly greatest payout. Outcomes arrive sorted by priority,
// so on a payout tie the first (lowest priority value) matched rule
// stays the winner. Losers keep their matched state but dispatch
// nothing.
func electHighestPayoutWinner(outcomes []ruleOutcome) {
	winner := -1
	var best int64
	for i := range outcomes {
		if outcomes[i].state != models.RuleMatched {
			continue
		}
		if winner == -1 || outcomes[i].payout > best {
			winner = i
			best = outcomes[i].payout
		}
	}
	for i := range outcomes {
		if outcomes[i].state == models.RuleMatched && i != winner {
			outcomes[i].queued = nil
		}
	}
}

func (e *Evaluator) dispatchOutcomes(
	ctx context.Context,
	campaign models.Campaign,
	evalCtx models.EvaluationContext,
	outcomes []ruleOutcome,
) ([]models.RuleExecution, models.BudgetDelta) {
	executions := make([]models.RuleExecution, 0, len(outcomes))
	totals := models.BudgetDelta{}

	for _, outcome := range outcomes {
		execution, delta := e.dispatchOutcome(ctx, campaign, evalCtx, outcome)
		totals.Points += delta.Points
		totals.Coupons += delta.Coupons
		executions = append(executions, execution)
	}
	return executions, totals
}

// dispatchOutcome runs the outcome's queued effects through the budget
// ledger and collaborators, sequentially, in the effect list's authored
// order.
func (e *Evaluator) dispatchOutcome(
	ctx context.Context,
	campaign models.Campaign,
	evalCtx models.EvaluationContext,
	outcome ruleOutcome,
) (models.RuleExecution, models.BudgetDelta) {
	execution := models.RuleExecution{
		RuleId:     outcome.rule.Id,
		Name:       outcome.rule.Name,
		Priority:   outcome.rule.Priority,
		State:      outcome.state,
		ElseBranch: outcome.elseBranch,
		Payout:     outcome.payout,
		Evaluation: outcome.evaluation,
	}

	// A skipped or unevaluated rule, and a demoted HighestPayout loser,
	// report every authored effect as not queued.
	if len(outcome.queued) == 0 {
		branch := outcome.rule.Effects
		if outcome.elseBranch {
			branch = outcome.rule.ElseEffects
		}
		for _, effect := range branch {
			execution.Effects = append(execution.Effects, models.EffectExecution{
				EffectId:   effect.Id,
				EffectType: effect.Type,
				Status:     models.EffectNotQueued,
			})
		}
		return execution, models.BudgetDelta{}
	}

	effects, delta := e.dispatcher.DispatchEffects(ctx, campaign, evalCtx, outcome.queued)
	execution.Effects = effects
	return execution, delta
}

func observeDecision(campaign models.Campaign, decision models.Decision) {
	evaluationsTotal.WithLabelValues(campaign.ConflictPolicy.String(), "evaluated").Inc()
	for _, rule := range decision.Rules {
		for _, effect := range rule.Effects {
			effectsTotal.WithLabelValues(effect.EffectType.String(), effect.Status.String()).Inc()
		}
	}
}
