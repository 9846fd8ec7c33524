package dto

import (
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/incentiva/campaign-engine/models"
	"github.com/incentiva/campaign-engine/models/conditions"
	"github.com/incentiva/campaign-engine/pure_utils"
)

type DecisionDto struct {
	Id             string             `json:"id"`
	CampaignId     string             `json:"campaign_id"`
	UserId         string             `json:"user_id"`
	IdempotencyKey string             `json:"idempotency_key"`
	Policy         string             `json:"policy"`
	CreatedAt      time.Time          `json:"created_at"`
	Rules          []RuleExecutionDto `json:"rules"`
	Totals         BudgetDeltaDto     `json:"totals"`
}

type RuleExecutionDto struct {
	RuleId     string               `json:"rule_id"`
	Name       string               `json:"name"`
	Priority   int                  `json:"priority"`
	State      string               `json:"state"`
	ElseBranch bool                 `json:"else_branch"`
	Payout     int64                `json:"payout"`
	Evaluation *GroupEvaluationDto  `json:"evaluation,omitempty"`
	Effects    []EffectExecutionDto `json:"effects"`
}

type EffectExecutionDto struct {
	EffectId   string `json:"effect_id"`
	EffectType string `json:"effect_type"`
	Status     string `json:"status"`
	Points     int64  `json:"points"`
	Error      string `json:"error,omitempty"`
}

type BudgetDeltaDto struct {
	Points  int64 `json:"points"`
	Coupons int64 `json:"coupons"`
}

type GroupEvaluationDto struct {
	Operator string               `json:"operator"`
	Result   bool                 `json:"result"`
	Children []ChildEvaluationDto `json:"children,omitempty"`
}

type ChildEvaluationDto struct {
	Group     *GroupEvaluationDto     `json:"group,omitempty"`
	Condition *ConditionEvaluationDto `json:"condition,omitempty"`
}

type ConditionEvaluationDto struct {
	Field    string   `json:"field"`
	Operator string   `json:"operator"`
	Result   bool     `json:"result"`
	Errors   []string `json:"errors,omitempty"`
}

func AdaptDecisionDto(decision models.Decision) DecisionDto {
	return DecisionDto{
		Id:             decision.Id.String(),
		CampaignId:     decision.CampaignId.String(),
		UserId:         decision.UserId,
		IdempotencyKey: decision.IdempotencyKey,
		Policy:         decision.Policy.String(),
		CreatedAt:      decision.CreatedAt,
		Rules:          pure_utils.Map(decision.Rules, AdaptRuleExecutionDto),
		Totals:         BudgetDeltaDto{Points: decision.Totals.Points, Coupons: decision.Totals.Coupons},
	}
}

func AdaptRuleExecutionDto(rule models.RuleExecution) RuleExecutionDto {
	dto := RuleExecutionDto{
		RuleId:     rule.RuleId.String(),
		Name:       rule.Name,
		Priority:   rule.Priority,
		State:      rule.State.String(),
		ElseBranch: rule.ElseBranch,
		Payout:     rule.Payout,
		Effects:    pure_utils.Map(rule.Effects, AdaptEffectExecutionDto),
	}
	if rule.Evaluation != nil {
		evaluation := AdaptGroupEvaluationDto(*rule.Evaluation)
		dto.Evaluation = &evaluation
	}
	return dto
}

func AdaptEffectExecutionDto(effect models.EffectExecution) EffectExecutionDto {
	return EffectExecutionDto{
		EffectId:   effect.EffectId.String(),
		EffectType: effect.EffectType.String(),
		Status:     effect.Status.String(),
		Points:     effect.Points,
		Error:      effect.Error,
	}
}

func AdaptGroupEvaluationDto(evaluation conditions.GroupEvaluation) GroupEvaluationDto {
	return GroupEvaluationDto{
		Operator: evaluation.Operator.String(),
		Result:   evaluation.Result,
		Children: pure_utils.Map(evaluation.Children, func(child conditions.ChildEvaluation) ChildEvaluationDto {
			var dto ChildEvaluationDto
			if child.Group != nil {
				group := AdaptGroupEvaluationDto(*child.Group)
				dto.Group = &group
			}
			if child.Condition != nil {
				condition := ConditionEvaluationDto{
					Field:    child.Condition.Field,
					Operator: child.Condition.Operator.String(),
					Result:   child.Condition.Result,
					Errors: pure_utils.Map(child.Condition.Errors, func(err error) string {
						return err.Error()
					}),
				}
				dto.Condition = &condition
			}
			return dto
		}),
	}
}

// SerializeDecision is the canonical byte form stored in the idempotency
// cache; replaying an idempotency key returns these bytes unchanged, so
// two replays are byte-identical.
func SerializeDecision(decision models.Decision) ([]byte, error) {
	return json.Marshal(AdaptDecisionDto(decision))
}

func DeserializeDecision(raw []byte) (models.Decision, error) {
	var dto DecisionDto
	if err := json.Unmarshal(raw, &dto); err != nil {
		return models.Decision{}, errors.Wrap(err, "can't deserialize decision record")
	}
	return adaptDecision(dto)
}

func adaptDecision(dto DecisionDto) (models.Decision, error) {
	decisionId, err := uuid.Parse(dto.Id)
	if err != nil {
		return models.Decision{}, errors.Wrap(err, "bad decision id")
	}
	campaignId, err := uuid.Parse(dto.CampaignId)
	if err != nil {
		return models.Decision{}, errors.Wrap(err, "bad campaign id")
	}

	rules, err := pure_utils.MapErr(dto.Rules, adaptRuleExecution)
	if err != nil {
		return models.Decision{}, err
	}

	return models.Decision{
		Id:             decisionId,
		CampaignId:     campaignId,
		UserId:         dto.UserId,
		IdempotencyKey: dto.IdempotencyKey,
		Policy:         models.ConflictPolicyFrom(dto.Policy),
		CreatedAt:      dto.CreatedAt,
		Rules:          rules,
		Totals:         models.BudgetDelta{Points: dto.Totals.Points, Coupons: dto.Totals.Coupons},
	}, nil
}

func adaptRuleExecution(dto RuleExecutionDto) (models.RuleExecution, error) {
	ruleId, err := uuid.Parse(dto.RuleId)
	if err != nil {
		return models.RuleExecution{}, errors.Wrap(err, "bad rule id")
	}

	effects, err := pure_utils.MapErr(dto.Effects, adaptEffectExecution)
	if err != nil {
		return models.RuleExecution{}, err
	}

	rule := models.RuleExecution{
		RuleId:     ruleId,
		Name:       dto.Name,
		Priority:   dto.Priority,
		State:      ruleMatchStateFrom(dto.State),
		ElseBranch: dto.ElseBranch,
		Payout:     dto.Payout,
		Effects:    effects,
	}
	if dto.Evaluation != nil {
		evaluation := adaptGroupEvaluation(*dto.Evaluation)
		rule.Evaluation = &evaluation
	}
	return rule, nil
}

func adaptEffectExecution(dto EffectExecutionDto) (models.EffectExecution, error) {
	effectId, err := uuid.Parse(dto.EffectId)
	if err != nil {
		return models.EffectExecution{}, errors.Wrap(err, "bad effect id")
	}
	return models.EffectExecution{
		EffectId:   effectId,
		EffectType: models.EffectTypeFrom(dto.EffectType),
		Status:     effectStatusFrom(dto.Status),
		Points:     dto.Points,
		Error:      dto.Error,
	}, nil
}

func adaptGroupEvaluation(dto GroupEvaluationDto) conditions.GroupEvaluation {
	return conditions.GroupEvaluation{
		Operator: conditions.GroupOperatorFrom(dto.Operator),
		Result:   dto.Result,
		Children: pure_utils.Map(dto.Children, func(child ChildEvaluationDto) conditions.ChildEvaluation {
			var adapted conditions.ChildEvaluation
			if child.Group != nil {
				group := adaptGroupEvaluation(*child.Group)
				adapted.Group = &group
			}
			if child.Condition != nil {
				condition := conditions.ConditionEvaluation{
					Field:    child.Condition.Field,
					Operator: conditions.ConditionOperatorFrom(child.Condition.Operator),
					Result:   child.Condition.Result,
					Errors: pure_utils.Map(child.Condition.Errors, func(message string) error {
						return errors.New(message)
					}),
				}
				adapted.Condition = &condition
			}
			return adapted
		}),
	}
}

func ruleMatchStateFrom(s string) models.RuleMatchState {
	switch s {
	case "skipped":
		return models.RuleSkipped
	case "matched":
		return models.RuleMatched
	case "not_matched":
		return models.RuleNotMatched
	}
	return models.RuleNotEvaluated
}

func effectStatusFrom(s string) models.EffectStatus {
	switch s {
	case "applied":
		return models.EffectApplied
	case "soft_cap_warning":
		return models.EffectSoftCapWarning
	case "budget_blocked":
		return models.EffectBudgetBlocked
	case "failed":
		return models.EffectFailed
	}
	return models.EffectNotQueued
}
