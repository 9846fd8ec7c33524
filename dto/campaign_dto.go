package dto

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/guregu/null/v5"

	"github.com/incentiva/campaign-engine/models"
	"github.com/incentiva/campaign-engine/models/conditions"
	"github.com/incentiva/campaign-engine/models/formula"
	"github.com/incentiva/campaign-engine/pure_utils"
)

// CampaignDto is the JSON shape produced by the authoring surface. The
// engine still validates everything here: a definition error rejects the
// whole campaign at load time, never at evaluation time.
type CampaignDto struct {
	Id                       string     `json:"id"`
	Name                     string     `json:"name"`
	Description              string     `json:"description"`
	Version                  int        `json:"version"`
	Status                   string     `json:"status"`
	ConflictPolicy           string     `json:"conflict_policy"`
	Timezone                 string     `json:"timezone"`
	IdempotencyWindowSeconds int        `json:"idempotency_window_seconds"`
	AtomicEffects            bool       `json:"atomic_effects"`
	Budgets                  BudgetsDto `json:"budgets"`
	Rules                    []RuleDto  `json:"rules"`
	CreatedAt                time.Time  `json:"created_at"`
}

type BudgetsDto struct {
	CampaignPointsCap    *int64 `json:"campaign_points_cap"`
	CampaignCouponsCap   *int64 `json:"campaign_coupons_cap"`
	SoftCapPercent       int    `json:"soft_cap_percent"`
	HardCapPercent       int    `json:"hard_cap_percent"`
	UserDailyPointsCap   *int64 `json:"user_daily_points_cap"`
	UserMonthlyPointsCap *int64 `json:"user_monthly_points_cap"`
}

type RuleDto struct {
	Id          string            `json:"id"`
	Name        string            `json:"name"`
	Priority    int               `json:"priority"`
	Enabled     bool              `json:"enabled"`
	Conditions  ConditionGroupDto `json:"conditions"`
	Effects     []EffectDto       `json:"effects"`
	ElseEffects []EffectDto       `json:"else_effects"`
}

type ConditionGroupDto struct {
	Operator string              `json:"operator"`
	Children []ConditionChildDto `json:"children"`
}

type ConditionChildDto struct {
	Group     *ConditionGroupDto `json:"group,omitempty"`
	Condition *ConditionDto      `json:"condition,omitempty"`
}

type ConditionDto struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    any    `json:"value"`
}

// DeserializeCampaign parses and validates a campaign definition.
func DeserializeCampaign(raw []byte) (models.Campaign, error) {
	var dto CampaignDto
	if err := json.Unmarshal(raw, &dto); err != nil {
		return models.Campaign{}, errors.Wrap(models.ErrCampaignDefinitionInvalid, err.Error())
	}
	return AdaptCampaign(dto)
}

func AdaptCampaign(dto CampaignDto) (models.Campaign, error) {
	campaignId, err := uuid.Parse(dto.Id)
	if err != nil {
		return models.Campaign{}, errors.Wrap(models.ErrCampaignDefinitionInvalid,
			fmt.Sprintf("campaign id %q is not a valid UUID", dto.Id))
	}

	status := models.CampaignStatusFrom(dto.Status)
	if status == models.UnknownCampaignStatus {
		return models.Campaign{}, errors.Wrap(models.ErrCampaignDefinitionInvalid,
			fmt.Sprintf("unknown campaign status %q", dto.Status))
	}

	policy := models.ConflictPolicyFrom(dto.ConflictPolicy)
	if policy == models.UnknownConflictPolicy {
		return models.Campaign{}, errors.Wrap(models.ErrCampaignDefinitionInvalid,
			fmt.Sprintf("unknown conflict policy %q", dto.ConflictPolicy))
	}

	timezone := time.UTC
	if dto.Timezone != "" {
		timezone, err = time.LoadLocation(dto.Timezone)
		if err != nil {
			return models.Campaign{}, errors.Wrap(models.ErrCampaignDefinitionInvalid,
				fmt.Sprintf("unknown timezone %q", dto.Timezone))
		}
	}

	budgets, err := adaptBudgets(dto.Budgets)
	if err != nil {
		return models.Campaign{}, err
	}

	rules, err := pure_utils.MapErr(dto.Rules, func(r RuleDto) (models.Rule, error) {
		return adaptRule(campaignId, r)
	})
	if err != nil {
		return models.Campaign{}, err
	}

	// Rules evaluate in ascending priority order; equal priorities keep
	// their declaration order.
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Priority < rules[j].Priority
	})

	window := time.Duration(dto.IdempotencyWindowSeconds) * time.Second
	if window <= 0 {
		window = 24 * time.Hour
	}

	return models.Campaign{
		Id:                campaignId,
		Name:              dto.Name,
		Description:       dto.Description,
		Version:           dto.Version,
		Status:            status,
		ConflictPolicy:    policy,
		Rules:             rules,
		Budgets:           budgets,
		Timezone:          timezone,
		IdempotencyWindow: window,
		AtomicEffects:     dto.AtomicEffects,
		CreatedAt:         dto.CreatedAt,
	}, nil
}

func adaptBudgets(dto BudgetsDto) (models.Budgets, error) {
	if dto.SoftCapPercent < 0 || dto.SoftCapPercent > 100 ||
		dto.HardCapPercent < 0 || dto.HardCapPercent > 100 {
		return models.Budgets{}, errors.Wrap(models.ErrBudgetsInvalid,
			"cap percentages must be between 0 and 100")
	}
	if dto.SoftCapPercent > dto.HardCapPercent {
		return models.Budgets{}, errors.Wrap(models.ErrBudgetsInvalid,
			"soft cap percentage cannot exceed the hard cap percentage")
	}

	return models.Budgets{
		CampaignPointsCap:    null.IntFromPtr(dto.CampaignPointsCap),
		CampaignCouponsCap:   null.IntFromPtr(dto.CampaignCouponsCap),
		SoftCapPercent:       dto.SoftCapPercent,
		HardCapPercent:       dto.HardCapPercent,
		UserDailyPointsCap:   null.IntFromPtr(dto.UserDailyPointsCap),
		UserMonthlyPointsCap: null.IntFromPtr(dto.UserMonthlyPointsCap),
	}, nil
}

func adaptRule(campaignId uuid.UUID, dto RuleDto) (models.Rule, error) {
	ruleId, err := uuid.Parse(dto.Id)
	if err != nil {
		return models.Rule{}, errors.Wrap(models.ErrCampaignDefinitionInvalid,
			fmt.Sprintf("rule id %q is not a valid UUID", dto.Id))
	}

	root, err := AdaptConditionGroup(dto.Conditions)
	if err != nil {
		return models.Rule{}, errors.Wrap(err, fmt.Sprintf("in rule %q", dto.Name))
	}
	if err := root.Validate(); err != nil {
		return models.Rule{}, errors.Wrap(
			errors.WithDetail(models.ErrConditionTreeInvalid, err.Error()),
			fmt.Sprintf("in rule %q: %s", dto.Name, err))
	}

	effects, err := pure_utils.MapErr(dto.Effects, AdaptEffect)
	if err != nil {
		return models.Rule{}, errors.Wrap(err, fmt.Sprintf("in rule %q", dto.Name))
	}
	elseEffects, err := pure_utils.MapErr(dto.ElseEffects, AdaptEffect)
	if err != nil {
		return models.Rule{}, errors.Wrap(err, fmt.Sprintf("in else effects of rule %q", dto.Name))
	}

	return models.Rule{
		Id:          ruleId,
		CampaignId:  campaignId,
		Name:        dto.Name,
		Priority:    dto.Priority,
		Enabled:     dto.Enabled,
		Root:        root,
		Effects:     effects,
		ElseEffects: elseEffects,
	}, nil
}

func AdaptConditionGroup(dto ConditionGroupDto) (conditions.Group, error) {
	operator := conditions.GroupOperatorFrom(dto.Operator)
	if operator == conditions.UnknownGroupOperator {
		return conditions.Group{}, errors.Wrap(models.ErrConditionTreeInvalid,
			fmt.Sprintf("unknown group operator %q", dto.Operator))
	}

	group := conditions.Group{Operator: operator}
	for i, child := range dto.Children {
		if (child.Group == nil) == (child.Condition == nil) {
			return conditions.Group{}, errors.Wrap(models.ErrConditionTreeInvalid,
				fmt.Sprintf("child %d must be exactly one of group or condition", i))
		}
		if child.Group != nil {
			nested, err := AdaptConditionGroup(*child.Group)
			if err != nil {
				return conditions.Group{}, err
			}
			group = group.AddGroup(nested)
			continue
		}
		condition, err := adaptCondition(*child.Condition)
		if err != nil {
			return conditions.Group{}, err
		}
		group = group.AddCondition(condition)
	}
	return group, nil
}

func adaptCondition(dto ConditionDto) (conditions.Condition, error) {
	operator := conditions.ConditionOperatorFrom(dto.Operator)
	if operator == conditions.UnknownConditionOperator {
		return conditions.Condition{}, errors.Wrap(models.ErrConditionTreeInvalid,
			fmt.Sprintf("unknown condition operator %q", dto.Operator))
	}

	value := dto.Value
	if operator == conditions.OperatorBetween {
		bounds, ok := dto.Value.([]any)
		if !ok || len(bounds) != 2 {
			return conditions.Condition{}, errors.Wrap(models.ErrConditionTreeInvalid,
				fmt.Sprintf("between literal of field %q must be a two-element range", dto.Field))
		}
		value = conditions.Range{Low: bounds[0], High: bounds[1]}
	}

	return conditions.Condition{
		Field:    dto.Field,
		Operator: operator,
		Value:    value,
	}, nil
}

type EffectDto struct {
	Id         string          `json:"id"`
	Type       string          `json:"type"`
	Parameters json.RawMessage `json:"parameters"`
}

type awardPointsParamsDto struct {
	Formula string `json:"formula"`
}

type createCouponParamsDto struct {
	Value        float64  `json:"value"`
	ValueKind    string   `json:"value_kind"`
	CodeMode     string   `json:"code_mode"`
	FixedCode    string   `json:"fixed_code"`
	Stackable    bool     `json:"stackable"`
	ValidityDays int      `json:"validity_days"`
	Channels     []string `json:"channels"`
}

type sendEmailParamsDto struct {
	Template string `json:"template"`
	Subject  string `json:"subject"`
}

type updateTierParamsDto struct {
	TargetTier string `json:"target_tier"`
	Reason     string `json:"reason"`
}

type addToSegmentParamsDto struct {
	SegmentId string `json:"segment_id"`
}

// AdaptEffect turns the authored effect (type + parameter bag) into the
// engine's tagged variant, so malformed parameters are caught at load
// rather than mid-dispatch.
func AdaptEffect(dto EffectDto) (models.Effect, error) {
	effectId, err := uuid.Parse(dto.Id)
	if err != nil {
		return models.Effect{}, errors.Wrap(models.ErrEffectParametersInvalid,
			fmt.Sprintf("effect id %q is not a valid UUID", dto.Id))
	}

	effectType := models.EffectTypeFrom(dto.Type)
	effect := models.Effect{Id: effectId, Type: effectType}

	decodeParams := func(target any) error {
		if err := json.Unmarshal(dto.Parameters, target); err != nil {
			return errors.Wrap(models.ErrEffectParametersInvalid,
				fmt.Sprintf("%s effect: %s", dto.Type, err))
		}
		return nil
	}

	switch effectType {
	case models.EffectAwardPoints:
		var params awardPointsParamsDto
		if err := decodeParams(&params); err != nil {
			return models.Effect{}, err
		}
		ast, err := formula.Parse(params.Formula)
		if err != nil {
			return models.Effect{}, errors.Wrap(
				errors.WithDetail(models.ErrEffectParametersInvalid, err.Error()),
				fmt.Sprintf("award_points formula %q: %s", params.Formula, err))
		}
		effect.AwardPoints = &models.AwardPointsParams{Formula: params.Formula, Ast: ast}

	case models.EffectCreateCoupon:
		var params createCouponParamsDto
		if err := decodeParams(&params); err != nil {
			return models.Effect{}, err
		}
		valueKind := models.CouponValueKindFrom(params.ValueKind)
		if valueKind == models.UnknownCouponValueKind {
			return models.Effect{}, errors.Wrap(models.ErrEffectParametersInvalid,
				fmt.Sprintf("unknown coupon value kind %q", params.ValueKind))
		}
		codeMode := models.CouponCodeModeFrom(params.CodeMode)
		if codeMode == models.UnknownCouponCodeMode {
			return models.Effect{}, errors.Wrap(models.ErrEffectParametersInvalid,
				fmt.Sprintf("unknown coupon code mode %q", params.CodeMode))
		}
		if codeMode == models.CouponCodeFixed && params.FixedCode == "" {
			return models.Effect{}, errors.Wrap(models.ErrEffectParametersInvalid,
				"fixed code mode requires a code")
		}
		if params.ValidityDays <= 0 {
			return models.Effect{}, errors.Wrap(models.ErrEffectParametersInvalid,
				"coupon validity must be at least one day")
		}
		effect.CreateCoupon = &models.CreateCouponParams{
			Value:        params.Value,
			ValueKind:    valueKind,
			CodeMode:     codeMode,
			FixedCode:    params.FixedCode,
			Stackable:    params.Stackable,
			ValidityDays: params.ValidityDays,
			Channels:     params.Channels,
		}

	case models.EffectSendEmail:
		var params sendEmailParamsDto
		if err := decodeParams(&params); err != nil {
			return models.Effect{}, err
		}
		if params.Template == "" {
			return models.Effect{}, errors.Wrap(models.ErrEffectParametersInvalid,
				"send_email requires a template")
		}
		effect.SendEmail = &models.SendEmailParams{Template: params.Template, Subject: params.Subject}

	case models.EffectUpdateTier:
		var params updateTierParamsDto
		if err := decodeParams(&params); err != nil {
			return models.Effect{}, err
		}
		if params.TargetTier == "" {
			return models.Effect{}, errors.Wrap(models.ErrEffectParametersInvalid,
				"update_tier requires a target tier")
		}
		effect.UpdateTier = &models.UpdateTierParams{TargetTier: params.TargetTier, Reason: params.Reason}

	case models.EffectAddToSegment:
		var params addToSegmentParamsDto
		if err := decodeParams(&params); err != nil {
			return models.Effect{}, err
		}
		if params.SegmentId == "" {
			return models.Effect{}, errors.Wrap(models.ErrEffectParametersInvalid,
				"add_to_segment requires a segment id")
		}
		effect.AddToSegment = &models.AddToSegmentParams{SegmentId: params.SegmentId}

	default:
		return models.Effect{}, errors.Wrap(models.ErrEffectParametersInvalid,
			fmt.Sprintf("unknown effect type %q", dto.Type))
	}

	return effect, nil
}
