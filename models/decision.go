package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/incentiva/campaign-engine/models/conditions"
)

type RuleMatchState int

const (
	RuleSkipped RuleMatchState = iota
	RuleNotEvaluated
	RuleMatched
	RuleNotMatched
)

func (s RuleMatchState) String() string {
	switch s {
	case RuleSkipped:
		return "skipped"
	case RuleNotEvaluated:
		return "not_evaluated"
	case RuleMatched:
		return "matched"
	case RuleNotMatched:
		return "not_matched"
	}
	return "unknown"
}

type EffectStatus int

const (
	EffectNotQueued EffectStatus = iota
	EffectApplied
	EffectSoftCapWarning
	EffectBudgetBlocked
	EffectFailed
)

func (s EffectStatus) String() string {
	switch s {
	case EffectNotQueued:
		return "not_queued"
	case EffectApplied:
		return "applied"
	case EffectSoftCapWarning:
		return "soft_cap_warning"
	case EffectBudgetBlocked:
		return "budget_blocked"
	case EffectFailed:
		return "failed"
	}
	return "unknown"
}

// EffectExecution is the dispatch outcome of one effect.
type EffectExecution struct {
	EffectId   uuid.UUID
	EffectType EffectType
	Status     EffectStatus

	// Points carries the computed award for applied AwardPoints effects.
	Points int64
	Error  string
}

// RuleExecution records one rule's match state and the outcome of the
// effect list that was queued for it (main on match, else otherwise).
type RuleExecution struct {
	RuleId     uuid.UUID
	Name       string
	Priority   int
	State      RuleMatchState
	ElseBranch bool

	// Payout is the points value used by the HighestPayout policy.
	Payout int64

	Evaluation *conditions.GroupEvaluation
	Effects    []EffectExecution
}

type BudgetDelta struct {
	Points  int64
	Coupons int64
}

// Decision is the terminal output of one campaign evaluation. Replaying
// the same idempotency key returns the previously stored decision,
// byte-identical once serialized.
type Decision struct {
	Id             uuid.UUID
	CampaignId     uuid.UUID
	UserId         string
	IdempotencyKey string
	Policy         ConflictPolicy
	CreatedAt      time.Time

	Rules  []RuleExecution
	Totals BudgetDelta
}
