package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/guregu/null/v5"
)

type CampaignStatus int

const (
	CampaignDraft CampaignStatus = iota
	CampaignPublished
	CampaignPaused
	UnknownCampaignStatus
)

var ValidCampaignStatuses = []CampaignStatus{CampaignDraft, CampaignPublished, CampaignPaused}

func (s CampaignStatus) String() string {
	switch s {
	case CampaignDraft:
		return "draft"
	case CampaignPublished:
		return "published"
	case CampaignPaused:
		return "paused"
	}
	return "unknown"
}

func CampaignStatusFrom(s string) CampaignStatus {
	switch s {
	case "draft":
		return CampaignDraft
	case "published":
		return CampaignPublished
	case "paused":
		return CampaignPaused
	}
	return UnknownCampaignStatus
}

type ConflictPolicy int

const (
	AllowAll ConflictPolicy = iota
	FirstMatch
	HighestPayout
	UnknownConflictPolicy
)

var ValidConflictPolicies = []ConflictPolicy{AllowAll, FirstMatch, HighestPayout}

func (p ConflictPolicy) String() string {
	switch p {
	case AllowAll:
		return "allow_all"
	case FirstMatch:
		return "first_match"
	case HighestPayout:
		return "highest_payout"
	}
	return "unknown"
}

func ConflictPolicyFrom(s string) ConflictPolicy {
	switch s {
	case "allow_all":
		return AllowAll
	case "first_match":
		return FirstMatch
	case "highest_payout":
		return HighestPayout
	}
	return UnknownConflictPolicy
}

// Budgets carries the campaign's caps. A null cap means the dimension is
// uncapped. The soft/hard percentage pair is shared by the points and
// coupons dimensions.
type Budgets struct {
	CampaignPointsCap    null.Int
	CampaignCouponsCap   null.Int
	SoftCapPercent       int
	HardCapPercent       int
	UserDailyPointsCap   null.Int
	UserMonthlyPointsCap null.Int
}

// Campaign is immutable once loaded for evaluation. Rules are kept sorted
// by ascending priority; AdaptCampaign guarantees the ordering at load.
type Campaign struct {
	Id             uuid.UUID
	Name           string
	Description    string
	Version        int
	Status         CampaignStatus
	ConflictPolicy ConflictPolicy
	Rules          []Rule
	Budgets        Budgets

	// Timezone in which daily/monthly ledger periods are computed.
	Timezone *time.Location

	// Window during which an evaluation with an already seen idempotency
	// key is replayed instead of re-executed.
	IdempotencyWindow time.Duration

	// When set, a matched rule's effect list is budget-checked as a set:
	// either every effect gets its reservation or none executes.
	AtomicEffects bool

	CreatedAt time.Time
}
