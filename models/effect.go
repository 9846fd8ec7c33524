package models

import (
	"github.com/google/uuid"

	"github.com/incentiva/campaign-engine/models/formula"
)

type EffectType int

const (
	EffectAwardPoints EffectType = iota
	EffectCreateCoupon
	EffectSendEmail
	EffectUpdateTier
	EffectAddToSegment
	UnknownEffectType
)

func (t EffectType) String() string {
	switch t {
	case EffectAwardPoints:
		return "award_points"
	case EffectCreateCoupon:
		return "create_coupon"
	case EffectSendEmail:
		return "send_email"
	case EffectUpdateTier:
		return "update_tier"
	case EffectAddToSegment:
		return "add_to_segment"
	}
	return "unknown"
}

func EffectTypeFrom(s string) EffectType {
	switch s {
	case "award_points":
		return EffectAwardPoints
	case "create_coupon":
		return EffectCreateCoupon
	case "send_email":
		return EffectSendEmail
	case "update_tier":
		return EffectUpdateTier
	case "add_to_segment":
		return EffectAddToSegment
	}
	return UnknownEffectType
}

// Effect is a tagged variant: exactly the parameter struct matching Type
// is non-nil, enforced when the campaign definition is adapted.
type Effect struct {
	Id   uuid.UUID
	Type EffectType

	AwardPoints  *AwardPointsParams
	CreateCoupon *CreateCouponParams
	SendEmail    *SendEmailParams
	UpdateTier   *UpdateTierParams
	AddToSegment *AddToSegmentParams
}

type AwardPointsParams struct {
	// Formula is the authored expression; Ast is its parsed form,
	// produced at campaign load.
	Formula string
	Ast     formula.Node
}

type CouponCodeMode int

const (
	CouponCodeGenerated CouponCodeMode = iota
	CouponCodeFixed
	UnknownCouponCodeMode
)

func (m CouponCodeMode) String() string {
	switch m {
	case CouponCodeGenerated:
		return "generated"
	case CouponCodeFixed:
		return "fixed"
	}
	return "unknown"
}

func CouponCodeModeFrom(s string) CouponCodeMode {
	switch s {
	case "generated":
		return CouponCodeGenerated
	case "fixed":
		return CouponCodeFixed
	}
	return UnknownCouponCodeMode
}

type CouponValueKind int

const (
	CouponValuePercent CouponValueKind = iota
	CouponValueFixedAmount
	UnknownCouponValueKind
)

func (k CouponValueKind) String() string {
	switch k {
	case CouponValuePercent:
		return "percent"
	case CouponValueFixedAmount:
		return "fixed_amount"
	}
	return "unknown"
}

func CouponValueKindFrom(s string) CouponValueKind {
	switch s {
	case "percent":
		return CouponValuePercent
	case "fixed_amount":
		return CouponValueFixedAmount
	}
	return UnknownCouponValueKind
}

type CreateCouponParams struct {
	Value        float64
	ValueKind    CouponValueKind
	CodeMode     CouponCodeMode
	FixedCode    string
	Stackable    bool
	ValidityDays int
	Channels     []string
}

type SendEmailParams struct {
	Template string
	Subject  string
}

type UpdateTierParams struct {
	TargetTier string
	Reason     string
}

type AddToSegmentParams struct {
	SegmentId string
}
