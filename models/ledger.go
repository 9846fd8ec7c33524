package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type LedgerDimension int

const (
	DimensionPoints LedgerDimension = iota
	DimensionCoupons
)

func (d LedgerDimension) String() string {
	switch d {
	case DimensionPoints:
		return "points"
	case DimensionCoupons:
		return "coupons"
	}
	return "unknown"
}

type PeriodKind int

const (
	// PeriodCampaign covers the whole campaign lifetime.
	PeriodCampaign PeriodKind = iota
	PeriodDaily
	PeriodMonthly
)

func (p PeriodKind) String() string {
	switch p {
	case PeriodCampaign:
		return "campaign"
	case PeriodDaily:
		return "daily"
	case PeriodMonthly:
		return "monthly"
	}
	return "unknown"
}

// PeriodStart computes the calendar boundary containing `at` in the
// given timezone. Campaign-lifetime periods have a zero start.
func PeriodStart(kind PeriodKind, at time.Time, tz *time.Location) time.Time {
	if tz == nil {
		tz = time.UTC
	}
	local := at.In(tz)
	switch kind {
	case PeriodDaily:
		return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, tz)
	case PeriodMonthly:
		return time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, tz)
	default:
		return time.Time{}
	}
}

// LedgerKey identifies one budget counter. Campaign-wide counters have an
// empty UserId.
type LedgerKey struct {
	CampaignId  uuid.UUID
	UserId      string
	Dimension   LedgerDimension
	Period      PeriodKind
	PeriodStart time.Time
}

func (k LedgerKey) String() string {
	return fmt.Sprintf("%s:%s:%s:%s:%d",
		k.CampaignId, k.UserId, k.Dimension, k.Period, k.PeriodStart.Unix())
}

// LedgerEntry is the versioned counter behind a LedgerKey. Used is only
// mutated through the ledger's compare-and-swap protocol.
type LedgerEntry struct {
	Key     LedgerKey
	Used    int64
	Version int64
}
