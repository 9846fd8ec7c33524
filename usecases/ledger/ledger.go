package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/cockroachdb/errors"

	"github.com/incentiva/campaign-engine/models"
	"github.com/incentiva/campaign-engine/utils"
)

// Number of times a reservation retries a lost compare-and-swap race
// before reporting contention.
const maxCasRetries = 5

// Repository is the persistent store behind the ledger. Implementations
// must make CompareAndSwap atomic: the update applies only if the stored
// version still matches entry.Version (version 0 meaning the entry does
// not exist yet).
type Repository interface {
	GetEntry(ctx context.Context, key models.LedgerKey) (models.LedgerEntry, error)
	CompareAndSwap(ctx context.Context, entry models.LedgerEntry, newUsed int64) (bool, error)
}

type Grant int

const (
	Denied Grant = iota
	Granted
	GrantedSoftCap
)

func (g Grant) String() string {
	switch g {
	case Denied:
		return "denied"
	case Granted:
		return "granted"
	case GrantedSoftCap:
		return "granted_soft_cap"
	}
	return "unknown"
}

type reservedLine struct {
	key    models.LedgerKey
	amount int64
}

// Reservation is the handle of a granted TryReserve. The usage counters
// are already incremented when it is returned; Commit finalizes it,
// Release undoes it.
type Reservation struct {
	lines    []reservedLine
	resolved bool
}

type Ledger struct {
	repo Repository
}

func NewLedger(repo Repository) *Ledger {
	return &Ledger{repo: repo}
}

type capCheck struct {
	key    models.LedgerKey
	capped bool
	cap    int64
}

// capChecks lists the counters one consumption touches, in a fixed order
// so concurrent reservations cannot deadlock or disagree.
func capChecks(
	campaign models.Campaign,
	userId string,
	dimension models.LedgerDimension,
	at time.Time,
) []capCheck {
	budgets := campaign.Budgets

	switch dimension {
	case models.DimensionCoupons:
		return []capCheck{{
			key: models.LedgerKey{
				CampaignId: campaign.Id,
				Dimension:  models.DimensionCoupons,
				Period:     models.PeriodCampaign,
			},
			capped: budgets.CampaignCouponsCap.Valid,
			cap:    budgets.CampaignCouponsCap.Int64,
		}}

	default:
		return []capCheck{
			{
				key: models.LedgerKey{
					CampaignId: campaign.Id,
					Dimension:  models.DimensionPoints,
					Period:     models.PeriodCampaign,
				},
				capped: budgets.CampaignPointsCap.Valid,
				cap:    budgets.CampaignPointsCap.Int64,
			},
			{
				key: models.LedgerKey{
					CampaignId:  campaign.Id,
					UserId:      userId,
					Dimension:   models.DimensionPoints,
					Period:      models.PeriodDaily,
					PeriodStart: models.PeriodStart(models.PeriodDaily, at, campaign.Timezone),
				},
				capped: budgets.UserDailyPointsCap.Valid,
				cap:    budgets.UserDailyPointsCap.Int64,
			},
			{
				key: models.LedgerKey{
					CampaignId:  campaign.Id,
					UserId:      userId,
					Dimension:   models.DimensionPoints,
					Period:      models.PeriodMonthly,
					PeriodStart: models.PeriodStart(models.PeriodMonthly, at, campaign.Timezone),
				},
				capped: budgets.UserMonthlyPointsCap.Valid,
				cap:    budgets.UserMonthlyPointsCap.Int64,
			},
		}
	}
}

func exceedsThreshold(used, amount, cap int64, percent int) bool {
	return float64(used+amount) > float64(cap)*float64(percent)/100
}

// TryReserve atomically consumes `amount` against every counter the
// (campaign, user, dimension) combination touches. The increment happens
// under compare-and-swap, so two concurrent reservations can never both
// observe a cap as not yet exceeded and both commit past it. When any
// counter would pass its hard threshold the whole reservation is denied
// and already incremented counters are rolled back.
func (l *Ledger) TryReserve(
	ctx context.Context,
	campaign models.Campaign,
	userId string,
	dimension models.LedgerDimension,
	amount int64,
	at time.Time,
) (Reservation, Grant, error) {
	reservation := Reservation{}
	softCapHit := false

	for _, check := range capChecks(campaign, userId, dimension, at) {
		err := retry.Do(
			func() error {
				entry, err := l.repo.GetEntry(ctx, check.key)
				if err != nil {
					return retry.Unrecoverable(err)
				}
				if check.capped {
					if exceedsThreshold(entry.Used, amount, check.cap, campaign.Budgets.HardCapPercent) {
						return retry.Unrecoverable(errors.Wrap(errHardCapExceeded, check.key.String()))
					}
					if exceedsThreshold(entry.Used, amount, check.cap, campaign.Budgets.SoftCapPercent) {
						softCapHit = true
					}
				}

				swapped, err := l.repo.CompareAndSwap(ctx, entry, entry.Used+amount)
				if err != nil {
					return retry.Unrecoverable(err)
				}
				if !swapped {
					return models.ErrLedgerVersionConflict
				}
				return nil
			},
			retry.Attempts(maxCasRetries),
			retry.LastErrorOnly(true),
		)
		if err != nil {
			// Roll back the counters already incremented for this
			// reservation, then deny.
			l.rollback(ctx, reservation)

			if errors.Is(err, errHardCapExceeded) {
				return Reservation{}, Denied, nil
			}
			if errors.Is(err, models.ErrLedgerVersionConflict) {
				return Reservation{}, Denied, errors.Wrap(models.ErrBudgetContention, check.key.String())
			}
			return Reservation{}, Denied, err
		}

		reservation.lines = append(reservation.lines, reservedLine{key: check.key, amount: amount})
	}

	if softCapHit {
		return reservation, GrantedSoftCap, nil
	}
	return reservation, Granted, nil
}

var errHardCapExceeded = errors.New("hard cap threshold exceeded")

// Commit finalizes a granted reservation. The counters were incremented
// at reserve time, so commit only consumes the handle.
func (l *Ledger) Commit(ctx context.Context, reservation *Reservation) {
	reservation.resolved = true
}

// Release undoes a granted reservation whose effect did not execute.
func (l *Ledger) Release(ctx context.Context, reservation *Reservation) {
	if reservation.resolved {
		return
	}
	reservation.resolved = true
	l.rollback(ctx, *reservation)
}

func (l *Ledger) rollback(ctx context.Context, reservation Reservation) {
	logger := utils.LoggerFromContext(ctx)

	for _, line := range reservation.lines {
		err := retry.Do(
			func() error {
				entry, err := l.repo.GetEntry(ctx, line.key)
				if err != nil {
					return retry.Unrecoverable(err)
				}
				swapped, err := l.repo.CompareAndSwap(ctx, entry, entry.Used-line.amount)
				if err != nil {
					return retry.Unrecoverable(err)
				}
				if !swapped {
					return models.ErrLedgerVersionConflict
				}
				return nil
			},
			retry.Attempts(maxCasRetries),
			retry.LastErrorOnly(true),
		)
		if err != nil {
			logger.ErrorContext(ctx, fmt.Sprintf("failed to release ledger reservation on %s", line.key),
				"error", err.Error())
		}
	}
}

// Usage reads the current consumption of one counter, for decision
// reporting.
func (l *Ledger) Usage(ctx context.Context, key models.LedgerKey) (int64, error) {
	entry, err := l.repo.GetEntry(ctx, key)
	if err != nil {
		return 0, err
	}
	return entry.Used, nil
}
