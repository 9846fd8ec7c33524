package effect_dispatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/incentiva/campaign-engine/models"
	"github.com/incentiva/campaign-engine/usecases/ledger"
	"github.com/incentiva/campaign-engine/utils"
)

// CouponIssuer hands a coupon to the customer-facing coupon service. The
// code is decided by the dispatcher (fixed or generated) before the
// call.
type CouponIssuer interface {
	IssueCoupon(ctx context.Context, campaignId uuid.UUID, userId string, code string, params models.CreateCouponParams) error
}

type EmailSender interface {
	SendEmail(ctx context.Context, userId string, params models.SendEmailParams) error
}

type TierUpdater interface {
	SetTier(ctx context.Context, userId string, params models.UpdateTierParams) error
}

type SegmentEditor interface {
	AddToSegment(ctx context.Context, userId string, params models.AddToSegmentParams) error
}

type Collaborators struct {
	CouponIssuer  CouponIssuer
	EmailSender   EmailSender
	TierUpdater   TierUpdater
	SegmentEditor SegmentEditor
}

// QueuedEffect is one effect selected for dispatch. Points is the
// formula result for award effects, computed before dispatch so the
// conflict policy and the dispatcher agree on the amount. FormulaErr
// carries a formula evaluation failure; such an effect is reported
// failed instead of aborting the whole decision.
type QueuedEffect struct {
	Effect     models.Effect
	Points     int64
	FormulaErr error
}

type Dispatcher struct {
	Ledger        *ledger.Ledger
	Collaborators Collaborators
}

func NewDispatcher(l *ledger.Ledger, collaborators Collaborators) *Dispatcher {
	return &Dispatcher{Ledger: l, Collaborators: collaborators}
}

// DispatchEffects executes a queued effect list against the budget
// ledger and the external collaborators. One blocked or failed effect
// never aborts its siblings; with campaign.AtomicEffects the budget
// reservations are instead taken as a set, and a single denial blocks
// every budget-consuming effect in the list.
func (d *Dispatcher) DispatchEffects(
	ctx context.Context,
	campaign models.Campaign,
	evalCtx models.EvaluationContext,
	queued []QueuedEffect,
) ([]models.EffectExecution, models.BudgetDelta) {
	if campaign.AtomicEffects {
		return d.dispatchAtomic(ctx, campaign, evalCtx, queued)
	}
	return d.dispatchIndependent(ctx, campaign, evalCtx, queued)
}

func (d *Dispatcher) dispatchIndependent(
	ctx context.Context,
	campaign models.Campaign,
	evalCtx models.EvaluationContext,
	queued []QueuedEffect,
) ([]models.EffectExecution, models.BudgetDelta) {
	executions := make([]models.EffectExecution, 0, len(queued))
	totals := models.BudgetDelta{}

	for _, q := range queued {
		execution := d.dispatchOne(ctx, campaign, evalCtx, q)
		if execution.Status == models.EffectApplied || execution.Status == models.EffectSoftCapWarning {
			switch q.Effect.Type {
			case models.EffectAwardPoints:
				totals.Points += execution.Points
			case models.EffectCreateCoupon:
				totals.Coupons++
			}
		}
		executions = append(executions, execution)
	}
	return executions, totals
}

func (d *Dispatcher) dispatchOne(
	ctx context.Context,
	campaign models.Campaign,
	evalCtx models.EvaluationContext,
	q QueuedEffect,
) models.EffectExecution {
	execution := models.EffectExecution{
		EffectId:   q.Effect.Id,
		EffectType: q.Effect.Type,
	}

	if q.FormulaErr != nil {
		execution.Status = models.EffectFailed
		execution.Error = q.FormulaErr.Error()
		return execution
	}

	dimension, amount, consumes := budgetConsumption(q)
	var reservation ledger.Reservation
	grant := ledger.Granted

	if consumes {
		var err error
		reservation, grant, err = d.Ledger.TryReserve(
			ctx, campaign, evalCtx.UserId, dimension, amount, evalCtx.Timestamp)
		if err != nil {
			execution.Status = models.EffectBudgetBlocked
			execution.Error = err.Error()
			return execution
		}
		if grant == ledger.Denied {
			execution.Status = models.EffectBudgetBlocked
			return execution
		}
	}

	if err := d.applyEffect(ctx, campaign, evalCtx, q); err != nil {
		if consumes {
			d.Ledger.Release(ctx, &reservation)
		}
		execution.Status = models.EffectFailed
		execution.Error = err.Error()
		return execution
	}

	if consumes {
		d.Ledger.Commit(ctx, &reservation)
	}
	if grant == ledger.GrantedSoftCap {
		execution.Status = models.EffectSoftCapWarning
	} else {
		execution.Status = models.EffectApplied
	}
	if q.Effect.Type == models.EffectAwardPoints {
		execution.Points = q.Points
	}
	return execution
}

func (d *Dispatcher) dispatchAtomic(
	ctx context.Context,
	campaign models.Campaign,
	evalCtx models.EvaluationContext,
	queued []QueuedEffect,
) ([]models.EffectExecution, models.BudgetDelta) {
	executions := make([]models.EffectExecution, len(queued))
	for i, q := range queued {
		executions[i] = models.EffectExecution{
			EffectId:   q.Effect.Id,
			EffectType: q.Effect.Type,
		}
	}

	// Reservation phase: every budget-consuming effect reserves before
	// anything executes. A broken formula or a single denial blocks the
	// whole list.
	reservations := make([]*ledger.Reservation, len(queued))
	blocked := false
	grant := ledger.Granted

	for i, q := range queued {
		if q.FormulaErr != nil {
			executions[i].Status = models.EffectFailed
			executions[i].Error = q.FormulaErr.Error()
			blocked = true
			break
		}
		dimension, amount, consumes := budgetConsumption(q)
		if !consumes {
			continue
		}
		reservation, g, err := d.Ledger.TryReserve(
			ctx, campaign, evalCtx.UserId, dimension, amount, evalCtx.Timestamp)
		if err != nil {
			executions[i].Status = models.EffectBudgetBlocked
			executions[i].Error = err.Error()
			blocked = true
			break
		}
		if g == ledger.Denied {
			executions[i].Status = models.EffectBudgetBlocked
			blocked = true
			break
		}
		if g == ledger.GrantedSoftCap {
			grant = ledger.GrantedSoftCap
		}
		reservations[i] = &reservation
	}

	if blocked {
		for i, reservation := range reservations {
			if reservation != nil {
				d.Ledger.Release(ctx, reservation)
			}
			if executions[i].Status == models.EffectNotQueued {
				if _, _, consumes := budgetConsumption(queued[i]); consumes {
					executions[i].Status = models.EffectBudgetBlocked
				}
			}
		}
		return executions, models.BudgetDelta{}
	}

	totals := models.BudgetDelta{}
	for i, q := range queued {
		if err := d.applyEffect(ctx, campaign, evalCtx, q); err != nil {
			if reservations[i] != nil {
				d.Ledger.Release(ctx, reservations[i])
			}
			executions[i].Status = models.EffectFailed
			executions[i].Error = err.Error()
			continue
		}
		if reservations[i] != nil {
			d.Ledger.Commit(ctx, reservations[i])
		}
		if grant == ledger.GrantedSoftCap {
			executions[i].Status = models.EffectSoftCapWarning
		} else {
			executions[i].Status = models.EffectApplied
		}
		switch q.Effect.Type {
		case models.EffectAwardPoints:
			executions[i].Points = q.Points
			totals.Points += q.Points
		case models.EffectCreateCoupon:
			totals.Coupons++
		}
	}
	return executions, totals
}

// budgetConsumption maps an effect to the ledger dimension and amount it
// consumes. Emails, tier updates and segment additions are free.
func budgetConsumption(q QueuedEffect) (models.LedgerDimension, int64, bool) {
	switch q.Effect.Type {
	case models.EffectAwardPoints:
		return models.DimensionPoints, q.Points, true
	case models.EffectCreateCoupon:
		return models.DimensionCoupons, 1, true
	}
	return 0, 0, false
}

func (d *Dispatcher) applyEffect(
	ctx context.Context,
	campaign models.Campaign,
	evalCtx models.EvaluationContext,
	q QueuedEffect,
) error {
	logger := utils.LoggerFromContext(ctx)

	switch q.Effect.Type {
	case models.EffectAwardPoints:
		// The award is materialized by the decision consumer; the ledger
		// reservation is the only side effect here.
		logger.DebugContext(ctx, fmt.Sprintf("awarding %d points to user %s", q.Points, evalCtx.UserId))
		return nil

	case models.EffectCreateCoupon:
		params := *q.Effect.CreateCoupon
		code := params.FixedCode
		if params.CodeMode == models.CouponCodeGenerated {
			code = newCouponCode()
		}
		return d.Collaborators.CouponIssuer.IssueCoupon(ctx, campaign.Id, evalCtx.UserId, code, params)

	case models.EffectSendEmail:
		return d.Collaborators.EmailSender.SendEmail(ctx, evalCtx.UserId, *q.Effect.SendEmail)

	case models.EffectUpdateTier:
		return d.Collaborators.TierUpdater.SetTier(ctx, evalCtx.UserId, *q.Effect.UpdateTier)

	case models.EffectAddToSegment:
		return d.Collaborators.SegmentEditor.AddToSegment(ctx, evalCtx.UserId, *q.Effect.AddToSegment)
	}
	return fmt.Errorf("unknown effect type %s", q.Effect.Type)
}

func newCouponCode() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "CPN-" + strings.ToUpper(id[:12])
}
