package cmd

import (
	"context"

	"github.com/google/uuid"

	"github.com/incentiva/campaign-engine/models"
	"github.com/incentiva/campaign-engine/usecases/effect_dispatch"
	"github.com/incentiva/campaign-engine/utils"
)

// loggingCollaborators logs each external action instead of calling an
// integration. Downstream services consume the decision record, so a
// standalone run only needs the intent to be visible.
type loggingCollaborators struct{}

func newLoggingCollaborators() effect_dispatch.Collaborators {
	c := loggingCollaborators{}
	return effect_dispatch.Collaborators{
		CouponIssuer:  c,
		EmailSender:   c,
		TierUpdater:   c,
		SegmentEditor: c,
	}
}

func (loggingCollaborators) IssueCoupon(ctx context.Context, campaignId uuid.UUID, userId string, code string, params models.CreateCouponParams) error {
	utils.LoggerFromContext(ctx).InfoContext(ctx, "issue coupon",
		"campaignId", campaignId.String(), "userId", userId, "code", code)
	return nil
}

func (loggingCollaborators) SendEmail(ctx context.Context, userId string, params models.SendEmailParams) error {
	utils.LoggerFromContext(ctx).InfoContext(ctx, "send email",
		"userId", userId, "template", params.Template)
	return nil
}

func (loggingCollaborators) SetTier(ctx context.Context, userId string, params models.UpdateTierParams) error {
	utils.LoggerFromContext(ctx).InfoContext(ctx, "update tier",
		"userId", userId, "tier", params.TargetTier)
	return nil
}

func (loggingCollaborators) AddToSegment(ctx context.Context, userId string, params models.AddToSegmentParams) error {
	utils.LoggerFromContext(ctx).InfoContext(ctx, "add to segment",
		"userId", userId, "segmentId", params.SegmentId)
	return nil
}
