package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/incentiva/campaign-engine/models"
)

type CouponIssuer struct {
	mock.Mock
}

func (m *CouponIssuer) IssueCoupon(ctx context.Context, campaignId uuid.UUID, userId string, code string, params models.CreateCouponParams) error {
	args := m.Called(campaignId, userId, code, params)
	return args.Error(0)
}

type EmailSender struct {
	mock.Mock
}

func (m *EmailSender) SendEmail(ctx context.Context, userId string, params models.SendEmailParams) error {
	args := m.Called(userId, params)
	return args.Error(0)
}

type TierUpdater struct {
	mock.Mock
}

func (m *TierUpdater) SetTier(ctx context.Context, userId string, params models.UpdateTierParams) error {
	args := m.Called(userId, params)
	return args.Error(0)
}

type SegmentEditor struct {
	mock.Mock
}

func (m *SegmentEditor) AddToSegment(ctx context.Context, userId string, params models.AddToSegmentParams) error {
	args := m.Called(userId, params)
	return args.Error(0)
}
