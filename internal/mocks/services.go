package mocks

import (
	"context"

	"giveaway_bot/internal/model"
	"giveaway_bot/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockReferralService struct {
	mock.Mock
}

func (m *MockReferralService) ProcessStart(ctx context.Context, profile model.Profile, rawToken string) (*service.StartResult, error) {
	args := m.Called(ctx, profile, rawToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.StartResult), args.Error(1)
}

type MockSubscriptionService struct {
	mock.Mock
}

func (m *MockSubscriptionService) RegisterCheckAttempt(ctx context.Context, profile model.Profile) (int, error) {
	args := m.Called(ctx, profile)
	return args.Int(0), args.Error(1)
}

func (m *MockSubscriptionService) ConfirmSubscription(ctx context.Context, telegramID int64) (*service.ConfirmationResult, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ConfirmationResult), args.Error(1)
}

func (m *MockSubscriptionService) RequiredReferrals() int {
	args := m.Called()
	return args.Int(0)
}

type MockContactService struct {
	mock.Mock
}

func (m *MockContactService) SaveContact(ctx context.Context, telegramID int64, name, phone string) (*model.User, error) {
	args := m.Called(ctx, telegramID, name, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockContactService) GetUser(ctx context.Context, telegramID int64) (*model.User, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockContactService) Snapshots(ctx context.Context, telegramIDs ...int64) ([]*model.User, error) {
	args := m.Called(ctx, telegramIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.User), args.Error(1)
}

type MockAdminService struct {
	mock.Mock
}

func (m *MockAdminService) CollectStats(ctx context.Context) (*model.Stats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Stats), args.Error(1)
}

func (m *MockAdminService) ExportUsersCSV(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockAdminService) Broadcast(ctx context.Context, text string) (*service.BroadcastResult, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.BroadcastResult), args.Error(1)
}
