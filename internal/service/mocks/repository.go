package mocks

import (
	"context"
	"time"

	"giveaway_bot/internal/model"
	"giveaway_bot/internal/repository"

	"github.com/stretchr/testify/mock"
)

type MockStore struct {
	mock.Mock
	Tx *MockTx
}

func (m *MockStore) InTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(m.Tx)
}

type MockTx struct {
	mock.Mock
}

func (m *MockTx) GetOrCreateUserForUpdate(ctx context.Context, profile model.Profile) (*model.User, bool, error) {
	args := m.Called(ctx, profile)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*model.User), args.Bool(1), args.Error(2)
}

func (m *MockTx) GetUserForUpdate(ctx context.Context, telegramID int64) (*model.User, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockTx) UserExists(ctx context.Context, telegramID int64) (bool, error) {
	args := m.Called(ctx, telegramID)
	return args.Bool(0), args.Error(1)
}

func (m *MockTx) SaveUser(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockTx) UpdateContact(ctx context.Context, telegramID int64, name, phone string) error {
	args := m.Called(ctx, telegramID, name, phone)
	return args.Error(0)
}

func (m *MockTx) CreatePendingReferral(ctx context.Context, referrerID, referralID int64) (bool, error) {
	args := m.Called(ctx, referrerID, referralID)
	return args.Bool(0), args.Error(1)
}

func (m *MockTx) GetReferralByReferralID(ctx context.Context, referralID int64) (*model.Referral, error) {
	args := m.Called(ctx, referralID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Referral), args.Error(1)
}

func (m *MockTx) ConfirmPendingReferral(ctx context.Context, referralID int64, at time.Time) (*int64, error) {
	args := m.Called(ctx, referralID, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*int64), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) GetUsersByTelegramIDs(ctx context.Context, telegramIDs []int64) ([]*model.User, error) {
	args := m.Called(ctx, telegramIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.User), args.Error(1)
}

type MockReportRepository struct {
	mock.Mock
}

func (m *MockReportRepository) FetchStats(ctx context.Context) (*model.Stats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Stats), args.Error(1)
}

func (m *MockReportRepository) FetchExportRows(ctx context.Context) ([]*model.ExportRow, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.ExportRow), args.Error(1)
}

func (m *MockReportRepository) FetchAllTelegramIDs(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

type MockMessageSender struct {
	mock.Mock
}

func (m *MockMessageSender) SendText(ctx context.Context, chatID int64, text string) error {
	args := m.Called(ctx, chatID, text)
	return args.Error(0)
}
