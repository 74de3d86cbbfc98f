package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"giveaway_bot/internal/model"
	"giveaway_bot/internal/service/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestAdminService_CollectStats(t *testing.T) {
	reports := &mocks.MockReportRepository{}
	reports.On("FetchStats", mock.Anything).
		Return(&model.Stats{TotalUsers: 4, TotalSubscribed: 3, TotalParticipants: 1, TotalConfirmedReferrals: 2}, nil)

	stats, err := NewAdminService(reports, &mocks.MockMessageSender{}, rate.Inf).CollectStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalUsers)

	assert.Equal(t,
		"Giveaway Stats\nTotal users: 4\nSubscribed users: 3\nParticipants: 1\nConfirmed referrals: 2",
		FormatStats(stats))
}

func TestAdminService_CollectStats_MatchesSeededData(t *testing.T) {
	store := newFakeStore()
	referrals := NewReferralService(store)
	subscriptions := newTestSubscriptionService(store)
	ctx := context.Background()

	// 1 <- 2, 1 <- 3, 4 alone. Everybody but 4 confirms.
	_, err := referrals.ProcessStart(ctx, model.Profile{TelegramID: 1}, "")
	require.NoError(t, err)
	_, err = referrals.ProcessStart(ctx, model.Profile{TelegramID: 2}, "1")
	require.NoError(t, err)
	_, err = referrals.ProcessStart(ctx, model.Profile{TelegramID: 3}, "1")
	require.NoError(t, err)
	_, err = referrals.ProcessStart(ctx, model.Profile{TelegramID: 4}, "")
	require.NoError(t, err)
	for _, id := range []int64{1, 2, 3} {
		_, err := subscriptions.ConfirmSubscription(ctx, id)
		require.NoError(t, err)
	}

	reports := &mocks.MockReportRepository{}
	reports.On("FetchStats", mock.Anything).Return(statsFromFake(store), nil)

	stats, err := NewAdminService(reports, &mocks.MockMessageSender{}, rate.Inf).CollectStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, &model.Stats{
		TotalUsers:              4,
		TotalSubscribed:         3,
		TotalParticipants:       1,
		TotalConfirmedReferrals: 2,
	}, stats)
}

func statsFromFake(store *fakeStore) *model.Stats {
	store.mu.Lock()
	defer store.mu.Unlock()

	stats := &model.Stats{TotalUsers: len(store.users)}
	for _, u := range store.users {
		if u.IsSubscribed {
			stats.TotalSubscribed++
		}
		if u.IsParticipant {
			stats.TotalParticipants++
		}
	}
	for _, r := range store.referrals {
		if r.Status == model.ReferralStatusConfirmed {
			stats.TotalConfirmedReferrals++
		}
	}
	return stats
}

func TestAdminService_ExportUsersCSV(t *testing.T) {
	created := time.Date(2026, 2, 12, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name          string
		mockSetup     func(reports *mocks.MockReportRepository)
		expected      string
		expectedError bool
	}{
		{
			name: "Header only",
			mockSetup: func(reports *mocks.MockReportRepository) {
				reports.On("FetchExportRows", mock.Anything).Return([]*model.ExportRow{}, nil)
			},
			expected: "telegram_id,username,referrals_confirmed,is_participant,created_at\n",
		},
		{
			name: "Rows",
			mockSetup: func(reports *mocks.MockReportRepository) {
				reports.On("FetchExportRows", mock.Anything).Return([]*model.ExportRow{
					{TelegramID: 1, Username: "alice", ReferralsConfirmed: 2, IsParticipant: true, CreatedAt: created},
					{TelegramID: 2, ReferralsConfirmed: 0, CreatedAt: created},
				}, nil)
			},
			expected: "telegram_id,username,referrals_confirmed,is_participant,created_at\n" +
				"1,alice,2,true,2026-02-12T09:30:00Z\n" +
				"2,,0,false,2026-02-12T09:30:00Z\n",
		},
		{
			name: "Storage error",
			mockSetup: func(reports *mocks.MockReportRepository) {
				reports.On("FetchExportRows", mock.Anything).Return(nil, errors.New("timeout"))
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reports := &mocks.MockReportRepository{}
			tt.mockSetup(reports)

			data, err := NewAdminService(reports, &mocks.MockMessageSender{}, rate.Inf).ExportUsersCSV(context.Background())
			if tt.expectedError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(data))
		})
	}
}

func TestAdminService_Broadcast(t *testing.T) {
	reports := &mocks.MockReportRepository{}
	sender := &mocks.MockMessageSender{}
	reports.On("FetchAllTelegramIDs", mock.Anything).Return([]int64{1, 2, 3}, nil)
	sender.On("SendText", mock.Anything, int64(1), "hello").Return(nil)
	sender.On("SendText", mock.Anything, int64(2), "hello").Return(errors.New("Forbidden: bot was blocked by the user"))
	sender.On("SendText", mock.Anything, int64(3), "hello").Return(nil)

	result, err := NewAdminService(reports, sender, rate.Inf).Broadcast(context.Background(), "  hello ")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Delivered)
	assert.Equal(t, 1, result.Failed)
	assert.NotEmpty(t, result.RunID)

	sender.AssertNumberOfCalls(t, "SendText", 3)
}

func TestAdminService_Broadcast_EmptyMessage(t *testing.T) {
	reports := &mocks.MockReportRepository{}

	_, err := NewAdminService(reports, &mocks.MockMessageSender{}, rate.Inf).Broadcast(context.Background(), strings.Repeat(" ", 3))
	assert.ErrorIs(t, err, ErrEmptyMessage)
	reports.AssertNotCalled(t, "FetchAllTelegramIDs", mock.Anything)
}

func TestAdminService_Broadcast_Cancelled(t *testing.T) {
	reports := &mocks.MockReportRepository{}
	sender := &mocks.MockMessageSender{}
	reports.On("FetchAllTelegramIDs", mock.Anything).Return([]int64{1, 2}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := NewAdminService(reports, sender, rate.Limit(1)).Broadcast(ctx, "hi")
	assert.Error(t, err)
	assert.Equal(t, 0, result.Delivered)
	sender.AssertNotCalled(t, "SendText", mock.Anything, mock.Anything, mock.Anything)
}
