package telegram

import (
	"context"
	"time"

	"giveaway_bot/internal/service"
	"giveaway_bot/pkg/logger"

	"go.uber.org/zap"
)

type MembershipChecker struct {
	client    *Client
	channelID int64
	observe   func(time.Duration)
}

func NewMembershipChecker(client *Client, channelID int64, observe func(time.Duration)) *MembershipChecker {
	return &MembershipChecker{
		client:    client,
		channelID: channelID,
		observe:   observe,
	}
}

// CheckMembership asks Telegram for the user's status in the channel. Errors
// are returned only after retries are exhausted or the failure is final.
func (m *MembershipChecker) CheckMembership(ctx context.Context, userID int64) (service.MembershipStatus, error) {
	start := time.Now()
	member, err := m.client.ChatMember(ctx, m.channelID, userID)
	if m.observe != nil {
		m.observe(time.Since(start))
	}
	if err != nil {
		return service.MembershipUnknown, err
	}

	status := service.ClassifyMemberStatus(member.Status)
	if status == service.MembershipUnknown {
		logger.Logger().Warn("unknown chat member status",
			zap.Int64("telegram_id", userID),
			zap.String("status", member.Status))
	}

	return status, nil
}
