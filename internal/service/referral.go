package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"giveaway_bot/internal/model"
	"giveaway_bot/internal/repository"
	"giveaway_bot/pkg/logger"

	"go.uber.org/zap"
)

type StartResult struct {
	TelegramID      int64
	Created         bool
	ReferralApplied bool
}

type ReferralService struct {
	store Store
}

func NewReferralService(store Store) *ReferralService {
	return &ReferralService{
		store: store,
	}
}

// ParseRefCode reads the /start payload as a Telegram user id. Anything that
// is not an integer yields no code.
func ParseRefCode(raw string) (int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}

	code, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}

	return code, true
}

func CanApplyReferral(existingReferredBy *int64, code *int64, selfID int64) bool {
	if code == nil {
		return false
	}
	if existingReferredBy != nil {
		return false
	}
	return *code != selfID
}

func (s *ReferralService) ProcessStart(ctx context.Context, profile model.Profile, rawToken string) (*StartResult, error) {
	log := logger.Logger()

	var code *int64
	if parsed, ok := ParseRefCode(rawToken); ok {
		code = &parsed
	}

	result := &StartResult{TelegramID: profile.TelegramID}
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		user, created, err := tx.GetOrCreateUserForUpdate(ctx, profile)
		if err != nil {
			return err
		}
		result.Created = created

		if !CanApplyReferral(user.ReferredBy, code, user.TelegramID) {
			return nil
		}

		exists, err := tx.UserExists(ctx, *code)
		if err != nil {
			return err
		}
		if !exists {
			log.Info("referral skipped: referrer not found",
				zap.Int64("telegram_id", user.TelegramID),
				zap.Int64("referrer_id", *code))
			return nil
		}

		inserted, err := tx.CreatePendingReferral(ctx, *code, user.TelegramID)
		if err != nil {
			return err
		}

		if inserted {
			user.SetReferredBy(*code)
			result.ReferralApplied = true
			log.Info("referral created",
				zap.Int64("telegram_id", user.TelegramID),
				zap.Int64("referrer_id", *code))
			return tx.SaveUser(ctx, user)
		}

		existing, err := tx.GetReferralByReferralID(ctx, user.TelegramID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil
			}
			return err
		}

		if user.SetReferredBy(existing.ReferrerID) {
			log.Info("referral race resolved with existing edge",
				zap.Int64("telegram_id", user.TelegramID),
				zap.Int64("referrer_id", existing.ReferrerID))
			return tx.SaveUser(ctx, user)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to process start for %d: %w", profile.TelegramID, err)
	}

	return result, nil
}
