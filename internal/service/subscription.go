package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"giveaway_bot/internal/repository"
	"giveaway_bot/pkg/logger"

	"go.uber.org/zap"
)

type ConfirmationResult struct {
	ReferralConfirmed     bool
	ReferrerToNotify      *int64
	ReferrerIsParticipant bool
	ReferrerPromoted      bool
	SubscriptionChanged   bool
	ParticipationChanged  bool
	ReferralsConfirmed    int
	IsParticipant         bool
	HasContact            bool
}

type SubscriptionService struct {
	store    Store
	rule     ParticipationRule
	cooldown time.Duration
	now      func() time.Time
}

func NewSubscriptionService(store Store, rule ParticipationRule, cooldown time.Duration) *SubscriptionService {
	if cooldown <= 0 {
		cooldown = DefaultSubscriptionCooldown
	}
	return &SubscriptionService{
		store:    store,
		rule:     rule,
		cooldown: cooldown,
		now:      time.Now,
	}
}

func (s *SubscriptionService) RequiredReferrals() int {
	return s.rule.Required
}

// ConfirmSubscription records a verified channel membership. Within one
// transaction it marks the user subscribed, confirms their pending referral
// edge if any, and credits the referrer. The user row is always locked before
// the referrer row.
func (s *SubscriptionService) ConfirmSubscription(ctx context.Context, telegramID int64) (*ConfirmationResult, error) {
	log := logger.Logger()

	var result *ConfirmationResult
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		result = &ConfirmationResult{}

		user, err := tx.GetUserForUpdate(ctx, telegramID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrUserMustExist
			}
			return err
		}

		wasSubscribed := user.IsSubscribed
		wasParticipant := user.IsParticipant

		user.MarkSubscribed()
		s.rule.Evaluate(user)

		referrerID, err := tx.ConfirmPendingReferral(ctx, telegramID, s.now().UTC())
		if err != nil {
			return err
		}
		result.ReferralConfirmed = referrerID != nil

		if referrerID != nil {
			if *referrerID == telegramID {
				log.Warn("self referral detected during confirmation", zap.Int64("telegram_id", telegramID))
			} else {
				referrer, err := tx.GetUserForUpdate(ctx, *referrerID)
				switch {
				case errors.Is(err, repository.ErrNotFound):
					log.Warn("confirmed referral points to missing referrer",
						zap.Int64("telegram_id", telegramID),
						zap.Int64("referrer_id", *referrerID))
				case err != nil:
					return err
				default:
					referrer.AddConfirmedReferral()
					result.ReferrerPromoted = s.rule.Evaluate(referrer)
					if err := tx.SaveUser(ctx, referrer); err != nil {
						return err
					}
					result.ReferrerToNotify = referrerID
					result.ReferrerIsParticipant = referrer.IsParticipant
					log.Info("referral confirmed",
						zap.Int64("referrer_id", *referrerID),
						zap.Int64("referral_id", telegramID))
				}
			}
		}

		// Second pass over the confirming user. Normally a no-op.
		s.rule.Evaluate(user)

		if err := tx.SaveUser(ctx, user); err != nil {
			return err
		}

		result.SubscriptionChanged = !wasSubscribed && user.IsSubscribed
		result.ParticipationChanged = !wasParticipant && user.IsParticipant
		result.ReferralsConfirmed = user.ReferralsConfirmed
		result.IsParticipant = user.IsParticipant
		result.HasContact = user.HasContact()
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrUserMustExist) {
			return nil, fmt.Errorf("user %d: %w", telegramID, err)
		}
		return nil, fmt.Errorf("failed to confirm subscription for %d: %w", telegramID, err)
	}

	return result, nil
}
