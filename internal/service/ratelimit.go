package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"giveaway_bot/internal/model"
	"giveaway_bot/internal/repository"
)

const DefaultSubscriptionCooldown = 5 * time.Second

// RetryAfterSeconds returns how many whole seconds the caller must wait before
// the next membership check. Zero means the check may run now.
func RetryAfterSeconds(last *time.Time, now time.Time, cooldown time.Duration) int {
	if last == nil {
		return 0
	}

	remaining := cooldown - now.Sub(*last)
	if remaining <= 0 {
		return 0
	}

	wait := int(math.Ceil(remaining.Seconds()))
	if wait < 1 {
		wait = 1
	}
	return wait
}

// RegisterCheckAttempt gates membership checks per user. The check timestamp
// is stamped only when the attempt is allowed.
func (s *SubscriptionService) RegisterCheckAttempt(ctx context.Context, profile model.Profile) (int, error) {
	var wait int
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		user, _, err := tx.GetOrCreateUserForUpdate(ctx, profile)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		wait = RetryAfterSeconds(user.LastSubscriptionCheckAt, now, s.cooldown)
		if wait > 0 {
			return nil
		}

		user.StampSubscriptionCheck(now)
		return tx.SaveUser(ctx, user)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to register subscription check for %d: %w", profile.TelegramID, err)
	}

	return wait, nil
}
