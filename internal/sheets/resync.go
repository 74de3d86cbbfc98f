package sheets

import (
	"context"
	"fmt"

	"giveaway_bot/internal/model"
	"giveaway_bot/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type UserLister interface {
	ListUsers(ctx context.Context) ([]*model.User, error)
}

type ResyncReport struct {
	RunID   string
	Synced  int
	Skipped int
	Failed  int
}

// Resync writes every stored user into the sheet. A failed row is counted and
// the run continues; only a listing failure or cancellation aborts it.
func Resync(ctx context.Context, users UserLister, syncer Syncer) (*ResyncReport, error) {
	report := &ResyncReport{RunID: uuid.NewString()}
	log := logger.Logger().With(zap.String("run_id", report.RunID))

	list, err := users.ListUsers(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to list users: %w", err)
	}

	for _, user := range list {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		written, err := syncer.UpsertContact(ctx, user)
		switch {
		case err != nil:
			report.Failed++
			log.Warn("resync row failed", zap.Int64("telegram_id", user.TelegramID), zap.Error(err))
		case written:
			report.Synced++
		default:
			report.Skipped++
		}
	}

	log.Info("resync finished",
		zap.Int("synced", report.Synced),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}
