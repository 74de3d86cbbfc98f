package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"giveaway_bot/internal/events"
	"giveaway_bot/internal/service"
	"giveaway_bot/pkg/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

func (b *Bot) rejectNonAdmin(ctx context.Context, msg *tgbotapi.Message) bool {
	if b.isAdmin(msg.From.ID) {
		return false
	}
	b.reply(ctx, msg.Chat.ID, textAdminOnly, nil)
	return true
}

func (b *Bot) handleStats(ctx context.Context, msg *tgbotapi.Message) {
	if b.rejectNonAdmin(ctx, msg) {
		return
	}
	log := logger.Logger().With(zap.String("command", "stats"), zap.Int64("admin_id", msg.From.ID))

	stats, err := b.deps.Admin.CollectStats(ctx)
	if err != nil {
		log.Error("failed to collect stats", zap.Error(err))
		b.reply(ctx, msg.Chat.ID, textGenericError, nil)
		return
	}

	log.Info("admin command used")
	b.reply(ctx, msg.Chat.ID, service.FormatStats(stats), nil)
}

func (b *Bot) handleExport(ctx context.Context, msg *tgbotapi.Message) {
	if b.rejectNonAdmin(ctx, msg) {
		return
	}
	log := logger.Logger().With(zap.String("command", "export"), zap.Int64("admin_id", msg.From.ID))

	data, err := b.deps.Admin.ExportUsersCSV(ctx)
	if err != nil {
		log.Error("failed to export users", zap.Error(err))
		b.reply(ctx, msg.Chat.ID, textGenericError, nil)
		return
	}

	name := fmt.Sprintf("giveaway_export_%s.csv", time.Now().UTC().Format("20060102_150405"))
	doc := tgbotapi.NewDocument(msg.Chat.ID, tgbotapi.FileBytes{Name: name, Bytes: data})

	log.Info("admin command used", zap.Int("bytes", len(data)))
	if _, err := b.client.Send(ctx, doc); err != nil {
		log.Error("failed to send export", zap.Error(err))
	}
}

func (b *Bot) handleBroadcast(ctx context.Context, msg *tgbotapi.Message) {
	if b.rejectNonAdmin(ctx, msg) {
		return
	}
	log := logger.Logger().With(zap.String("command", "broadcast"), zap.Int64("admin_id", msg.From.ID))

	text := strings.TrimSpace(msg.CommandArguments())
	if text == "" {
		b.reply(ctx, msg.Chat.ID, textBroadcastUsage, nil)
		return
	}

	log.Info("admin command used")
	b.reply(ctx, msg.Chat.ID, textBroadcastStart, nil)

	result, err := b.deps.Admin.Broadcast(ctx, text)
	if errors.Is(err, service.ErrEmptyMessage) {
		b.reply(ctx, msg.Chat.ID, textBroadcastUsage, nil)
		return
	}
	if err != nil {
		log.Error("broadcast interrupted", zap.Error(err))
		if result == nil {
			b.reply(ctx, msg.Chat.ID, textGenericError, nil)
			return
		}
	}

	if b.deps.Metrics != nil {
		b.deps.Metrics.RecordBroadcast(result.Delivered, result.Failed)
	}
	b.publish(events.TypeBroadcastFinished, map[string]any{
		"run_id":    result.RunID,
		"delivered": result.Delivered,
		"failed":    result.Failed,
	})
	b.reply(ctx, msg.Chat.ID, broadcastDoneText(result), nil)
}
