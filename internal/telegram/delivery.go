package telegram

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"giveaway_bot/pkg/logger"
	"giveaway_bot/pkg/retry"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const (
	ModeLongPoll = "longpoll"
	ModeWebhook  = "webhook"

	// SecretHeader carries the webhook secret on every delivery.
	SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

	pollTimeout = 60
)

type RawRequester interface {
	MakeRequest(endpoint string, params tgbotapi.Params) (*tgbotapi.APIResponse, error)
}

type Poller interface {
	RawRequester
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// DefaultWebhookSecret derives a stable secret from the bot token.
func DefaultWebhookSecret(botToken string) string {
	sum := sha256.Sum256([]byte(botToken))
	return hex.EncodeToString(sum[:])
}

// SetWebhook registers url with Telegram. Deliveries will carry secret in
// SecretHeader.
func SetWebhook(ctx context.Context, api RawRequester, url, secret string) error {
	params := tgbotapi.Params{
		"url":             url,
		"secret_token":    secret,
		"allowed_updates": `["message","callback_query"]`,
	}

	_, err := retry.Do(ctx, retry.DefaultPolicy(ClassifyError), func(ctx context.Context) (*tgbotapi.APIResponse, error) {
		return api.MakeRequest("setWebhook", params)
	})
	if err != nil {
		return fmt.Errorf("failed to set webhook: %w", err)
	}

	logger.Logger().Info("webhook registered", zap.String("url", url))
	return nil
}

func DeleteWebhook(ctx context.Context, api RawRequester) error {
	_, err := retry.Do(ctx, retry.DefaultPolicy(ClassifyError), func(ctx context.Context) (*tgbotapi.APIResponse, error) {
		return api.MakeRequest("deleteWebhook", tgbotapi.Params{})
	})
	if err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}
	return nil
}

// Poll drops any registered webhook and long-polls for updates until ctx is
// done.
func Poll(ctx context.Context, api Poller, b *Bot) error {
	if err := DeleteWebhook(ctx, api); err != nil {
		return err
	}

	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = pollTimeout
	cfg.AllowedUpdates = []string{"message", "callback_query"}

	updates := api.GetUpdatesChan(cfg)
	logger.Logger().Info("long polling started")

	defer api.StopReceivingUpdates()

	b.Run(ctx, updates)
	return nil
}
