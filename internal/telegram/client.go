package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"giveaway_bot/pkg/logger"
	"giveaway_bot/pkg/retry"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Messenger is the part of *tgbotapi.BotAPI the bot talks to.
type Messenger interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error)
	GetChat(config tgbotapi.ChatInfoConfig) (tgbotapi.Chat, error)
}

// Client runs every Bot API call through the retry policy.
type Client struct {
	api    Messenger
	policy retry.Policy
}

func NewClient(api Messenger) *Client {
	c := &Client{
		api:    api,
		policy: retry.DefaultPolicy(ClassifyError),
	}
	c.policy.OnRetry = func(attempt int, delay time.Duration, err error) {
		logger.Logger().Warn("telegram call failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))
	}
	return c
}

func (c *Client) Send(ctx context.Context, msg tgbotapi.Chattable) (tgbotapi.Message, error) {
	return retry.Do(ctx, c.policy, func(ctx context.Context) (tgbotapi.Message, error) {
		return c.api.Send(msg)
	})
}

func (c *Client) Request(ctx context.Context, cfg tgbotapi.Chattable) error {
	_, err := retry.Do(ctx, c.policy, func(ctx context.Context) (*tgbotapi.APIResponse, error) {
		return c.api.Request(cfg)
	})
	return err
}

func (c *Client) SendText(ctx context.Context, chatID int64, text string) error {
	_, err := c.Send(ctx, tgbotapi.NewMessage(chatID, text))
	return err
}

func (c *Client) ChatMember(ctx context.Context, chatID, userID int64) (tgbotapi.ChatMember, error) {
	return retry.Do(ctx, c.policy, func(ctx context.Context) (tgbotapi.ChatMember, error) {
		return c.api.GetChatMember(tgbotapi.GetChatMemberConfig{
			ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
				ChatID: chatID,
				UserID: userID,
			},
		})
	})
}

func (c *Client) Chat(ctx context.Context, chatID int64) (tgbotapi.Chat, error) {
	return retry.Do(ctx, c.policy, func(ctx context.Context) (tgbotapi.Chat, error) {
		return c.api.GetChat(tgbotapi.ChatInfoConfig{
			ChatConfig: tgbotapi.ChatConfig{ChatID: chatID},
		})
	})
}

// ClassifyError decides whether a failed Bot API call is worth repeating.
// Flood control waits for the server supplied delay, server errors and
// network failures back off, everything else is final. A body that is not
// JSON comes from a proxy in front of the Bot API, usually on a 5xx.
func ClassifyError(err error) retry.Decision {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusTooManyRequests:
			return retry.Decision{
				Retry: true,
				After: time.Duration(apiErr.RetryAfter) * time.Second,
			}
		case apiErr.Code >= http.StatusInternalServerError:
			return retry.Decision{Retry: true}
		default:
			return retry.Decision{}
		}
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return retry.Decision{Retry: true}
	}

	return retry.Network(err)
}
