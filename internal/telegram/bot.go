package telegram

import (
	"context"
	"fmt"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"

	"giveaway_bot/internal/events"
	"giveaway_bot/internal/model"
	"giveaway_bot/internal/service"
	"giveaway_bot/pkg/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

type Recorder interface {
	RecordUpdate(kind string)
	RecordStart(created, referralApplied bool)
	RecordSubscriptionCheck(outcome string)
	RecordMembershipLatency(d time.Duration)
	RecordConfirmation(referralConfirmed bool, promotions int)
	RecordContactSaved()
	RecordBroadcast(delivered, failed int)
}

type Publisher interface {
	Publish(msg events.Message)
}

// ContactSync receives post-commit user snapshots for the spreadsheet mirror.
type ContactSync interface {
	Enqueue(user *model.User) error
}

type Config struct {
	ChannelID   int64
	ChannelURL  string
	BotUsername string
	AdminIDs    []int64
}

type Deps struct {
	Referrals     service.ReferralServiceI
	Subscriptions service.SubscriptionServiceI
	Contacts      service.ContactServiceI
	Admin         service.AdminServiceI
	Metrics       Recorder
	Events        Publisher
	Sheets        ContactSync
}

type Bot struct {
	client     *Client
	membership *MembershipChecker
	deps       Deps
	cfg        Config
	admins     map[int64]struct{}

	wg sync.WaitGroup
}

func NewBot(client *Client, deps Deps, cfg Config) *Bot {
	admins := make(map[int64]struct{}, len(cfg.AdminIDs))
	for _, id := range cfg.AdminIDs {
		admins[id] = struct{}{}
	}

	var observe func(time.Duration)
	if deps.Metrics != nil {
		observe = deps.Metrics.RecordMembershipLatency
	}

	return &Bot{
		client:     client,
		membership: NewMembershipChecker(client, cfg.ChannelID, observe),
		deps:       deps,
		cfg:        cfg,
		admins:     admins,
	}
}

// Run feeds updates from the channel to Dispatch until ctx is done or the
// channel is closed, then waits for in-flight handlers. Cancelling ctx stops
// intake only; handlers already started run to completion.
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) {
	defer b.wg.Wait()

	handlerCtx := context.WithoutCancel(ctx)

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.Dispatch(handlerCtx, update)

		case <-ctx.Done():
			return
		}
	}
}

// Dispatch handles the update on its own goroutine.
func (b *Bot) Dispatch(ctx context.Context, update tgbotapi.Update) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.HandleUpdate(ctx, update)
	}()
}

// Wait blocks until every dispatched update has been handled.
func (b *Bot) Wait() {
	b.wg.Wait()
}

func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	log := logger.Logger()

	defer func() {
		if r := recover(); r != nil {
			log.Error("unhandled update panic",
				zap.Int("update_id", update.UpdateID),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		b.record("callback")
		if update.CallbackQuery.Data == CallbackCheckSubscription {
			b.handleCheckSubscription(ctx, update.CallbackQuery)
			return
		}
		if err := b.client.Request(ctx, tgbotapi.NewCallback(update.CallbackQuery.ID, "")); err != nil {
			log.Warn("failed to answer callback", zap.Error(err))
		}

	case update.Message != nil:
		b.record("message")
		b.handleMessage(ctx, update.Message)

	default:
		b.record("ignored")
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}

	if msg.Contact != nil {
		b.handleContact(ctx, msg)
		return
	}

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			b.handleStart(ctx, msg)
		case "contact":
			b.handleContactCommand(ctx, msg)
		case "stats":
			b.handleStats(ctx, msg)
		case "export":
			b.handleExport(ctx, msg)
		case "broadcast":
			b.handleBroadcast(ctx, msg)
		}
		return
	}

	if text := strings.TrimSpace(msg.Text); text != "" && service.ValidPhone(text) {
		b.handleTypedPhone(ctx, msg, text)
	}
}

func (b *Bot) isAdmin(telegramID int64) bool {
	_, ok := b.admins[telegramID]
	return ok
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string, markup any) {
	msg := tgbotapi.NewMessage(chatID, text)
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := b.client.Send(ctx, msg); err != nil {
		logger.Logger().Warn("failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) answer(ctx context.Context, callbackID, text string, alert bool) {
	cfg := tgbotapi.NewCallback(callbackID, text)
	if alert {
		cfg = tgbotapi.NewCallbackWithAlert(callbackID, text)
	}
	if err := b.client.Request(ctx, cfg); err != nil {
		logger.Logger().Warn("failed to answer callback", zap.Error(err))
	}
}

func (b *Bot) record(kind string) {
	if b.deps.Metrics != nil {
		b.deps.Metrics.RecordUpdate(kind)
	}
}

func (b *Bot) publish(eventType string, payload map[string]any) {
	if b.deps.Events != nil {
		b.deps.Events.Publish(events.NewMessage(eventType, payload))
	}
}

// syncSheets pushes fresh snapshots of the given users to the mirror.
func (b *Bot) syncSheets(ctx context.Context, telegramIDs ...int64) {
	if b.deps.Sheets == nil || len(telegramIDs) == 0 {
		return
	}
	log := logger.Logger()

	users, err := b.deps.Contacts.Snapshots(ctx, telegramIDs...)
	if err != nil {
		log.Warn("failed to load users for sheets sync", zap.Int64s("telegram_ids", telegramIDs), zap.Error(err))
		return
	}
	for _, user := range users {
		if !user.HasContact() {
			continue
		}
		if err := b.deps.Sheets.Enqueue(user); err != nil {
			log.Warn("sheets sync not queued", zap.Int64("telegram_id", user.TelegramID), zap.Error(err))
		}
	}
}

func profileOf(u *tgbotapi.User) model.Profile {
	return model.Profile{
		TelegramID: u.ID,
		Username:   u.UserName,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
	}
}

// ResolveChannelURL returns the configured link, falls back to the public
// username or invite link from getChat, and finally to the private t.me/c
// form derived from the channel id.
func ResolveChannelURL(ctx context.Context, client *Client, channelID int64, configured string) string {
	if configured != "" {
		return configured
	}

	chat, err := client.Chat(ctx, channelID)
	if err != nil {
		logger.Logger().Warn("failed to resolve channel link", zap.Int64("channel_id", channelID), zap.Error(err))
	} else {
		if chat.UserName != "" {
			return "https://t.me/" + chat.UserName
		}
		if chat.InviteLink != "" {
			return chat.InviteLink
		}
	}

	id := strconv.FormatInt(channelID, 10)
	return fmt.Sprintf("https://t.me/c/%s", strings.TrimPrefix(id, "-100"))
}
