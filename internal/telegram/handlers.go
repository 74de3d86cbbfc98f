package telegram

import (
	"context"
	"errors"
	"strings"

	"giveaway_bot/internal/events"
	"giveaway_bot/internal/model"
	"giveaway_bot/internal/service"
	"giveaway_bot/pkg/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	log := logger.Logger()
	profile := profileOf(msg.From)

	result, err := b.deps.Referrals.ProcessStart(ctx, profile, msg.CommandArguments())
	if err != nil {
		log.Error("failed to process start", zap.Int64("telegram_id", profile.TelegramID), zap.Error(err))
		b.reply(ctx, msg.Chat.ID, textGenericError, nil)
		return
	}

	if b.deps.Metrics != nil {
		b.deps.Metrics.RecordStart(result.Created, result.ReferralApplied)
	}
	if result.Created {
		b.publish(events.TypeUserStarted, map[string]any{"telegram_id": result.TelegramID})
	}
	if result.ReferralApplied {
		b.publish(events.TypeReferralApplied, map[string]any{"telegram_id": result.TelegramID})
	}

	text := startText(referralLink(b.cfg.BotUsername, result.TelegramID), result.ReferralApplied)
	b.reply(ctx, msg.Chat.ID, text, subscriptionKeyboard(b.cfg.ChannelURL))
}

func (b *Bot) handleCheckSubscription(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	log := logger.Logger()

	if cb.From == nil {
		b.answer(ctx, cb.ID, "", false)
		return
	}
	profile := profileOf(cb.From)
	log = log.With(zap.Int64("telegram_id", profile.TelegramID))

	wait, err := b.deps.Subscriptions.RegisterCheckAttempt(ctx, profile)
	if err != nil {
		log.Error("failed to register subscription check", zap.Error(err))
		b.checkOutcome("error")
		b.answer(ctx, cb.ID, textTryLater, true)
		return
	}
	if wait > 0 {
		b.checkOutcome("rate_limited")
		b.answer(ctx, cb.ID, cooldownText(wait), true)
		return
	}

	status, err := b.membership.CheckMembership(ctx, profile.TelegramID)
	if err != nil {
		log.Error("membership check failed", zap.Error(err))
		b.checkOutcome("error")
		b.answer(ctx, cb.ID, textTryLater, true)
		return
	}

	log.Info("subscription check result", zap.Stringer("status", status))
	b.publish(events.TypeSubscriptionChecked, map[string]any{
		"telegram_id": profile.TelegramID,
		"status":      status.String(),
	})

	if !status.IsSubscribed() {
		b.checkOutcome("not_subscribed")
		b.answer(ctx, cb.ID, textNotSubscribed, true)
		return
	}

	result, err := b.deps.Subscriptions.ConfirmSubscription(ctx, profile.TelegramID)
	if err != nil {
		log.Error("failed to confirm subscription", zap.Error(err))
		b.checkOutcome("error")
		b.answer(ctx, cb.ID, textTryLater, true)
		return
	}
	b.checkOutcome("subscribed")

	b.afterConfirmation(ctx, profile.TelegramID, result)
	b.respondToConfirmation(ctx, cb, result)
}

func (b *Bot) checkOutcome(outcome string) {
	if b.deps.Metrics != nil {
		b.deps.Metrics.RecordSubscriptionCheck(outcome)
	}
}

// afterConfirmation runs the side effects of a committed confirmation. None
// of them can undo it, so failures are only logged.
func (b *Bot) afterConfirmation(ctx context.Context, telegramID int64, result *service.ConfirmationResult) {
	log := logger.Logger()

	promotions := 0
	if result.ParticipationChanged {
		promotions++
		b.publish(events.TypeParticipantAdded, map[string]any{"telegram_id": telegramID})
	}
	if result.ReferrerPromoted && result.ReferrerToNotify != nil {
		promotions++
		b.publish(events.TypeParticipantAdded, map[string]any{"telegram_id": *result.ReferrerToNotify})
	}
	if b.deps.Metrics != nil {
		b.deps.Metrics.RecordConfirmation(result.ReferralConfirmed, promotions)
	}

	synced := []int64{telegramID}

	if referrerID := result.ReferrerToNotify; referrerID != nil {
		b.publish(events.TypeReferralConfirmed, map[string]any{
			"referrer_id": *referrerID,
			"referral_id": telegramID,
		})
		synced = append(synced, *referrerID)

		text := textReferrerPending
		if result.ReferrerIsParticipant {
			text = textReferrerParticipant
		}
		if err := b.client.SendText(ctx, *referrerID, text); err != nil {
			log.Warn("referrer notification failed", zap.Int64("referrer_id", *referrerID), zap.Error(err))
		}
	}

	b.syncSheets(ctx, synced...)
}

func (b *Bot) respondToConfirmation(ctx context.Context, cb *tgbotapi.CallbackQuery, result *service.ConfirmationResult) {
	log := logger.Logger()
	userID := cb.From.ID

	if !result.SubscriptionChanged && !result.ParticipationChanged {
		if result.IsParticipant {
			b.answer(ctx, cb.ID, textAlreadyIn, false)
			return
		}
		needed := service.NewParticipationRule(b.deps.Subscriptions.RequiredReferrals()).
			ReferralsNeeded(result.ReferralsConfirmed)
		b.answer(ctx, cb.ID, waitingForFriendText(needed), true)
		return
	}

	if result.SubscriptionChanged && !result.HasContact {
		b.answer(ctx, cb.ID, textSubscribed, false)
		if cb.Message != nil {
			if err := b.client.Request(ctx, tgbotapi.NewDeleteMessage(cb.Message.Chat.ID, cb.Message.MessageID)); err != nil {
				log.Debug("failed to delete check message", zap.Error(err))
			}
		}
		log.Info("requesting contact after subscription", zap.Int64("telegram_id", userID))
		b.reply(ctx, userID, textRequestContact, contactKeyboard())
		return
	}

	text := confirmedText(result.IsParticipant, referralLink(b.cfg.BotUsername, userID))
	keyboard := subscriptionKeyboard(b.cfg.ChannelURL)

	if cb.Message != nil {
		edit := tgbotapi.NewEditMessageTextAndMarkup(cb.Message.Chat.ID, cb.Message.MessageID, text, keyboard)
		if err := b.client.Request(ctx, edit); err != nil {
			log.Debug("failed to edit check message, sending new one", zap.Error(err))
			b.reply(ctx, cb.Message.Chat.ID, text, keyboard)
		}
	}

	b.answer(ctx, cb.ID, textStatusUpdated, false)
}

func (b *Bot) handleContact(ctx context.Context, msg *tgbotapi.Message) {
	log := logger.Logger().With(zap.Int64("telegram_id", msg.From.ID))
	contact := msg.Contact

	if contact.UserID != 0 && contact.UserID != msg.From.ID {
		log.Warn("contact belongs to another user", zap.Int64("contact_user_id", contact.UserID))
		b.reply(ctx, msg.Chat.ID, textForeignPhone, contactKeyboard())
		return
	}
	if strings.TrimSpace(contact.PhoneNumber) == "" {
		log.Warn("contact received without phone")
		b.reply(ctx, msg.Chat.ID, textNoPhone, nil)
		return
	}

	name := strings.TrimSpace(contact.FirstName + " " + contact.LastName)
	user, ok := b.saveContact(ctx, msg, name, contact.PhoneNumber)
	if !ok {
		return
	}

	link := referralLink(b.cfg.BotUsername, user.TelegramID)
	b.reply(ctx, msg.Chat.ID, contactReceivedText(link), tgbotapi.NewRemoveKeyboard(true))
}

// handleTypedPhone accepts a phone typed as plain text from subscribed users.
func (b *Bot) handleTypedPhone(ctx context.Context, msg *tgbotapi.Message, text string) {
	existing, err := b.deps.Contacts.GetUser(ctx, msg.From.ID)
	if err != nil || !existing.IsSubscribed {
		return
	}

	user, ok := b.saveContact(ctx, msg, "", text)
	if !ok {
		return
	}

	link := referralLink(b.cfg.BotUsername, user.TelegramID)
	b.reply(ctx, msg.Chat.ID, contactSavedText(user.ContactName, user.ContactPhone, link), tgbotapi.NewRemoveKeyboard(true))
}

func (b *Bot) saveContact(ctx context.Context, msg *tgbotapi.Message, name, phone string) (*model.User, bool) {
	log := logger.Logger().With(zap.Int64("telegram_id", msg.From.ID))

	user, err := b.deps.Contacts.SaveContact(ctx, msg.From.ID, name, phone)
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		b.reply(ctx, msg.Chat.ID, textStartFirst, nil)
		return nil, false
	case errors.Is(err, service.ErrInvalidPhone):
		b.reply(ctx, msg.Chat.ID, textBadPhone, nil)
		return nil, false
	case err != nil:
		log.Error("failed to save contact", zap.Error(err))
		b.reply(ctx, msg.Chat.ID, textGenericError, nil)
		return nil, false
	}

	if b.deps.Metrics != nil {
		b.deps.Metrics.RecordContactSaved()
	}
	b.publish(events.TypeContactSaved, map[string]any{"telegram_id": user.TelegramID})
	if b.deps.Sheets != nil {
		if err := b.deps.Sheets.Enqueue(user); err != nil {
			log.Warn("sheets sync not queued", zap.Error(err))
		}
	}

	return user, true
}

func (b *Bot) handleContactCommand(ctx context.Context, msg *tgbotapi.Message) {
	user, err := b.deps.Contacts.GetUser(ctx, msg.From.ID)
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		b.reply(ctx, msg.Chat.ID, textStartFirst, nil)
		return
	case err != nil:
		logger.Logger().Error("failed to load user", zap.Int64("telegram_id", msg.From.ID), zap.Error(err))
		b.reply(ctx, msg.Chat.ID, textGenericError, nil)
		return
	}

	switch {
	case !user.IsParticipant:
		b.reply(ctx, msg.Chat.ID, textNotYet, nil)
	case user.HasContact():
		b.reply(ctx, msg.Chat.ID, storedContactText(user.ContactName, user.ContactPhone), nil)
	default:
		b.reply(ctx, msg.Chat.ID, textAskContact, contactKeyboard())
	}
}
