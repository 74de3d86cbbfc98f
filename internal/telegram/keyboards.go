package telegram

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

const CallbackCheckSubscription = "check_subscription"

func subscriptionKeyboard(channelURL string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL("Открыть канал", channelURL)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Проверить подписку", CallbackCheckSubscription)),
	)
}

func contactKeyboard() tgbotapi.ReplyKeyboardMarkup {
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButtonContact("📱 Отправить контакт")),
	)
	keyboard.OneTimeKeyboard = true
	return keyboard
}
