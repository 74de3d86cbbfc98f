package telegram

import (
	"fmt"
	"strings"

	"giveaway_bot/internal/service"
)

const (
	textTryLater         = "Сейчас не удалось проверить подписку. Попробуйте чуть позже."
	textGenericError     = "Произошла ошибка. Попробуйте позже."
	textNotSubscribed    = "Подписка не подтверждена. Подпишитесь на канал и нажмите кнопку еще раз."
	textAlreadyIn        = "Вы уже участвуете в розыгрыше."
	textSubscribed       = "Подписка подтверждена."
	textStatusUpdated    = "Статус обновлен."
	textReferralAccepted = "Реферальный код принят. Подтвердите подписку кнопкой ниже."
	textRequestContact   = "Спасибо, подписка подтверждена.\n\nТеперь отправьте свои контакты:"
	textAskContact       = "Для участия в розыгрыше необходимо предоставить контактную информацию.\n\n" +
		"Нажмите кнопку ниже или введите номер телефона в формате +7XXXXXXXXXX или 8XXXXXXXXXX."
	textNoPhone      = "Не удалось получить номер телефона. Попробуйте еще раз."
	textForeignPhone = "Пожалуйста, отправьте свой контакт кнопкой ниже."
	textBadPhone     = "Неверный формат телефона. Пожалуйста, введите номер в формате:\n+7XXXXXXXXXX или 8XXXXXXXXXX"
	textStartFirst   = "Сначала выполните условия участия в розыгрыше.\nИспользуйте команду /start для начала."
	textNotYet       = "Вы еще не являетесь участником розыгрыша.\n" +
		"Выполните все условия участия, чтобы получить возможность предоставить контактную информацию."
	textInviteFriend = "Теперь отправьте другу вашу ссылку и попросите подписаться.\n" +
		"Как только друг подпишется, вы станете участником розыгрыша."

	textReferrerParticipant = "Ваш друг подписался по вашей ссылке.\nПоздравляем, вы участвуете в розыгрыше!"
	textReferrerPending     = "Ваш друг подписался по вашей ссылке.\n" +
		"Чтобы участвовать в розыгрыше, подтвердите и свою подписку на канал."

	textAdminOnly      = "This command is available only to admins."
	textBroadcastUsage = "Usage: /broadcast <message>"
	textBroadcastStart = "Broadcast started."
)

func referralLink(botUsername string, telegramID int64) string {
	if botUsername == "" {
		return ""
	}
	return fmt.Sprintf("https://t.me/%s?start=%d", botUsername, telegramID)
}

func startText(link string, referralApplied bool) string {
	parts := []string{
		"Привет! Чтобы участвовать в розыгрыше, выполните условия:",
		"1) Подпишитесь на канал.",
		"2) Нажмите «Проверить подписку».",
		"3) Отправьте свои контакты (имя и телефон).",
		"4) Отправьте другу вашу личную ссылку и попросите подписаться на канал.",
		"5) Как только друг подпишется, вы получите уведомление и станете участником розыгрыша.",
	}
	if link != "" {
		parts = append(parts, "Ваша ссылка для приглашения:\n"+link)
	}
	if referralApplied {
		parts = append(parts, textReferralAccepted)
	}
	return strings.Join(parts, "\n")
}

func cooldownText(seconds int) string {
	return fmt.Sprintf("Подождите %d сек. перед следующей проверкой.", seconds)
}

func waitingForFriendText(needed int) string {
	return fmt.Sprintf("Подписка уже подтверждена. Ждем подписку друга по вашей ссылке. Осталось друзей: %d.", needed)
}

func confirmedText(isParticipant bool, link string) string {
	text := "Спасибо, подписка подтверждена."
	if isParticipant {
		return text + "\nПоздравляем! Вы участвуете в розыгрыше."
	}
	text += "\n" + textInviteFriend
	if link != "" {
		text += "\n\nВаша ссылка:\n" + link
	}
	return text
}

func contactReceivedText(link string) string {
	text := "✅ Контакт получен!\n\n" + textInviteFriend
	if link != "" {
		text += "\n\nВаша ссылка:\n" + link
	}
	return text
}

func contactSavedText(name, phone, link string) string {
	text := fmt.Sprintf("✅ Контактная информация сохранена!\n\nИмя: %s\nТелефон: %s\n\n%s", name, phone, textInviteFriend)
	if link != "" {
		text += "\n\nВаша ссылка:\n" + link
	}
	return text
}

func storedContactText(name, phone string) string {
	return fmt.Sprintf("✅ Ваша контактная информация уже сохранена:\n\nИмя: %s\nТелефон: %s\n\n"+
		"Если хотите изменить данные, отправьте новый контакт.", name, phone)
}

func broadcastDoneText(result *service.BroadcastResult) string {
	return fmt.Sprintf("Broadcast complete.\nDelivered: %d\nFailed: %d", result.Delivered, result.Failed)
}
