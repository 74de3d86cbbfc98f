package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"giveaway_bot/internal/model"
	"giveaway_bot/internal/repository"
	"giveaway_bot/pkg/logger"

	"go.uber.org/zap"
)

var (
	nonPhoneChars = regexp.MustCompile(`[^\d+]`)
	phonePattern  = regexp.MustCompile(`^(\+?7|8)?\d{10}$`)
)

// NormalizePhone strips formatting and rewrites Russian numbers to +7XXXXXXXXXX.
// Numbers that already carry a foreign country code are kept as is.
func NormalizePhone(raw string) string {
	cleaned := nonPhoneChars.ReplaceAllString(raw, "")
	switch {
	case cleaned == "" || cleaned == "+":
		return ""
	case strings.HasPrefix(cleaned, "+7"):
		return cleaned
	case strings.HasPrefix(cleaned, "+"):
		return cleaned
	case strings.HasPrefix(cleaned, "8"):
		return "+7" + cleaned[1:]
	case strings.HasPrefix(cleaned, "7") && len(cleaned) == 11:
		return "+" + cleaned
	default:
		return "+7" + cleaned
	}
}

// ValidPhone accepts +7XXXXXXXXXX, 7XXXXXXXXXX, 8XXXXXXXXXX and bare ten digit
// numbers, ignoring spaces, dashes and brackets.
func ValidPhone(raw string) bool {
	return phonePattern.MatchString(nonPhoneChars.ReplaceAllString(raw, ""))
}

type ContactService struct {
	store Store
	users UserRepository
}

func NewContactService(store Store, users UserRepository) *ContactService {
	return &ContactService{
		store: store,
		users: users,
	}
}

// SaveContact stores the contact under the user's row lock and returns the
// committed snapshot.
func (s *ContactService) SaveContact(ctx context.Context, telegramID int64, name, phone string) (*model.User, error) {
	phone = NormalizePhone(phone)
	if phone == "" {
		return nil, ErrInvalidPhone
	}
	name = strings.TrimSpace(name)

	var saved *model.User
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		user, err := tx.GetUserForUpdate(ctx, telegramID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		if name == "" {
			name = user.DisplayName()
		}
		user.SetContact(name, phone)
		if err := tx.UpdateContact(ctx, telegramID, user.ContactName, user.ContactPhone); err != nil {
			return err
		}

		saved = user
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to save contact for %d: %w", telegramID, err)
	}

	logger.Logger().Info("contact saved",
		zap.Int64("telegram_id", telegramID),
		zap.Bool("has_name", saved.ContactName != ""))

	return saved, nil
}

func (s *ContactService) GetUser(ctx context.Context, telegramID int64) (*model.User, error) {
	user, err := s.users.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// Snapshots loads the current rows of the given users, skipping unknown ids.
func (s *ContactService) Snapshots(ctx context.Context, telegramIDs ...int64) ([]*model.User, error) {
	return s.users.GetUsersByTelegramIDs(ctx, telegramIDs)
}
