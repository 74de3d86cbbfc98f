package service

import (
	"context"
	"errors"

	"giveaway_bot/internal/model"
	"giveaway_bot/internal/repository"
)

var (
	ErrUserMustExist = errors.New("user must exist before subscription confirmation")
	ErrUserNotFound  = errors.New("user not found")
	ErrInvalidPhone  = errors.New("invalid phone number")
	ErrEmptyMessage  = errors.New("broadcast message is empty")
)

type Service struct {
	*ReferralService
	*SubscriptionService
	*ContactService
	*AdminService
}

func NewService(
	referralService *ReferralService,
	subscriptionService *SubscriptionService,
	contactService *ContactService,
	adminService *AdminService,
) *Service {
	return &Service{
		ReferralService:     referralService,
		SubscriptionService: subscriptionService,
		ContactService:      contactService,
		AdminService:        adminService,
	}
}

type ReferralServiceI interface {
	ProcessStart(ctx context.Context, profile model.Profile, rawToken string) (*StartResult, error)
}

type SubscriptionServiceI interface {
	RegisterCheckAttempt(ctx context.Context, profile model.Profile) (int, error)
	ConfirmSubscription(ctx context.Context, telegramID int64) (*ConfirmationResult, error)
	RequiredReferrals() int
}

type ContactServiceI interface {
	SaveContact(ctx context.Context, telegramID int64, name, phone string) (*model.User, error)
	GetUser(ctx context.Context, telegramID int64) (*model.User, error)
	Snapshots(ctx context.Context, telegramIDs ...int64) ([]*model.User, error)
}

type AdminServiceI interface {
	CollectStats(ctx context.Context) (*model.Stats, error)
	ExportUsersCSV(ctx context.Context) ([]byte, error)
	Broadcast(ctx context.Context, text string) (*BroadcastResult, error)
}

// Store opens transactions over the user and referral tables.
type Store interface {
	InTx(ctx context.Context, fn func(tx repository.Tx) error) error
}

type UserRepository interface {
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	GetUsersByTelegramIDs(ctx context.Context, telegramIDs []int64) ([]*model.User, error)
}

type ReportRepository interface {
	FetchStats(ctx context.Context) (*model.Stats, error)
	FetchExportRows(ctx context.Context) ([]*model.ExportRow, error)
	FetchAllTelegramIDs(ctx context.Context) ([]int64, error)
}

// MessageSender delivers a plain text message to a chat.
type MessageSender interface {
	SendText(ctx context.Context, chatID int64, text string) error
}
