package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"giveaway_bot/internal/model"
	"giveaway_bot/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultBroadcastRate keeps broadcasts under Telegram's global send limit.
const DefaultBroadcastRate = rate.Limit(20)

var exportHeader = []string{"telegram_id", "username", "referrals_confirmed", "is_participant", "created_at"}

type BroadcastResult struct {
	RunID     string
	Delivered int
	Failed    int
}

type AdminService struct {
	reports ReportRepository
	sender  MessageSender
	limiter *rate.Limiter
}

func NewAdminService(reports ReportRepository, sender MessageSender, limit rate.Limit) *AdminService {
	if limit <= 0 {
		limit = DefaultBroadcastRate
	}
	return &AdminService{
		reports: reports,
		sender:  sender,
		limiter: rate.NewLimiter(limit, 1),
	}
}

func (s *AdminService) CollectStats(ctx context.Context) (*model.Stats, error) {
	stats, err := s.reports.FetchStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to collect stats: %w", err)
	}
	return stats, nil
}

func FormatStats(stats *model.Stats) string {
	return fmt.Sprintf(
		"Giveaway Stats\nTotal users: %d\nSubscribed users: %d\nParticipants: %d\nConfirmed referrals: %d",
		stats.TotalUsers,
		stats.TotalSubscribed,
		stats.TotalParticipants,
		stats.TotalConfirmedReferrals,
	)
}

func (s *AdminService) ExportUsersCSV(ctx context.Context) ([]byte, error) {
	rows, err := s.reports.FetchExportRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch export rows: %w", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, err
	}

	for _, row := range rows {
		createdAt := ""
		if !row.CreatedAt.IsZero() {
			createdAt = row.CreatedAt.UTC().Format(time.RFC3339)
		}
		record := []string{
			strconv.FormatInt(row.TelegramID, 10),
			row.Username,
			strconv.Itoa(row.ReferralsConfirmed),
			strconv.FormatBool(row.IsParticipant),
			createdAt,
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Broadcast sends text to every known user, one at a time at the configured
// rate. Per-recipient failures are counted, not returned.
func (s *AdminService) Broadcast(ctx context.Context, text string) (*BroadcastResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	ids, err := s.reports.FetchAllTelegramIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recipients: %w", err)
	}

	result := &BroadcastResult{RunID: uuid.NewString()}
	log := logger.Logger().With(zap.String("broadcast_id", result.RunID))
	log.Info("broadcast started", zap.Int("recipients", len(ids)))

	for _, id := range ids {
		if err := s.limiter.Wait(ctx); err != nil {
			return result, fmt.Errorf("broadcast interrupted: %w", err)
		}

		if err := s.sender.SendText(ctx, id, text); err != nil {
			result.Failed++
			log.Warn("broadcast delivery failed", zap.Int64("telegram_id", id), zap.Error(err))
			continue
		}
		result.Delivered++
	}

	log.Info("broadcast finished",
		zap.Int("delivered", result.Delivered),
		zap.Int("failed", result.Failed))

	return result, nil
}
