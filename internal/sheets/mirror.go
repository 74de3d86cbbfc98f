package sheets

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"giveaway_bot/internal/model"
	"giveaway_bot/pkg/logger"

	"go.uber.org/zap"
)

const (
	DefaultWorksheet = "Участники"

	telegramIDColumn = 2
	columnCount      = 10
	initialRowCount  = 1000
	dateLayout       = "2006-01-02 15:04:05"
)

var header = []any{
	"№",
	"Дата",
	"Telegram ID",
	"Username",
	"Имя (Telegram)",
	"Имя (контакт)",
	"Телефон",
	"Подписан",
	"Участник",
	"Рефералов подтверждено",
}

// Mirror keeps one spreadsheet row per user with contact details. Rows are
// keyed by the Telegram ID in column C.
type Mirror struct {
	api       API
	worksheet string
	now       func() time.Time

	// Serializes lookup and write so two jobs for the same user cannot both append.
	mu    sync.Mutex
	ready bool
}

func NewMirror(api API, worksheet string) *Mirror {
	if worksheet == "" {
		worksheet = DefaultWorksheet
	}
	return &Mirror{
		api:       api,
		worksheet: worksheet,
		now:       time.Now,
	}
}

// UpsertContact writes the user's row. Users without a stored contact are
// skipped and reported as not written.
func (m *Mirror) UpsertContact(ctx context.Context, user *model.User) (bool, error) {
	log := logger.Logger()

	if !user.HasContact() {
		log.Debug("sheets sync skipped: no contact", zap.Int64("telegram_id", user.TelegramID))
		return false, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureWorksheet(ctx); err != nil {
		return false, err
	}

	rows, err := m.api.ReadRange(ctx, m.rangeOf("A:C"))
	if err != nil {
		return false, err
	}

	id := strconv.FormatInt(user.TelegramID, 10)
	rowNumber := 0
	for i := 1; i < len(rows); i++ {
		if len(rows[i]) > telegramIDColumn && rows[i][telegramIDColumn] == id {
			rowNumber = i + 1
			break
		}
	}

	if rowNumber > 0 {
		serial := strconv.Itoa(rowNumber - 1)
		if existing := rows[rowNumber-1][0]; isDigits(existing) {
			serial = existing
		}
		rng := m.rangeOf(fmt.Sprintf("A%d:J%d", rowNumber, rowNumber))
		if err := m.api.UpdateRow(ctx, rng, m.row(serial, user)); err != nil {
			return false, err
		}
		log.Info("sheets row updated", zap.Int64("telegram_id", user.TelegramID), zap.Int("row", rowNumber))
		return true, nil
	}

	serial := strconv.Itoa(nextSerial(rows))
	if err := m.api.AppendRow(ctx, m.rangeOf("A:J"), m.row(serial, user)); err != nil {
		return false, err
	}
	log.Info("sheets row appended", zap.Int64("telegram_id", user.TelegramID), zap.String("serial", serial))
	return true, nil
}

func (m *Mirror) ensureWorksheet(ctx context.Context) error {
	if m.ready {
		return nil
	}

	titles, err := m.api.SheetTitles(ctx)
	if err != nil {
		return err
	}
	for _, title := range titles {
		if title == m.worksheet {
			m.ready = true
			return nil
		}
	}

	if err := m.api.AddSheet(ctx, m.worksheet, initialRowCount, columnCount); err != nil {
		return err
	}
	if err := m.api.AppendRow(ctx, m.rangeOf("A:J"), header); err != nil {
		return err
	}

	logger.Logger().Info("sheets worksheet created", zap.String("worksheet", m.worksheet))
	m.ready = true
	return nil
}

func (m *Mirror) row(serial string, user *model.User) []any {
	return []any{
		serial,
		m.now().Format(dateLayout),
		strconv.FormatInt(user.TelegramID, 10),
		user.Username,
		user.DisplayName(),
		user.ContactName,
		user.ContactPhone,
		yesNo(user.IsSubscribed),
		yesNo(user.IsParticipant),
		user.ReferralsConfirmed,
	}
}

func (m *Mirror) rangeOf(cells string) string {
	return "'" + strings.ReplaceAll(m.worksheet, "'", "''") + "'!" + cells
}

func nextSerial(rows [][]string) int {
	highest := 0
	for i := 1; i < len(rows); i++ {
		if len(rows[i]) == 0 || !isDigits(rows[i][0]) {
			continue
		}
		if n, err := strconv.Atoi(rows[i][0]); err == nil && n > highest {
			highest = n
		}
	}
	return highest + 1
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func yesNo(v bool) string {
	if v {
		return "Да"
	}
	return "Нет"
}
