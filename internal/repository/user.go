package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"giveaway_bot/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var userColumns = []string{
	"id",
	"telegram_id",
	"username",
	"first_name",
	"last_name",
	"contact_name",
	"contact_phone",
	"is_subscribed",
	"referred_by",
	"referrals_confirmed",
	"is_participant",
	"last_subscription_check_at",
	"created_at",
	"updated_at",
}

type User struct {
	ID                      int64      `db:"id"`
	TelegramID              int64      `db:"telegram_id"`
	Username                *string    `db:"username"`
	FirstName               *string    `db:"first_name"`
	LastName                *string    `db:"last_name"`
	ContactName             *string    `db:"contact_name"`
	ContactPhone            *string    `db:"contact_phone"`
	IsSubscribed            bool       `db:"is_subscribed"`
	ReferredBy              *int64     `db:"referred_by"`
	ReferralsConfirmed      int        `db:"referrals_confirmed"`
	IsParticipant           bool       `db:"is_participant"`
	LastSubscriptionCheckAt *time.Time `db:"last_subscription_check_at"`
	CreatedAt               time.Time  `db:"created_at"`
	UpdatedAt               time.Time  `db:"updated_at"`
}

type exportRow struct {
	TelegramID         int64     `db:"telegram_id"`
	Username           *string   `db:"username"`
	ReferralsConfirmed int       `db:"referrals_confirmed"`
	IsParticipant      bool      `db:"is_participant"`
	CreatedAt          time.Time `db:"created_at"`
}

func (u *User) toModel() *model.User {
	return &model.User{
		ID:                      u.ID,
		TelegramID:              u.TelegramID,
		Username:                deref(u.Username),
		FirstName:               deref(u.FirstName),
		LastName:                deref(u.LastName),
		ContactName:             deref(u.ContactName),
		ContactPhone:            deref(u.ContactPhone),
		IsSubscribed:            u.IsSubscribed,
		ReferredBy:              u.ReferredBy,
		ReferralsConfirmed:      u.ReferralsConfirmed,
		IsParticipant:           u.IsParticipant,
		LastSubscriptionCheckAt: u.LastSubscriptionCheckAt,
		CreatedAt:               u.CreatedAt,
		UpdatedAt:               u.UpdatedAt,
	}
}

type queries struct {
	tx *sqlx.Tx
}

func (q *queries) GetOrCreateUserForUpdate(ctx context.Context, profile model.Profile) (*model.User, bool, error) {
	insertQuery, insertArgs, err := squirrel.
		Insert("users").
		SetMap(map[string]interface{}{
			"telegram_id": profile.TelegramID,
			"username":    nullable(profile.Username),
			"first_name":  nullable(profile.FirstName),
			"last_name":   nullable(profile.LastName),
		}).
		Suffix("ON CONFLICT (telegram_id) DO NOTHING RETURNING id").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, false, fmt.Errorf("failed to build user insert query: %w", err)
	}

	created := true
	var insertedID int64
	err = q.tx.GetContext(ctx, &insertedID, insertQuery, insertArgs...)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, false, fmt.Errorf("failed to insert user: %w", err)
		}
		created = false
	}

	user, err := q.GetUserForUpdate(ctx, profile.TelegramID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load user %d after upsert: %w", profile.TelegramID, err)
	}

	if !created {
		user.UpdateProfile(profile)
		if err := q.saveProfile(ctx, user); err != nil {
			return nil, false, err
		}
	}

	return user, created, nil
}

func (q *queries) saveProfile(ctx context.Context, user *model.User) error {
	query, args, err := squirrel.
		Update("users").
		SetMap(map[string]interface{}{
			"username":   nullable(user.Username),
			"first_name": nullable(user.FirstName),
			"last_name":  nullable(user.LastName),
			"updated_at": squirrel.Expr("now()"),
		}).
		Where(squirrel.Eq{"telegram_id": user.TelegramID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build profile update query: %w", err)
	}

	_, err = q.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	return nil
}

func (q *queries) GetUserForUpdate(ctx context.Context, telegramID int64) (*model.User, error) {
	var user User
	query, args, err := squirrel.
		Select(userColumns...).
		From("users").
		Where(squirrel.Eq{"telegram_id": telegramID}).
		Suffix("FOR UPDATE").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = q.tx.GetContext(ctx, &user, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return user.toModel(), nil
}

func (q *queries) UserExists(ctx context.Context, telegramID int64) (bool, error) {
	query, args, err := squirrel.
		Select("1").
		Prefix("SELECT EXISTS (").
		From("users").
		Where(squirrel.Eq{"telegram_id": telegramID}).
		Suffix(")").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return false, err
	}

	var exists bool
	if err := q.tx.GetContext(ctx, &exists, query, args...); err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}

	return exists, nil
}

func (q *queries) SaveUser(ctx context.Context, user *model.User) error {
	query, args, err := squirrel.
		Update("users").
		SetMap(map[string]interface{}{
			"username":                   nullable(user.Username),
			"first_name":                 nullable(user.FirstName),
			"last_name":                  nullable(user.LastName),
			"contact_name":               nullable(user.ContactName),
			"contact_phone":              nullable(user.ContactPhone),
			"is_subscribed":              user.IsSubscribed,
			"referred_by":                user.ReferredBy,
			"referrals_confirmed":        user.ReferralsConfirmed,
			"is_participant":             user.IsParticipant,
			"last_subscription_check_at": user.LastSubscriptionCheckAt,
			"updated_at":                 squirrel.Expr("now()"),
		}).
		Where(squirrel.Eq{"telegram_id": user.TelegramID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build user update query: %w", err)
	}

	result, err := q.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

func (q *queries) UpdateContact(ctx context.Context, telegramID int64, name, phone string) error {
	query, args, err := squirrel.
		Update("users").
		Set("contact_name", nullable(name)).
		Set("contact_phone", nullable(phone)).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"telegram_id": telegramID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build contact update query: %w", err)
	}

	result, err := q.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update contact: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *Repository) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	var user User
	query, args, err := squirrel.
		Select(userColumns...).
		From("users").
		Where(squirrel.Eq{"telegram_id": telegramID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.GetContext(ctx, &user, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return user.toModel(), nil
}

func (r *Repository) GetUsersByTelegramIDs(ctx context.Context, telegramIDs []int64) ([]*model.User, error) {
	if len(telegramIDs) == 0 {
		return []*model.User{}, nil
	}

	query, args, err := squirrel.
		Select(userColumns...).
		From("users").
		Where("telegram_id = ANY(?)", pq.Array(telegramIDs)).
		OrderBy("id").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var rows []User
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}

	users := make([]*model.User, len(rows))
	for i := range rows {
		users[i] = rows[i].toModel()
	}

	return users, nil
}

func (r *Repository) ListUsers(ctx context.Context) ([]*model.User, error) {
	query, args, err := squirrel.
		Select(userColumns...).
		From("users").
		OrderBy("id").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []User
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]*model.User, len(rows))
	for i := range rows {
		users[i] = rows[i].toModel()
	}

	return users, nil
}

func (r *Repository) FetchStats(ctx context.Context) (*model.Stats, error) {
	var counts struct {
		TotalUsers        int `db:"total_users"`
		TotalSubscribed   int `db:"total_subscribed"`
		TotalParticipants int `db:"total_participants"`
	}

	query, args, err := squirrel.
		Select(
			"count(*) AS total_users",
			"count(*) FILTER (WHERE is_subscribed) AS total_subscribed",
			"count(*) FILTER (WHERE is_participant) AS total_participants",
		).
		From("users").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	if err := r.db.GetContext(ctx, &counts, query, args...); err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	confirmed, err := r.CountConfirmedReferrals(ctx)
	if err != nil {
		return nil, err
	}

	return &model.Stats{
		TotalUsers:              counts.TotalUsers,
		TotalSubscribed:         counts.TotalSubscribed,
		TotalParticipants:       counts.TotalParticipants,
		TotalConfirmedReferrals: confirmed,
	}, nil
}

func (r *Repository) FetchExportRows(ctx context.Context) ([]*model.ExportRow, error) {
	query, args, err := squirrel.
		Select("telegram_id", "username", "referrals_confirmed", "is_participant", "created_at").
		From("users").
		OrderBy("id ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []exportRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to fetch export rows: %w", err)
	}

	out := make([]*model.ExportRow, len(rows))
	for i, row := range rows {
		out[i] = &model.ExportRow{
			TelegramID:         row.TelegramID,
			Username:           deref(row.Username),
			ReferralsConfirmed: row.ReferralsConfirmed,
			IsParticipant:      row.IsParticipant,
			CreatedAt:          row.CreatedAt,
		}
	}

	return out, nil
}

func (r *Repository) FetchAllTelegramIDs(ctx context.Context) ([]int64, error) {
	query, args, err := squirrel.
		Select("telegram_id").
		From("users").
		OrderBy("id ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("failed to fetch telegram ids: %w", err)
	}

	return ids, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
