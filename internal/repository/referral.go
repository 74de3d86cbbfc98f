package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"giveaway_bot/internal/model"

	"github.com/Masterminds/squirrel"
)

type Referral struct {
	ID          int64      `db:"id"`
	ReferrerID  int64      `db:"referrer_id"`
	ReferralID  int64      `db:"referral_id"`
	Status      string     `db:"status"`
	ConfirmedAt *time.Time `db:"confirmed_at"`
	CreatedAt   time.Time  `db:"created_at"`
}

func (q *queries) CreatePendingReferral(ctx context.Context, referrerID, referralID int64) (bool, error) {
	query, args, err := squirrel.
		Insert("referrals").
		Columns("referrer_id", "referral_id", "status").
		Values(referrerID, referralID, string(model.ReferralStatusPending)).
		Suffix("ON CONFLICT (referral_id) DO NOTHING RETURNING id").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build referral insert query: %w", err)
	}

	var id int64
	err = q.tx.GetContext(ctx, &id, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to insert referral: %w", err)
	}

	return true, nil
}

func (q *queries) GetReferralByReferralID(ctx context.Context, referralID int64) (*model.Referral, error) {
	var referral Referral
	query, args, err := squirrel.
		Select("id", "referrer_id", "referral_id", "status", "confirmed_at", "created_at").
		From("referrals").
		Where(squirrel.Eq{"referral_id": referralID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = q.tx.GetContext(ctx, &referral, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &model.Referral{
		ID:          referral.ID,
		ReferrerID:  referral.ReferrerID,
		ReferralID:  referral.ReferralID,
		Status:      model.ReferralStatus(referral.Status),
		ConfirmedAt: referral.ConfirmedAt,
		CreatedAt:   referral.CreatedAt,
	}, nil
}

// ConfirmPendingReferral moves the pending edge of referralID to confirmed in a
// single conditional update and returns its referrer. A nil result means there
// was no pending edge, either because none exists or because it was already
// confirmed.
func (q *queries) ConfirmPendingReferral(ctx context.Context, referralID int64, at time.Time) (*int64, error) {
	query, args, err := squirrel.
		Update("referrals").
		Set("status", string(model.ReferralStatusConfirmed)).
		Set("confirmed_at", at).
		Where(squirrel.Eq{
			"referral_id": referralID,
			"status":      string(model.ReferralStatusPending),
		}).
		Suffix("RETURNING referrer_id").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build referral confirm query: %w", err)
	}

	var referrerID int64
	err = q.tx.GetContext(ctx, &referrerID, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to confirm referral: %w", err)
	}

	return &referrerID, nil
}

func (r *Repository) CountConfirmedReferrals(ctx context.Context) (int, error) {
	query, args, err := squirrel.
		Select("count(*)").
		From("referrals").
		Where(squirrel.Eq{"status": string(model.ReferralStatusConfirmed)}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return 0, err
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count confirmed referrals: %w", err)
	}

	return count, nil
}
