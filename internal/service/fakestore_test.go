package service

import (
	"context"
	"sync"
	"time"

	"giveaway_bot/internal/model"
	"giveaway_bot/internal/repository"
)

// fakeStore is an in-memory Store. Transactions run one at a time and work on
// a copy of the tables that replaces the originals only on commit.
type fakeStore struct {
	mu        sync.Mutex
	users     map[int64]model.User
	referrals map[int64]model.Referral
	nextID    int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:     make(map[int64]model.User),
		referrals: make(map[int64]model.Referral),
	}
}

func (s *fakeStore) InTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &fakeTx{
		store:     s,
		users:     make(map[int64]model.User, len(s.users)),
		referrals: make(map[int64]model.Referral, len(s.referrals)),
	}
	for k, v := range s.users {
		tx.users[k] = v
	}
	for k, v := range s.referrals {
		tx.referrals[k] = v
	}

	if err := fn(tx); err != nil {
		return err
	}

	s.users = tx.users
	s.referrals = tx.referrals
	return nil
}

func (s *fakeStore) user(telegramID int64) (model.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[telegramID]
	return u, ok
}

func (s *fakeStore) referral(referralID int64) (model.Referral, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.referrals[referralID]
	return r, ok
}

func (s *fakeStore) confirmedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.referrals {
		if r.Status == model.ReferralStatusConfirmed {
			n++
		}
	}
	return n
}

type fakeTx struct {
	store     *fakeStore
	users     map[int64]model.User
	referrals map[int64]model.Referral
}

func (t *fakeTx) GetOrCreateUserForUpdate(ctx context.Context, profile model.Profile) (*model.User, bool, error) {
	u, ok := t.users[profile.TelegramID]
	if !ok {
		t.store.nextID++
		u = model.User{ID: t.store.nextID, TelegramID: profile.TelegramID, CreatedAt: time.Now()}
	}
	u.UpdateProfile(profile)
	t.users[profile.TelegramID] = u
	return &u, !ok, nil
}

func (t *fakeTx) GetUserForUpdate(ctx context.Context, telegramID int64) (*model.User, error) {
	u, ok := t.users[telegramID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (t *fakeTx) UserExists(ctx context.Context, telegramID int64) (bool, error) {
	_, ok := t.users[telegramID]
	return ok, nil
}

func (t *fakeTx) SaveUser(ctx context.Context, user *model.User) error {
	if _, ok := t.users[user.TelegramID]; !ok {
		return repository.ErrNotFound
	}
	t.users[user.TelegramID] = *user
	return nil
}

func (t *fakeTx) UpdateContact(ctx context.Context, telegramID int64, name, phone string) error {
	u, ok := t.users[telegramID]
	if !ok {
		return repository.ErrNotFound
	}
	u.SetContact(name, phone)
	t.users[telegramID] = u
	return nil
}

func (t *fakeTx) CreatePendingReferral(ctx context.Context, referrerID, referralID int64) (bool, error) {
	if _, ok := t.referrals[referralID]; ok {
		return false, nil
	}
	t.store.nextID++
	t.referrals[referralID] = model.Referral{
		ID:         t.store.nextID,
		ReferrerID: referrerID,
		ReferralID: referralID,
		Status:     model.ReferralStatusPending,
		CreatedAt:  time.Now(),
	}
	return true, nil
}

func (t *fakeTx) GetReferralByReferralID(ctx context.Context, referralID int64) (*model.Referral, error) {
	r, ok := t.referrals[referralID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &r, nil
}

func (t *fakeTx) ConfirmPendingReferral(ctx context.Context, referralID int64, at time.Time) (*int64, error) {
	r, ok := t.referrals[referralID]
	if !ok || r.Status != model.ReferralStatusPending {
		return nil, nil
	}
	r.Status = model.ReferralStatusConfirmed
	r.ConfirmedAt = &at
	t.referrals[referralID] = r
	referrerID := r.ReferrerID
	return &referrerID, nil
}
