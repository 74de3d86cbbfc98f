package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUser_PromoteToParticipant(t *testing.T) {
	tests := []struct {
		name        string
		user        User
		required    int
		wantChanged bool
		wantFlag    bool
	}{
		{
			name:        "Subscribed with one referral",
			user:        User{IsSubscribed: true, ReferralsConfirmed: 1},
			required:    1,
			wantChanged: true,
			wantFlag:    true,
		},
		{
			name:     "Not subscribed",
			user:     User{IsSubscribed: false, ReferralsConfirmed: 3},
			required: 1,
		},
		{
			name:     "No referrals",
			user:     User{IsSubscribed: true},
			required: 1,
		},
		{
			name:     "Below raised threshold",
			user:     User{IsSubscribed: true, ReferralsConfirmed: 2},
			required: 3,
		},
		{
			name:     "Already participant",
			user:     User{IsSubscribed: true, ReferralsConfirmed: 1, IsParticipant: true},
			required: 1,
			wantFlag: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := tt.user
			assert.Equal(t, tt.wantChanged, u.PromoteToParticipant(tt.required))
			assert.Equal(t, tt.wantFlag, u.IsParticipant)
		})
	}
}

func TestUser_PromoteToParticipant_IsIdempotent(t *testing.T) {
	u := User{IsSubscribed: true, ReferralsConfirmed: 1}

	assert.True(t, u.PromoteToParticipant(1))
	for i := 0; i < 5; i++ {
		assert.False(t, u.PromoteToParticipant(1))
	}
	assert.True(t, u.IsParticipant)
}

func TestUser_SetReferredBy_WriteOnce(t *testing.T) {
	u := User{TelegramID: 10}

	assert.True(t, u.SetReferredBy(11))
	assert.False(t, u.SetReferredBy(12))
	if assert.NotNil(t, u.ReferredBy) {
		assert.Equal(t, int64(11), *u.ReferredBy)
	}
}

func TestUser_MarkSubscribed(t *testing.T) {
	u := User{}

	assert.True(t, u.MarkSubscribed())
	assert.False(t, u.MarkSubscribed())
	assert.True(t, u.IsSubscribed)
}

func TestUser_HasContact(t *testing.T) {
	assert.False(t, (&User{ContactName: "Ivan"}).HasContact())
	assert.False(t, (&User{ContactPhone: "+79990000000"}).HasContact())
	assert.True(t, (&User{ContactName: "Ivan", ContactPhone: "+79990000000"}).HasContact())
}

func TestUser_UpdateProfileAndStamp(t *testing.T) {
	u := User{Username: "old", FirstName: "Old"}
	u.UpdateProfile(Profile{TelegramID: 1, Username: "new", FirstName: "Anna", LastName: "K"})

	assert.Equal(t, "new", u.Username)
	assert.Equal(t, "Anna K", u.DisplayName())

	now := time.Now()
	u.StampSubscriptionCheck(now)
	if assert.NotNil(t, u.LastSubscriptionCheckAt) {
		assert.True(t, now.Equal(*u.LastSubscriptionCheckAt))
	}
}
