package model

import "time"

// User mirrors a row of the users table. State columns are only changed
// through the methods below so the one-way transitions stay in one place.
type User struct {
	ID                      int64
	TelegramID              int64
	Username                string
	FirstName               string
	LastName                string
	ContactName             string
	ContactPhone            string
	IsSubscribed            bool
	ReferredBy              *int64
	ReferralsConfirmed      int
	IsParticipant           bool
	LastSubscriptionCheckAt *time.Time
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// Profile is the display snapshot Telegram sends with every update.
type Profile struct {
	TelegramID int64
	Username   string
	FirstName  string
	LastName   string
}

func (u *User) UpdateProfile(p Profile) {
	u.Username = p.Username
	u.FirstName = p.FirstName
	u.LastName = p.LastName
}

// HasContact reports whether both contact name and phone are on file.
func (u *User) HasContact() bool {
	return u.ContactName != "" && u.ContactPhone != ""
}

// DisplayName joins the Telegram first and last name.
func (u *User) DisplayName() string {
	if u.FirstName == "" {
		return ""
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// MarkSubscribed sets the subscription flag and reports whether it changed.
// The flag is never reset.
func (u *User) MarkSubscribed() bool {
	if u.IsSubscribed {
		return false
	}
	u.IsSubscribed = true
	return true
}

// SetReferredBy records the referrer once. Later calls are ignored.
func (u *User) SetReferredBy(referrerID int64) bool {
	if u.ReferredBy != nil {
		return false
	}
	u.ReferredBy = &referrerID
	return true
}

func (u *User) SetContact(name, phone string) {
	u.ContactName = name
	u.ContactPhone = phone
}

func (u *User) AddConfirmedReferral() {
	u.ReferralsConfirmed++
}

func (u *User) StampSubscriptionCheck(at time.Time) {
	u.LastSubscriptionCheckAt = &at
}

// PromoteToParticipant flips IsParticipant to true when the user is subscribed
// and has at least required confirmed referrals. It returns true only for the
// call that performed the transition.
func (u *User) PromoteToParticipant(required int) bool {
	if u.IsParticipant {
		return false
	}
	if !u.IsSubscribed || u.ReferralsConfirmed < required {
		return false
	}
	u.IsParticipant = true
	return true
}

type ExportRow struct {
	TelegramID         int64
	Username           string
	ReferralsConfirmed int
	IsParticipant      bool
	CreatedAt          time.Time
}

type Stats struct {
	TotalUsers              int
	TotalSubscribed         int
	TotalParticipants       int
	TotalConfirmedReferrals int
}
