package model

import "time"

type ReferralStatus string

const (
	ReferralStatusPending   ReferralStatus = "pending"
	ReferralStatusConfirmed ReferralStatus = "confirmed"
)

// Referral is the edge between the user who shared a link and the user who
// joined through it. ReferralID is unique across the table.
type Referral struct {
	ID          int64
	ReferrerID  int64
	ReferralID  int64
	Status      ReferralStatus
	ConfirmedAt *time.Time
	CreatedAt   time.Time
}
