package service

import "strings"

type MembershipStatus int

const (
	MembershipUnknown MembershipStatus = iota
	MembershipValid
	MembershipInvalid
)

func (m MembershipStatus) String() string {
	switch m {
	case MembershipValid:
		return "valid"
	case MembershipInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// IsSubscribed treats unknown statuses as not subscribed.
func (m MembershipStatus) IsSubscribed() bool {
	return m == MembershipValid
}

// ClassifyMemberStatus maps a Telegram chat member status onto a membership
// status.
func ClassifyMemberStatus(status string) MembershipStatus {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "member", "administrator", "creator":
		return MembershipValid
	case "left", "kicked", "restricted":
		return MembershipInvalid
	default:
		return MembershipUnknown
	}
}
