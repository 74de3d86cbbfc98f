package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyMemberStatus(t *testing.T) {
	tests := []struct {
		status     string
		want       MembershipStatus
		subscribed bool
	}{
		{status: "member", want: MembershipValid, subscribed: true},
		{status: "administrator", want: MembershipValid, subscribed: true},
		{status: "creator", want: MembershipValid, subscribed: true},
		{status: " Member ", want: MembershipValid, subscribed: true},
		{status: "left", want: MembershipInvalid},
		{status: "kicked", want: MembershipInvalid},
		{status: "restricted", want: MembershipInvalid},
		{status: "banned_forever", want: MembershipUnknown},
		{status: "", want: MembershipUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			got := ClassifyMemberStatus(tt.status)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.subscribed, got.IsSubscribed())
		})
	}
}
