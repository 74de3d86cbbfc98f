package service

import "giveaway_bot/internal/model"

const DefaultRequiredReferrals = 1

// ParticipationRule promotes a user to participant once they are subscribed
// and have enough confirmed referrals. It must be evaluated after every change
// to either of those fields.
type ParticipationRule struct {
	Required int
}

func NewParticipationRule(required int) ParticipationRule {
	if required < 1 {
		required = DefaultRequiredReferrals
	}
	return ParticipationRule{Required: required}
}

func (r ParticipationRule) Evaluate(user *model.User) bool {
	return user.PromoteToParticipant(r.Required)
}

// ReferralsNeeded is how many more confirmed referrals the user needs.
func (r ParticipationRule) ReferralsNeeded(confirmed int) int {
	if confirmed >= r.Required {
		return 0
	}
	return r.Required - confirmed
}
