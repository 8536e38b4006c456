// Package membership holds the subscription evaluator: pure functions of
// (subscription, now). The evaluation instant is always passed in explicitly
// so callers and tests share identical semantics.
package membership

import (
	"time"

	"github.com/boldcity/gymgate/internal/gym/types"
)

// IsActive reports whether the subscription grants access at the given
// instant. A nil subscription is never active. The stored status must read
// "active" AND the end timestamp must not have passed — an overdue record
// whose status field was never flipped is still inactive.
func IsActive(sub *types.Subscription, now time.Time) bool {
	if sub == nil {
		return false
	}
	if sub.Status != types.SubscriptionActive {
		return false
	}
	return !sub.EndAt.Before(now)
}

// RemainingDays returns the ceiling of (end - now) in whole days, floored at
// zero. A nil subscription has zero days remaining.
func RemainingDays(sub *types.Subscription, now time.Time) int {
	if sub == nil {
		return 0
	}
	d := sub.EndAt.Sub(now)
	if d <= 0 {
		return 0
	}
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) > 0 {
		days++
	}
	return days
}

// IsExpiringSoon reports whether an active subscription has between one and
// thresholdDays days left. An inactive subscription is never expiring soon —
// it is already expired.
func IsExpiringSoon(sub *types.Subscription, thresholdDays int, now time.Time) bool {
	if !IsActive(sub, now) {
		return false
	}
	rd := RemainingDays(sub, now)
	return rd > 0 && rd <= thresholdDays
}

// New builds a subscription starting at now and ending months calendar months
// later, status active.
//
// Month arithmetic uses time.AddDate normalization: a start date whose day
// does not exist in the target month rolls over into the following month
// (Jan 31 + 1 month = Mar 3, or Mar 2 in a leap year). The same rule applies
// everywhere a period end is computed.
func New(memberID string, months int, now time.Time) types.Subscription {
	return types.Subscription{
		MemberID: memberID,
		StartAt:  now,
		EndAt:    now.AddDate(0, months, 0),
		Status:   types.SubscriptionActive,
	}
}
