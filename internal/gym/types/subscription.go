package types

import "time"

type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionExpired   SubscriptionStatus = "expired"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

// Subscription is the current access grant for a Member. At most one current
// Subscription exists per member; superseded records move to SubscriptionHistory.
//
// The stored Status is not authoritative on its own: a subscription whose end
// date has passed while Status still reads "active" is treated as inactive by
// the evaluator. Nothing flips the stored field in the background.
type Subscription struct {
	MemberID string             `json:"member_id"`
	StartAt  time.Time          `json:"start_at"`
	EndAt    time.Time          `json:"end_at"`
	Status   SubscriptionStatus `json:"status"`
}

// SubscriptionHistory is an immutable archival copy of a superseded
// Subscription. Created only as a side effect of replacing the current record.
type SubscriptionHistory struct {
	ID         string             `json:"id"`
	MemberID   string             `json:"member_id"`
	StartAt    time.Time          `json:"start_at"`
	EndAt      time.Time          `json:"end_at"`
	Status     SubscriptionStatus `json:"status"`
	ArchivedAt time.Time          `json:"archived_at"`
}
