package types

import "time"

// ActiveSession marks a Member as currently inside the gym. Keyed uniquely by
// member ID — at most one row per member, ever. MemberName is denormalized so
// the front-desk session list renders without a join.
type ActiveSession struct {
	MemberID    string    `json:"member_id"`
	MemberName  string    `json:"member_name"`
	CheckedInAt time.Time `json:"checked_in_at"`
}
