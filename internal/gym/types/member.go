package types

import "time"

// Member is a gym customer. The ID is the externally visible identifier
// encoded in the member's QR code (e.g. "BCF-1001"); it is allocated by the
// store's sequence allocator and never reused.
type Member struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	HeightCM  *int      `json:"height_cm,omitempty"`
	WeightKG  *float64  `json:"weight_kg,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewMember carries the fields for member registration.
type NewMember struct {
	Name     string   `json:"name"`
	Phone    string   `json:"phone,omitempty"`
	Email    string   `json:"email,omitempty"`
	HeightCM *int     `json:"height_cm,omitempty"`
	WeightKG *float64 `json:"weight_kg,omitempty"`
}

// MemberOverview is a Member joined with computed subscription and session
// state for dashboard listings.
type MemberOverview struct {
	Member
	SubscriptionStatus string `json:"subscription_status"` // "active" | "expired" | "none"
	RemainingDays      int    `json:"remaining_days"`
	ExpiringSoon       bool   `json:"expiring_soon"`
	CheckedIn          bool   `json:"checked_in"`
}
