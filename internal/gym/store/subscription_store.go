package store

import (
	"context"

	"github.com/boldcity/gymgate/internal/gym/types"
)

// SubscriptionStore persists the single current subscription per member.
type SubscriptionStore interface {
	// GetCurrent returns the member's current subscription, or (nil, nil) if
	// none exists.
	GetCurrent(ctx context.Context, memberID string) (*types.Subscription, error)

	ListAll(ctx context.Context) ([]types.Subscription, error)

	// UpsertCurrent replaces the member's current subscription, archiving any
	// prior current record into subscription history first. Returns the
	// archived history row, or nil when the member had no prior subscription.
	UpsertCurrent(ctx context.Context, sub types.Subscription) (*types.SubscriptionHistory, error)
}

// SubscriptionHistoryStore is the append-only archive of superseded
// subscriptions. Rows are never mutated or deleted (except by member cascade).
type SubscriptionHistoryStore interface {
	ListByMember(ctx context.Context, memberID string) ([]types.SubscriptionHistory, error)
	Append(ctx context.Context, rec types.SubscriptionHistory) error
}
