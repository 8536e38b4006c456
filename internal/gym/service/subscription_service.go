package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/boldcity/gymgate/internal/gym/membership"
	"github.com/boldcity/gymgate/internal/gym/store"
	"github.com/boldcity/gymgate/internal/gym/types"
)

var ErrInvalidDuration = errors.New("duration must be at least one month")

// SubscriptionService manages the current subscription per member and its
// archival history.
type SubscriptionService struct {
	members store.MemberStore
	subs    store.SubscriptionStore
	history store.SubscriptionHistoryStore
}

func NewSubscriptionService(
	members store.MemberStore,
	subs store.SubscriptionStore,
	history store.SubscriptionHistoryStore,
) *SubscriptionService {
	return &SubscriptionService{members: members, subs: subs, history: history}
}

// Renew replaces the member's current subscription with a fresh one starting
// now and running the given number of calendar months. The prior current
// record, if any, is archived into history by the store before being replaced.
func (s *SubscriptionService) Renew(ctx context.Context, memberID string, months int) (*types.Subscription, error) {
	if months < 1 {
		return nil, ErrInvalidDuration
	}

	member, err := s.members.Get(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("member lookup: %w", err)
	}
	if member == nil {
		return nil, ErrMemberNotFound
	}

	sub := membership.New(member.ID, months, time.Now().UTC())
	if _, err := s.subs.UpsertCurrent(ctx, sub); err != nil {
		return nil, fmt.Errorf("replace subscription: %w", err)
	}
	return &sub, nil
}

// Current returns the member's current subscription, or (nil, nil) when the
// member has none.
func (s *SubscriptionService) Current(ctx context.Context, memberID string) (*types.Subscription, error) {
	member, err := s.members.Get(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, ErrMemberNotFound
	}
	return s.subs.GetCurrent(ctx, memberID)
}

func (s *SubscriptionService) History(ctx context.Context, memberID string) ([]types.SubscriptionHistory, error) {
	return s.history.ListByMember(ctx, memberID)
}
