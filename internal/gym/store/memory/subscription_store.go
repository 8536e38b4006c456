package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/boldcity/gymgate/internal/gym/types"
)

// SubscriptionStore keeps the current subscription per member and the
// append-only history of superseded records. One struct implements both
// store.SubscriptionStore and store.SubscriptionHistoryStore so the
// archive-then-replace step happens under a single lock.
type SubscriptionStore struct {
	mu      sync.RWMutex
	current map[string]types.Subscription
	history []types.SubscriptionHistory
}

func NewSubscriptionStore() *SubscriptionStore {
	return &SubscriptionStore{current: make(map[string]types.Subscription)}
}

func (s *SubscriptionStore) GetCurrent(_ context.Context, memberID string) (*types.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.current[memberID]
	if !ok {
		return nil, nil
	}
	return &sub, nil
}

func (s *SubscriptionStore) ListAll(_ context.Context) ([]types.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Subscription, 0, len(s.current))
	for _, sub := range s.current {
		out = append(out, sub)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MemberID < out[j].MemberID })
	return out, nil
}

func (s *SubscriptionStore) UpsertCurrent(_ context.Context, sub types.Subscription) (*types.SubscriptionHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var archived *types.SubscriptionHistory
	if prior, ok := s.current[sub.MemberID]; ok {
		rec := types.SubscriptionHistory{
			ID:         uuid.NewString(),
			MemberID:   prior.MemberID,
			StartAt:    prior.StartAt,
			EndAt:      prior.EndAt,
			Status:     prior.Status,
			ArchivedAt: time.Now().UTC(),
		}
		s.history = append(s.history, rec)
		archived = &rec
	}

	s.current[sub.MemberID] = sub
	return archived, nil
}

func (s *SubscriptionStore) ListByMember(_ context.Context, memberID string) ([]types.SubscriptionHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []types.SubscriptionHistory
	for _, rec := range s.history {
		if rec.MemberID == memberID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *SubscriptionStore) Append(_ context.Context, rec types.SubscriptionHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, rec)
	return nil
}

func (s *SubscriptionStore) deleteByMember(memberID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.current, memberID)
	kept := s.history[:0]
	for _, rec := range s.history {
		if rec.MemberID != memberID {
			kept = append(kept, rec)
		}
	}
	s.history = kept
}
