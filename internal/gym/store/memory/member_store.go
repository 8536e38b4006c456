package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/boldcity/gymgate/internal/gym/store"
	"github.com/boldcity/gymgate/internal/gym/types"
)

// MemberStore is an in-memory member table for tests and dev. Cascade deletes
// are forwarded to the sibling stores registered via SetCascade.
type MemberStore struct {
	mu      sync.RWMutex
	members map[string]types.Member

	subs     *SubscriptionStore
	sessions *SessionStore
	logs     *ScanLogStore
}

func NewMemberStore() *MemberStore {
	return &MemberStore{members: make(map[string]types.Member)}
}

// SetCascade wires the dependent stores hit by Delete. Any of them may be nil.
func (s *MemberStore) SetCascade(subs *SubscriptionStore, sessions *SessionStore, logs *ScanLogStore) {
	s.subs = subs
	s.sessions = sessions
	s.logs = logs
}

func (s *MemberStore) Get(_ context.Context, id string) (*types.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.members[id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (s *MemberStore) List(_ context.Context) ([]types.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Member, 0, len(s.members))
	for _, m := range s.members {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemberStore) Insert(_ context.Context, m types.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[m.ID] = m
	return nil
}

func (s *MemberStore) Update(_ context.Context, id string, u store.MemberUpdate) (*types.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[id]
	if !ok {
		return nil, nil
	}
	if u.Name != nil {
		m.Name = *u.Name
	}
	if u.Phone != nil {
		m.Phone = *u.Phone
	}
	if u.Email != nil {
		m.Email = *u.Email
	}
	if u.HeightCM != nil {
		m.HeightCM = u.HeightCM
	}
	if u.WeightKG != nil {
		m.WeightKG = u.WeightKG
	}
	m.UpdatedAt = time.Now().UTC()
	s.members[id] = m
	return &m, nil
}

func (s *MemberStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.members, id)
	s.mu.Unlock()

	if s.subs != nil {
		s.subs.deleteByMember(id)
	}
	if s.sessions != nil {
		_, _ = s.sessions.Delete(ctx, id)
	}
	if s.logs != nil {
		s.logs.deleteByMember(id)
	}
	return nil
}
