package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/boldcity/gymgate/internal/gym/membership"
	"github.com/boldcity/gymgate/internal/gym/store"
	"github.com/boldcity/gymgate/internal/gym/types"
)

var (
	ErrInvalidMemberName = errors.New("member name is required")
	ErrMemberNotFound    = errors.New("member not found")
)

// MemberService handles registration and admin edits of member records.
type MemberService struct {
	members  store.MemberStore
	subs     store.SubscriptionStore
	sessions store.SessionStore
	seq      store.SequenceAllocator

	// expiryWarnDays is the "expiring soon" threshold used by listings.
	expiryWarnDays int
}

func NewMemberService(
	members store.MemberStore,
	subs store.SubscriptionStore,
	sessions store.SessionStore,
	seq store.SequenceAllocator,
	expiryWarnDays int,
) *MemberService {
	if expiryWarnDays <= 0 {
		expiryWarnDays = 7
	}
	return &MemberService{
		members:        members,
		subs:           subs,
		sessions:       sessions,
		seq:            seq,
		expiryWarnDays: expiryWarnDays,
	}
}

// Register allocates the next member identifier and inserts the record.
func (s *MemberService) Register(ctx context.Context, req types.NewMember) (*types.Member, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrInvalidMemberName
	}

	id, err := s.seq.NextMemberID(ctx)
	if err != nil {
		return nil, fmt.Errorf("allocate member id: %w", err)
	}

	now := time.Now().UTC()
	m := types.Member{
		ID:        id,
		Name:      name,
		Phone:     strings.TrimSpace(req.Phone),
		Email:     strings.TrimSpace(req.Email),
		HeightCM:  req.HeightCM,
		WeightKG:  req.WeightKG,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.members.Insert(ctx, m); err != nil {
		return nil, fmt.Errorf("insert member: %w", err)
	}
	return &m, nil
}

func (s *MemberService) Get(ctx context.Context, id string) (*types.Member, error) {
	m, err := s.members.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrMemberNotFound
	}
	return m, nil
}

func (s *MemberService) Update(ctx context.Context, id string, u store.MemberUpdate) (*types.Member, error) {
	m, err := s.members.Update(ctx, id, u)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrMemberNotFound
	}
	return m, nil
}

// Delete removes the member; the store cascades to subscription, history,
// session, and scan log rows.
func (s *MemberService) Delete(ctx context.Context, id string) error {
	m, err := s.members.Get(ctx, id)
	if err != nil {
		return err
	}
	if m == nil {
		return ErrMemberNotFound
	}
	return s.members.Delete(ctx, id)
}

// Overview returns every member joined with computed subscription state and
// session presence, the shape the dashboard's member table renders.
func (s *MemberService) Overview(ctx context.Context) ([]types.MemberOverview, error) {
	now := time.Now().UTC()

	members, err := s.members.List(ctx)
	if err != nil {
		return nil, err
	}
	subs, err := s.subs.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	sessions, err := s.sessions.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	subByMember := make(map[string]types.Subscription, len(subs))
	for _, sub := range subs {
		subByMember[sub.MemberID] = sub
	}
	inside := make(map[string]struct{}, len(sessions))
	for _, sess := range sessions {
		inside[sess.MemberID] = struct{}{}
	}

	out := make([]types.MemberOverview, 0, len(members))
	for _, m := range members {
		ov := types.MemberOverview{Member: m, SubscriptionStatus: "none"}
		if sub, ok := subByMember[m.ID]; ok {
			if membership.IsActive(&sub, now) {
				ov.SubscriptionStatus = string(types.SubscriptionActive)
			} else {
				ov.SubscriptionStatus = string(types.SubscriptionExpired)
			}
			ov.RemainingDays = membership.RemainingDays(&sub, now)
			ov.ExpiringSoon = membership.IsExpiringSoon(&sub, s.expiryWarnDays, now)
		}
		if _, ok := inside[m.ID]; ok {
			ov.CheckedIn = true
		}
		out = append(out, ov)
	}
	return out, nil
}

// ExpiringSoon filters the overview down to members inside the threshold.
// A thresholdDays of 0 uses the configured default.
func (s *MemberService) ExpiringSoon(ctx context.Context, thresholdDays int) ([]types.MemberOverview, error) {
	if thresholdDays <= 0 {
		thresholdDays = s.expiryWarnDays
	}
	all, err := s.Overview(ctx)
	if err != nil {
		return nil, err
	}
	var out []types.MemberOverview
	for _, ov := range all {
		if ov.SubscriptionStatus == string(types.SubscriptionActive) &&
			ov.RemainingDays > 0 && ov.RemainingDays <= thresholdDays {
			out = append(out, ov)
		}
	}
	return out, nil
}
