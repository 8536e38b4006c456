package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/boldcity/gymgate/internal/gym/membership"
	"github.com/boldcity/gymgate/internal/gym/store"
	"github.com/boldcity/gymgate/internal/gym/types"
	"github.com/boldcity/gymgate/internal/metrics"
)

var (
	ErrInvalidCode = errors.New("scan code is required")
)

// unknownMemberName is the placeholder denormalized into audit rows for scan
// codes that resolve to no member. Unknown scans are always logged, on every
// entry point, so the audit trail stays complete.
const unknownMemberName = "Unknown"

// AccessService is the decision engine behind the kiosk. It holds no state
// across calls: every decision re-reads current truth from the stores, which
// is what makes the kiosk resilient to reloads and the logic testable against
// in-memory fakes.
type AccessService struct {
	members  store.MemberStore
	subs     store.SubscriptionStore
	sessions store.SessionStore
	recorder store.ScanRecorder
	logs     store.ScanLogStore
	metrics  *metrics.Metrics
	logger   *log.Logger
}

func NewAccessService(
	members store.MemberStore,
	subs store.SubscriptionStore,
	sessions store.SessionStore,
	recorder store.ScanRecorder,
	logs store.ScanLogStore,
	m *metrics.Metrics,
	logger *log.Logger,
) *AccessService {
	return &AccessService{
		members:  members,
		subs:     subs,
		sessions: sessions,
		recorder: recorder,
		logs:     logs,
		metrics:  m,
		logger:   logger,
	}
}

// ProcessScan handles one kiosk scan: the side effect is inferred entirely
// from persisted state — an existing active session means check-out, none
// means check-in. The kiosk has one scan action, not two buttons.
func (s *AccessService) ProcessScan(ctx context.Context, code string) (types.Decision, error) {
	now := time.Now().UTC()

	code = strings.TrimSpace(code)
	if code == "" {
		return types.Decision{}, ErrInvalidCode
	}

	member, terminal, err := s.admit(ctx, code, now)
	if err != nil {
		return types.Decision{}, err
	}
	if terminal != nil {
		return *terminal, nil
	}

	sess, err := s.sessions.Get(ctx, member.ID)
	if err != nil {
		return types.Decision{}, err
	}

	if sess != nil {
		return s.checkOut(ctx, member, now), nil
	}
	return s.checkIn(ctx, member, now), nil
}

// ProcessCheckIn is the explicit entry point used by UI affordances. Calling
// it for a member who is already inside returns a non-granting conflict and
// writes nothing — the session-uniqueness invariant is enforced at the store.
func (s *AccessService) ProcessCheckIn(ctx context.Context, memberID string) (types.Decision, error) {
	now := time.Now().UTC()

	memberID = strings.TrimSpace(memberID)
	if memberID == "" {
		return types.Decision{}, ErrInvalidCode
	}

	member, terminal, err := s.admit(ctx, memberID, now)
	if err != nil {
		return types.Decision{}, err
	}
	if terminal != nil {
		return *terminal, nil
	}

	return s.checkIn(ctx, member, now), nil
}

// ProcessCheckOut is the explicit counterpart; a member with no active
// session gets a non-granting conflict with no audit row.
func (s *AccessService) ProcessCheckOut(ctx context.Context, memberID string) (types.Decision, error) {
	now := time.Now().UTC()

	memberID = strings.TrimSpace(memberID)
	if memberID == "" {
		return types.Decision{}, ErrInvalidCode
	}

	member, terminal, err := s.admit(ctx, memberID, now)
	if err != nil {
		return types.Decision{}, err
	}
	if terminal != nil {
		return *terminal, nil
	}

	return s.checkOut(ctx, member, now), nil
}

// admit walks the shared front of the state machine: member lookup, then
// subscription activity. It returns either the member to proceed with or a
// terminal denial decision. Infrastructure errors abort the attempt; denials
// do not.
func (s *AccessService) admit(ctx context.Context, id string, now time.Time) (*types.Member, *types.Decision, error) {
	member, err := s.members.Get(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("member lookup: %w", err)
	}
	if member == nil {
		s.appendLog(ctx, types.ScanLogEntry{
			MemberID:   id,
			MemberName: unknownMemberName,
			ScannedAt:  now,
			Action:     types.ActionNotApplicable,
			Status:     types.OutcomeInvalid,
		})
		s.metrics.ObserveScan(string(types.OutcomeInvalid))
		return nil, &types.Decision{
			Granted:    false,
			Action:     types.ActionNotApplicable,
			Outcome:    types.OutcomeInvalid,
			Message:    "User not found",
			ServerTime: now.Format(time.RFC3339Nano),
		}, nil
	}

	sub, err := s.subs.GetCurrent(ctx, member.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("subscription lookup: %w", err)
	}
	if !membership.IsActive(sub, now) {
		s.appendLog(ctx, types.ScanLogEntry{
			MemberID:   member.ID,
			MemberName: member.Name,
			ScannedAt:  now,
			Action:     types.ActionNotApplicable,
			Status:     types.OutcomeExpired,
		})
		s.metrics.ObserveScan(string(types.OutcomeExpired))
		return nil, &types.Decision{
			Granted:    false,
			Action:     types.ActionNotApplicable,
			Outcome:    types.OutcomeExpired,
			Message:    fmt.Sprintf("Membership expired for %s", member.Name),
			MemberID:   member.ID,
			MemberName: member.Name,
			ServerTime: now.Format(time.RFC3339Nano),
		}, nil
	}

	return member, nil, nil
}

func (s *AccessService) checkIn(ctx context.Context, member *types.Member, now time.Time) types.Decision {
	sess := types.ActiveSession{
		MemberID:    member.ID,
		MemberName:  member.Name,
		CheckedInAt: now,
	}
	entry := types.ScanLogEntry{
		MemberID:   member.ID,
		MemberName: member.Name,
		ScannedAt:  now,
		Action:     types.ActionCheckIn,
		Status:     types.OutcomeSuccess,
	}

	err := s.recorder.RecordCheckIn(ctx, sess, entry)
	if errors.Is(err, store.ErrSessionExists) {
		s.metrics.ObserveScan(string(types.OutcomeConflict))
		return types.Decision{
			Granted:    false,
			Action:     types.ActionNotApplicable,
			Outcome:    types.OutcomeConflict,
			Message:    fmt.Sprintf("%s is already checked in", member.Name),
			MemberID:   member.ID,
			MemberName: member.Name,
			ServerTime: now.Format(time.RFC3339Nano),
		}
	}
	if err != nil {
		// The decision stands; the kiosk still shows a result. The missing
		// rows are a storage incident, not an access denial.
		s.logger.Printf("record check-in for %s: %v", member.ID, err)
	}

	s.observeSessions(ctx)
	s.metrics.ObserveScan(string(types.OutcomeSuccess))
	return types.Decision{
		Granted:    true,
		Action:     types.ActionCheckIn,
		Outcome:    types.OutcomeSuccess,
		Message:    fmt.Sprintf("Welcome, %s!", member.Name),
		MemberID:   member.ID,
		MemberName: member.Name,
		ServerTime: now.Format(time.RFC3339Nano),
		LogEntry:   &entry,
	}
}

func (s *AccessService) checkOut(ctx context.Context, member *types.Member, now time.Time) types.Decision {
	entry := types.ScanLogEntry{
		MemberID:   member.ID,
		MemberName: member.Name,
		ScannedAt:  now,
		Action:     types.ActionCheckOut,
		Status:     types.OutcomeSuccess,
	}

	deleted, err := s.recorder.RecordCheckOut(ctx, member.ID, entry)
	if err != nil {
		s.logger.Printf("record check-out for %s: %v", member.ID, err)
	}
	if err == nil && deleted == nil {
		s.metrics.ObserveScan(string(types.OutcomeConflict))
		return types.Decision{
			Granted:    false,
			Action:     types.ActionNotApplicable,
			Outcome:    types.OutcomeConflict,
			Message:    fmt.Sprintf("%s is not checked in", member.Name),
			MemberID:   member.ID,
			MemberName: member.Name,
			ServerTime: now.Format(time.RFC3339Nano),
		}
	}

	s.observeSessions(ctx)
	s.metrics.ObserveScan(string(types.OutcomeSuccess))
	return types.Decision{
		Granted:    true,
		Action:     types.ActionCheckOut,
		Outcome:    types.OutcomeSuccess,
		Message:    fmt.Sprintf("Goodbye, %s!", member.Name),
		MemberID:   member.ID,
		MemberName: member.Name,
		ServerTime: now.Format(time.RFC3339Nano),
		LogEntry:   &entry,
	}
}

// appendLog writes a denial audit entry. Errors are logged, never returned —
// a failed audit write must not keep the kiosk from showing its decision.
func (s *AccessService) appendLog(ctx context.Context, e types.ScanLogEntry) {
	if err := s.logs.Append(ctx, e); err != nil {
		s.logger.Printf("scan log append for %s: %v", e.MemberID, err)
	}
}

func (s *AccessService) observeSessions(ctx context.Context) {
	if s.metrics == nil {
		return
	}
	sessions, err := s.sessions.ListAll(ctx)
	if err != nil {
		return
	}
	s.metrics.SetActiveSessions(len(sessions))
}
