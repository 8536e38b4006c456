package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/boldcity/gymgate/internal/gym/store"
	"github.com/boldcity/gymgate/internal/gym/types"
)

// SessionStore holds active sessions keyed by member ID. It also implements
// store.ScanRecorder, applying the session mutation and the audit append while
// holding both locks so a conflicting check-in can never leave a stray row.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]types.ActiveSession
	logs     *ScanLogStore
}

func NewSessionStore(logs *ScanLogStore) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]types.ActiveSession),
		logs:     logs,
	}
}

func (s *SessionStore) Get(_ context.Context, memberID string) (*types.ActiveSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[memberID]
	if !ok {
		return nil, nil
	}
	return &sess, nil
}

func (s *SessionStore) ListAll(_ context.Context) ([]types.ActiveSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.ActiveSession, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MemberID < out[j].MemberID })
	return out, nil
}

func (s *SessionStore) Create(_ context.Context, sess types.ActiveSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess.MemberID]; ok {
		return store.ErrSessionExists
	}
	s.sessions[sess.MemberID] = sess
	return nil
}

func (s *SessionStore) Delete(_ context.Context, memberID string) (*types.ActiveSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[memberID]
	if !ok {
		return nil, nil
	}
	delete(s.sessions, memberID)
	return &sess, nil
}

func (s *SessionStore) RecordCheckIn(_ context.Context, sess types.ActiveSession, e types.ScanLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess.MemberID]; ok {
		return store.ErrSessionExists
	}
	s.sessions[sess.MemberID] = sess

	s.logs.mu.Lock()
	s.logs.append(e)
	s.logs.mu.Unlock()
	return nil
}

func (s *SessionStore) RecordCheckOut(_ context.Context, memberID string, e types.ScanLogEntry) (*types.ActiveSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[memberID]
	if !ok {
		return nil, nil
	}
	delete(s.sessions, memberID)

	s.logs.mu.Lock()
	s.logs.append(e)
	s.logs.mu.Unlock()
	return &sess, nil
}
