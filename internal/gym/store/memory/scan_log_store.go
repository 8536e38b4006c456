package memory

import (
	"context"
	"sync"
	"time"

	"github.com/boldcity/gymgate/internal/gym/types"
)

// ScanLogStore is an in-memory append-only scan audit log.
type ScanLogStore struct {
	mu      sync.Mutex
	entries []types.ScanLogEntry
	nextID  int64
}

func NewScanLogStore() *ScanLogStore {
	return &ScanLogStore{nextID: 1}
}

func (s *ScanLogStore) Append(_ context.Context, e types.ScanLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.append(e)
	return nil
}

// append assumes s.mu is held.
func (s *ScanLogStore) append(e types.ScanLogEntry) {
	e.ID = s.nextID
	s.nextID++
	s.entries = append(s.entries, e)
}

func (s *ScanLogStore) ListAll(_ context.Context) ([]types.ScanLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.ScanLogEntry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

func (s *ScanLogStore) ListToday(_ context.Context, now time.Time) ([]types.ScanLogEntry, error) {
	dayStart := now.UTC().Truncate(24 * time.Hour)
	dayEnd := dayStart.Add(24 * time.Hour)

	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.ScanLogEntry
	for _, e := range s.entries {
		if !e.ScannedAt.Before(dayStart) && e.ScannedAt.Before(dayEnd) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *ScanLogStore) ListByMember(_ context.Context, memberID string) ([]types.ScanLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.ScanLogEntry
	for _, e := range s.entries {
		if e.MemberID == memberID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *ScanLogStore) deleteByMember(memberID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.entries[:0]
	for _, e := range s.entries {
		if e.MemberID != memberID {
			kept = append(kept, e)
		}
	}
	s.entries = kept
}
