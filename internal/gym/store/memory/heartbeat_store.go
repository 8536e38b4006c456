package memory

import (
	"context"
	"sync"
	"time"

	"github.com/boldcity/gymgate/internal/gym/store"
)

// HeartbeatStore is an in-memory kiosk heartbeat log for tests and dev.
type HeartbeatStore struct {
	mu      sync.Mutex
	records []store.KioskHeartbeatRecord
}

func NewHeartbeatStore() *HeartbeatStore {
	return &HeartbeatStore{}
}

func (s *HeartbeatStore) Append(_ context.Context, _ string, rec store.KioskHeartbeatRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.ReceivedAt.IsZero() {
		rec.ReceivedAt = time.Now().UTC()
	}
	s.records = append(s.records, rec)
	return nil
}

func (s *HeartbeatStore) PruneOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.records[:0]
	var deleted int64
	for _, rec := range s.records {
		if rec.ReceivedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, rec)
	}
	s.records = kept
	return deleted, nil
}

// Records returns a copy of all stored heartbeats. Test-only helper.
func (s *HeartbeatStore) Records() []store.KioskHeartbeatRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.KioskHeartbeatRecord, len(s.records))
	copy(out, s.records)
	return out
}
