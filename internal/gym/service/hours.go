package service

import (
	"context"
	"sort"
	"time"

	"github.com/boldcity/gymgate/internal/gym/store"
	"github.com/boldcity/gymgate/internal/gym/types"
)

// PairHours folds scan log entries into elapsed presence per member. Entries
// are processed in ascending scan-time order; a check-in opens an interval and
// the member's next check-out closes it. Consecutive check-ins without a
// check-out overwrite the pending open timestamp, so malformed sequences never
// double count. A trailing unmatched check-in (member still inside, or a
// missed check-out) contributes nothing.
func PairHours(entries []types.ScanLogEntry) map[string]time.Duration {
	sorted := make([]types.ScanLogEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ScannedAt.Before(sorted[j].ScannedAt)
	})

	totals := make(map[string]time.Duration)
	open := make(map[string]time.Time)

	for _, e := range sorted {
		if e.Status != types.OutcomeSuccess {
			continue
		}
		switch e.Action {
		case types.ActionCheckIn:
			open[e.MemberID] = e.ScannedAt
		case types.ActionCheckOut:
			if start, ok := open[e.MemberID]; ok {
				totals[e.MemberID] += e.ScannedAt.Sub(start)
				delete(open, e.MemberID)
			}
		}
	}
	return totals
}

// ReportService serves derived, read-only attendance statistics.
type ReportService struct {
	logs store.ScanLogStore
}

func NewReportService(logs store.ScanLogStore) *ReportService {
	return &ReportService{logs: logs}
}

// MemberHours returns the member's total elapsed presence within [from, to).
// A zero `to` means no upper bound.
func (s *ReportService) MemberHours(ctx context.Context, memberID string, from, to time.Time) (time.Duration, error) {
	entries, err := s.logs.ListByMember(ctx, memberID)
	if err != nil {
		return 0, err
	}
	return PairHours(filterWindow(entries, from, to))[memberID], nil
}

// HoursByMember returns elapsed presence per member within [from, to).
func (s *ReportService) HoursByMember(ctx context.Context, from, to time.Time) (map[string]time.Duration, error) {
	entries, err := s.logs.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return PairHours(filterWindow(entries, from, to)), nil
}

func filterWindow(entries []types.ScanLogEntry, from, to time.Time) []types.ScanLogEntry {
	var out []types.ScanLogEntry
	for _, e := range entries {
		if e.ScannedAt.Before(from) {
			continue
		}
		if !to.IsZero() && !e.ScannedAt.Before(to) {
			continue
		}
		out = append(out, e)
	}
	return out
}
