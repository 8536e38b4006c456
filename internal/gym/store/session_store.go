package store

import (
	"context"
	"errors"

	"github.com/boldcity/gymgate/internal/gym/types"
)

// ErrSessionExists is returned by RecordCheckIn when the member already has an
// active session. The check is made at the storage layer (insert-if-absent),
// so two near-simultaneous check-ins cannot both succeed.
var ErrSessionExists = errors.New("active session already exists")

// SessionStore persists active sessions, keyed uniquely by member ID.
type SessionStore interface {
	// Get returns the member's active session, or (nil, nil) if none.
	Get(ctx context.Context, memberID string) (*types.ActiveSession, error)

	ListAll(ctx context.Context) ([]types.ActiveSession, error)

	Create(ctx context.Context, s types.ActiveSession) error

	// Delete removes the member's session and returns the removed record, or
	// (nil, nil) if there was none.
	Delete(ctx context.Context, memberID string) (*types.ActiveSession, error)
}

// ScanRecorder couples a session mutation with its audit entry so the two
// writes land atomically where the backend supports it. On conflict (session
// already present for check-in, absent for check-out) nothing is written —
// conflicts leave no audit row.
type ScanRecorder interface {
	// RecordCheckIn inserts the session and appends the audit entry.
	// Returns ErrSessionExists without writing anything if a session is
	// already present.
	RecordCheckIn(ctx context.Context, s types.ActiveSession, e types.ScanLogEntry) error

	// RecordCheckOut deletes the member's session and appends the audit
	// entry, returning the removed session. If no session exists, nothing is
	// written and (nil, nil) is returned.
	RecordCheckOut(ctx context.Context, memberID string, e types.ScanLogEntry) (*types.ActiveSession, error)
}
