package store

import (
	"context"
	"time"

	"github.com/boldcity/gymgate/internal/gym/types"
)

// KioskStore tracks the scanner kiosks allowed to talk to this server.
type KioskStore interface {
	// IsKnown reports whether the kiosk has been commissioned by an admin.
	IsKnown(ctx context.Context, kioskID string) (bool, error)

	// MarkSeen records that the kiosk contacted the server, creating a
	// not-yet-commissioned row for kiosks we have never heard of.
	MarkSeen(ctx context.Context, kioskID string, t time.Time) error
}

type KioskHeartbeatRecord struct {
	ReceivedAt time.Time
	Request    types.HeartbeatRequest
}

// KioskHeartbeatStore persists kiosk telemetry, append-only with pruning.
// Heartbeats are device health only — they never touch member state.
type KioskHeartbeatStore interface {
	Append(ctx context.Context, kioskID string, rec KioskHeartbeatRecord) error

	// PruneOlderThan deletes heartbeat rows received before cutoff and
	// returns the number deleted.
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
