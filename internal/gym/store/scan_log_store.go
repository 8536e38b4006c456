package store

import (
	"context"
	"time"

	"github.com/boldcity/gymgate/internal/gym/types"
)

// ScanLogStore persists scan attempts as an append-only audit log.
type ScanLogStore interface {
	Append(ctx context.Context, e types.ScanLogEntry) error

	// ListAll returns every entry in ascending scan-time order.
	ListAll(ctx context.Context) ([]types.ScanLogEntry, error)

	// ListToday returns entries within the UTC calendar day containing now.
	ListToday(ctx context.Context, now time.Time) ([]types.ScanLogEntry, error)

	ListByMember(ctx context.Context, memberID string) ([]types.ScanLogEntry, error)
}
