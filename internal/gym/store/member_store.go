package store

import (
	"context"

	"github.com/boldcity/gymgate/internal/gym/types"
)

// MemberUpdate carries a partial member edit; nil fields are left untouched.
type MemberUpdate struct {
	Name     *string
	Phone    *string
	Email    *string
	HeightCM *int
	WeightKG *float64
}

// MemberStore persists member records. Lookups return (nil, nil) for an
// unknown ID — absence is a normal answer, not an error.
type MemberStore interface {
	Get(ctx context.Context, id string) (*types.Member, error)
	List(ctx context.Context) ([]types.Member, error)
	Insert(ctx context.Context, m types.Member) error

	// Update applies the non-nil fields and returns the updated record, or
	// (nil, nil) if the member does not exist.
	Update(ctx context.Context, id string, u MemberUpdate) (*types.Member, error)

	// Delete removes the member and cascades to its subscription, history,
	// active session, and scan log entries.
	Delete(ctx context.Context, id string) error
}

// SequenceAllocator hands out member identifiers in the PREFIX-NNNN format
// from a monotonically increasing counter. Uniqueness is the allocator's job,
// not the caller's.
type SequenceAllocator interface {
	NextMemberID(ctx context.Context) (string, error)
}
