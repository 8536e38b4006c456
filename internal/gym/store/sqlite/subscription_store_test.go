package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/boldcity/gymgate/internal/gym/store/sqlite"
	"github.com/boldcity/gymgate/internal/gym/types"
)

func TestSubscriptionStore_UpsertFirstSubscription(t *testing.T) {
	conn := openTestDB(t)
	writer := newTestWriter(t, conn)
	insertTestMember(t, conn, writer, "BCF-1001", "Ada")

	subs := sqlite.NewSubscriptionStore(conn, writer)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	archived, err := subs.UpsertCurrent(ctx, types.Subscription{
		MemberID: "BCF-1001",
		StartAt:  now,
		EndAt:    now.AddDate(0, 1, 0),
		Status:   types.SubscriptionActive,
	})
	if err != nil {
		t.Fatalf("UpsertCurrent: %v", err)
	}
	if archived != nil {
		t.Errorf("first upsert has nothing to archive, got %+v", archived)
	}

	cur, err := subs.GetCurrent(ctx, "BCF-1001")
	if err != nil {
		t.Fatalf("GetCurrent: %v", err)
	}
	if cur == nil {
		t.Fatal("expected current subscription")
	}
	if !cur.StartAt.Equal(now) || cur.Status != types.SubscriptionActive {
		t.Errorf("round-trip mismatch: %+v", cur)
	}
}

func TestSubscriptionStore_UpsertArchivesPrior(t *testing.T) {
	conn := openTestDB(t)
	writer := newTestWriter(t, conn)
	insertTestMember(t, conn, writer, "BCF-1001", "Ada")

	subs := sqlite.NewSubscriptionStore(conn, writer)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	first := types.Subscription{
		MemberID: "BCF-1001",
		StartAt:  now.AddDate(0, -1, 0),
		EndAt:    now,
		Status:   types.SubscriptionActive,
	}
	if _, err := subs.UpsertCurrent(ctx, first); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	archived, err := subs.UpsertCurrent(ctx, types.Subscription{
		MemberID: "BCF-1001",
		StartAt:  now,
		EndAt:    now.AddDate(0, 6, 0),
		Status:   types.SubscriptionActive,
	})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if archived == nil {
		t.Fatal("expected the prior subscription to be archived")
	}
	if archived.ID == "" {
		t.Error("archived row must carry a history id")
	}
	if !archived.EndAt.Equal(first.EndAt) {
		t.Errorf("archived wrong subscription: %+v", archived)
	}

	hist, err := subs.ListByMember(ctx, "BCF-1001")
	if err != nil {
		t.Fatalf("ListByMember: %v", err)
	}
	if len(hist) != 1 {
		t.Fatalf("expected 1 history row, got %d", len(hist))
	}
	if hist[0].ID != archived.ID {
		t.Errorf("history row id mismatch: %q vs %q", hist[0].ID, archived.ID)
	}
	if hist[0].ArchivedAt.IsZero() {
		t.Error("expected archived_at to be set")
	}
}

func TestSubscriptionStore_GetCurrentAbsent(t *testing.T) {
	conn := openTestDB(t)
	writer := newTestWriter(t, conn)

	subs := sqlite.NewSubscriptionStore(conn, writer)

	cur, err := subs.GetCurrent(context.Background(), "BCF-9999")
	if err != nil {
		t.Fatalf("GetCurrent: %v", err)
	}
	if cur != nil {
		t.Errorf("expected nil for absent subscription, got %+v", cur)
	}
}

func TestSubscriptionStore_DeleteMemberCascades(t *testing.T) {
	conn := openTestDB(t)
	writer := newTestWriter(t, conn)
	insertTestMember(t, conn, writer, "BCF-1001", "Ada")

	members := sqlite.NewMemberStore(conn, writer)
	subs := sqlite.NewSubscriptionStore(conn, writer)
	ctx := context.Background()
	now := time.Now().UTC()

	// Two upserts leave one current row and one history row.
	for i := 0; i < 2; i++ {
		if _, err := subs.UpsertCurrent(ctx, types.Subscription{
			MemberID: "BCF-1001",
			StartAt:  now,
			EndAt:    now.AddDate(0, i+1, 0),
			Status:   types.SubscriptionActive,
		}); err != nil {
			t.Fatalf("upsert %d: %v", i, err)
		}
	}

	if err := members.Delete(ctx, "BCF-1001"); err != nil {
		t.Fatalf("Delete member: %v", err)
	}

	cur, err := subs.GetCurrent(ctx, "BCF-1001")
	if err != nil {
		t.Fatalf("GetCurrent: %v", err)
	}
	if cur != nil {
		t.Error("expected subscription removed with the member")
	}

	hist, err := subs.ListByMember(ctx, "BCF-1001")
	if err != nil {
		t.Fatalf("ListByMember: %v", err)
	}
	if len(hist) != 0 {
		t.Errorf("expected history removed with the member, got %d rows", len(hist))
	}
}
