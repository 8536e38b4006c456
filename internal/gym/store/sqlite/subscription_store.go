package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	dbpkg "github.com/boldcity/gymgate/internal/db"
	"github.com/boldcity/gymgate/internal/gym/types"
)

// SubscriptionStore implements both the current-subscription and the history
// contracts; the archive-then-replace of UpsertCurrent is one transaction, so
// a crash can never leave the archived copy without the replacement.
type SubscriptionStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewSubscriptionStore(db *sql.DB, writer *dbpkg.Worker) *SubscriptionStore {
	return &SubscriptionStore{db: db, writer: writer}
}

func (s *SubscriptionStore) GetCurrent(ctx context.Context, memberID string) (*types.Subscription, error) {
	var sub types.Subscription
	var startMs, endMs int64

	err := s.db.QueryRowContext(ctx, `
SELECT member_id, start_at_ms, end_at_ms, status
FROM subscriptions WHERE member_id = ?;`, memberID,
	).Scan(&sub.MemberID, &startMs, &endMs, &sub.Status)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetCurrent: %w", err)
	}
	sub.StartAt = time.UnixMilli(startMs).UTC()
	sub.EndAt = time.UnixMilli(endMs).UTC()
	return &sub, nil
}

func (s *SubscriptionStore) ListAll(ctx context.Context) ([]types.Subscription, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT member_id, start_at_ms, end_at_ms, status
FROM subscriptions ORDER BY member_id;`)
	if err != nil {
		return nil, fmt.Errorf("ListAll subscriptions: %w", err)
	}
	defer rows.Close()

	var out []types.Subscription
	for rows.Next() {
		var sub types.Subscription
		var startMs, endMs int64
		if err := rows.Scan(&sub.MemberID, &startMs, &endMs, &sub.Status); err != nil {
			return nil, fmt.Errorf("ListAll subscriptions scan: %w", err)
		}
		sub.StartAt = time.UnixMilli(startMs).UTC()
		sub.EndAt = time.UnixMilli(endMs).UTC()
		out = append(out, sub)
	}
	return out, rows.Err()
}

func (s *SubscriptionStore) UpsertCurrent(ctx context.Context, sub types.Subscription) (*types.SubscriptionHistory, error) {
	var archived *types.SubscriptionHistory

	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var prior types.Subscription
		var startMs, endMs int64
		err := tx.QueryRowContext(ctx, `
SELECT member_id, start_at_ms, end_at_ms, status
FROM subscriptions WHERE member_id = ?;`, sub.MemberID,
		).Scan(&prior.MemberID, &startMs, &endMs, &prior.Status)
		if err != nil && err != sql.ErrNoRows {
			return fmt.Errorf("UpsertCurrent read prior: %w", err)
		}

		if err == nil {
			rec := types.SubscriptionHistory{
				ID:         uuid.NewString(),
				MemberID:   prior.MemberID,
				StartAt:    time.UnixMilli(startMs).UTC(),
				EndAt:      time.UnixMilli(endMs).UTC(),
				Status:     prior.Status,
				ArchivedAt: time.Now().UTC(),
			}
			if _, err := tx.ExecContext(ctx, `
INSERT INTO subscription_history(history_id, member_id, start_at_ms, end_at_ms, status, archived_at_ms)
VALUES (?, ?, ?, ?, ?, ?);`,
				rec.ID, rec.MemberID, startMs, endMs, rec.Status, rec.ArchivedAt.UnixMilli(),
			); err != nil {
				return fmt.Errorf("UpsertCurrent archive: %w", err)
			}
			archived = &rec
		}

		if _, err := tx.ExecContext(ctx, `
INSERT INTO subscriptions(member_id, start_at_ms, end_at_ms, status)
VALUES (?, ?, ?, ?)
ON CONFLICT(member_id) DO UPDATE SET
  start_at_ms = excluded.start_at_ms,
  end_at_ms   = excluded.end_at_ms,
  status      = excluded.status;`,
			sub.MemberID, sub.StartAt.UTC().UnixMilli(), sub.EndAt.UTC().UnixMilli(), sub.Status,
		); err != nil {
			return fmt.Errorf("UpsertCurrent replace: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}
	return archived, nil
}

func (s *SubscriptionStore) ListByMember(ctx context.Context, memberID string) ([]types.SubscriptionHistory, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT history_id, member_id, start_at_ms, end_at_ms, status, archived_at_ms
FROM subscription_history WHERE member_id = ?
ORDER BY archived_at_ms;`, memberID)
	if err != nil {
		return nil, fmt.Errorf("ListByMember history: %w", err)
	}
	defer rows.Close()

	var out []types.SubscriptionHistory
	for rows.Next() {
		var rec types.SubscriptionHistory
		var startMs, endMs, archivedMs int64
		if err := rows.Scan(&rec.ID, &rec.MemberID, &startMs, &endMs, &rec.Status, &archivedMs); err != nil {
			return nil, fmt.Errorf("ListByMember history scan: %w", err)
		}
		rec.StartAt = time.UnixMilli(startMs).UTC()
		rec.EndAt = time.UnixMilli(endMs).UTC()
		rec.ArchivedAt = time.UnixMilli(archivedMs).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SubscriptionStore) Append(ctx context.Context, rec types.SubscriptionHistory) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.ArchivedAt.IsZero() {
		rec.ArchivedAt = time.Now().UTC()
	}

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO subscription_history(history_id, member_id, start_at_ms, end_at_ms, status, archived_at_ms)
VALUES (?, ?, ?, ?, ?, ?);`,
			rec.ID, rec.MemberID,
			rec.StartAt.UTC().UnixMilli(), rec.EndAt.UTC().UnixMilli(),
			rec.Status, rec.ArchivedAt.UTC().UnixMilli(),
		); err != nil {
			return fmt.Errorf("Append history: %w", err)
		}
		return nil
	})
}
