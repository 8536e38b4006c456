package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	dbpkg "github.com/boldcity/gymgate/internal/db"
)

type KioskStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewKioskStore(db *sql.DB, writer *dbpkg.Worker) *KioskStore {
	return &KioskStore{db: db, writer: writer}
}

// IsKnown: "known" means commissioned and enabled. New kiosks seen in the
// wild start disabled until an admin commissions them.
func (s *KioskStore) IsKnown(ctx context.Context, kioskID string) (bool, error) {
	kioskID = strings.TrimSpace(kioskID)
	if kioskID == "" {
		return false, nil
	}

	var enabled int
	var commissioned sql.NullInt64

	err := s.db.QueryRowContext(ctx, `
SELECT enabled, commissioned_at_ms FROM kiosks WHERE kiosk_id = ?;`, kioskID,
	).Scan(&enabled, &commissioned)

	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("IsKnown query: %w", err)
	}

	return enabled == 1 && commissioned.Valid, nil
}

// MarkSeen ensures a kiosk row exists (even if unknown) and updates last_seen.
func (s *KioskStore) MarkSeen(ctx context.Context, kioskID string, t time.Time) error {
	kioskID = strings.TrimSpace(kioskID)
	if kioskID == "" {
		return nil
	}
	if t.IsZero() {
		t = time.Now().UTC()
	}
	ms := t.UTC().UnixMilli()

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := ensureKiosk(ctx, tx, kioskID, ms); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `
UPDATE kiosks
SET last_seen_at_ms = ?,
    updated_at_ms   = ?
WHERE kiosk_id = ?;`, ms, ms, kioskID); err != nil {
			return fmt.Errorf("MarkSeen update kiosk: %w", err)
		}

		return nil
	})
}

// ensureKiosk guarantees a kiosks row exists so the heartbeat FK is
// satisfied. New rows start disabled and uncommissioned — only an admin
// action (or the dev seeder) enables them.
//
// Must be called inside an existing transaction.
func ensureKiosk(ctx context.Context, tx *sql.Tx, kioskID string, nowMs int64) error {
	if _, err := tx.ExecContext(ctx, `
INSERT OR IGNORE INTO kiosks(kiosk_id, enabled, created_at_ms, updated_at_ms)
VALUES (?, 0, ?, ?);`, kioskID, nowMs, nowMs); err != nil {
		return fmt.Errorf("ensureKiosk %s: %w", kioskID, err)
	}
	return nil
}
