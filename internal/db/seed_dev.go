package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type SeedDevOptions struct {
	// Optional: config-known kiosks to pre-commission in dev.
	KnownKiosks []string
}

// SeedDev inserts a demo member with a live subscription plus a commissioned
// kiosk so a fresh dev database can exercise the full scan path immediately.
func SeedDev(ctx context.Context, db *sql.DB, opt SeedDevOptions) error {
	now := time.Now().UTC()
	nowMs := now.UnixMilli()
	endMs := now.AddDate(0, 1, 0).UnixMilli()

	if _, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO members(
  member_id, name, phone, email, created_at_ms, updated_at_ms
) VALUES ('BCF-1001', 'Dev Member', '', 'dev@example.com', ?, ?);`,
		nowMs, nowMs); err != nil {
		return fmt.Errorf("seed member BCF-1001: %w", err)
	}

	// The seeded member consumed 1001; keep the allocator ahead of it.
	if _, err := db.ExecContext(ctx, `
UPDATE member_seq SET next_value = 1002 WHERE id = 1 AND next_value <= 1001;`); err != nil {
		return fmt.Errorf("seed member_seq: %w", err)
	}

	if _, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO subscriptions(member_id, start_at_ms, end_at_ms, status)
VALUES ('BCF-1001', ?, ?, 'active');`, nowMs, endMs); err != nil {
		return fmt.Errorf("seed subscription: %w", err)
	}

	kiosks := opt.KnownKiosks
	if len(kiosks) == 0 {
		kiosks = []string{"kiosk-001"}
	}
	for _, id := range kiosks {
		if _, err := db.ExecContext(ctx, `
INSERT INTO kiosks(kiosk_id, enabled, commissioned_at_ms, created_at_ms, updated_at_ms)
VALUES (?, 1, ?, ?, ?)
ON CONFLICT(kiosk_id) DO UPDATE SET
  enabled = 1,
  commissioned_at_ms = COALESCE(kiosks.commissioned_at_ms, excluded.commissioned_at_ms),
  updated_at_ms = excluded.updated_at_ms;
`, id, nowMs, nowMs, nowMs); err != nil {
			return fmt.Errorf("seed kiosk %s: %w", id, err)
		}
	}

	return nil
}
