package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	dbpkg "github.com/boldcity/gymgate/internal/db"
	"github.com/boldcity/gymgate/internal/gym/types"
)

type ScanLogStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewScanLogStore(db *sql.DB, writer *dbpkg.Worker) *ScanLogStore {
	return &ScanLogStore{db: db, writer: writer}
}

func (s *ScanLogStore) Append(ctx context.Context, e types.ScanLogEntry) error {
	if e.ScannedAt.IsZero() {
		e.ScannedAt = time.Now().UTC()
	}

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return insertLog(ctx, tx, e)
	})
}

// insertLog appends one audit row. Must be called inside an existing
// transaction; the session store shares it for atomic check-in/out writes.
func insertLog(ctx context.Context, tx *sql.Tx, e types.ScanLogEntry) error {
	if _, err := tx.ExecContext(ctx, `
INSERT INTO scan_logs(member_id, member_name, scanned_at_ms, action, status)
VALUES (?, ?, ?, ?, ?);`,
		e.MemberID, e.MemberName, e.ScannedAt.UTC().UnixMilli(), e.Action, e.Status,
	); err != nil {
		return fmt.Errorf("insert scan log: %w", err)
	}
	return nil
}

const scanLogQuery = `
SELECT log_id, member_id, member_name, scanned_at_ms, action, status
FROM scan_logs`

func (s *ScanLogStore) ListAll(ctx context.Context) ([]types.ScanLogEntry, error) {
	rows, err := s.db.QueryContext(ctx, scanLogQuery+`
ORDER BY scanned_at_ms, log_id;`)
	if err != nil {
		return nil, fmt.Errorf("ListAll scan logs: %w", err)
	}
	return collectLogs(rows)
}

func (s *ScanLogStore) ListToday(ctx context.Context, now time.Time) ([]types.ScanLogEntry, error) {
	dayStart := now.UTC().Truncate(24 * time.Hour)
	dayEnd := dayStart.Add(24 * time.Hour)

	rows, err := s.db.QueryContext(ctx, scanLogQuery+`
WHERE scanned_at_ms >= ? AND scanned_at_ms < ?
ORDER BY scanned_at_ms, log_id;`,
		dayStart.UnixMilli(), dayEnd.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("ListToday scan logs: %w", err)
	}
	return collectLogs(rows)
}

func (s *ScanLogStore) ListByMember(ctx context.Context, memberID string) ([]types.ScanLogEntry, error) {
	rows, err := s.db.QueryContext(ctx, scanLogQuery+`
WHERE member_id = ?
ORDER BY scanned_at_ms, log_id;`, memberID)
	if err != nil {
		return nil, fmt.Errorf("ListByMember scan logs: %w", err)
	}
	return collectLogs(rows)
}

func collectLogs(rows *sql.Rows) ([]types.ScanLogEntry, error) {
	defer rows.Close()

	var out []types.ScanLogEntry
	for rows.Next() {
		var e types.ScanLogEntry
		var scannedMs int64
		if err := rows.Scan(&e.ID, &e.MemberID, &e.MemberName, &scannedMs, &e.Action, &e.Status); err != nil {
			return nil, fmt.Errorf("scan log row: %w", err)
		}
		e.ScannedAt = time.UnixMilli(scannedMs).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}
