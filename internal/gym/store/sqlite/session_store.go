package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	dbpkg "github.com/boldcity/gymgate/internal/db"
	"github.com/boldcity/gymgate/internal/gym/store"
	"github.com/boldcity/gymgate/internal/gym/types"
)

// SessionStore persists active sessions and implements store.ScanRecorder:
// the session mutation and its audit row commit in one transaction, so the
// log can never show a check-in whose session insert was lost (or vice versa).
type SessionStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewSessionStore(db *sql.DB, writer *dbpkg.Worker) *SessionStore {
	return &SessionStore{db: db, writer: writer}
}

func (s *SessionStore) Get(ctx context.Context, memberID string) (*types.ActiveSession, error) {
	var sess types.ActiveSession
	var checkedInMs int64

	err := s.db.QueryRowContext(ctx, `
SELECT member_id, member_name, checked_in_at_ms
FROM active_sessions WHERE member_id = ?;`, memberID,
	).Scan(&sess.MemberID, &sess.MemberName, &checkedInMs)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get session: %w", err)
	}
	sess.CheckedInAt = time.UnixMilli(checkedInMs).UTC()
	return &sess, nil
}

func (s *SessionStore) ListAll(ctx context.Context) ([]types.ActiveSession, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT member_id, member_name, checked_in_at_ms
FROM active_sessions ORDER BY checked_in_at_ms;`)
	if err != nil {
		return nil, fmt.Errorf("ListAll sessions: %w", err)
	}
	defer rows.Close()

	var out []types.ActiveSession
	for rows.Next() {
		var sess types.ActiveSession
		var checkedInMs int64
		if err := rows.Scan(&sess.MemberID, &sess.MemberName, &checkedInMs); err != nil {
			return nil, fmt.Errorf("ListAll sessions scan: %w", err)
		}
		sess.CheckedInAt = time.UnixMilli(checkedInMs).UTC()
		out = append(out, sess)
	}
	return out, rows.Err()
}

func (s *SessionStore) Create(ctx context.Context, sess types.ActiveSession) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return insertSession(ctx, tx, sess)
	})
}

func (s *SessionStore) Delete(ctx context.Context, memberID string) (*types.ActiveSession, error) {
	var deleted *types.ActiveSession
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		deleted, err = deleteSession(ctx, tx, memberID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

func (s *SessionStore) RecordCheckIn(ctx context.Context, sess types.ActiveSession, e types.ScanLogEntry) error {
	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := insertSession(ctx, tx, sess); err != nil {
			return err
		}
		return insertLog(ctx, tx, e)
	})
}

func (s *SessionStore) RecordCheckOut(ctx context.Context, memberID string, e types.ScanLogEntry) (*types.ActiveSession, error) {
	var deleted *types.ActiveSession
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		deleted, err = deleteSession(ctx, tx, memberID)
		if err != nil {
			return err
		}
		if deleted == nil {
			// No session: conflict, nothing to log. The rollback is a no-op.
			return nil
		}
		return insertLog(ctx, tx, e)
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

// insertSession is insert-if-absent on the member_id primary key; a present
// row yields store.ErrSessionExists, making concurrent double check-ins safe
// at the storage layer. Must run inside an existing transaction.
func insertSession(ctx context.Context, tx *sql.Tx, sess types.ActiveSession) error {
	res, err := tx.ExecContext(ctx, `
INSERT OR IGNORE INTO active_sessions(member_id, member_name, checked_in_at_ms)
VALUES (?, ?, ?);`,
		sess.MemberID, sess.MemberName, sess.CheckedInAt.UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert session rows: %w", err)
	}
	if n == 0 {
		return store.ErrSessionExists
	}
	return nil
}

func deleteSession(ctx context.Context, tx *sql.Tx, memberID string) (*types.ActiveSession, error) {
	var sess types.ActiveSession
	var checkedInMs int64

	err := tx.QueryRowContext(ctx, `
SELECT member_id, member_name, checked_in_at_ms
FROM active_sessions WHERE member_id = ?;`, memberID,
	).Scan(&sess.MemberID, &sess.MemberName, &checkedInMs)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("delete session read: %w", err)
	}
	sess.CheckedInAt = time.UnixMilli(checkedInMs).UTC()

	if _, err := tx.ExecContext(ctx, `
DELETE FROM active_sessions WHERE member_id = ?;`, memberID); err != nil {
		return nil, fmt.Errorf("delete session: %w", err)
	}
	return &sess, nil
}
