package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	dbpkg "github.com/boldcity/gymgate/internal/db"
)

// Sequence allocates PREFIX-NNNN member identifiers from the single-row
// member_seq counter. The read-and-bump runs inside one writer transaction,
// so concurrent registrations can never see the same number.
type Sequence struct {
	writer *dbpkg.Worker
	prefix string
}

func NewSequence(writer *dbpkg.Worker, prefix string) *Sequence {
	if prefix == "" {
		prefix = "BCF"
	}
	return &Sequence{writer: writer, prefix: prefix}
}

func (s *Sequence) NextMemberID(ctx context.Context) (string, error) {
	var n int64
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, `
SELECT next_value FROM member_seq WHERE id = 1;`).Scan(&n); err != nil {
			return fmt.Errorf("NextMemberID read: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
UPDATE member_seq SET next_value = ? WHERE id = 1;`, n+1); err != nil {
			return fmt.Errorf("NextMemberID bump: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%d", s.prefix, n), nil
}
