package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	dbpkg "github.com/boldcity/gymgate/internal/db"
	"github.com/boldcity/gymgate/internal/gym/store"
	"github.com/boldcity/gymgate/internal/gym/types"
)

type MemberStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewMemberStore(db *sql.DB, writer *dbpkg.Worker) *MemberStore {
	return &MemberStore{db: db, writer: writer}
}

const memberColumns = `member_id, name, phone, email, height_cm, weight_kg, created_at_ms, updated_at_ms`

func scanMember(row interface{ Scan(...any) error }) (*types.Member, error) {
	var m types.Member
	var heightCM sql.NullInt64
	var weightKG sql.NullFloat64
	var createdMs, updatedMs int64

	err := row.Scan(&m.ID, &m.Name, &m.Phone, &m.Email, &heightCM, &weightKG, &createdMs, &updatedMs)
	if err != nil {
		return nil, err
	}
	if heightCM.Valid {
		v := int(heightCM.Int64)
		m.HeightCM = &v
	}
	if weightKG.Valid {
		v := weightKG.Float64
		m.WeightKG = &v
	}
	m.CreatedAt = time.UnixMilli(createdMs).UTC()
	m.UpdatedAt = time.UnixMilli(updatedMs).UTC()
	return &m, nil
}

func (s *MemberStore) Get(ctx context.Context, id string) (*types.Member, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}

	row := s.db.QueryRowContext(ctx, `
SELECT `+memberColumns+` FROM members WHERE member_id = ?;`, id)

	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get member: %w", err)
	}
	return m, nil
}

func (s *MemberStore) List(ctx context.Context) ([]types.Member, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT `+memberColumns+` FROM members ORDER BY member_id;`)
	if err != nil {
		return nil, fmt.Errorf("List members: %w", err)
	}
	defer rows.Close()

	var out []types.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("List members scan: %w", err)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (s *MemberStore) Insert(ctx context.Context, m types.Member) error {
	createdMs := m.CreatedAt.UTC().UnixMilli()
	updatedMs := m.UpdatedAt.UTC().UnixMilli()

	var heightCM any
	if m.HeightCM != nil {
		heightCM = *m.HeightCM
	}
	var weightKG any
	if m.WeightKG != nil {
		weightKG = *m.WeightKG
	}

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO members(`+memberColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?);`,
			m.ID, m.Name, m.Phone, m.Email, heightCM, weightKG, createdMs, updatedMs,
		); err != nil {
			return fmt.Errorf("Insert member: %w", err)
		}
		return nil
	})
}

func (s *MemberStore) Update(ctx context.Context, id string, u store.MemberUpdate) (*types.Member, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}

	var updated *types.Member
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
SELECT `+memberColumns+` FROM members WHERE member_id = ?;`, id)

		m, err := scanMember(row)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return fmt.Errorf("Update member read: %w", err)
		}

		if u.Name != nil {
			m.Name = *u.Name
		}
		if u.Phone != nil {
			m.Phone = *u.Phone
		}
		if u.Email != nil {
			m.Email = *u.Email
		}
		if u.HeightCM != nil {
			m.HeightCM = u.HeightCM
		}
		if u.WeightKG != nil {
			m.WeightKG = u.WeightKG
		}
		m.UpdatedAt = time.Now().UTC()

		var heightCM any
		if m.HeightCM != nil {
			heightCM = *m.HeightCM
		}
		var weightKG any
		if m.WeightKG != nil {
			weightKG = *m.WeightKG
		}

		if _, err := tx.ExecContext(ctx, `
UPDATE members
SET name = ?, phone = ?, email = ?, height_cm = ?, weight_kg = ?, updated_at_ms = ?
WHERE member_id = ?;`,
			m.Name, m.Phone, m.Email, heightCM, weightKG, m.UpdatedAt.UnixMilli(), id,
		); err != nil {
			return fmt.Errorf("Update member write: %w", err)
		}

		updated = m
		return nil
	})
	return updated, err
}

// Delete removes the member row. Subscriptions, history, and the active
// session cascade via foreign keys; scan log rows have no FK (unknown codes
// are logged too) and are cleared in the same transaction.
func (s *MemberStore) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
DELETE FROM scan_logs WHERE member_id = ?;`, id); err != nil {
			return fmt.Errorf("Delete member logs: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
DELETE FROM members WHERE member_id = ?;`, id); err != nil {
			return fmt.Errorf("Delete member: %w", err)
		}
		return nil
	})
}
