package appointment

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dentrec/dentrec/internal/platform/apperr"
	"github.com/dentrec/dentrec/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const slotCols = `to_char(next_appointment, 'YYYY-MM-DD'), to_char(next_appointment_time, 'HH24:MI'),
	next_appointment_status, to_char(last_visit, 'YYYY-MM-DD')`

func scanSlot(row pgx.Row) (*Slot, error) {
	var s Slot
	err := row.Scan(&s.Date, &s.Time, &s.Status, &s.LastVisit)
	return &s, err
}

func (r *repoPG) GetSlot(ctx context.Context, patientID uuid.UUID) (*Slot, error) {
	s, err := scanSlot(db.Resolve(ctx, r.pool).QueryRow(ctx,
		`SELECT `+slotCols+` FROM patients WHERE id = $1`, patientID))
	if err != nil {
		return nil, apperr.Storage("get appointment", err)
	}
	return s, nil
}

func (r *repoPG) LockSlot(ctx context.Context, patientID uuid.UUID) (*Slot, error) {
	s, err := scanSlot(db.Resolve(ctx, r.pool).QueryRow(ctx,
		`SELECT `+slotCols+` FROM patients WHERE id = $1 FOR UPDATE`, patientID))
	if err != nil {
		return nil, apperr.Storage("lock appointment", err)
	}
	return s, nil
}

func (r *repoPG) UpdateSlot(ctx context.Context, patientID uuid.UUID, s *Slot) error {
	tag, err := db.Resolve(ctx, r.pool).Exec(ctx, `
		UPDATE patients SET
			next_appointment = $2::text::date,
			next_appointment_time = $3::text::time,
			next_appointment_status = $4,
			last_visit = $5::text::date,
			updated_at = NOW()
		WHERE id = $1`,
		patientID, s.Date, s.Time, string(s.Status), s.LastVisit)
	if err != nil {
		return apperr.Storage("update appointment", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
