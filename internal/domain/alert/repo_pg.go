package alert

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dentrec/dentrec/internal/platform/apperr"
	"github.com/dentrec/dentrec/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const alertCols = `id, patient_id, label, created_at`

func (r *repoPG) Create(ctx context.Context, a *Alert) error {
	a.ID = uuid.New()
	err := db.Resolve(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO medical_alerts (id, patient_id, label)
		VALUES ($1, $2, $3)
		RETURNING created_at`,
		a.ID, a.PatientID, a.Label).Scan(&a.CreatedAt)
	return apperr.Storage("insert medical alert", err)
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) (uuid.UUID, bool, error) {
	var patientID uuid.UUID
	err := db.Resolve(ctx, r.pool).QueryRow(ctx,
		`DELETE FROM medical_alerts WHERE id = $1 RETURNING patient_id`, id).Scan(&patientID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, apperr.Storage("delete medical alert", err)
	}
	return patientID, true, nil
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Alert, error) {
	rows, err := db.Resolve(ctx, r.pool).Query(ctx,
		`SELECT `+alertCols+` FROM medical_alerts WHERE patient_id = $1 ORDER BY seq`, patientID)
	if err != nil {
		return nil, apperr.Storage("list medical alerts", err)
	}
	return collect(rows)
}

func (r *repoPG) ListByPatients(ctx context.Context, patientIDs []uuid.UUID) ([]*Alert, error) {
	rows, err := db.Resolve(ctx, r.pool).Query(ctx,
		`SELECT `+alertCols+` FROM medical_alerts WHERE patient_id = ANY($1) ORDER BY seq`, patientIDs)
	if err != nil {
		return nil, apperr.Storage("list medical alerts", err)
	}
	return collect(rows)
}

func collect(rows pgx.Rows) ([]*Alert, error) {
	defer rows.Close()
	var out []*Alert
	for rows.Next() {
		var a Alert
		if err := rows.Scan(&a.ID, &a.PatientID, &a.Label, &a.CreatedAt); err != nil {
			return nil, apperr.Storage("scan medical alert", err)
		}
		out = append(out, &a)
	}
	return out, apperr.Storage("list medical alerts", rows.Err())
}
