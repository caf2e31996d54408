package dentalchart

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

func (r *repoPG) Upsert(ctx context.Context, patientID uuid.UUID, toothID int, status Status) error {
	_, err := db.Resolve(ctx, r.pool).Exec(ctx, `
		INSERT INTO tooth_status (patient_id, tooth_id, status)
		VALUES ($1, $2, $3)
		ON CONFLICT (patient_id, tooth_id)
		DO UPDATE SET status = EXCLUDED.status, updated_at = NOW()`,
		patientID, toothID, string(status))
	return apperr.Storage("upsert tooth status", err)
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Record, error) {
	rows, err := db.Resolve(ctx, r.pool).Query(ctx, `
		SELECT patient_id, tooth_id, status, updated_at
		FROM tooth_status WHERE patient_id = $1`, patientID)
	if err != nil {
		return nil, apperr.Storage("list tooth status", err)
	}
	return collect(rows)
}

func (r *repoPG) ListByPatients(ctx context.Context, patientIDs []uuid.UUID) ([]Record, error) {
	rows, err := db.Resolve(ctx, r.pool).Query(ctx, `
		SELECT patient_id, tooth_id, status, updated_at
		FROM tooth_status WHERE patient_id = ANY($1)`, patientIDs)
	if err != nil {
		return nil, apperr.Storage("list tooth status", err)
	}
	return collect(rows)
}

func collect(rows pgx.Rows) ([]Record, error) {
	defer rows.Close()
	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.PatientID, &rec.ToothID, &rec.Status, &rec.UpdatedAt); err != nil {
			return nil, apperr.Storage("scan tooth status", err)
		}
		out = append(out, rec)
	}
	return out, apperr.Storage("list tooth status", rows.Err())
}
