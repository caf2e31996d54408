package dentalchart

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Upsert inserts or replaces the status for (patientID, toothID).
	Upsert(ctx context.Context, patientID uuid.UUID, toothID int, status Status) error
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Record, error)
	ListByPatients(ctx context.Context, patientIDs []uuid.UUID) ([]Record, error)
}
