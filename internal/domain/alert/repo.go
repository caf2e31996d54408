package alert

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, a *Alert) error
	// Delete removes an alert and returns its patient id. ok is false when no
	// alert had that id.
	Delete(ctx context.Context, id uuid.UUID) (patientID uuid.UUID, ok bool, err error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Alert, error)
	ListByPatients(ctx context.Context, patientIDs []uuid.UUID) ([]*Alert, error)
}
