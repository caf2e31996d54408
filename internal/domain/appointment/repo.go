package appointment

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	GetSlot(ctx context.Context, patientID uuid.UUID) (*Slot, error)
	// LockSlot reads the slot and holds the patient row until the
	// surrounding transaction ends.
	LockSlot(ctx context.Context, patientID uuid.UUID) (*Slot, error)
	UpdateSlot(ctx context.Context, patientID uuid.UUID, s *Slot) error
}

type Transactor interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
