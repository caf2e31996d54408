package appointment

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dentrec/dentrec/internal/platform/apperr"
)

type Service struct {
	repo   Repository
	tx     Transactor
	logger zerolog.Logger
}

func NewService(repo Repository, tx Transactor, logger zerolog.Logger) *Service {
	return &Service{repo: repo, tx: tx, logger: logger}
}

func (s *Service) GetSlot(ctx context.Context, patientID uuid.UUID) (*Slot, error) {
	if patientID == uuid.Nil {
		return nil, apperr.Validation("patient_id", "patient id is required")
	}
	return s.repo.GetSlot(ctx, patientID)
}

// SetNextAppointment validates in, applies it to the stored slot and writes
// all four scheduling fields back in one update.
func (s *Service) SetNextAppointment(ctx context.Context, patientID uuid.UUID, in Input) (*Slot, error) {
	if patientID == uuid.Nil {
		return nil, apperr.Validation("patient_id", "patient id is required")
	}
	req, err := in.Validate()
	if err != nil {
		return nil, err
	}

	var next Slot
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		current, err := s.repo.LockSlot(ctx, patientID)
		if err != nil {
			return err
		}
		next = Next(*current, req)
		return s.repo.UpdateSlot(ctx, patientID, &next)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("patient_id", patientID.String()).
		Str("status", string(next.Status)).
		Msg("next appointment updated")
	return &next, nil
}
