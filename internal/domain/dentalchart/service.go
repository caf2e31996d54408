package dentalchart

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dentrec/dentrec/internal/platform/apperr"
)

// ChangeNotifier is told after a patient's chart changes.
type ChangeNotifier interface {
	PatientChanged(ctx context.Context, patientID uuid.UUID)
}

type Service struct {
	records  Repository
	notifier ChangeNotifier
	logger   zerolog.Logger
}

func NewService(records Repository, logger zerolog.Logger) *Service {
	return &Service{records: records, logger: logger}
}

// SetNotifier attaches an optional notifier called after every write.
func (s *Service) SetNotifier(n ChangeNotifier) {
	s.notifier = n
}

// SetStatus records status for one tooth, replacing any previous value.
func (s *Service) SetStatus(ctx context.Context, patientID uuid.UUID, toothID int, status string) error {
	if patientID == uuid.Nil {
		return apperr.Validation("patient_id", "patient id is required")
	}
	if !ValidTooth(toothID) {
		return apperr.Validation("tooth_id", "invalid tooth %d: expected FDI 11-18, 21-28, 31-38 or 41-48", toothID)
	}
	st, ok := ParseStatus(status)
	if !ok {
		return apperr.Validation("status", "invalid tooth status: %q", status)
	}

	if err := s.records.Upsert(ctx, patientID, toothID, st); err != nil {
		return err
	}
	s.logger.Debug().
		Str("patient_id", patientID.String()).
		Int("tooth_id", toothID).
		Str("status", string(st)).
		Msg("tooth status set")
	if s.notifier != nil {
		s.notifier.PatientChanged(ctx, patientID)
	}
	return nil
}

// GetChart returns all 32 teeth. Teeth with no record are normal.
func (s *Service) GetChart(ctx context.Context, patientID uuid.UUID) (Chart, error) {
	records, err := s.records.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return BuildChart(records), nil
}

func (s *Service) Counts(ctx context.Context, patientID uuid.UUID) (Counts, error) {
	chart, err := s.GetChart(ctx, patientID)
	if err != nil {
		return Counts{}, err
	}
	return chart.Counts(), nil
}

// CountsByPatients fetches every listed patient's records in one query.
// Patients with no records are present with zero counts.
func (s *Service) CountsByPatients(ctx context.Context, patientIDs []uuid.UUID) (map[uuid.UUID]Counts, error) {
	out := make(map[uuid.UUID]Counts, len(patientIDs))
	if len(patientIDs) == 0 {
		return out, nil
	}
	records, err := s.records.ListByPatients(ctx, patientIDs)
	if err != nil {
		return nil, err
	}

	grouped := make(map[uuid.UUID][]Record, len(patientIDs))
	for _, r := range records {
		grouped[r.PatientID] = append(grouped[r.PatientID], r)
	}
	for _, id := range patientIDs {
		out[id] = BuildChart(grouped[id]).Counts()
	}
	return out, nil
}
