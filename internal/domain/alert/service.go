package alert

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dentrec/dentrec/internal/platform/apperr"
)

const maxLabelRunes = 200

// ChangeNotifier is told after a patient's alerts change.
type ChangeNotifier interface {
	PatientChanged(ctx context.Context, patientID uuid.UUID)
}

type Service struct {
	alerts   Repository
	notifier ChangeNotifier
	logger   zerolog.Logger
}

func NewService(alerts Repository, logger zerolog.Logger) *Service {
	return &Service{alerts: alerts, logger: logger}
}

// SetNotifier attaches an optional notifier called after every write.
func (s *Service) SetNotifier(n ChangeNotifier) {
	s.notifier = n
}

// Add appends a trimmed label. Duplicate labels are allowed.
func (s *Service) Add(ctx context.Context, patientID uuid.UUID, label string) (*Alert, error) {
	if patientID == uuid.Nil {
		return nil, apperr.Validation("patient_id", "patient id is required")
	}
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, apperr.Validation("label", "alert label is required")
	}
	if len([]rune(label)) > maxLabelRunes {
		return nil, apperr.Validation("label", "alert label must be at most %d characters", maxLabelRunes)
	}

	a := &Alert{PatientID: patientID, Label: label}
	if err := s.alerts.Create(ctx, a); err != nil {
		return nil, err
	}
	s.changed(ctx, patientID)
	return a, nil
}

// Remove deletes an alert by id. An unknown id is not an error.
func (s *Service) Remove(ctx context.Context, id uuid.UUID) error {
	patientID, ok, err := s.alerts.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		s.logger.Debug().Str("alert_id", id.String()).Msg("remove: alert already gone")
		return nil
	}
	s.changed(ctx, patientID)
	return nil
}

func (s *Service) List(ctx context.Context, patientID uuid.UUID) ([]*Alert, error) {
	return s.alerts.ListByPatient(ctx, patientID)
}

// ListByPatients groups every listed patient's alerts, fetched in one query.
func (s *Service) ListByPatients(ctx context.Context, patientIDs []uuid.UUID) (map[uuid.UUID][]*Alert, error) {
	out := make(map[uuid.UUID][]*Alert, len(patientIDs))
	if len(patientIDs) == 0 {
		return out, nil
	}
	items, err := s.alerts.ListByPatients(ctx, patientIDs)
	if err != nil {
		return nil, err
	}
	for _, a := range items {
		out[a.PatientID] = append(out[a.PatientID], a)
	}
	return out, nil
}

func (s *Service) changed(ctx context.Context, patientID uuid.UUID) {
	if s.notifier != nil {
		s.notifier.PatientChanged(ctx, patientID)
	}
}
