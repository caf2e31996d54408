package patient

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"
	"github.com/rs/zerolog"

	"github.com/dentrec/dentrec/internal/platform/apperr"
)

const (
	maxAge      = 150
	maxNameRune = 255
)

type Service struct {
	patients Repository
	region   string
	logger   zerolog.Logger
}

// NewService builds the registry. region is the default ISO region used to
// interpret telephone numbers typed without a country code.
func NewService(patients Repository, region string, logger zerolog.Logger) *Service {
	return &Service{patients: patients, region: strings.ToUpper(region), logger: logger}
}

func (s *Service) Register(ctx context.Context, in Input) (*Patient, error) {
	p := &Patient{}
	if err := s.apply(p, in); err != nil {
		return nil, err
	}
	if err := s.patients.Create(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Debug().Str("patient_id", p.ID.String()).Msg("patient registered")
	return p, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	if id == uuid.Nil {
		return nil, apperr.Validation("id", "patient id is required")
	}
	return s.patients.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, query string, limit, offset int) ([]*Patient, int, error) {
	return s.patients.List(ctx, query, limit, offset)
}

func (s *Service) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*Patient, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.patients.ListByIDs(ctx, ids)
}

// UpdateDemographics replaces the demographic fields of an existing patient.
func (s *Service) UpdateDemographics(ctx context.Context, id uuid.UUID, in Input) (*Patient, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(p, in); err != nil {
		return nil, err
	}
	if err := s.patients.UpdateDemographics(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) apply(p *Patient, in Input) error {
	name := strings.TrimSpace(in.FullName)
	if name == "" {
		return apperr.Validation("full_name", "full name is required")
	}
	if len([]rune(name)) > maxNameRune {
		return apperr.Validation("full_name", "full name must be at most %d characters", maxNameRune)
	}
	if in.Age != nil && (*in.Age < 0 || *in.Age > maxAge) {
		return apperr.Validation("age", "age must be between 0 and %d", maxAge)
	}

	p.FullName = name
	p.Age = in.Age
	p.Occupation = optional(in.Occupation)
	p.Address = optional(in.Address)
	p.Complain = optional(in.Complain)
	p.Telephone = nil
	if tel := optional(in.Telephone); tel != nil {
		n := NormalizePhone(*tel, s.region)
		p.Telephone = &n
	}
	return nil
}

// NormalizePhone formats raw as E.164 when it parses as a valid number for
// region. Anything else is returned as typed.
func NormalizePhone(raw, region string) string {
	num, err := phonenumbers.Parse(raw, region)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return raw
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
