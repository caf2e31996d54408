package patient

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	// UpdateDemographics writes the Input fields only; scheduling columns are untouched.
	UpdateDemographics(ctx context.Context, p *Patient) error
	// List returns patients ordered by full name. A non-empty query matches
	// name, telephone or address case-insensitively.
	List(ctx context.Context, query string, limit, offset int) ([]*Patient, int, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*Patient, error)
}
