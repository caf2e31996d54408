package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Repository interface {
	// LockPatient serialises ledger writers for one patient until the
	// surrounding transaction ends.
	LockPatient(ctx context.Context, patientID uuid.UUID) error
	// CurrentBalance is the running balance of the highest-seq entry, or zero.
	CurrentBalance(ctx context.Context, patientID uuid.UUID) (decimal.Decimal, error)
	// Create inserts e and fills ID, Seq and CreatedAt.
	Create(ctx context.Context, e *Entry) error
	// ListByPatient returns entries ordered by date, then seq.
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Entry, error)
	// LatestBalances returns the current balance of every listed patient
	// that has at least one entry.
	LatestBalances(ctx context.Context, patientIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)
}

// Transactor runs fn inside one database transaction.
type Transactor interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
