package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/dentrec/dentrec/internal/platform/apperr"
)

// ChangeNotifier is told after an entry is appended.
type ChangeNotifier interface {
	PatientChanged(ctx context.Context, patientID uuid.UUID)
}

// Recorder counts appended entries by kind.
type Recorder interface {
	EntryRecorded(kind string)
}

type Service struct {
	entries  Repository
	tx       Transactor
	locks    *patientLocks
	now      func() time.Time
	notifier ChangeNotifier
	metrics  Recorder
	logger   zerolog.Logger
}

func NewService(entries Repository, tx Transactor, logger zerolog.Logger) *Service {
	return &Service{
		entries: entries,
		tx:      tx,
		locks:   newPatientLocks(),
		now:     time.Now,
		logger:  logger,
	}
}

// SetClock replaces the clock used to default empty entry dates.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Service) SetNotifier(n ChangeNotifier) {
	s.notifier = n
}

func (s *Service) SetRecorder(r Recorder) {
	s.metrics = r
}

// AddCharge appends a debit. The running balance is the current balance
// plus the amount.
func (s *Service) AddCharge(ctx context.Context, in ChargeInput) (*Entry, error) {
	amount, date, err := s.validate(in.PatientID, in.Amount, in.Date)
	if err != nil {
		return nil, err
	}
	e := &Entry{
		PatientID:   in.PatientID,
		Date:        date,
		Description: ChargeDescription(in.ToothLocator, in.Description),
		Debit:       amount,
		Credit:      decimal.Zero,
	}
	if err := s.append(ctx, e, amount); err != nil {
		return nil, err
	}
	return e, nil
}

// AddPayment appends a credit. The running balance is the current balance
// minus the amount and may go negative.
func (s *Service) AddPayment(ctx context.Context, in PaymentInput) (*Entry, error) {
	amount, date, err := s.validate(in.PatientID, in.Amount, in.Date)
	if err != nil {
		return nil, err
	}
	e := &Entry{
		PatientID:   in.PatientID,
		Date:        date,
		Description: PaymentDescription(in.Details),
		Debit:       decimal.Zero,
		Credit:      amount,
	}
	if err := s.append(ctx, e, amount.Neg()); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) validate(patientID uuid.UUID, rawAmount, rawDate string) (decimal.Decimal, time.Time, error) {
	if patientID == uuid.Nil {
		return decimal.Zero, time.Time{}, apperr.Validation("patient_id", "patient id is required")
	}
	amount, err := ParseAmount(rawAmount)
	if err != nil {
		return decimal.Zero, time.Time{}, err
	}
	date, err := ParseDate(rawDate, s.now())
	if err != nil {
		return decimal.Zero, time.Time{}, err
	}
	return amount, date, nil
}

// append holds the patient's lock across read-balance and insert, in process
// and in the database, so concurrent writers never read the same prior
// balance.
func (s *Service) append(ctx context.Context, e *Entry, delta decimal.Decimal) error {
	unlock := s.locks.Lock(e.PatientID)
	defer unlock()

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.entries.LockPatient(ctx, e.PatientID); err != nil {
			return err
		}
		prior, err := s.entries.CurrentBalance(ctx, e.PatientID)
		if err != nil {
			return err
		}
		e.RunningBalance = prior.Add(delta)
		return s.entries.Create(ctx, e)
	})
	if err != nil {
		return err
	}

	s.logger.Info().
		Str("patient_id", e.PatientID.String()).
		Str("kind", e.Kind()).
		Str("amount", delta.Abs().StringFixed(2)).
		Str("running_balance", e.RunningBalance.StringFixed(2)).
		Msg("ledger entry recorded")
	if s.metrics != nil {
		s.metrics.EntryRecorded(e.Kind())
	}
	if s.notifier != nil {
		s.notifier.PatientChanged(ctx, e.PatientID)
	}
	return nil
}

// ListEntries returns every entry in display order.
func (s *Service) ListEntries(ctx context.Context, patientID uuid.UUID) ([]*Entry, error) {
	return s.entries.ListByPatient(ctx, patientID)
}

// CurrentBalance is the running balance of the most recently inserted entry.
func (s *Service) CurrentBalance(ctx context.Context, patientID uuid.UUID) (decimal.Decimal, error) {
	return s.entries.CurrentBalance(ctx, patientID)
}

func (s *Service) Totals(ctx context.Context, patientID uuid.UUID) (Totals, error) {
	entries, err := s.entries.ListByPatient(ctx, patientID)
	if err != nil {
		return Totals{}, err
	}
	return ComputeTotals(entries), nil
}

// Ledger reads entries once and derives totals and balance from them.
func (s *Service) Ledger(ctx context.Context, patientID uuid.UUID) (*Ledger, error) {
	entries, err := s.entries.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []*Entry{}
	}
	return &Ledger{
		PatientID: patientID,
		Entries:   entries,
		Totals:    ComputeTotals(entries),
		Balance:   LatestBalance(entries),
	}, nil
}

// LatestBalances returns a balance for every listed patient, zero when the
// patient has no entries.
func (s *Service) LatestBalances(ctx context.Context, patientIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	out := make(map[uuid.UUID]decimal.Decimal, len(patientIDs))
	if len(patientIDs) == 0 {
		return out, nil
	}
	found, err := s.entries.LatestBalances(ctx, patientIDs)
	if err != nil {
		return nil, err
	}
	for _, id := range patientIDs {
		if bal, ok := found[id]; ok {
			out[id] = bal
		} else {
			out[id] = decimal.Zero
		}
	}
	return out, nil
}
