package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/dentrec/dentrec/internal/platform/apperr"
	"github.com/dentrec/dentrec/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const entryCols = `id, patient_id, seq, entry_date, description, debit, credit, running_balance, created_at`

func scanEntry(row pgx.Row) (*Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.PatientID, &e.Seq, &e.Date, &e.Description,
		&e.Debit, &e.Credit, &e.RunningBalance, &e.CreatedAt)
	return &e, err
}

func (r *repoPG) LockPatient(ctx context.Context, patientID uuid.UUID) error {
	if db.TxFromContext(ctx) == nil {
		return apperr.Storage("lock ledger", errors.New("advisory lock requires a transaction"))
	}
	_, err := db.Resolve(ctx, r.pool).Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))`, patientID.String())
	return apperr.Storage("lock ledger", err)
}

func (r *repoPG) CurrentBalance(ctx context.Context, patientID uuid.UUID) (decimal.Decimal, error) {
	var bal decimal.Decimal
	err := db.Resolve(ctx, r.pool).QueryRow(ctx, `
		SELECT running_balance FROM ledger_entries
		WHERE patient_id = $1 ORDER BY seq DESC LIMIT 1`, patientID).Scan(&bal)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, apperr.Storage("read ledger balance", err)
	}
	return bal, nil
}

func (r *repoPG) Create(ctx context.Context, e *Entry) error {
	e.ID = uuid.New()
	err := db.Resolve(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO ledger_entries (id, patient_id, entry_date, description, debit, credit, running_balance)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING seq, created_at`,
		e.ID, e.PatientID, e.Date, e.Description, e.Debit, e.Credit, e.RunningBalance,
	).Scan(&e.Seq, &e.CreatedAt)
	return apperr.Storage("insert ledger entry", err)
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Entry, error) {
	rows, err := db.Resolve(ctx, r.pool).Query(ctx, `
		SELECT `+entryCols+` FROM ledger_entries
		WHERE patient_id = $1 ORDER BY entry_date, seq`, patientID)
	if err != nil {
		return nil, apperr.Storage("list ledger entries", err)
	}
	defer rows.Close()

	var out []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, apperr.Storage("scan ledger entry", err)
		}
		out = append(out, e)
	}
	return out, apperr.Storage("list ledger entries", rows.Err())
}

func (r *repoPG) LatestBalances(ctx context.Context, patientIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	rows, err := db.Resolve(ctx, r.pool).Query(ctx, `
		SELECT DISTINCT ON (patient_id) patient_id, running_balance
		FROM ledger_entries
		WHERE patient_id = ANY($1)
		ORDER BY patient_id, seq DESC`, patientIDs)
	if err != nil {
		return nil, apperr.Storage("list ledger balances", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID]decimal.Decimal, len(patientIDs))
	for rows.Next() {
		var id uuid.UUID
		var bal decimal.Decimal
		if err := rows.Scan(&id, &bal); err != nil {
			return nil, apperr.Storage("scan ledger balance", err)
		}
		out[id] = bal
	}
	return out, apperr.Storage("list ledger balances", rows.Err())
}
