package patient

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dentrec/dentrec/internal/platform/apperr"
	"github.com/dentrec/dentrec/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const patientCols = `id, full_name, age, occupation, address, telephone, complain,
	to_char(next_appointment, 'YYYY-MM-DD'), to_char(next_appointment_time, 'HH24:MI'),
	next_appointment_status, to_char(last_visit, 'YYYY-MM-DD'), created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.FullName, &p.Age, &p.Occupation, &p.Address, &p.Telephone, &p.Complain,
		&p.NextAppointment, &p.NextAppointmentTime,
		&p.NextAppointmentStatus, &p.LastVisit, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	err := db.Resolve(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO patients (id, full_name, age, occupation, address, telephone, complain)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING next_appointment_status, created_at, updated_at`,
		p.ID, p.FullName, p.Age, p.Occupation, p.Address, p.Telephone, p.Complain,
	).Scan(&p.NextAppointmentStatus, &p.CreatedAt, &p.UpdatedAt)
	return apperr.Storage("insert patient", err)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := scanPatient(db.Resolve(ctx, r.pool).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
	if err != nil {
		return nil, apperr.Storage("get patient", err)
	}
	return p, nil
}

func (r *repoPG) UpdateDemographics(ctx context.Context, p *Patient) error {
	err := db.Resolve(ctx, r.pool).QueryRow(ctx, `
		UPDATE patients SET full_name=$2, age=$3, occupation=$4, address=$5,
			telephone=$6, complain=$7, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		p.ID, p.FullName, p.Age, p.Occupation, p.Address, p.Telephone, p.Complain,
	).Scan(&p.UpdatedAt)
	return apperr.Storage("update patient", err)
}

// likePattern escapes LIKE metacharacters so a search for "50%" is literal.
func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(q) + "%"
}

func (r *repoPG) List(ctx context.Context, query string, limit, offset int) ([]*Patient, int, error) {
	q := db.Resolve(ctx, r.pool)
	where := ""
	args := []interface{}{}
	if query = strings.TrimSpace(query); query != "" {
		where = ` WHERE full_name ILIKE $1 OR telephone ILIKE $1 OR address ILIKE $1`
		args = append(args, likePattern(query))
	}

	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM patients`+where, args...).Scan(&total); err != nil {
		return nil, 0, apperr.Storage("count patients", err)
	}

	n := len(args)
	args = append(args, limit, offset)
	rows, err := q.Query(ctx, `SELECT `+patientCols+` FROM patients`+where+
		` ORDER BY full_name, id LIMIT $`+strconv.Itoa(n+1)+` OFFSET $`+strconv.Itoa(n+2), args...)
	if err != nil {
		return nil, 0, apperr.Storage("list patients", err)
	}
	defer rows.Close()

	var items []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, apperr.Storage("scan patient", err)
		}
		items = append(items, p)
	}
	return items, total, apperr.Storage("list patients", rows.Err())
}

func (r *repoPG) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*Patient, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := db.Resolve(ctx, r.pool).Query(ctx,
		`SELECT `+patientCols+` FROM patients WHERE id = ANY($1) ORDER BY full_name, id`, ids)
	if err != nil {
		return nil, apperr.Storage("list patients by id", err)
	}
	defer rows.Close()

	var items []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, apperr.Storage("scan patient", err)
		}
		items = append(items, p)
	}
	return items, apperr.Storage("list patients by id", rows.Err())
}
