package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient is a registered patient. Scheduling fields are owned by the
// appointment package and are read-only here. Dates are "YYYY-MM-DD" and the
// appointment time is "HH:MM".
type Patient struct {
	ID                    uuid.UUID `json:"id"`
	FullName              string    `json:"full_name"`
	Age                   *int      `json:"age"`
	Occupation            *string   `json:"occupation"`
	Address               *string   `json:"address"`
	Telephone             *string   `json:"telephone"`
	Complain              *string   `json:"complain"`
	NextAppointment       *string   `json:"next_appointment"`
	NextAppointmentTime   *string   `json:"next_appointment_time"`
	NextAppointmentStatus string    `json:"next_appointment_status"`
	LastVisit             *string   `json:"last_visit"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// Input carries the demographic fields a user can set on registration or edit.
type Input struct {
	FullName   string `json:"full_name"`
	Age        *int   `json:"age"`
	Occupation string `json:"occupation"`
	Address    string `json:"address"`
	Telephone  string `json:"telephone"`
	Complain   string `json:"complain"`
}
