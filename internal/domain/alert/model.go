package alert

import (
	"time"

	"github.com/google/uuid"
)

// Alert is a free-text medical flag on a patient, such as an allergy.
type Alert struct {
	ID        uuid.UUID `json:"id"`
	PatientID uuid.UUID `json:"patient_id"`
	Label     string    `json:"label"`
	CreatedAt time.Time `json:"created_at"`
}
