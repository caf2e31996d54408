package summary

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dentrec/dentrec/internal/domain/alert"
	"github.com/dentrec/dentrec/internal/domain/dentalchart"
	"github.com/dentrec/dentrec/internal/domain/ledger"
	"github.com/dentrec/dentrec/internal/domain/patient"
)

// Summary is the derived state shown on a patient card.
type Summary struct {
	PatientID uuid.UUID          `json:"patient_id"`
	Alerts    []*alert.Alert     `json:"alerts"`
	Balance   decimal.Decimal    `json:"balance"`
	Counts    dentalchart.Counts `json:"counts"`
}

func empty(id uuid.UUID) *Summary {
	return &Summary{PatientID: id, Alerts: []*alert.Alert{}, Balance: decimal.Zero}
}

// Card is one dashboard row.
type Card struct {
	*patient.Patient
	Summary *Summary `json:"summary"`
}

// Overview is everything the patient detail screen shows.
type Overview struct {
	Patient *patient.Patient `json:"patient"`
	Alerts  []*alert.Alert   `json:"alerts"`
	Chart   dentalchart.View `json:"chart"`
	Ledger  *ledger.Ledger   `json:"ledger"`
}
