package ledger

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateLayout is the wire and input format for entry dates.
const DateLayout = "2006-01-02"

const (
	KindCharge  = "charge"
	KindPayment = "payment"

	DefaultChargeDescription  = "Treatment / Service"
	DefaultPaymentDescription = "Payment Received"
)

// Entry is one immutable ledger line. Exactly one of Debit and Credit is
// positive. RunningBalance is fixed at insertion and never recomputed.
type Entry struct {
	ID             uuid.UUID       `json:"id"`
	PatientID      uuid.UUID       `json:"patient_id"`
	Seq            int64           `json:"seq"`
	Date           time.Time       `json:"date"`
	Description    string          `json:"description"`
	Debit          decimal.Decimal `json:"debit"`
	Credit         decimal.Decimal `json:"credit"`
	RunningBalance decimal.Decimal `json:"running_balance"`
	CreatedAt      time.Time       `json:"created_at"`
}

// MarshalJSON renders Date as a calendar date.
func (e Entry) MarshalJSON() ([]byte, error) {
	type alias Entry
	return json.Marshal(struct {
		alias
		Date string `json:"date"`
	}{alias(e), e.Date.Format(DateLayout)})
}

// Kind reports whether the entry is a charge or a payment.
func (e *Entry) Kind() string {
	if e.Debit.IsPositive() {
		return KindCharge
	}
	return KindPayment
}

// ChargeInput is a charge as typed by the user. Amount and Date are raw text.
type ChargeInput struct {
	PatientID    uuid.UUID
	Date         string
	ToothLocator string
	Description  string
	Amount       string
}

// PaymentInput is a payment as typed by the user.
type PaymentInput struct {
	PatientID uuid.UUID
	Date      string
	Details   string
	Amount    string
}

type Totals struct {
	Debit  decimal.Decimal `json:"total_debit"`
	Credit decimal.Decimal `json:"total_credit"`
}

// Ledger is the full ledger screen for one patient.
type Ledger struct {
	PatientID uuid.UUID       `json:"patient_id"`
	Entries   []*Entry        `json:"entries"`
	Totals    Totals          `json:"totals"`
	Balance   decimal.Decimal `json:"balance"`
}
