package ledger

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dentrec/dentrec/internal/platform/apperr"
)

// maxAmount keeps amounts inside NUMERIC(14,2).
var maxAmount = decimal.New(1, 12)

// ParseAmount turns user text into a positive amount rounded to cents.
// Empty, non-numeric and non-finite text, zero and negatives are rejected.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, apperr.Validation("amount", "amount is required")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, apperr.Validation("amount", "amount %q is not a number", raw)
	}
	d = d.Round(2)
	if !d.IsPositive() {
		return decimal.Zero, apperr.Validation("amount", "amount must be greater than zero")
	}
	if d.GreaterThanOrEqual(maxAmount) {
		return decimal.Zero, apperr.Validation("amount", "amount is too large")
	}
	return d, nil
}

// ParseDate parses a YYYY-MM-DD entry date. Empty means today in now's
// location. The result is midnight UTC of that calendar date.
func ParseDate(raw string, now time.Time) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, apperr.Validation("date", "date %q must be YYYY-MM-DD", raw)
	}
	return t, nil
}

// ChargeDescription prefixes the tooth locator, when given, to the
// description or its default.
func ChargeDescription(toothLocator, description string) string {
	desc := strings.TrimSpace(description)
	if desc == "" {
		desc = DefaultChargeDescription
	}
	if tooth := strings.TrimSpace(toothLocator); tooth != "" {
		return tooth + " — " + desc
	}
	return desc
}

func PaymentDescription(details string) string {
	if d := strings.TrimSpace(details); d != "" {
		return d
	}
	return DefaultPaymentDescription
}

// ComputeTotals sums debits and credits.
func ComputeTotals(entries []*Entry) Totals {
	t := Totals{Debit: decimal.Zero, Credit: decimal.Zero}
	for _, e := range entries {
		t.Debit = t.Debit.Add(e.Debit)
		t.Credit = t.Credit.Add(e.Credit)
	}
	return t
}

// LatestBalance is the running balance of the most recently inserted entry,
// regardless of entry dates. No entries means zero.
func LatestBalance(entries []*Entry) decimal.Decimal {
	var last *Entry
	for _, e := range entries {
		if last == nil || e.Seq > last.Seq {
			last = e
		}
	}
	if last == nil {
		return decimal.Zero
	}
	return last.RunningBalance
}

// SortForDisplay orders entries by date, then insertion order.
func SortForDisplay(entries []*Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date) {
			return entries[i].Date.Before(entries[j].Date)
		}
		return entries[i].Seq < entries[j].Seq
	})
}
