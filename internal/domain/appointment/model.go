package appointment

import (
	"strings"
	"time"

	"github.com/dentrec/dentrec/internal/platform/apperr"
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusMoved     Status = "moved"
	StatusPostponed Status = "postponed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
)

var validStatuses = map[Status]bool{
	StatusScheduled: true,
	StatusCompleted: true,
	StatusMoved:     true,
	StatusPostponed: true,
	StatusCancelled: true,
	StatusNoShow:    true,
}

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// Slot is the scheduling state stored on a patient. Date and LastVisit are
// "YYYY-MM-DD", Time is "HH:MM". Nil means unset.
type Slot struct {
	Date      *string `json:"next_appointment"`
	Time      *string `json:"next_appointment_time"`
	Status    Status  `json:"next_appointment_status"`
	LastVisit *string `json:"last_visit"`
}

// Input is a requested slot change. Empty Date or Time means none.
type Input struct {
	Date   string `json:"next_appointment"`
	Time   string `json:"next_appointment_time"`
	Status string `json:"next_appointment_status"`
}

// Request is a validated Input.
type Request struct {
	Date   *string
	Time   *string
	Status Status
}

// Validate normalises in. An empty status means scheduled and a time with
// seconds is truncated to minutes.
func (in Input) Validate() (Request, error) {
	var r Request

	status := Status(strings.TrimSpace(in.Status))
	if status == "" {
		status = StatusScheduled
	}
	if !validStatuses[status] {
		return r, apperr.Validation("next_appointment_status", "status %q is not one of scheduled, completed, moved, postponed, cancelled, no_show", in.Status)
	}
	r.Status = status

	if d := strings.TrimSpace(in.Date); d != "" {
		t, err := time.Parse(dateLayout, d)
		if err != nil {
			return r, apperr.Validation("next_appointment", "date %q must be YYYY-MM-DD", in.Date)
		}
		s := t.Format(dateLayout)
		r.Date = &s
	}

	if tm := strings.TrimSpace(in.Time); tm != "" {
		t, err := time.Parse(timeLayout, tm)
		if err != nil {
			t, err = time.Parse("15:04:05", tm)
		}
		if err != nil {
			return r, apperr.Validation("next_appointment_time", "time %q must be HH:MM or HH:MM:SS", in.Time)
		}
		s := t.Format(timeLayout)
		r.Time = &s
	}
	return r, nil
}

// Next computes the slot that results from applying r to current. Any
// status may follow any other.
func Next(current Slot, r Request) Slot {
	next := Slot{Status: r.Status, LastVisit: current.LastVisit}
	switch {
	case r.Status == StatusCompleted && r.Date != nil:
		next.LastVisit = r.Date
	case r.Status == StatusCancelled || r.Status == StatusNoShow:
	default:
		next.Date = r.Date
		next.Time = r.Time
	}
	return next
}
