package dentalchart

import (
	"time"

	"github.com/google/uuid"
)

// Status is the condition recorded for one tooth.
type Status string

const (
	StatusNormal         Status = "normal"
	StatusNeedsTreatment Status = "needs_treatment"
	StatusCompleted      Status = "completed"
	StatusMissing        Status = "missing"
)

var validStatuses = map[Status]bool{
	StatusNormal: true, StatusNeedsTreatment: true, StatusCompleted: true, StatusMissing: true,
}

// ParseStatus reports whether s is one of the four tooth statuses.
func ParseStatus(s string) (Status, bool) {
	st := Status(s)
	return st, validStatuses[st]
}

// UpperArch and LowerArch list the permanent teeth in FDI notation, in chart
// display order from the patient's right to left.
var (
	UpperArch = []int{18, 17, 16, 15, 14, 13, 12, 11, 21, 22, 23, 24, 25, 26, 27, 28}
	LowerArch = []int{48, 47, 46, 45, 44, 43, 42, 41, 31, 32, 33, 34, 35, 36, 37, 38}
)

var validTeeth = func() map[int]bool {
	m := make(map[int]bool, len(UpperArch)+len(LowerArch))
	for _, id := range Teeth() {
		m[id] = true
	}
	return m
}()

// Teeth returns all 32 tooth ids, upper arch first.
func Teeth() []int {
	out := make([]int, 0, len(UpperArch)+len(LowerArch))
	out = append(out, UpperArch...)
	return append(out, LowerArch...)
}

// ValidTooth reports whether id is a permanent tooth in FDI notation.
func ValidTooth(id int) bool {
	return validTeeth[id]
}

// Record is one stored status row. Status is kept as read so that values
// outside the known set can be told apart from "normal" when needed.
type Record struct {
	PatientID uuid.UUID `json:"patient_id"`
	ToothID   int       `json:"tooth_id"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Chart maps every tooth id to its effective status.
type Chart map[int]Status

// Counts are the two figures shown on patient cards.
type Counts struct {
	Completed      int `json:"completed"`
	NeedsTreatment int `json:"needs_treatment"`
}

// BuildChart overlays records onto an all-normal chart. Unknown tooth ids are
// dropped and unknown statuses read as normal.
func BuildChart(records []Record) Chart {
	chart := make(Chart, len(validTeeth))
	for _, id := range Teeth() {
		chart[id] = StatusNormal
	}
	for _, r := range records {
		if !ValidTooth(r.ToothID) {
			continue
		}
		if st, ok := ParseStatus(r.Status); ok {
			chart[r.ToothID] = st
		}
	}
	return chart
}

// Counts tallies completed and needs-treatment teeth.
func (c Chart) Counts() Counts {
	var n Counts
	for _, st := range c {
		switch st {
		case StatusCompleted:
			n.Completed++
		case StatusNeedsTreatment:
			n.NeedsTreatment++
		}
	}
	return n
}

// ToothView is one entry of an arch in display order.
type ToothView struct {
	ToothID int    `json:"tooth_id"`
	Status  Status `json:"status"`
}

// View is the chart laid out for display.
type View struct {
	PatientID uuid.UUID   `json:"patient_id"`
	Upper     []ToothView `json:"upper"`
	Lower     []ToothView `json:"lower"`
	Counts    Counts      `json:"counts"`
}

// View lays the chart out by arch.
func (c Chart) View(patientID uuid.UUID) View {
	arch := func(ids []int) []ToothView {
		out := make([]ToothView, len(ids))
		for i, id := range ids {
			st, ok := c[id]
			if !ok {
				st = StatusNormal
			}
			out[i] = ToothView{ToothID: id, Status: st}
		}
		return out
	}
	return View{PatientID: patientID, Upper: arch(UpperArch), Lower: arch(LowerArch), Counts: c.Counts()}
}
