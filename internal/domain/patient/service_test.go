package patient

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dentrec/dentrec/internal/platform/apperr"
)

// -- Mock Repository --

type mockRepo struct {
	items map[uuid.UUID]*Patient
	err   error
}

func newMockRepo() *mockRepo {
	return &mockRepo{items: make(map[uuid.UUID]*Patient)}
}

func (m *mockRepo) Create(_ context.Context, p *Patient) error {
	if m.err != nil {
		return m.err
	}
	p.ID = uuid.New()
	p.NextAppointmentStatus = "scheduled"
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	m.items[p.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := m.items[id]
	if !ok {
		return nil, apperr.Storage("get patient", apperr.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (m *mockRepo) UpdateDemographics(_ context.Context, p *Patient) error {
	if m.err != nil {
		return m.err
	}
	stored := m.items[p.ID]
	stored.FullName, stored.Age, stored.Occupation = p.FullName, p.Age, p.Occupation
	stored.Address, stored.Telephone, stored.Complain = p.Address, p.Telephone, p.Complain
	return nil
}

func (m *mockRepo) sorted() []*Patient {
	var out []*Patient
	for _, p := range m.items {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out
}

func (m *mockRepo) List(_ context.Context, query string, limit, offset int) ([]*Patient, int, error) {
	if m.err != nil {
		return nil, 0, m.err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	var matched []*Patient
	for _, p := range m.sorted() {
		if q == "" || strings.Contains(strings.ToLower(p.FullName), q) ||
			(p.Telephone != nil && strings.Contains(strings.ToLower(*p.Telephone), q)) ||
			(p.Address != nil && strings.Contains(strings.ToLower(*p.Address), q)) {
			matched = append(matched, p)
		}
	}
	total := len(matched)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (m *mockRepo) ListByIDs(_ context.Context, ids []uuid.UUID) ([]*Patient, error) {
	var out []*Patient
	for _, id := range ids {
		if p, ok := m.items[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func newTestService() (*Service, *mockRepo) {
	repo := newMockRepo()
	return NewService(repo, "ph", zerolog.Nop()), repo
}

func intPtr(i int) *int { return &i }

// -- Tests --

func TestRegister_TrimsAndNullsBlanks(t *testing.T) {
	svc, _ := newTestService()
	p, err := svc.Register(context.Background(), Input{
		FullName:   "  Maria Santos ",
		Age:        intPtr(34),
		Occupation: "  ",
		Address:    " 12 Rizal St ",
		Complain:   "toothache",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if p.FullName != "Maria Santos" {
		t.Errorf("expected trimmed name, got %q", p.FullName)
	}
	if p.Occupation != nil {
		t.Errorf("expected blank occupation to be nil, got %q", *p.Occupation)
	}
	if p.Address == nil || *p.Address != "12 Rizal St" {
		t.Errorf("unexpected address %v", p.Address)
	}
	if p.Telephone != nil {
		t.Error("expected nil telephone")
	}
	if p.NextAppointmentStatus != "scheduled" {
		t.Errorf("expected default status scheduled, got %q", p.NextAppointmentStatus)
	}
}

func TestRegister_Validation(t *testing.T) {
	svc, repo := newTestService()
	tests := []struct {
		name  string
		in    Input
		field string
	}{
		{"missing name", Input{FullName: "   "}, "full_name"},
		{"negative age", Input{FullName: "Ana", Age: intPtr(-1)}, "age"},
		{"age too high", Input{FullName: "Ana", Age: intPtr(151)}, "age"},
		{"name too long", Input{FullName: strings.Repeat("a", 256)}, "full_name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.in)
			var ve *apperr.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Field != tt.field {
				t.Errorf("expected field %s, got %s", tt.field, ve.Field)
			}
		})
	}
	if len(repo.items) != 0 {
		t.Errorf("expected nothing stored, got %d patients", len(repo.items))
	}
}

func TestRegister_AgeBounds(t *testing.T) {
	svc, _ := newTestService()
	for _, age := range []int{0, 150} {
		if _, err := svc.Register(context.Background(), Input{FullName: "Ana", Age: intPtr(age)}); err != nil {
			t.Errorf("age %d: unexpected error %v", age, err)
		}
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		raw, region, want string
	}{
		{"0917 123 4567", "PH", "+639171234567"},
		{"+63 917 123 4567", "US", "+639171234567"},
		{"12345", "PH", "12345"},
		{"call after 5pm", "PH", "call after 5pm"},
	}
	for _, tt := range tests {
		if got := NormalizePhone(tt.raw, tt.region); got != tt.want {
			t.Errorf("NormalizePhone(%q, %s) = %q, want %q", tt.raw, tt.region, got, tt.want)
		}
	}
}

func TestRegister_NormalizesTelephone(t *testing.T) {
	svc, _ := newTestService()
	p, err := svc.Register(context.Background(), Input{FullName: "Ana", Telephone: " 09171234567 "})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if p.Telephone == nil || *p.Telephone != "+639171234567" {
		t.Errorf("expected E.164 telephone, got %v", p.Telephone)
	}
}

func TestUpdateDemographics(t *testing.T) {
	svc, repo := newTestService()
	p, _ := svc.Register(context.Background(), Input{FullName: "Ana Cruz", Occupation: "teacher"})
	next := "2024-06-01"
	repo.items[p.ID].NextAppointment = &next

	updated, err := svc.UpdateDemographics(context.Background(), p.ID, Input{FullName: "Ana Reyes"})
	if err != nil {
		t.Fatalf("UpdateDemographics: %v", err)
	}
	if updated.FullName != "Ana Reyes" || updated.Occupation != nil {
		t.Errorf("unexpected update result: %+v", updated)
	}
	stored := repo.items[p.ID]
	if stored.NextAppointment == nil || *stored.NextAppointment != next {
		t.Error("scheduling fields must not be touched by a demographic edit")
	}
}

func TestUpdateDemographics_NotFound(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.UpdateDemographics(context.Background(), uuid.New(), Input{FullName: "X"})
	if !apperr.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestGet_NilID(t *testing.T) {
	svc, _ := newTestService()
	if _, err := svc.Get(context.Background(), uuid.Nil); !apperr.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestList_Search(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	svc.Register(ctx, Input{FullName: "Carlos Dizon", Address: "Quezon City"})
	svc.Register(ctx, Input{FullName: "Ana Cruz", Telephone: "09171234567"})
	svc.Register(ctx, Input{FullName: "Bea Lim", Address: "Makati"})

	all, total, err := svc.List(ctx, "", 10, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 3 || all[0].FullName != "Ana Cruz" || all[2].FullName != "Carlos Dizon" {
		t.Errorf("expected name order, got %d items starting %q", total, all[0].FullName)
	}

	byAddr, _, _ := svc.List(ctx, "quezon", 10, 0)
	if len(byAddr) != 1 || byAddr[0].FullName != "Carlos Dizon" {
		t.Errorf("expected address match, got %v", byAddr)
	}
	byPhone, _, _ := svc.List(ctx, "917123", 10, 0)
	if len(byPhone) != 1 || byPhone[0].FullName != "Ana Cruz" {
		t.Errorf("expected telephone match, got %v", byPhone)
	}
}

func TestListByIDs_Empty(t *testing.T) {
	svc, _ := newTestService()
	items, err := svc.ListByIDs(context.Background(), nil)
	if err != nil || items != nil {
		t.Errorf("expected nil, nil for empty ids, got %v, %v", items, err)
	}
}

func TestLikePattern(t *testing.T) {
	if got := likePattern(`50%_off\`); got != `%50\%\_off\\%` {
		t.Errorf("unexpected pattern %q", got)
	}
}
