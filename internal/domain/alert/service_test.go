package alert

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dentrec/dentrec/internal/platform/apperr"
)

// -- Mock Repository --

type mockRepo struct {
	items     []*Alert
	batchHits int
	err       error
}

func (m *mockRepo) Create(_ context.Context, a *Alert) error {
	if m.err != nil {
		return m.err
	}
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	m.items = append(m.items, a)
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) (uuid.UUID, bool, error) {
	if m.err != nil {
		return uuid.Nil, false, m.err
	}
	for i, a := range m.items {
		if a.ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return a.PatientID, true, nil
		}
	}
	return uuid.Nil, false, nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*Alert, error) {
	var out []*Alert
	for _, a := range m.items {
		if a.PatientID == patientID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockRepo) ListByPatients(_ context.Context, ids []uuid.UUID) ([]*Alert, error) {
	m.batchHits++
	if m.err != nil {
		return nil, m.err
	}
	want := make(map[uuid.UUID]bool)
	for _, id := range ids {
		want[id] = true
	}
	var out []*Alert
	for _, a := range m.items {
		if want[a.PatientID] {
			out = append(out, a)
		}
	}
	return out, nil
}

type recordingNotifier struct {
	changed []uuid.UUID
}

func (n *recordingNotifier) PatientChanged(_ context.Context, id uuid.UUID) {
	n.changed = append(n.changed, id)
}

func newTestService() (*Service, *mockRepo, *recordingNotifier) {
	repo := &mockRepo{}
	svc := NewService(repo, zerolog.Nop())
	n := &recordingNotifier{}
	svc.SetNotifier(n)
	return svc, repo, n
}

// -- Tests --

func TestAdd_TrimsLabel(t *testing.T) {
	svc, _, n := newTestService()
	pid := uuid.New()
	a, err := svc.Add(context.Background(), pid, "  Penicillin allergy ")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if a.Label != "Penicillin allergy" {
		t.Errorf("expected trimmed label, got %q", a.Label)
	}
	if len(n.changed) != 1 || n.changed[0] != pid {
		t.Errorf("expected one notification for %s, got %v", pid, n.changed)
	}
}

func TestAdd_RejectsEmpty(t *testing.T) {
	svc, repo, n := newTestService()
	for _, label := range []string{"", "   ", "\t\n"} {
		_, err := svc.Add(context.Background(), uuid.New(), label)
		var ve *apperr.ValidationError
		if !errors.As(err, &ve) || ve.Field != "label" {
			t.Errorf("label %q: expected validation error, got %v", label, err)
		}
	}
	if len(repo.items) != 0 || len(n.changed) != 0 {
		t.Error("rejected labels must not be stored")
	}
}

func TestAdd_AllowsDuplicates(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	pid := uuid.New()
	svc.Add(ctx, pid, "Diabetic")
	svc.Add(ctx, pid, "Diabetic")

	items, _ := svc.List(ctx, pid)
	if len(items) != 2 {
		t.Errorf("expected duplicates to be kept, got %d", len(items))
	}
}

func TestRemove(t *testing.T) {
	svc, _, n := newTestService()
	ctx := context.Background()
	pid := uuid.New()
	a, _ := svc.Add(ctx, pid, "Hypertension")
	svc.Add(ctx, pid, "Asthma")

	if err := svc.Remove(ctx, a.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	items, _ := svc.List(ctx, pid)
	if len(items) != 1 || items[0].Label != "Asthma" {
		t.Errorf("unexpected alerts after remove: %v", items)
	}
	if len(n.changed) != 3 {
		t.Errorf("expected 3 notifications, got %d", len(n.changed))
	}
}

func TestRemove_UnknownIsNoop(t *testing.T) {
	svc, _, n := newTestService()
	if err := svc.Remove(context.Background(), uuid.New()); err != nil {
		t.Errorf("expected no error for unknown id, got %v", err)
	}
	if len(n.changed) != 0 {
		t.Error("expected no notification for a no-op remove")
	}
}

func TestRemove_StorageError(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.err = apperr.Storage("delete medical alert", errors.New("connection reset"))
	if err := svc.Remove(context.Background(), uuid.New()); !apperr.IsStorage(err) {
		t.Errorf("expected storage error, got %v", err)
	}
}

func TestListByPatients(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	a, b := uuid.New(), uuid.New()
	svc.Add(ctx, a, "Latex allergy")
	svc.Add(ctx, b, "Pregnant")
	svc.Add(ctx, a, "On warfarin")

	grouped, err := svc.ListByPatients(ctx, []uuid.UUID{a, b})
	if err != nil {
		t.Fatalf("ListByPatients: %v", err)
	}
	if len(grouped[a]) != 2 || grouped[a][1].Label != "On warfarin" || len(grouped[b]) != 1 {
		t.Errorf("unexpected grouping: %v", grouped)
	}
	if repo.batchHits != 1 {
		t.Errorf("expected one batch query, got %d", repo.batchHits)
	}

	empty, err := svc.ListByPatients(ctx, nil)
	if err != nil || len(empty) != 0 || repo.batchHits != 1 {
		t.Error("empty id set must return empty without querying")
	}
}
