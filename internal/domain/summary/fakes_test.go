package summary

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/dentrec/dentrec/internal/domain/alert"
	"github.com/dentrec/dentrec/internal/domain/dentalchart"
	"github.com/dentrec/dentrec/internal/domain/ledger"
	"github.com/dentrec/dentrec/internal/domain/patient"
	"github.com/dentrec/dentrec/internal/platform/apperr"
	"github.com/dentrec/dentrec/internal/platform/cache"
)

type fakePatients struct {
	items []*patient.Patient
	err   error
}

func (f *fakePatients) Get(_ context.Context, id uuid.UUID) (*patient.Patient, error) {
	for _, p := range f.items {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (f *fakePatients) List(_ context.Context, _ string, limit, offset int) ([]*patient.Patient, int, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	if offset >= len(f.items) {
		return nil, len(f.items), nil
	}
	end := offset + limit
	if end > len(f.items) {
		end = len(f.items)
	}
	return f.items[offset:end], len(f.items), nil
}

func (f *fakePatients) ListByIDs(_ context.Context, ids []uuid.UUID) ([]*patient.Patient, error) {
	if f.err != nil {
		return nil, f.err
	}
	want := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []*patient.Patient
	for _, p := range f.items {
		if want[p.ID] {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeAlerts struct {
	byPatient map[uuid.UUID][]*alert.Alert
	calls     int
	err       error

	// during runs inside ListByPatients, before it returns.
	during func()
}

func (f *fakeAlerts) List(_ context.Context, id uuid.UUID) ([]*alert.Alert, error) {
	return f.byPatient[id], f.err
}

func (f *fakeAlerts) ListByPatients(_ context.Context, ids []uuid.UUID) (map[uuid.UUID][]*alert.Alert, error) {
	f.calls++
	if f.during != nil {
		f.during()
	}
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[uuid.UUID][]*alert.Alert)
	for _, id := range ids {
		out[id] = f.byPatient[id]
	}
	return out, nil
}

type fakeLedger struct {
	balances map[uuid.UUID]decimal.Decimal
	calls    int
	err      error
}

func (f *fakeLedger) Ledger(_ context.Context, id uuid.UUID) (*ledger.Ledger, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &ledger.Ledger{PatientID: id, Entries: []*ledger.Entry{}, Balance: f.balances[id]}, nil
}

func (f *fakeLedger) LatestBalances(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[uuid.UUID]decimal.Decimal)
	for _, id := range ids {
		out[id] = f.balances[id]
	}
	return out, nil
}

type fakeCharts struct {
	records map[uuid.UUID][]dentalchart.Record
	calls   int
	err     error
}

func (f *fakeCharts) GetChart(_ context.Context, id uuid.UUID) (dentalchart.Chart, error) {
	if f.err != nil {
		return nil, f.err
	}
	return dentalchart.BuildChart(f.records[id]), nil
}

func (f *fakeCharts) CountsByPatients(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]dentalchart.Counts, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[uuid.UUID]dentalchart.Counts)
	for _, id := range ids {
		out[id] = dentalchart.BuildChart(f.records[id]).Counts()
	}
	return out, nil
}

// fakeKV is an in-memory cache.KVStore honouring TTLs.
type fakeKV struct {
	mu      sync.Mutex
	data    map[string]fakeItem
	now     func() time.Time
	failGet bool
}

type fakeItem struct {
	value   string
	expires time.Time
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: make(map[string]fakeItem), now: time.Now}
}

func (f *fakeKV) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet {
		return "", errors.New("connection refused")
	}
	it, ok := f.data[key]
	if !ok {
		return "", cache.ErrCacheMiss
	}
	if !it.expires.IsZero() && f.now().After(it.expires) {
		delete(f.data, key)
		return "", cache.ErrCacheMiss
	}
	return it.value, nil
}

func (f *fakeKV) Set(_ context.Context, key, value string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	it := fakeItem{value: value}
	if ttl > 0 {
		it.expires = f.now().Add(ttl)
	}
	f.data[key] = it
	return nil
}

func (f *fakeKV) Delete(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeKV) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.data)
}

type countingRecorder struct {
	results map[string]int
}

func (r *countingRecorder) CacheLookup(result string) {
	if r.results == nil {
		r.results = make(map[string]int)
	}
	r.results[result]++
}

type fixture struct {
	svc      *Service
	patients *fakePatients
	alerts   *fakeAlerts
	ledger   *fakeLedger
	charts   *fakeCharts
}

func newFixture() *fixture {
	f := &fixture{
		patients: &fakePatients{},
		alerts:   &fakeAlerts{byPatient: make(map[uuid.UUID][]*alert.Alert)},
		ledger:   &fakeLedger{balances: make(map[uuid.UUID]decimal.Decimal)},
		charts:   &fakeCharts{records: make(map[uuid.UUID][]dentalchart.Record)},
	}
	f.svc = NewService(f.patients, f.alerts, f.ledger, f.charts, zerolog.Nop())
	return f
}

func (f *fixture) addPatient(name string) uuid.UUID {
	p := &patient.Patient{ID: uuid.New(), FullName: name, NextAppointmentStatus: "scheduled"}
	f.patients.items = append(f.patients.items, p)
	return p.ID
}

func (f *fixture) queries() int {
	return f.alerts.calls + f.ledger.calls + f.charts.calls
}
