// Package summary assembles read-only patient views from the other
// record stores.
package summary

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/dentrec/dentrec/internal/domain/alert"
	"github.com/dentrec/dentrec/internal/domain/dentalchart"
	"github.com/dentrec/dentrec/internal/domain/ledger"
	"github.com/dentrec/dentrec/internal/domain/patient"
	"github.com/dentrec/dentrec/internal/platform/cache"
	"github.com/dentrec/dentrec/internal/platform/db"
)

type PatientSource interface {
	Get(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
	List(ctx context.Context, query string, limit, offset int) ([]*patient.Patient, int, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*patient.Patient, error)
}

type AlertSource interface {
	List(ctx context.Context, patientID uuid.UUID) ([]*alert.Alert, error)
	ListByPatients(ctx context.Context, patientIDs []uuid.UUID) (map[uuid.UUID][]*alert.Alert, error)
}

type LedgerSource interface {
	Ledger(ctx context.Context, patientID uuid.UUID) (*ledger.Ledger, error)
	LatestBalances(ctx context.Context, patientIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)
}

type ChartSource interface {
	GetChart(ctx context.Context, patientID uuid.UUID) (dentalchart.Chart, error)
	CountsByPatients(ctx context.Context, patientIDs []uuid.UUID) (map[uuid.UUID]dentalchart.Counts, error)
}

// CacheRecorder counts summary cache lookups by result.
type CacheRecorder interface {
	CacheLookup(result string)
}

const (
	cacheHit   = "hit"
	cacheMiss  = "miss"
	cacheError = "error"
)

type Service struct {
	patients PatientSource
	alerts   AlertSource
	ledger   LedgerSource
	charts   ChartSource
	logger   zerolog.Logger

	cache    cache.KVStore
	cacheTTL time.Duration
	metrics  CacheRecorder

	// invalidations counts PatientChanged calls. A read that overlaps one
	// does not populate the cache.
	invalidations atomic.Uint64
}

func NewService(patients PatientSource, alerts AlertSource, ledger LedgerSource, charts ChartSource, logger zerolog.Logger) *Service {
	return &Service{patients: patients, alerts: alerts, ledger: ledger, charts: charts, logger: logger}
}

// SetCache enables caching of per-patient summaries for ttl.
func (s *Service) SetCache(kv cache.KVStore, ttl time.Duration) {
	s.cache = kv
	s.cacheTTL = ttl
}

func (s *Service) SetRecorder(r CacheRecorder) {
	s.metrics = r
}

// Summaries derives alerts, current balance and tooth counts for every id,
// issuing at most one query per record store. A failed store is logged and
// read as empty. No ids means no queries.
func (s *Service) Summaries(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Summary, error) {
	out := make(map[uuid.UUID]*Summary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	missing := s.fromCache(ctx, ids, out)
	if len(missing) == 0 {
		return out, nil
	}

	epoch := s.invalidations.Load()
	fresh := make(map[uuid.UUID]*Summary, len(missing))
	for _, id := range missing {
		fresh[id] = empty(id)
	}
	complete := true

	alerts, err := s.alerts.ListByPatients(ctx, missing)
	if err != nil {
		complete = false
		s.logger.Warn().Err(err).Int("patients", len(missing)).Msg("summary: alerts unavailable")
	}
	for id, list := range alerts {
		if sm, ok := fresh[id]; ok && list != nil {
			sm.Alerts = list
		}
	}

	balances, err := s.ledger.LatestBalances(ctx, missing)
	if err != nil {
		complete = false
		s.logger.Warn().Err(err).Int("patients", len(missing)).Msg("summary: balances unavailable")
	}
	for id, bal := range balances {
		if sm, ok := fresh[id]; ok {
			sm.Balance = bal
		}
	}

	counts, err := s.charts.CountsByPatients(ctx, missing)
	if err != nil {
		complete = false
		s.logger.Warn().Err(err).Int("patients", len(missing)).Msg("summary: tooth counts unavailable")
	}
	for id, c := range counts {
		if sm, ok := fresh[id]; ok {
			sm.Counts = c
		}
	}

	if s.invalidations.Load() != epoch {
		complete = false
	}
	for id, sm := range fresh {
		out[id] = sm
		if complete {
			s.toCache(ctx, sm)
		}
	}
	return out, nil
}

// Dashboard lists patients ordered by name and attaches their summaries.
func (s *Service) Dashboard(ctx context.Context, query string, limit, offset int) ([]*Card, int, error) {
	patients, total, err := s.patients.List(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	cards, err := s.cards(ctx, patients)
	if err != nil {
		return nil, 0, err
	}
	return cards, total, nil
}

// Cards returns the dashboard cards for the given patients, ordered by name.
// Unknown ids are skipped.
func (s *Service) Cards(ctx context.Context, ids []uuid.UUID) ([]*Card, error) {
	if len(ids) == 0 {
		return []*Card{}, nil
	}
	patients, err := s.patients.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return s.cards(ctx, patients)
}

func (s *Service) cards(ctx context.Context, patients []*patient.Patient) ([]*Card, error) {
	ids := make([]uuid.UUID, len(patients))
	for i, p := range patients {
		ids[i] = p.ID
	}
	summaries, err := s.Summaries(ctx, ids)
	if err != nil {
		return nil, err
	}

	cards := make([]*Card, len(patients))
	for i, p := range patients {
		sm, ok := summaries[p.ID]
		if !ok {
			sm = empty(p.ID)
		}
		cards[i] = &Card{Patient: p, Summary: sm}
	}
	return cards, nil
}

// Overview reads one patient's full record. Only the patient lookup can fail
// the view; alerts, chart or ledger that cannot be read are logged and shown
// empty.
func (s *Service) Overview(ctx context.Context, patientID uuid.UUID) (*Overview, error) {
	p, err := s.patients.Get(ctx, patientID)
	if err != nil {
		return nil, err
	}
	log := s.logger.With().Str("patient_id", patientID.String()).Logger()

	alerts, err := s.alerts.List(ctx, patientID)
	if err != nil {
		log.Warn().Err(err).Msg("overview: alerts unavailable")
		alerts = nil
	}
	if alerts == nil {
		alerts = []*alert.Alert{}
	}

	chart, err := s.charts.GetChart(ctx, patientID)
	if err != nil {
		log.Warn().Err(err).Msg("overview: tooth chart unavailable")
		chart = dentalchart.BuildChart(nil)
	}

	l, err := s.ledger.Ledger(ctx, patientID)
	if err != nil || l == nil {
		if err != nil {
			log.Warn().Err(err).Msg("overview: ledger unavailable")
		}
		l = emptyLedger(patientID)
	}

	return &Overview{
		Patient: p,
		Alerts:  alerts,
		Chart:   chart.View(patientID),
		Ledger:  l,
	}, nil
}

func emptyLedger(patientID uuid.UUID) *ledger.Ledger {
	return &ledger.Ledger{
		PatientID: patientID,
		Entries:   []*ledger.Entry{},
		Totals:    ledger.Totals{Debit: decimal.Zero, Credit: decimal.Zero},
		Balance:   decimal.Zero,
	}
}

// PatientChanged drops the cached summary so the next read is fresh.
func (s *Service) PatientChanged(ctx context.Context, patientID uuid.UUID) {
	s.invalidations.Add(1)
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cacheKey(ctx, patientID)); err != nil {
		s.logger.Warn().Err(err).Str("patient_id", patientID.String()).Msg("summary: cache invalidation failed")
	}
}

func cacheKey(ctx context.Context, patientID uuid.UUID) string {
	return "summary:" + db.TenantFromContext(ctx) + ":" + patientID.String()
}

// fromCache fills out with cached summaries and returns the ids it could
// not serve. Cache errors count as misses.
func (s *Service) fromCache(ctx context.Context, ids []uuid.UUID, out map[uuid.UUID]*Summary) []uuid.UUID {
	if s.cache == nil {
		return ids
	}
	var missing []uuid.UUID
	for _, id := range ids {
		raw, err := s.cache.Get(ctx, cacheKey(ctx, id))
		if err != nil {
			if errors.Is(err, cache.ErrCacheMiss) {
				s.record(cacheMiss)
			} else {
				s.record(cacheError)
				s.logger.Warn().Err(err).Msg("summary: cache read failed")
			}
			missing = append(missing, id)
			continue
		}
		var sm Summary
		if err := json.Unmarshal([]byte(raw), &sm); err != nil {
			s.record(cacheError)
			missing = append(missing, id)
			continue
		}
		if sm.Alerts == nil {
			sm.Alerts = []*alert.Alert{}
		}
		s.record(cacheHit)
		out[id] = &sm
	}
	return missing
}

func (s *Service) toCache(ctx context.Context, sm *Summary) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(sm)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKey(ctx, sm.PatientID), string(raw), s.cacheTTL); err != nil {
		s.logger.Warn().Err(err).Msg("summary: cache write failed")
	}
}

func (s *Service) record(result string) {
	if s.metrics != nil {
		s.metrics.CacheLookup(result)
	}
}
