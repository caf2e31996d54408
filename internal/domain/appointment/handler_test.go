package appointment

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func TestHandler_SetAndGet(t *testing.T) {
	svc, repo, _ := newTestService()
	h := NewHandler(svc)
	e := echo.New()
	pid := uuid.New()
	repo.slots[pid] = &Slot{Status: StatusScheduled}

	body := `{"next_appointment":"2024-08-01","next_appointment_time":"15:00","next_appointment_status":"moved"}`
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(pid.String())
	if err := h.Set(c); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues(pid.String())
	if err := h.Get(c); err != nil {
		t.Fatalf("Get: %v", err)
	}
	var got Slot
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if str(got.Date) != "2024-08-01" || str(got.Time) != "15:00" || got.Status != StatusMoved {
		t.Errorf("unexpected slot %+v", got)
	}
}

func TestHandler_Set_InvalidStatus(t *testing.T) {
	svc, repo, _ := newTestService()
	h := NewHandler(svc)
	pid := uuid.New()
	repo.slots[pid] = &Slot{Status: StatusScheduled}

	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"next_appointment_status":"lost"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := echo.New().NewContext(req, httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(pid.String())

	err := h.Set(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandler_Get_NotFound(t *testing.T) {
	svc, _, _ := newTestService()
	h := NewHandler(svc)
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())

	err := h.Get(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
}
