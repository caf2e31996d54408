package ledger

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func newLedgerContext(method, body string, pid string) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, "/", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, "/", nil)
	}
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(pid)
	return c, rec
}

func TestHandler_AddChargeAcceptsNumberOrString(t *testing.T) {
	svc, _ := newTestService()
	h := NewHandler(svc, "₱")
	pid := uuid.New().String()

	for _, body := range []string{
		`{"amount": 250.5, "tooth": "21", "description": "Extraction"}`,
		`{"amount": "250.50", "date": "2024-03-01"}`,
	} {
		c, rec := newLedgerContext(http.MethodPost, body, pid)
		if err := h.AddCharge(c); err != nil {
			t.Fatalf("AddCharge(%s): %v", body, err)
		}
		if rec.Code != http.StatusCreated {
			t.Errorf("expected 201, got %d", rec.Code)
		}
	}

	c, rec := newLedgerContext(http.MethodGet, "", pid)
	if err := h.Get(c); err != nil {
		t.Fatalf("Get: %v", err)
	}
	var got struct {
		Entries []struct {
			Date           string `json:"date"`
			Description    string `json:"description"`
			RunningBalance string `json:"running_balance"`
		} `json:"entries"`
		Totals struct {
			Debit string `json:"total_debit"`
		} `json:"totals"`
		Balance string `json:"balance"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got.Entries))
	}
	if got.Entries[0].Date != "2024-03-01" {
		t.Errorf("expected back-dated entry first, got %s", got.Entries[0].Date)
	}
	if got.Balance != "501" || got.Totals.Debit != "501" {
		t.Errorf("expected balance and total debit 501, got %s / %s", got.Balance, got.Totals.Debit)
	}
}

func TestHandler_AddPayment(t *testing.T) {
	svc, _ := newTestService()
	h := NewHandler(svc, "₱")
	c, rec := newLedgerContext(http.MethodPost, `{"amount": 100, "details": "GCash"}`, uuid.New().String())

	if err := h.AddPayment(c); err != nil {
		t.Fatalf("AddPayment: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"GCash"`) {
		t.Errorf("expected details as description, got %s", rec.Body.String())
	}
}

func TestHandler_InvalidAmount(t *testing.T) {
	svc, _ := newTestService()
	h := NewHandler(svc, "₱")
	for _, body := range []string{`{"amount": 0}`, `{"amount": "abc"}`, `{}`, `{"amount": -3}`, `{"amount": null}`} {
		c, _ := newLedgerContext(http.MethodPost, body, uuid.New().String())
		err := h.AddCharge(c)
		he, ok := err.(*echo.HTTPError)
		if !ok || he.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %v", body, err)
		}
	}
}

func TestHandler_InvalidPatientID(t *testing.T) {
	svc, _ := newTestService()
	h := NewHandler(svc, "₱")
	c, _ := newLedgerContext(http.MethodGet, "", "not-a-uuid")
	err := h.Balance(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandler_Balance(t *testing.T) {
	svc, _ := newTestService()
	h := NewHandler(svc, "₱")
	pid := uuid.New().String()
	c, _ := newLedgerContext(http.MethodPost, `{"amount": "75.25"}`, pid)
	if err := h.AddCharge(c); err != nil {
		t.Fatal(err)
	}

	c, rec := newLedgerContext(http.MethodGet, "", pid)
	if err := h.Balance(c); err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"balance":"75.25"`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestHandler_Export(t *testing.T) {
	svc, _ := newTestService()
	h := NewHandler(svc, "₱")
	c, rec := newLedgerContext(http.MethodGet, "", uuid.New().String())

	if err := h.Export(c); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(ct, "application/vnd.openxmlformats") {
		t.Errorf("unexpected content type %q", ct)
	}
	if cd := rec.Header().Get(echo.HeaderContentDisposition); !strings.HasPrefix(cd, "attachment;") || !strings.Contains(cd, "20240315") {
		t.Errorf("unexpected content disposition %q", cd)
	}
	if rec.Body.Len() == 0 {
		t.Error("expected workbook bytes")
	}
}
