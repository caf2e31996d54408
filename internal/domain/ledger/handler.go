package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/dentrec/dentrec/internal/platform/apperr"
)

type Handler struct {
	svc            *Service
	currencySymbol string
}

func NewHandler(svc *Service, currencySymbol string) *Handler {
	return &Handler{svc: svc, currencySymbol: currencySymbol}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/patients/:id/ledger", h.Get)
	api.POST("/patients/:id/ledger/charges", h.AddCharge)
	api.POST("/patients/:id/ledger/payments", h.AddPayment)
	api.GET("/patients/:id/ledger/balance", h.Balance)
	api.GET("/patients/:id/ledger/export", h.Export)
}

// amountText accepts an amount as a JSON number or string and keeps the
// literal text so it is parsed exactly once, as a decimal.
type amountText string

func (a *amountText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = amountText(s)
		return nil
	}
	*a = amountText(data)
	return nil
}

type chargeRequest struct {
	Date        string     `json:"date"`
	Tooth       string     `json:"tooth"`
	Description string     `json:"description"`
	Amount      amountText `json:"amount"`
}

type paymentRequest struct {
	Date    string     `json:"date"`
	Details string     `json:"details"`
	Amount  amountText `json:"amount"`
}

func patientID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	return id, nil
}

func (h *Handler) Get(c echo.Context) error {
	id, err := patientID(c)
	if err != nil {
		return err
	}
	l, err := h.svc.Ledger(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, l)
}

func (h *Handler) AddCharge(c echo.Context) error {
	id, err := patientID(c)
	if err != nil {
		return err
	}
	var req chargeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	e, err := h.svc.AddCharge(c.Request().Context(), ChargeInput{
		PatientID:    id,
		Date:         req.Date,
		ToothLocator: req.Tooth,
		Description:  req.Description,
		Amount:       string(req.Amount),
	})
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, e)
}

func (h *Handler) AddPayment(c echo.Context) error {
	id, err := patientID(c)
	if err != nil {
		return err
	}
	var req paymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	e, err := h.svc.AddPayment(c.Request().Context(), PaymentInput{
		PatientID: id,
		Date:      req.Date,
		Details:   req.Details,
		Amount:    string(req.Amount),
	})
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, e)
}

func (h *Handler) Balance(c echo.Context) error {
	id, err := patientID(c)
	if err != nil {
		return err
	}
	bal, err := h.svc.CurrentBalance(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"patient_id": id,
		"balance":    bal,
	})
}

func (h *Handler) Export(c echo.Context) error {
	id, err := patientID(c)
	if err != nil {
		return err
	}
	data, err := h.svc.ExportStatement(c.Request().Context(), id, h.currencySymbol)
	if err != nil {
		return apperr.HTTPError(err)
	}
	name := fmt.Sprintf("ledger-%s-%s.xlsx", id.String()[:8], h.svc.now().Format("20060102"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

