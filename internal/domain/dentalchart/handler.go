package dentalchart

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/dentrec/dentrec/internal/platform/apperr"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/patients/:id/chart", h.GetChart)
	api.GET("/patients/:id/chart/counts", h.GetCounts)
	api.PUT("/patients/:id/chart/:tooth", h.SetStatus)
}

type setStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) GetChart(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	chart, err := h.svc.GetChart(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, chart.View(id))
}

func (h *Handler) GetCounts(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	counts, err := h.svc.Counts(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, counts)
}

func (h *Handler) SetStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	tooth, ok := parseTooth(c.Param("tooth"))
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid tooth id")
	}
	var req setStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.SetStatus(c.Request().Context(), id, tooth, req.Status); err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, ToothView{ToothID: tooth, Status: Status(req.Status)})
}

// parseTooth accepts exactly two ASCII digits, the FDI form.
func parseTooth(raw string) (int, bool) {
	if len(raw) != 2 || raw[0] < '0' || raw[0] > '9' || raw[1] < '0' || raw[1] > '9' {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	return n, err == nil
}
