package summary

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/dentrec/dentrec/internal/platform/apperr"
	"github.com/dentrec/dentrec/pkg/pagination"
)

const maxCardIDs = 100

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/dashboard", h.Dashboard)
	api.GET("/patients/:id/overview", h.Overview)
}

// Dashboard lists patient cards. With ids=<uuid>,<uuid> it returns the cards
// for exactly those patients instead of a page.
func (h *Handler) Dashboard(c echo.Context) error {
	if raw := strings.TrimSpace(c.QueryParam("ids")); raw != "" {
		return h.cardsByID(c, raw)
	}
	p := pagination.FromContext(c)
	query := strings.TrimSpace(c.QueryParam("q"))
	cards, total, err := h.svc.Dashboard(c.Request().Context(), query, p.Limit, p.Offset)
	if err != nil {
		return apperr.HTTPError(err)
	}
	resp := pagination.NewResponse(cards, total, p).WithLinks(c.Request().URL.Path, c.QueryParams())
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) cardsByID(c echo.Context, raw string) error {
	parts := strings.Split(raw, ",")
	if len(parts) > maxCardIDs {
		return echo.NewHTTPError(http.StatusBadRequest, "too many patient ids")
	}
	ids := make([]uuid.UUID, 0, len(parts))
	for _, part := range parts {
		id, err := uuid.Parse(strings.TrimSpace(part))
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id "+strconv.Quote(part))
		}
		ids = append(ids, id)
	}
	cards, err := h.svc.Cards(c.Request().Context(), ids)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"data": cards, "total": len(cards)})
}

func (h *Handler) Overview(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	ov, err := h.svc.Overview(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, ov)
}
