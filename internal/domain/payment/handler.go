package payment

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carelink/carelink/internal/platform/apperr"
	"github.com/carelink/carelink/internal/platform/auth"
	"github.com/carelink/carelink/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	role := auth.RequireRole(auth.RoleAdmin, auth.RoleDoctor, auth.RoleElderly, auth.RoleFamily, auth.RoleSupporter)

	g := api.Group("", role)
	g.GET("/payments", h.List)
	g.GET("/payments/:id", h.Get)
	g.POST("/payments", h.Create)
	g.PATCH("/payments/:id/status", h.UpdateStatus, auth.RequireRole(auth.RoleAdmin))
	g.POST("/payments/:id/refund", h.RequestRefund)
	g.PATCH("/payments/:id/refund", h.UpdateRefund, auth.RequireRole(auth.RoleAdmin))
}

func (h *Handler) Create(c echo.Context) error {
	var p Payment
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Create(c.Request().Context(), &p); err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	params := map[string]string{}
	for _, key := range []string{"payer", "status", "service_kind", "service_id"} {
		if v := c.QueryParam(key); v != "" {
			params[key] = v
		}
	}
	items, total, err := h.svc.Search(c.Request().Context(), params, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

type statusRequest struct {
	Status    string `json:"status"`
	VersionID int    `json:"version_id"`
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.UpdateStatus(c.Request().Context(), id, req.Status, req.VersionID)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, p)
}

type refundRequest struct {
	Amount    int64  `json:"amount"`
	Reason    string `json:"reason,omitempty"`
	VersionID int    `json:"version_id"`
}

func (h *Handler) RequestRefund(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req refundRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.RequestRefund(c.Request().Context(), id, req.Amount, req.Reason, req.VersionID)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) UpdateRefund(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.UpdateRefund(c.Request().Context(), id, req.Status, req.VersionID)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, p)
}
