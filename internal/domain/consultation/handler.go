package consultation

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
	role := auth.RequireRole(auth.RoleAdmin, auth.RoleDoctor, auth.RoleElderly, auth.RoleFamily)

	g := api.Group("", role)
	g.GET("/consultations", h.List)
	g.GET("/consultations/:id", h.Get)
	g.POST("/consultations", h.Create)
	g.PATCH("/consultations/:id/status", h.UpdateStatus)
	g.PATCH("/consultations/:id/payment", h.UpdatePayment)
	g.PUT("/consultations/:id/outcome", h.SetOutcome, auth.RequireRole(auth.RoleAdmin, auth.RoleDoctor))
	g.DELETE("/consultations/:id", h.Delete, auth.RequireRole(auth.RoleAdmin))
}

func (h *Handler) Create(c echo.Context) error {
	var cons Consultation
	if err := c.Bind(&cons); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Create(c.Request().Context(), &cons); err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, cons)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	cons, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, cons)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	params := map[string]string{}
	for _, key := range []string{"doctor", "elderly", "status", "mode"} {
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
	Status    string  `json:"status"`
	VersionID int     `json:"version_id"`
	Reason    *string `json:"reason,omitempty"`
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
	cons, err := h.svc.UpdateStatus(c.Request().Context(), id, req.Status, req.VersionID, req.Reason)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, cons)
}

func (h *Handler) UpdatePayment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	cons, err := h.svc.UpdatePayment(c.Request().Context(), id, req.Status, req.VersionID)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, cons)
}

type outcomeRequest struct {
	Outcome   Outcome `json:"outcome"`
	VersionID int     `json:"version_id"`
}

func (h *Handler) SetOutcome(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req outcomeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	cons, err := h.svc.SetOutcome(c.Request().Context(), id, &req.Outcome, req.VersionID)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, cons)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return apperr.HTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
