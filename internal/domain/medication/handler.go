package medication

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
	g.GET("/medication-reminders", h.ListReminders)
	g.GET("/medication-reminders/:id", h.GetReminder)
	g.POST("/medication-reminders", h.CreateReminder)
	g.PUT("/medication-reminders/:id", h.UpdateReminder)
	g.POST("/medication-reminders/:id/deactivate", h.Deactivate)
	g.DELETE("/medication-reminders/:id", h.DeleteReminder, auth.RequireRole(auth.RoleAdmin))
	g.GET("/medication-reminders/:id/logs", h.ListLogs)
	g.POST("/medication-logs", h.RecordLog)
}

func (h *Handler) CreateReminder(c echo.Context) error {
	var m MedicationReminder
	if err := c.Bind(&m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateReminder(c.Request().Context(), &m); err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) GetReminder(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	m, err := h.svc.GetReminder(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) ListReminders(c echo.Context) error {
	pg := pagination.FromContext(c)
	eid, err := uuid.Parse(c.QueryParam("elderly"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "elderly query parameter is required")
	}
	items, total, err := h.svc.ListByElderly(c.Request().Context(), eid, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateReminder(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var m MedicationReminder
	if err := c.Bind(&m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	m.ID = id
	if err := h.svc.UpdateReminder(c.Request().Context(), &m); err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, m)
}

type deactivateRequest struct {
	VersionID int `json:"version_id"`
}

func (h *Handler) Deactivate(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req deactivateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	m, err := h.svc.Deactivate(c.Request().Context(), id, req.VersionID)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) DeleteReminder(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteReminder(c.Request().Context(), id); err != nil {
		return apperr.HTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) RecordLog(c echo.Context) error {
	var l MedicationLog
	if err := c.Bind(&l); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.RecordLog(c.Request().Context(), &l); err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, l)
}

func (h *Handler) ListLogs(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListLogs(c.Request().Context(), id, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
